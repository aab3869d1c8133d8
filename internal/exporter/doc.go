// Package exporter serializes matched records.
//
// CSV exports start with the header
//
//	Timestamp,GroupId,Forecast,Actual,OffsetUnits,OffsetPercent,OffsetPercentAbs
//
// followed by one line per record in the order given. Timestamps are written as
// yyyy-MM-dd HH:mm:ss and numbers as the shortest decimal that reads back to the
// same float64, independent of locale. The destination is created or truncated.
//
// Workbook exports (ExportXLSX) carry the same rows on a Records sheet and the
// aggregate figures on a Summary sheet.
package exporter
