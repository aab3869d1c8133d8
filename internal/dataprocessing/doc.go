// Package dataprocessing parses forecast and actual input files into keyed datasets.
//
// Two layouts are accepted and told apart from the header row alone:
//
//	long:  timestamp,group_id,value        one row per observation
//	wide:  timestamp,GroupA,GroupB,...     one row per timestamp, one column per group
//
// A header containing any group identifier synonym (group_id, groupid, group, id)
// is long format; every other header is wide format. Long format columns are
// located by synonym sets for the timestamp (timestamp, datetime, date, time)
// and the value (value, units, amount, quantity).
//
// # Usage
//
//	ds, report, err := dataprocessing.ParseFile("forecast.csv")
//	if err != nil {
//	    // errors.Is(err, apperrors.ErrFileEmpty), ErrNoValidRecords or ErrIO
//	}
//
// # Error Handling
//
// Problems with a single row or cell never fail the parse. The row or cell is
// dropped and a reason is appended to the report, in input order. Only an empty
// file or a file that yields no records at all is an error; the latter carries
// the first skip reasons.
//
// Files ending in .xlsx are read from their first sheet with excelize; everything
// else is read as comma-separated text.
package dataprocessing
