package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies the conditions an analysis run can raise
type Kind string

const (
	KindFileEmpty      Kind = "file_empty"
	KindNoValidRecords Kind = "no_valid_records"
	KindRowParseSkip   Kind = "row_parse_skip"
	KindIO             Kind = "io_error"
	KindExportFailed   Kind = "export_failed"
)

// Sentinels for errors.Is matching against an *AnalysisError
var (
	ErrFileEmpty      = errors.New("file empty")
	ErrNoValidRecords = errors.New("no valid records")
	ErrRowParseSkip   = errors.New("row skipped")
	ErrIO             = errors.New("io error")
	ErrExportFailed   = errors.New("export failed")
)

// MaxReportedReasons bounds the skip reasons carried by a NoValidRecords error
const MaxReportedReasons = 10

// AnalysisError is a structural failure of one analysis run, tied to a file
type AnalysisError struct {
	Kind    Kind     `json:"kind"`
	File    string   `json:"file"`
	Message string   `json:"message"`
	Reasons []string `json:"reasons,omitempty"`
	Cause   error    `json:"-"`
}

// Error implements the error interface
func (e *AnalysisError) Error() string {
	if e == nil {
		return "unknown analysis error"
	}
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	if len(e.Reasons) > 0 {
		b.WriteString("\n\nFirst errors:\n")
		b.WriteString(strings.Join(e.Reasons, "\n"))
	}
	return b.String()
}

// Unwrap returns the underlying cause
func (e *AnalysisError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is reports whether target is the sentinel for this error's kind
func (e *AnalysisError) Is(target error) bool {
	if e == nil {
		return false
	}
	return target == sentinelFor(e.Kind)
}

func sentinelFor(k Kind) error {
	switch k {
	case KindFileEmpty:
		return ErrFileEmpty
	case KindNoValidRecords:
		return ErrNoValidRecords
	case KindRowParseSkip:
		return ErrRowParseSkip
	case KindIO:
		return ErrIO
	case KindExportFailed:
		return ErrExportFailed
	}
	return nil
}

// NewFileEmptyError reports a file with no header or no data rows
func NewFileEmptyError(file string) *AnalysisError {
	return &AnalysisError{
		Kind:    KindFileEmpty,
		File:    file,
		Message: fmt.Sprintf("CSV file '%s' appears to be empty or contains only headers", file),
	}
}

// NewNoValidRecordsError reports a file whose rows all failed to parse.
// Only the first MaxReportedReasons reasons are kept.
func NewNoValidRecordsError(file string, rows int, reasons []string) *AnalysisError {
	if len(reasons) > MaxReportedReasons {
		reasons = reasons[:MaxReportedReasons]
	}
	kept := make([]string, len(reasons))
	copy(kept, reasons)
	return &AnalysisError{
		Kind:    KindNoValidRecords,
		File:    file,
		Message: fmt.Sprintf("CSV file '%s' has %d rows but 0 were successfully parsed", file, rows),
		Reasons: kept,
	}
}

// NewStructureError reports a header that cannot describe any records
func NewStructureError(file, detail string) *AnalysisError {
	return &AnalysisError{
		Kind:    KindNoValidRecords,
		File:    file,
		Message: fmt.Sprintf("CSV file '%s' %s", file, detail),
	}
}

// NewIOError wraps a read failure with the file name
func NewIOError(file string, cause error) *AnalysisError {
	return &AnalysisError{
		Kind:    KindIO,
		File:    file,
		Message: fmt.Sprintf("Error reading CSV file '%s'", file),
		Cause:   cause,
	}
}

// NewExportError wraps a write failure with the destination name
func NewExportError(file string, cause error) *AnalysisError {
	return &AnalysisError{
		Kind:    KindExportFailed,
		File:    file,
		Message: fmt.Sprintf("Error exporting to '%s'", file),
		Cause:   cause,
	}
}

// KindOf returns the kind of the first AnalysisError in err's chain, or "" if there is none
func KindOf(err error) Kind {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}
