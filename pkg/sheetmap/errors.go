package sheetmap

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration    = errors.New("sheetmap: invalid export configuration")
	ErrSchema           = errors.New("sheetmap: invalid record schema")
	ErrDecode           = errors.New("sheetmap: cannot decode cell")
	ErrPackageStructure = errors.New("sheetmap: malformed spreadsheet package")
)

// ConfigurationError reports an export spec that failed validation. Field is
// the name of the offending SheetExportSpec field.
type ConfigurationError struct {
	Sheet string
	Field string
	Msg   string
}

func (e *ConfigurationError) Error() string {
	if e.Sheet != "" {
		return fmt.Sprintf("sheetmap: sheet %q: %s: %s", e.Sheet, e.Field, e.Msg)
	}
	return fmt.Sprintf("sheetmap: %s: %s", e.Field, e.Msg)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// SchemaError reports a record type that cannot be mapped to columns.
type SchemaError struct {
	Type string
	Msg  string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("sheetmap: type %s: %s", e.Type, e.Msg)
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

// DecodeError reports a cell whose text could not be converted into the
// declared member type. Row and Column are 1-based sheet coordinates.
type DecodeError struct {
	Row    int
	Column int
	Field  string
	Value  string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("sheetmap: row %d column %d (%s): cannot decode %q", e.Row, e.Column, e.Field, e.Value)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

func (e *DecodeError) Unwrap() error { return e.Err }

// PackageStructureError reports a document whose container or parts are
// unusable: not a zip, missing parts, a missing sheet, out-of-range indices.
type PackageStructureError struct {
	Part string
	Msg  string
	Err  error
}

func (e *PackageStructureError) Error() string {
	msg := "sheetmap: " + e.Msg
	if e.Part != "" {
		msg = fmt.Sprintf("sheetmap: %s: %s", e.Part, e.Msg)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PackageStructureError) Is(target error) bool { return target == ErrPackageStructure }

func (e *PackageStructureError) Unwrap() error { return e.Err }
