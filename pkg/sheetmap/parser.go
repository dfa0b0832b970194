package sheetmap

import (
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/locvowork/sheetmap/internal/ooxml"
)

// Parse reads records of type T from an xlsx document. T must be a struct or
// a pointer to one, with at least one member tagged `sheetcol:"N"`. By default
// the first sheet is read and no row is skipped.
//
// Rows with no cells, or with fewer cells than the highest declared column,
// are skipped. A declared column missing from an otherwise long enough row
// leaves its member at the zero value.
func Parse[T any](r io.Reader, opts ...ParseOption) ([]T, error) {
	cfg := defaultParseConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	t := reflect.TypeOf((*T)(nil)).Elem()
	base, isPtr := t, false
	if t.Kind() == reflect.Ptr {
		base, isPtr = t.Elem(), true
	}
	if base.Kind() != reflect.Struct {
		return nil, &SchemaError{Type: t.String(), Msg: "record type must be a struct or a pointer to one"}
	}
	cols, err := DiscoverImportColumns(base)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, &PackageStructureError{Msg: "nil document reader"}
	}

	pkg, err := ooxml.Open(r)
	if err != nil {
		return nil, packageError(err)
	}
	sheets := pkg.Sheets()
	if cfg.worksheet < 1 || cfg.worksheet > len(sheets) {
		return nil, &PackageStructureError{
			Part: "workbook",
			Msg:  fmt.Sprintf("workbook does not have sheet %d (it has %d)", cfg.worksheet, len(sheets)),
		}
	}
	ref := sheets[cfg.worksheet-1]
	rows, err := pkg.ReadSheet(ref)
	if err != nil {
		return nil, packageError(err)
	}

	minCells := 0
	for _, c := range cols {
		if c.Index > minCells {
			minCells = c.Index
		}
	}
	sst := pkg.SharedStrings()
	styleCount := pkg.StyleCount()
	date1904 := pkg.Date1904()

	out := make([]T, 0, len(rows))
	for i, row := range rows {
		if i < cfg.skipRows {
			continue
		}
		if row.Count() == 0 || row.Count() < minCells {
			cfg.logger.Debug().
				Str("sheet", ref.Name).
				Int("row", row.Index).
				Int("cells", row.Count()).
				Int("required", minCells).
				Msg("skipping short row")
			continue
		}
		if row.PendingFormulas() {
			cfg.logger.Debug().
				Str("sheet", ref.Name).
				Int("row", row.Index).
				Msg("skipping uncalculated formula row")
			continue
		}
		if styleCount >= 0 {
			for _, c := range row.Cells {
				if c.Style < 0 || c.Style >= styleCount {
					return nil, &PackageStructureError{
						Part: "styles",
						Msg:  fmt.Sprintf("row %d column %d: style index %d out of range (%d formats)", row.Index, c.Col, c.Style, styleCount),
					}
				}
			}
		}

		rec := reflect.New(base).Elem()
		for _, col := range cols {
			cell, ok := row.Lookup(col.Index)
			if !ok {
				continue
			}
			text, err := cellText(cell, sst)
			if err != nil {
				return nil, err
			}
			field, err := fieldByIndexAlloc(rec, col.FieldIndex)
			if err != nil {
				return nil, &DecodeError{Row: row.Index, Column: col.Index, Field: col.FieldName, Value: text, Err: err}
			}
			if err := decodeInto(field, text, date1904); err != nil {
				return nil, &DecodeError{Row: row.Index, Column: col.Index, Field: col.FieldName, Value: text, Err: err}
			}
		}
		if isPtr {
			out = append(out, rec.Addr().Interface().(T))
		} else {
			out = append(out, rec.Interface().(T))
		}
	}
	return out, nil
}

// ParseWorksheet reads records from the given 1-based sheet, optionally
// skipping its first row.
func ParseWorksheet[T any](r io.Reader, worksheet int, skipHeaderRow bool) ([]T, error) {
	return Parse[T](r, WithWorksheet(worksheet), WithSkipHeaderRow(skipHeaderRow))
}

// fieldByIndexAlloc walks index from v, allocating nil embedded pointers.
func fieldByIndexAlloc(v reflect.Value, index []int) (reflect.Value, error) {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Ptr {
			if v.IsNil() {
				if !v.CanSet() {
					return reflect.Value{}, fmt.Errorf("cannot allocate embedded %s", v.Type())
				}
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v, nil
}

func packageError(err error) error {
	var pe *ooxml.PartError
	if errors.As(err, &pe) {
		msg := "cannot read part"
		if errors.Is(err, ooxml.ErrNotFound) {
			msg = "missing part"
		}
		return &PackageStructureError{Part: pe.Part, Msg: msg, Err: pe.Err}
	}
	return &PackageStructureError{Msg: "cannot read document", Err: err}
}
