package ooxml

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Cell type flags as written in the t attribute.
const (
	TypeNumber       = "n"
	TypeSharedString = "s"
	TypeInlineString = "inlineStr"
	TypeFormulaStr   = "str"
	TypeBool         = "b"
	TypeError        = "e"
	TypeDate         = "d"
)

// Cell is a raw worksheet cell. Value is the unresolved <v> text (a shared
// string index for TypeSharedString) or the inline string for
// TypeInlineString. Formula is set when the cell carries an <f> element.
type Cell struct {
	Col      int
	Type     string
	Value    string
	HasValue bool
	Formula  bool
	Style    int
}

// Row is one <row> element. Cells keeps document order; Count is the number of
// cell elements present, which can be lower than the highest column.
type Row struct {
	Index int
	Cells []Cell
}

// Count returns the number of cell elements on the row.
func (r Row) Count() int { return len(r.Cells) }

// PendingFormulas reports whether every cell on a non-empty row is a formula
// with no cached result, as written by a generator that never calculates.
func (r Row) PendingFormulas() bool {
	if len(r.Cells) == 0 {
		return false
	}
	for _, c := range r.Cells {
		if !c.Formula || c.HasValue {
			return false
		}
	}
	return true
}

// Lookup returns the cell at a 1-based column.
func (r Row) Lookup(col int) (Cell, bool) {
	for _, c := range r.Cells {
		if c.Col == col {
			return c, true
		}
	}
	return Cell{}, false
}

// ReadSheet decodes a worksheet's rows in document order. Rows and cells with
// no reference are numbered after their predecessor.
func (p *Package) ReadSheet(ref SheetRef) ([]Row, error) {
	var ws xmlWorksheet
	if err := p.decodePart(ref.Path, &ws); err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(ws.SheetData.Row))
	prevRow := 0
	for _, xr := range ws.SheetData.Row {
		idx := xr.R
		if idx == 0 {
			idx = prevRow + 1
		}
		prevRow = idx

		row := Row{Index: idx, Cells: make([]Cell, 0, len(xr.C))}
		prevCol := 0
		for _, xc := range xr.C {
			col := prevCol + 1
			if xc.R != "" {
				c, _, err := excelize.CellNameToCoordinates(xc.R)
				if err != nil {
					return nil, &PartError{Part: ref.Path, Err: fmt.Errorf("row %d: %w", idx, err)}
				}
				col = c
			}
			prevCol = col

			cell := Cell{Col: col, Type: xc.T, Formula: xc.F != nil}
			if cell.Type == "" {
				cell.Type = TypeNumber
			}
			if xc.S != nil {
				cell.Style = *xc.S
			}
			switch {
			case cell.Type == TypeInlineString && xc.IS != nil:
				cell.Value, cell.HasValue = xc.IS.text(), true
			case xc.V != nil:
				cell.Value, cell.HasValue = *xc.V, true
			}
			row.Cells = append(row.Cells, cell)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
