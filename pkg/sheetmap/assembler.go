package sheetmap

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

const defaultSheetName = "Sheet1"

// HeaderRowIndex returns the 1-based row of the column header row.
func HeaderRowIndex(renderTitle, renderSubtitle bool) int {
	row := 1
	if renderTitle {
		row++
	}
	if renderSubtitle {
		row++
	}
	return row
}

// build plans every sheet, then renders them into one workbook that shares a
// single style catalogue. Nothing is written unless every sheet plans.
func (e *Exporter) build(sheets []Sheet) (*excelize.File, error) {
	if len(sheets) == 0 {
		return nil, &ConfigurationError{Field: "Sheets", Msg: "at least one sheet is required"}
	}
	plans := make([]*sheetPlan, 0, len(sheets))
	schemas := make([][]ColumnDescriptor, 0, len(sheets))
	seen := make(map[string]bool, len(sheets))
	for _, s := range sheets {
		if s == nil {
			return nil, &ConfigurationError{Field: "Sheets", Msg: "nil sheet"}
		}
		p, err := s.plan()
		if err != nil {
			return nil, err
		}
		key := strings.ToLower(p.name)
		if seen[key] {
			return nil, &ConfigurationError{Sheet: p.name, Field: "WorksheetName", Msg: "duplicate worksheet name"}
		}
		seen[key] = true
		plans = append(plans, p)
		schemas = append(schemas, p.columns)
	}

	cat := buildStyleCatalogue(e.cfg.encoding, schemas...)
	f := excelize.NewFile()
	if err := cat.register(f); err != nil {
		f.Close()
		return nil, err
	}
	for i, p := range plans {
		var err error
		if i == 0 {
			err = f.SetSheetName(defaultSheetName, p.name)
		} else {
			_, err = f.NewSheet(p.name)
		}
		if err == nil {
			err = e.renderSheet(f, p, cat)
		}
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("sheetmap: render sheet %q: %w", p.name, err)
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

type columnStyle struct {
	format  FormatCode
	id      int
	numeric bool
}

func (e *Exporter) renderSheet(f *excelize.File, p *sheetPlan, cat *StyleCatalogue) error {
	sheet := p.name
	cols := p.columns
	lastCol, err := excelize.ColumnNumberToName(len(cols))
	if err != nil {
		return err
	}

	row := 1
	if p.renderTitle {
		if err := writeBanner(f, sheet, row, lastCol, p.title, cat, StyleTitle); err != nil {
			return err
		}
		row++
	}
	if p.renderSubtitle {
		if err := writeBanner(f, sheet, row, lastCol, p.subtitle, cat, StyleSubtitle); err != nil {
			return err
		}
		row++
	}

	headerRow := HeaderRowIndex(p.renderTitle, p.renderSubtitle)
	widths := newWidthTracker(len(cols))
	headerID, err := cat.styleID(StyleHeader)
	if err != nil {
		return err
	}
	for i, col := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		if err := f.SetCellStr(sheet, cell, col.DisplayName); err != nil {
			return err
		}
		widths.observe(i, col.DisplayName, true, false)
	}
	if err := f.SetCellStyle(sheet, fmt.Sprintf("A%d", headerRow), fmt.Sprintf("%s%d", lastCol, headerRow), headerID); err != nil {
		return err
	}

	styles := make([]columnStyle, len(cols))
	for i, col := range cols {
		format := columnFormat(col, e.cfg.encoding)
		idx, err := cat.FormatIndex(format)
		if err != nil {
			return err
		}
		id, err := cat.styleID(idx)
		if err != nil {
			return err
		}
		styles[i] = columnStyle{format: format, id: id, numeric: format.IsNumeric()}
	}

	n := p.records.Len()
	firstData := headerRow + 1
	for r := 0; r < n; r++ {
		rec := p.records.Index(r)
		for i, col := range cols {
			v := EncodeValue(col.Value(rec), styles[i].format, e.cfg.encoding)
			cell, _ := excelize.CoordinatesToCellName(i+1, firstData+r)
			if err := writeCell(f, sheet, cell, v); err != nil {
				return err
			}
			widths.observe(i, v.String(), false, styles[i].numeric && v.Kind == CellNumber)
		}
	}

	if n > 0 {
		lastData := firstData + n - 1
		for i := range cols {
			name, _ := excelize.ColumnNumberToName(i + 1)
			if err := f.SetCellStyle(sheet, fmt.Sprintf("%s%d", name, firstData), fmt.Sprintf("%s%d", name, lastData), styles[i].id); err != nil {
				return err
			}
		}
		if err := writeTotals(f, sheet, cols, styles, firstData, lastData); err != nil {
			return err
		}
	}

	for i, col := range cols {
		name, _ := excelize.ColumnNumberToName(i + 1)
		width := e.cfg.defaultWidth
		switch {
		case p.autoSizeColumns:
			width = widths.width(i, e.cfg.defaultWidth)
		case col.Width > 0:
			width = col.Width
		}
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return err
		}
	}

	if p.freezeHeaders {
		topLeft := fmt.Sprintf("A%d", headerRow+1)
		if err := f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      headerRow,
			TopLeftCell: topLeft,
			ActivePane:  "bottomLeft",
			Selection: []excelize.Selection{
				{SQRef: topLeft, ActiveCell: topLeft, Pane: "bottomLeft"},
			},
		}); err != nil {
			return err
		}
	}

	e.cfg.logger.Debug().
		Str("sheet", sheet).
		Int("columns", len(cols)).
		Int("rows", n).
		Int("header_row", headerRow).
		Msg("sheet rendered")
	return nil
}

// writeBanner writes a title or subtitle row merged across every column.
func writeBanner(f *excelize.File, sheet string, row int, lastCol, text string, cat *StyleCatalogue, style int) error {
	id, err := cat.styleID(style)
	if err != nil {
		return err
	}
	first := fmt.Sprintf("A%d", row)
	last := fmt.Sprintf("%s%d", lastCol, row)
	if err := f.SetCellStr(sheet, first, text); err != nil {
		return err
	}
	if first != last {
		if err := f.MergeCell(sheet, first, last); err != nil {
			return err
		}
	}
	return f.SetCellStyle(sheet, first, last, id)
}

// writeTotals adds one row under the data holding FN(first:last) for every
// column that declares a totals function. Only formula cells are written.
func writeTotals(f *excelize.File, sheet string, cols []ColumnDescriptor, styles []columnStyle, firstData, lastData int) error {
	row := lastData + 1
	for i, col := range cols {
		if col.Formula == "" {
			continue
		}
		name, _ := excelize.ColumnNumberToName(i + 1)
		cell := fmt.Sprintf("%s%d", name, row)
		formula := fmt.Sprintf("%s(%s%d:%s%d)", col.Formula, name, firstData, name, lastData)
		if err := f.SetCellFormula(sheet, cell, formula); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, styles[i].id); err != nil {
			return err
		}
	}
	return nil
}

func writeCell(f *excelize.File, sheet, cell string, v CellValue) error {
	switch v.Kind {
	case CellNumber:
		if v.Decimal != "" {
			return f.SetCellDefault(sheet, cell, v.Decimal)
		}
		bits := v.Bits
		if bits != 32 {
			bits = 64
		}
		return f.SetCellFloat(sheet, cell, v.Number, -1, bits)
	case CellText:
		return f.SetCellStr(sheet, cell, v.Text)
	case CellDateTime:
		serial, ok := TimeToSerial(v.Time)
		if !ok {
			return f.SetCellStr(sheet, cell, v.Time.Format("2006-01-02T15:04:05.999999999Z07:00"))
		}
		return f.SetCellFloat(sheet, cell, serial, -1, 64)
	}
	return nil
}
