package sheetmap

import (
	"encoding/csv"
	"io"
)

// WriteCSV renders one sheet as CSV: title and subtitle lines when enabled,
// the header line, then one line per record.
func (e *Exporter) WriteCSV(w io.Writer, sheet Sheet) error {
	if sheet == nil {
		return &ConfigurationError{Field: "Sheets", Msg: "nil sheet"}
	}
	p, err := sheet.plan()
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if p.renderTitle {
		if err := cw.Write([]string{p.title}); err != nil {
			return err
		}
	}
	if p.renderSubtitle {
		if err := cw.Write([]string{p.subtitle}); err != nil {
			return err
		}
	}

	record := make([]string, len(p.columns))
	for i, col := range p.columns {
		record[i] = col.DisplayName
	}
	if err := cw.Write(record); err != nil {
		return err
	}

	for r := 0; r < p.records.Len(); r++ {
		rec := p.records.Index(r)
		for i, col := range p.columns {
			record[i] = EncodeValue(col.Value(rec), columnFormat(col, e.cfg.encoding), e.cfg.encoding).String()
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
