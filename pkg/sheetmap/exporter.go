package sheetmap

import (
	"bytes"
	"context"
	"io"
)

// Exporter renders sheets into xlsx documents. It holds no per-call state and
// is safe for concurrent use.
type Exporter struct {
	cfg *exportConfig
}

// NewExporter creates an Exporter with the given options.
func NewExporter(opts ...ExportOption) *Exporter {
	cfg := defaultExportConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Exporter{cfg: cfg}
}

// Encoding returns the cell encoding mode of the exporter.
func (e *Exporter) Encoding() CellEncoding { return e.cfg.encoding }

// CreateSingleSheet renders one sheet to an in-memory document.
func (e *Exporter) CreateSingleSheet(sheet Sheet) ([]byte, error) {
	return e.CreateMultiSheet(sheet)
}

// CreateMultiSheet renders sheets, in order, to an in-memory document.
func (e *Exporter) CreateMultiSheet(sheets ...Sheet) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := e.WriteMultiSheet(buf, sheets...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteSingleSheet renders one sheet into w.
func (e *Exporter) WriteSingleSheet(w io.Writer, sheet Sheet) error {
	return e.WriteMultiSheet(w, sheet)
}

// WriteMultiSheet renders sheets into w. The document is fully built before
// the first byte is written.
func (e *Exporter) WriteMultiSheet(w io.Writer, sheets ...Sheet) error {
	f, err := e.build(sheets)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// ExportToFile renders sheets to a file at path.
func (e *Exporter) ExportToFile(ctx context.Context, path string, sheets ...Sheet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := e.build(sheets)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.SaveAs(path)
}

var defaultExporter = NewExporter()

// CreateSingleSheet renders spec with native cell encoding.
func CreateSingleSheet[T any](spec *SheetExportSpec[T]) ([]byte, error) {
	return defaultExporter.CreateSingleSheet(spec)
}

// CreateMultiSheet renders sheets with native cell encoding.
func CreateMultiSheet(sheets ...Sheet) ([]byte, error) {
	return defaultExporter.CreateMultiSheet(sheets...)
}
