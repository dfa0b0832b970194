package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/locvowork/sheetmap/internal/domain"
	"github.com/locvowork/sheetmap/internal/logger"
	"github.com/locvowork/sheetmap/pkg/sheetmap"
	"github.com/shopspring/decimal"
)

const (
	DefaultSampleRows     = 100
	additionalSampleRows  = 50
	invoiceSheetName      = "Invoices"
	invoiceTemplateSheet  = "invoices"
	sampleSheetName       = "Sample"
	additionalSampleSheet = "Additional"
)

type ExportRequest struct {
	Filter   domain.InvoiceFilter
	Title    string
	Subtitle string
	AutoSize bool
	Freeze   bool
	// Format is "xlsx" (default) or "csv".
	Format string
}

type ImportRequest struct {
	Worksheet     int
	SkipHeaderRow bool
	// SkipRows overrides SkipHeaderRow when set, for documents that carry
	// title rows above the header.
	SkipRows int
	DryRun   bool
}

type ImportResult struct {
	Parsed   int              `json:"parsed"`
	Inserted int64            `json:"inserted"`
	Invoices []domain.Invoice `json:"invoices,omitempty"`
}

type SpreadsheetService interface {
	ExportInvoices(ctx context.Context, req ExportRequest) ([]byte, error)
	ImportInvoices(ctx context.Context, r io.Reader, req ImportRequest) (ImportResult, error)
	SampleWorkbook(ctx context.Context, rows int) ([]byte, error)
}

type spreadsheetService struct {
	repo     domain.InvoiceRepository
	exporter *sheetmap.Exporter
	template *sheetmap.ReportTemplate
}

// NewSpreadsheetService wires the invoice repository to the exporter. tmpl may
// be nil; when it declares an "invoices" sheet, exports use its layout.
func NewSpreadsheetService(repo domain.InvoiceRepository, exporter *sheetmap.Exporter, tmpl *sheetmap.ReportTemplate) SpreadsheetService {
	if exporter == nil {
		exporter = sheetmap.NewExporter()
	}
	return &spreadsheetService{repo: repo, exporter: exporter, template: tmpl}
}

func (s *spreadsheetService) ExportInvoices(ctx context.Context, req ExportRequest) ([]byte, error) {
	invoices, err := s.repo.List(ctx, req.Filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	if invoices == nil {
		invoices = []domain.Invoice{}
	}
	logger.InfoLog(ctx, "Exporting %d invoices as %s", len(invoices), formatOrDefault(req.Format))

	spec := s.invoiceSpec(invoices, req)
	if req.Format == "csv" {
		var buf bytes.Buffer
		if err := s.exporter.WriteCSV(&buf, spec); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return s.exporter.CreateSingleSheet(spec)
}

func (s *spreadsheetService) invoiceSpec(invoices []domain.Invoice, req ExportRequest) *sheetmap.SheetExportSpec[domain.Invoice] {
	spec := &sheetmap.SheetExportSpec[domain.Invoice]{WorksheetName: invoiceSheetName, Records: invoices}
	if s.template != nil {
		if tmpl, ok := s.template.Sheet(invoiceTemplateSheet); ok {
			spec = sheetmap.FromTemplate(tmpl, invoices)
			if spec.WorksheetName == "" {
				spec.WorksheetName = invoiceSheetName
			}
		}
	}
	if req.Title != "" {
		spec.RenderTitle, spec.DocumentTitle = true, req.Title
	}
	if req.Subtitle != "" {
		spec.RenderSubtitle, spec.DocumentSubtitle = true, req.Subtitle
	}
	spec.AutoSizeColumns = spec.AutoSizeColumns || req.AutoSize
	spec.FreezeHeaders = spec.FreezeHeaders || req.Freeze
	return spec
}

func (s *spreadsheetService) ImportInvoices(ctx context.Context, r io.Reader, req ImportRequest) (ImportResult, error) {
	worksheet := req.Worksheet
	if worksheet == 0 {
		worksheet = 1
	}
	opts := []sheetmap.ParseOption{
		sheetmap.WithWorksheet(worksheet),
		sheetmap.WithSkipHeaderRow(req.SkipHeaderRow),
		sheetmap.WithParseLogger(*logger.FromContext(ctx)),
	}
	if req.SkipRows > 0 {
		opts = append(opts, sheetmap.WithSkipRows(req.SkipRows))
	}

	invoices, err := sheetmap.Parse[domain.Invoice](r, opts...)
	if err != nil {
		return ImportResult{}, err
	}
	result := ImportResult{Parsed: len(invoices), Invoices: invoices}
	logger.InfoLog(ctx, "Parsed %d invoices from worksheet %d", len(invoices), worksheet)

	if req.DryRun || len(invoices) == 0 {
		return result, nil
	}
	n, err := s.repo.BulkInsert(ctx, invoices)
	if err != nil {
		return result, fmt.Errorf("failed to store invoices: %w", err)
	}
	result.Inserted = n
	return result, nil
}

// SampleRow is a record of the demonstration workbook.
type SampleRow struct {
	ID        int             `sheetcol:"1"`
	DueDate   time.Time       `sheet:",format=D" sheetcol:"2"`
	TotalCost decimal.Decimal `sheet:",format=C" sheetcol:"3"`
}

// AdditionalRow is a record of the second sheet of the demonstration workbook.
type AdditionalRow struct {
	Code     string  `sheet:"Code"`
	Ratio    float64 `sheet:",format=F3"`
	Approved bool
}

// SampleWorkbook builds the two-sheet demonstration document: "Sample" with
// rows records under a title, and "Additional" with 50 records.
func (s *spreadsheetService) SampleWorkbook(ctx context.Context, rows int) ([]byte, error) {
	if rows <= 0 {
		rows = DefaultSampleRows
	}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sample := make([]SampleRow, rows)
	for i := range sample {
		sample[i] = SampleRow{
			ID:        i + 1,
			DueDate:   start.AddDate(0, 0, i),
			TotalCost: decimal.New(int64(1000+i*125), -2),
		}
	}
	additional := make([]AdditionalRow, additionalSampleRows)
	for i := range additional {
		additional[i] = AdditionalRow{
			Code:     fmt.Sprintf("A-%03d", i+1),
			Ratio:    float64(i) / 7,
			Approved: i%3 == 0,
		}
	}
	logger.DebugLog(ctx, "Building sample workbook with %d + %d rows", rows, len(additional))

	return s.exporter.CreateMultiSheet(
		&sheetmap.SheetExportSpec[SampleRow]{
			WorksheetName: sampleSheetName,
			RenderTitle:   true,
			DocumentTitle: sampleSheetName,
			Records:       sample,
		},
		&sheetmap.SheetExportSpec[AdditionalRow]{
			WorksheetName:   additionalSampleSheet,
			AutoSizeColumns: true,
			Records:         additional,
		},
	)
}

func formatOrDefault(f string) string {
	if f == "" {
		return "xlsx"
	}
	return f
}
