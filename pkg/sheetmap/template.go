package sheetmap

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// ReportTemplate declares sheet layouts in YAML. Records are bound at runtime
// with FromTemplate.
type ReportTemplate struct {
	Sheets []SheetTemplate `yaml:"sheets"`
}

// SheetTemplate is the YAML form of a SheetExportSpec without its records.
type SheetTemplate struct {
	ID            string           `yaml:"id"`
	Name          string           `yaml:"name"`
	Title         string           `yaml:"title"`
	Subtitle      string           `yaml:"subtitle"`
	AutoSize      bool             `yaml:"auto_size"`
	FreezeHeaders bool             `yaml:"freeze_headers"`
	Columns       []ColumnTemplate `yaml:"columns"`
}

// ColumnTemplate overrides one member, addressed by its Go field name.
type ColumnTemplate struct {
	FieldName string  `yaml:"field_name"`
	Header    string  `yaml:"header"`
	Format    string  `yaml:"format"`
	Width     float64 `yaml:"width"`
	Formula   string  `yaml:"formula"`
	Ignore    bool    `yaml:"ignore"`
}

// ParseReportTemplate decodes a YAML template.
func ParseReportTemplate(data []byte) (*ReportTemplate, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("sheetmap: yaml template is empty")
	}
	var tmpl ReportTemplate
	if err := yaml.UnmarshalStrict(data, &tmpl); err != nil {
		return nil, fmt.Errorf("sheetmap: decode yaml template: %w", err)
	}
	for i, s := range tmpl.Sheets {
		if s.ID == "" {
			return nil, fmt.Errorf("sheetmap: yaml template: sheet %d has no id", i+1)
		}
		for _, c := range s.Columns {
			if c.FieldName == "" {
				return nil, fmt.Errorf("sheetmap: yaml template: sheet %q has a column without field_name", s.ID)
			}
		}
	}
	return &tmpl, nil
}

// LoadReportTemplate reads and decodes a YAML template file.
func LoadReportTemplate(path string) (*ReportTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sheetmap: read yaml template: %w", err)
	}
	return ParseReportTemplate(data)
}

// Sheet returns the sheet template with the given id.
func (t *ReportTemplate) Sheet(id string) (SheetTemplate, bool) {
	for _, s := range t.Sheets {
		if s.ID == id {
			return s, true
		}
	}
	return SheetTemplate{}, false
}

// Overrides returns the column templates keyed by field name.
func (s SheetTemplate) Overrides() map[string]ColumnOverride {
	if len(s.Columns) == 0 {
		return nil
	}
	out := make(map[string]ColumnOverride, len(s.Columns))
	for _, c := range s.Columns {
		out[c.FieldName] = ColumnOverride{
			Header:  c.Header,
			Format:  c.Format,
			Width:   c.Width,
			Ignore:  c.Ignore,
			Formula: c.Formula,
		}
	}
	return out
}

// FromTemplate binds records to a sheet template. A non-empty title or
// subtitle turns on its row.
func FromTemplate[T any](tmpl SheetTemplate, records []T) *SheetExportSpec[T] {
	return &SheetExportSpec[T]{
		WorksheetName:    tmpl.Name,
		Records:          records,
		RenderTitle:      tmpl.Title != "",
		DocumentTitle:    tmpl.Title,
		RenderSubtitle:   tmpl.Subtitle != "",
		DocumentSubtitle: tmpl.Subtitle,
		AutoSizeColumns:  tmpl.AutoSize,
		FreezeHeaders:    tmpl.FreezeHeaders,
		Columns:          tmpl.Overrides(),
	}
}
