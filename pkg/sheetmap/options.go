package sheetmap

import (
	"github.com/rs/zerolog"
)

// ExportOption configures an Exporter.
type ExportOption func(*exportConfig)

type exportConfig struct {
	encoding     CellEncoding
	defaultWidth float64
	logger       zerolog.Logger
}

func defaultExportConfig() *exportConfig {
	return &exportConfig{
		encoding:     EncodingNative,
		defaultWidth: DefaultColumnWidth,
		logger:       zerolog.Nop(),
	}
}

// WithCellEncoding selects native or legacy text cell encoding.
// Default is EncodingNative.
func WithCellEncoding(enc CellEncoding) ExportOption {
	return func(c *exportConfig) {
		c.encoding = enc
	}
}

// WithDefaultColumnWidth sets the width of columns that declare none when
// auto-sizing is off.
func WithDefaultColumnWidth(w float64) ExportOption {
	return func(c *exportConfig) {
		if w > 0 {
			c.defaultWidth = w
		}
	}
}

// WithLogger sets the logger used for debug output. Default discards.
func WithLogger(l zerolog.Logger) ExportOption {
	return func(c *exportConfig) {
		c.logger = l
	}
}

// ParseOption configures Parse.
type ParseOption func(*parseConfig)

type parseConfig struct {
	worksheet int
	skipRows  int
	logger    zerolog.Logger
}

func defaultParseConfig() *parseConfig {
	return &parseConfig{
		worksheet: 1,
		logger:    zerolog.Nop(),
	}
}

// WithWorksheet selects the 1-based sheet ordinal to read. Default is 1.
func WithWorksheet(n int) ParseOption {
	return func(c *parseConfig) {
		c.worksheet = n
	}
}

// WithSkipHeaderRow skips the first row element of the sheet.
func WithSkipHeaderRow(skip bool) ParseOption {
	return func(c *parseConfig) {
		c.skipRows = 0
		if skip {
			c.skipRows = 1
		}
	}
}

// WithSkipRows skips the first n row elements, e.g. HeaderRowIndex(true, false)
// for a document exported with a title row.
func WithSkipRows(n int) ParseOption {
	return func(c *parseConfig) {
		if n >= 0 {
			c.skipRows = n
		}
	}
}

// WithParseLogger sets the logger that reports skipped rows at debug level.
func WithParseLogger(l zerolog.Logger) ParseOption {
	return func(c *parseConfig) {
		c.logger = l
	}
}
