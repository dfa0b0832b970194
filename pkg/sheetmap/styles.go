package sheetmap

import (
	"fmt"
	"reflect"

	"github.com/xuri/excelize/v2"
)

// FontRef indexes the fixed font table.
type FontRef int

const (
	FontBody FontRef = iota
	FontTitle
	FontSubtitle
	FontHeader
)

type fontSpec struct {
	size float64
	bold bool
}

var fonts = [...]fontSpec{
	FontBody:     {size: 11},
	FontTitle:    {size: 14, bold: true},
	FontSubtitle: {size: 12, bold: true},
	FontHeader:   {size: 11, bold: true},
}

// StyleEntry is one cell format of the catalogue. Entries compare by value,
// which is how duplicates are detected.
type StyleEntry struct {
	Font         FontRef
	Border       int
	Fill         int
	NumberFormat string
}

// Bold reports whether the entry's font is bold.
func (e StyleEntry) Bold() bool { return fonts[e.Font].bold }

// Fixed catalogue positions.
const (
	StyleBody = iota
	StyleTitle
	StyleSubtitle
	StyleHeader
)

// StyleCatalogue is the ordered, append-only list of cell formats of one
// document. Cells refer to entries by position. After register it is
// read-only.
type StyleCatalogue struct {
	entries []StyleEntry
	index   map[StyleEntry]int
	formats map[FormatCode]int
	ids     []int
}

func newStyleCatalogue() *StyleCatalogue {
	c := &StyleCatalogue{
		index:   make(map[StyleEntry]int),
		formats: make(map[FormatCode]int),
	}
	c.add(StyleEntry{Font: FontBody})
	c.add(StyleEntry{Font: FontTitle})
	c.add(StyleEntry{Font: FontSubtitle})
	c.add(StyleEntry{Font: FontHeader})
	return c
}

// buildStyleCatalogue appends one entry per distinct number format used by
// the given schemas, in first-use order.
func buildStyleCatalogue(enc CellEncoding, schemas ...[]ColumnDescriptor) *StyleCatalogue {
	c := newStyleCatalogue()
	for _, cols := range schemas {
		for _, col := range cols {
			c.addFormat(columnFormat(col, enc))
		}
	}
	return c
}

// columnFormat is the format a column's data cells are written with. Time
// members without a declared format get the date-time mask in native mode.
func columnFormat(col ColumnDescriptor, enc CellEncoding) FormatCode {
	if col.Format.IsZero() && enc == EncodingNative && isTimeType(col.Type) {
		return DateTimeFormat
	}
	return col.Format
}

func isTimeType(t reflect.Type) bool {
	t = indirectType(t)
	return t == timeType || t == dateType || t == timestampType
}

func (c *StyleCatalogue) add(e StyleEntry) int {
	if i, ok := c.index[e]; ok {
		return i
	}
	c.entries = append(c.entries, e)
	i := len(c.entries) - 1
	c.index[e] = i
	return i
}

func (c *StyleCatalogue) addFormat(code FormatCode) int {
	if code.IsZero() {
		return StyleBody
	}
	if i, ok := c.formats[code]; ok {
		return i
	}
	i := c.add(StyleEntry{Font: FontBody, NumberFormat: code.NumberFormat()})
	c.formats[code] = i
	return i
}

// Len returns the number of entries.
func (c *StyleCatalogue) Len() int { return len(c.entries) }

// Entry returns the entry at index i.
func (c *StyleCatalogue) Entry(i int) (StyleEntry, error) {
	if i < 0 || i >= len(c.entries) {
		return StyleEntry{}, fmt.Errorf("sheetmap: style index %d out of range (catalogue has %d entries)", i, len(c.entries))
	}
	return c.entries[i], nil
}

// FormatIndex maps a format to its catalogue position. Every cell that
// carries the format uses this one function.
func (c *StyleCatalogue) FormatIndex(code FormatCode) (int, error) {
	if code.IsZero() {
		return StyleBody, nil
	}
	i, ok := c.formats[code]
	if !ok {
		return 0, fmt.Errorf("sheetmap: format %s is not in the style catalogue", code)
	}
	return i, nil
}

// register creates the workbook styles, one per entry, in catalogue order.
func (c *StyleCatalogue) register(f *excelize.File) error {
	c.ids = make([]int, len(c.entries))
	for i, e := range c.entries {
		font := fonts[e.Font]
		style := &excelize.Style{
			Font: &excelize.Font{Bold: font.bold, Size: font.size},
		}
		if e.NumberFormat != "" {
			mask := e.NumberFormat
			style.CustomNumFmt = &mask
		}
		id, err := f.NewStyle(style)
		if err != nil {
			return fmt.Errorf("sheetmap: register style %d: %w", i, err)
		}
		c.ids[i] = id
	}
	return nil
}

// styleID returns the workbook style id of entry i.
func (c *StyleCatalogue) styleID(i int) (int, error) {
	if i < 0 || i >= len(c.ids) {
		return 0, fmt.Errorf("sheetmap: style index %d out of range (catalogue has %d registered entries)", i, len(c.ids))
	}
	return c.ids[i], nil
}
