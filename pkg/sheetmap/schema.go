package sheetmap

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/genproto/googleapis/type/date"
	"google.golang.org/protobuf/types/known/timestamppb"
)

const (
	tagSheet       = "sheet"
	tagDisplay     = "display"
	tagSheetFormat = "sheetformat"
	tagSheetIgnore = "sheetignore"
	tagSheetCol    = "sheetcol"
)

// DefaultColumnWidth is used for columns with no explicit width when
// auto-sizing is off.
const DefaultColumnWidth = 10.0

// ColumnDescriptor describes one exported column of a record type.
type ColumnDescriptor struct {
	// Order is the 1-based column position among included members.
	Order       int
	FieldIndex  []int
	FieldName   string
	Type        reflect.Type
	DisplayName string
	Format      FormatCode
	// Width is 0 when no explicit width was declared.
	Width    float64
	Formula  string
	Included bool
}

// Value reads the column's member from record. It returns the zero Value when
// an embedded pointer on the path is nil.
func (c ColumnDescriptor) Value(record reflect.Value) reflect.Value {
	for record.Kind() == reflect.Ptr {
		if record.IsNil() {
			return reflect.Value{}
		}
		record = record.Elem()
	}
	v, err := record.FieldByIndexErr(c.FieldIndex)
	if err != nil {
		return reflect.Value{}
	}
	return v
}

// ColumnOverride replaces tag metadata for one member at runtime. Zero fields
// leave the tag value in place.
type ColumnOverride struct {
	Header  string  `yaml:"header"`
	Format  string  `yaml:"format"`
	Width   float64 `yaml:"width"`
	Ignore  bool    `yaml:"ignore"`
	Formula string  `yaml:"formula"`
}

var totalsFunctions = map[string]bool{
	"SUM": true, "AVERAGE": true, "MIN": true, "MAX": true, "COUNT": true,
}

// Discover derives the ordered column schema of a record type. Pointer types
// are dereferenced. A type with no eligible members yields an empty schema.
func Discover(t reflect.Type) ([]ColumnDescriptor, error) {
	return discoverColumns(t, nil)
}

func discoverColumns(t reflect.Type, overrides map[string]ColumnOverride) ([]ColumnDescriptor, error) {
	t = indirectType(t)
	if t.Kind() != reflect.Struct {
		return nil, &SchemaError{Type: t.String(), Msg: "record type must be a struct"}
	}
	fields := visibleFields(t)
	cols := make([]ColumnDescriptor, 0, len(fields))
	for _, f := range fields {
		tag, err := parseSheetTag(f.Tag.Get(tagSheet))
		if err != nil {
			return nil, &SchemaError{Type: t.String(), Msg: fmt.Sprintf("field %s: %v", f.Name, err)}
		}
		ov, hasOverride := overrides[f.Name]

		if (hasOverride && ov.Ignore) || tag.ignore || hasTag(f, tagSheetIgnore) {
			continue
		}

		display, _ := firstOf(
			when(hasOverride, ov.Header),
			when(true, tag.name),
			lookupTag(f, tagDisplay),
		)
		if display == "" {
			display = humanize(f.Name)
		}

		format, _ := firstOf(
			when(hasOverride, ov.Format),
			when(true, tag.format),
			lookupTag(f, tagSheetFormat),
		)

		width := tag.width
		if hasOverride && ov.Width > 0 {
			width = ov.Width
		}

		formula := tag.formula
		if hasOverride && ov.Formula != "" {
			formula = strings.ToUpper(strings.TrimSpace(ov.Formula))
			if !totalsFunctions[formula] {
				return nil, &SchemaError{Type: t.String(), Msg: fmt.Sprintf("field %s: unsupported totals function %q", f.Name, ov.Formula)}
			}
		}

		cols = append(cols, ColumnDescriptor{
			Order:       len(cols) + 1,
			FieldIndex:  f.Index,
			FieldName:   f.Name,
			Type:        f.Type,
			DisplayName: display,
			Format:      ParseFormatCode(format),
			Width:       width,
			Formula:     formula,
			Included:    true,
		})
	}
	return cols, nil
}

// resolver yields a value when its source declares one.
type resolver func() (string, bool)

func firstOf(rs ...resolver) (string, bool) {
	for _, r := range rs {
		if v, ok := r(); ok {
			return v, true
		}
	}
	return "", false
}

func when(ok bool, v string) resolver {
	return func() (string, bool) {
		return v, ok && v != ""
	}
}

func lookupTag(f reflect.StructField, key string) resolver {
	return func() (string, bool) {
		v, ok := f.Tag.Lookup(key)
		return v, ok && v != ""
	}
}

func hasTag(f reflect.StructField, key string) bool {
	_, ok := f.Tag.Lookup(key)
	return ok
}

type sheetTag struct {
	name    string
	format  string
	width   float64
	formula string
	ignore  bool
}

// parseSheetTag reads `sheet:"Name,format=...,width=...,formula=...,ignore"`.
// Custom masks may themselves contain commas, so a piece that does not start
// a known option is joined back onto the previous one.
func parseSheetTag(tag string) (sheetTag, error) {
	var st sheetTag
	if tag == "-" {
		st.ignore = true
		return st, nil
	}
	if tag == "" {
		return st, nil
	}
	parts := strings.Split(tag, ",")
	st.name = strings.TrimSpace(parts[0])

	var opts []string
	for _, p := range parts[1:] {
		if isTagOption(p) || len(opts) == 0 {
			opts = append(opts, p)
			continue
		}
		opts[len(opts)-1] += "," + p
	}

	for _, opt := range opts {
		key, val, _ := strings.Cut(opt, "=")
		switch strings.TrimSpace(key) {
		case "ignore":
			st.ignore = true
		case "format":
			st.format = val
		case "width":
			w, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
			if err != nil || w <= 0 {
				return st, fmt.Errorf("invalid width %q", val)
			}
			st.width = w
		case "formula":
			fn := strings.ToUpper(strings.TrimSpace(val))
			if !totalsFunctions[fn] {
				return st, fmt.Errorf("unsupported totals function %q", val)
			}
			st.formula = fn
		case "":
		default:
			return st, fmt.Errorf("unknown option %q", opt)
		}
	}
	return st, nil
}

func isTagOption(p string) bool {
	p = strings.TrimSpace(p)
	if p == "ignore" {
		return true
	}
	for _, prefix := range []string{"format=", "width=", "formula="} {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

// visibleFields lists exported members in declaration order, flattening
// untagged embedded structs in place.
func visibleFields(t reflect.Type) []reflect.StructField {
	var out []reflect.StructField
	var walk func(t reflect.Type, index []int)
	walk = func(t reflect.Type, index []int) {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			idx := append(append([]int(nil), index...), i)
			if f.Anonymous && (f.IsExported() || f.Type.Kind() != reflect.Ptr) {
				ft := indirectType(f.Type)
				if ft.Kind() == reflect.Struct && !isScalarStruct(ft) && f.Tag.Get(tagSheet) == "" {
					walk(ft, idx)
					continue
				}
			}
			if !f.IsExported() {
				continue
			}
			f.Index = idx
			out = append(out, f)
		}
	}
	walk(t, nil)
	return out
}

var (
	timeType      = reflect.TypeOf(time.Time{})
	decimalType   = reflect.TypeOf(decimal.Decimal{})
	dateType      = reflect.TypeOf(date.Date{})
	timestampType = reflect.TypeOf(timestamppb.Timestamp{})
)

// isScalarStruct reports struct types that map to a single cell.
func isScalarStruct(t reflect.Type) bool {
	switch t {
	case timeType, decimalType, dateType, timestampType:
		return true
	}
	return false
}

func indirectType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

// humanize inserts spaces at case and letter/digit boundaries:
// "SomeProp" -> "Some Prop", "HTTPServer" -> "HTTP Server",
// "Line2Total" -> "Line 2 Total".
func humanize(name string) string {
	rs := []rune(name)
	var b strings.Builder
	b.Grow(len(name) + 4)
	for i, r := range rs {
		if i > 0 && wordBoundary(rs, i) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func wordBoundary(rs []rune, i int) bool {
	prev, cur := rs[i-1], rs[i]
	switch {
	case isUpperASCII(prev) && isUpperASCII(cur) && i+1 < len(rs) && isLowerASCII(rs[i+1]):
		return true
	case !isUpperASCII(prev) && isUpperASCII(cur):
		return true
	case isLetterASCII(prev) && !isLetterASCII(cur):
		return true
	}
	return false
}

func isUpperASCII(r rune) bool  { return r >= 'A' && r <= 'Z' }
func isLowerASCII(r rune) bool  { return r >= 'a' && r <= 'z' }
func isLetterASCII(r rune) bool { return isUpperASCII(r) || isLowerASCII(r) }

// ImportColumn binds a 1-based sheet column to a record member.
type ImportColumn struct {
	Index      int
	FieldIndex []int
	FieldName  string
	Type       reflect.Type
}

// DiscoverImportColumns lists the members carrying a `sheetcol` index. It
// fails when there are none, when an index is malformed, or when a member type
// has no cell decoding.
func DiscoverImportColumns(t reflect.Type) ([]ImportColumn, error) {
	t = indirectType(t)
	if t.Kind() != reflect.Struct {
		return nil, &SchemaError{Type: t.String(), Msg: "record type must be a struct"}
	}
	var cols []ImportColumn
	for _, f := range visibleFields(t) {
		raw, ok := f.Tag.Lookup(tagSheetCol)
		if !ok {
			continue
		}
		idx, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || idx < 1 {
			return nil, &SchemaError{Type: t.String(), Msg: fmt.Sprintf("field %s: invalid column index %q", f.Name, raw)}
		}
		if !decodable(f.Type) {
			return nil, &SchemaError{Type: t.String(), Msg: fmt.Sprintf("field %s: cannot decode cells into %s", f.Name, f.Type)}
		}
		cols = append(cols, ImportColumn{Index: idx, FieldIndex: f.Index, FieldName: f.Name, Type: f.Type})
	}
	if len(cols) == 0 {
		return nil, &SchemaError{Type: t.String(), Msg: "no members declare a sheetcol import column"}
	}
	return cols, nil
}
