package sheetmap

import (
	"encoding"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/locvowork/sheetmap/internal/ooxml"
	"github.com/shopspring/decimal"
	"google.golang.org/genproto/googleapis/type/date"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// CellKind tags the variant held by a CellValue.
type CellKind int

const (
	CellBlank CellKind = iota
	CellNumber
	CellText
	CellDateTime
)

// CellValue is the encoded form of one member value.
type CellValue struct {
	Kind CellKind
	// Number and Bits carry binary floats; Decimal carries numbers that must
	// keep their exact digits (large integers, decimals).
	Number  float64
	Bits    int
	Decimal string
	Text    string
	Time    time.Time
}

func BlankValue() CellValue { return CellValue{} }

func NumberValue(f float64, bits int) CellValue {
	return CellValue{Kind: CellNumber, Number: f, Bits: bits}
}

func DecimalValue(s string) CellValue { return CellValue{Kind: CellNumber, Decimal: s} }

func TextValue(s string) CellValue { return CellValue{Kind: CellText, Text: s} }

func DateTimeValue(t time.Time) CellValue { return CellValue{Kind: CellDateTime, Time: t} }

// String renders the value the way it reads in a cell. It is used for CSV
// output and column auto-sizing.
func (v CellValue) String() string {
	switch v.Kind {
	case CellNumber:
		if v.Decimal != "" {
			return v.Decimal
		}
		bits := v.Bits
		if bits != 32 {
			bits = 64
		}
		return strconv.FormatFloat(v.Number, 'f', -1, bits)
	case CellText:
		return v.Text
	case CellDateTime:
		h, m, s := v.Time.Clock()
		if h == 0 && m == 0 && s == 0 {
			return v.Time.Format("01/02/2006")
		}
		return v.Time.Format("01/02/2006 15:04:05")
	}
	return ""
}

// CellEncoding selects how member values become cells.
type CellEncoding int

const (
	// EncodingNative writes numbers and dates as numeric cells.
	EncodingNative CellEncoding = iota
	// EncodingLegacyText writes everything as text except members with a
	// currency or fixed-point format, and renders dates as short-date text.
	EncodingLegacyText
)

// ParseCellEncoding maps "native" and "legacy" (case-insensitive) to a mode.
func ParseCellEncoding(s string) (CellEncoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "native":
		return EncodingNative, nil
	case "legacy", "legacy_text", "text":
		return EncodingLegacyText, nil
	}
	return EncodingNative, fmt.Errorf("sheetmap: unknown cell encoding %q", s)
}

func (e CellEncoding) String() string {
	if e == EncodingLegacyText {
		return "legacy"
	}
	return "native"
}

const (
	maxExactFloatInt = 1 << 53

	legacyDateLayout     = "1/2/2006"
	legacyDateTimeLayout = "1/2/2006 3:04:05 PM"
)

var (
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
	stringerType        = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
)

// EncodeValue converts a member value into a cell value.
func EncodeValue(v reflect.Value, format FormatCode, enc CellEncoding) CellValue {
	for v.IsValid() && (v.Kind() == reflect.Interface || v.Kind() == reflect.Ptr) {
		if v.IsNil() {
			return BlankValue()
		}
		if v.Kind() == reflect.Ptr && v.CanInterface() {
			switch p := v.Interface().(type) {
			case *date.Date:
				if p.GetYear() == 0 || p.GetMonth() == 0 || p.GetDay() == 0 {
					return BlankValue()
				}
				return encodeTime(time.Date(int(p.GetYear()), time.Month(p.GetMonth()), int(p.GetDay()), 0, 0, 0, 0, time.UTC), format, enc)
			case *timestamppb.Timestamp:
				return encodeTime(p.AsTime(), format, enc)
			}
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return BlankValue()
	}

	switch v.Type() {
	case timeType:
		return encodeTime(v.Interface().(time.Time), format, enc)
	case decimalType:
		d := v.Interface().(decimal.Decimal)
		return encodeNumber(DecimalValue(d.String()), format, enc)
	}

	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i := v.Int()
		if i > maxExactFloatInt || i < -maxExactFloatInt {
			return encodeNumber(DecimalValue(strconv.FormatInt(i, 10)), format, enc)
		}
		return encodeNumber(NumberValue(float64(i), 64), format, enc)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := v.Uint()
		if u > maxExactFloatInt {
			return encodeNumber(DecimalValue(strconv.FormatUint(u, 10)), format, enc)
		}
		return encodeNumber(NumberValue(float64(u), 64), format, enc)
	case reflect.Float32:
		return encodeNumber(NumberValue(v.Float(), 32), format, enc)
	case reflect.Float64:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return TextValue(strconv.FormatFloat(f, 'g', -1, 64))
		}
		return encodeNumber(NumberValue(f, 64), format, enc)
	case reflect.Bool:
		return TextValue(strconv.FormatBool(v.Bool()))
	case reflect.String:
		return TextValue(v.String())
	}

	if v.Type().Implements(stringerType) && v.CanInterface() {
		return TextValue(v.Interface().(fmt.Stringer).String())
	}
	if v.CanInterface() {
		return TextValue(fmt.Sprint(v.Interface()))
	}
	return BlankValue()
}

func encodeNumber(n CellValue, format FormatCode, enc CellEncoding) CellValue {
	if enc == EncodingLegacyText && !format.IsNumeric() {
		return TextValue(n.String())
	}
	return n
}

func encodeTime(t time.Time, format FormatCode, enc CellEncoding) CellValue {
	if t.IsZero() {
		return BlankValue()
	}
	t = t.UTC()
	if enc == EncodingLegacyText {
		if format.Kind == FormatNone || format.Kind == FormatDateTime {
			return TextValue(t.Format(legacyDateTimeLayout))
		}
		return TextValue(t.Format(legacyDateLayout))
	}
	if _, ok := TimeToSerial(t); !ok {
		return TextValue(t.Format(time.RFC3339Nano))
	}
	return DateTimeValue(t)
}

// cellText resolves the text of a raw cell: shared-string indices go through
// the table and boolean flags become TRUE or FALSE.
func cellText(c ooxml.Cell, sst []string) (string, error) {
	if !c.HasValue {
		return "", nil
	}
	switch c.Type {
	case ooxml.TypeSharedString:
		idx, err := strconv.Atoi(strings.TrimSpace(c.Value))
		if err != nil || idx < 0 || idx >= len(sst) {
			return "", &PackageStructureError{
				Part: "sharedStrings",
				Msg:  fmt.Sprintf("shared string index %q out of range (table has %d entries)", c.Value, len(sst)),
			}
		}
		return sst[idx], nil
	case ooxml.TypeBool:
		if strings.TrimSpace(c.Value) == "0" {
			return "FALSE", nil
		}
		return "TRUE", nil
	}
	return c.Value, nil
}

var errEmptyValue = errors.New("empty cell for a non-nullable member")

// decodable reports whether cells can be decoded into t.
func decodable(t reflect.Type) bool {
	if t.Kind() == reflect.Ptr {
		if t.Elem() == dateType || t.Elem() == timestampType {
			return true
		}
		t = t.Elem()
	}
	switch t {
	case timeType, decimalType:
		return true
	case dateType, timestampType:
		return false
	}
	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return true
	}
	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// decodeInto sets dst from resolved cell text. Empty text leaves pointers nil
// and strings empty, and fails for every other type.
func decodeInto(dst reflect.Value, text string, date1904 bool) error {
	if text == "" {
		switch dst.Kind() {
		case reflect.Ptr:
			dst.Set(reflect.Zero(dst.Type()))
			return nil
		case reflect.String:
			dst.SetString("")
			return nil
		}
		return errEmptyValue
	}

	if dst.Kind() == reflect.Ptr {
		switch dst.Type().Elem() {
		case dateType:
			t, err := parseTime(text, date1904)
			if err != nil {
				return err
			}
			dst.Set(reflect.ValueOf(&date.Date{Year: int32(t.Year()), Month: int32(t.Month()), Day: int32(t.Day())}))
			return nil
		case timestampType:
			t, err := parseTime(text, date1904)
			if err != nil {
				return err
			}
			dst.Set(reflect.ValueOf(timestamppb.New(t)))
			return nil
		}
		elem := reflect.New(dst.Type().Elem())
		if err := decodeInto(elem.Elem(), text, date1904); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}

	switch dst.Type() {
	case timeType:
		t, err := parseTime(text, date1904)
		if err != nil {
			return err
		}
		dst.Set(reflect.ValueOf(t))
		return nil
	case decimalType:
		d, err := decimal.NewFromString(strings.TrimSpace(text))
		if err != nil {
			return err
		}
		dst.Set(reflect.ValueOf(d))
		return nil
	}

	if dst.CanAddr() && dst.Addr().Type().Implements(textUnmarshalerType) {
		return dst.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(text))
	}

	switch dst.Kind() {
	case reflect.String:
		dst.SetString(text)
	case reflect.Bool:
		b, err := parseBool(text)
		if err != nil {
			return err
		}
		dst.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := parseInt(text)
		if err != nil {
			return err
		}
		if dst.OverflowInt(i) {
			return fmt.Errorf("%d overflows %s", i, dst.Type())
		}
		dst.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := parseUint(text)
		if err != nil {
			return err
		}
		if dst.OverflowUint(u) {
			return fmt.Errorf("%d overflows %s", u, dst.Type())
		}
		dst.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(strings.TrimSpace(text), dst.Type().Bits())
		if err != nil {
			return err
		}
		dst.SetFloat(f)
	default:
		return fmt.Errorf("unsupported member type %s", dst.Type())
	}
	return nil
}

func parseInt(text string) (int64, error) {
	text = strings.TrimSpace(text)
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("%s is not an integer", text)
	}
	return int64(f), nil
}

func parseUint(text string) (uint64, error) {
	text = strings.TrimSpace(text)
	if u, err := strconv.ParseUint(text, 10, 64); err == nil {
		return u, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || f < 0 || f > math.MaxUint64 {
		return 0, fmt.Errorf("%s is not an unsigned integer", text)
	}
	return uint64(f), nil
}

var boolValues = map[string]bool{
	"true": true, "t": true, "yes": true, "y": true, "1": true, "on": true, "x": true,
	"false": false, "f": false, "no": false, "n": false, "0": false, "off": false,
}

func parseBool(text string) (bool, error) {
	b, ok := boolValues[strings.ToLower(strings.TrimSpace(text))]
	if !ok {
		return false, fmt.Errorf("%q is not a boolean", text)
	}
	return b, nil
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	legacyDateTimeLayout,
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	legacyDateLayout,
	"2006/01/02",
	"02-Jan-2006",
	"Jan 2, 2006",
}

// parseTime tries calendar layouts first and falls back to a date serial.
func parseTime(text string, date1904 bool) (time.Time, error) {
	text = strings.TrimSpace(text)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, nil
		}
	}
	serial, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is neither a date nor a date serial", text)
	}
	return SerialToTime(serial, date1904)
}
