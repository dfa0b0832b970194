package sheetmap

import (
	"fmt"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/locvowork/sheetmap/internal/ooxml"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/type/date"
	"google.golang.org/protobuf/types/known/timestamppb"
)

type status string

type point struct{ X, Y int }

func (p point) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Y) }

func TestEncodeValueNative(t *testing.T) {
	when := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	var nilInt *int
	var nilAny interface{}
	name := "x"

	tests := []struct {
		name string
		in   interface{}
		want CellValue
	}{
		{"nil pointer", nilInt, BlankValue()},
		{"nil interface", &nilAny, BlankValue()},
		{"int", 42, NumberValue(42, 64)},
		{"negative int64", int64(-7), NumberValue(-7, 64)},
		{"large int64", int64(math.MaxInt64), DecimalValue("9223372036854775807")},
		{"large uint64", uint64(math.MaxUint64), DecimalValue("18446744073709551615")},
		{"float32", float32(0.1), NumberValue(float64(float32(0.1)), 32)},
		{"float64", 2.5, NumberValue(2.5, 64)},
		{"decimal", decimal.RequireFromString("12345678901234567890.123"), DecimalValue("12345678901234567890.123")},
		{"time", when, DateTimeValue(when)},
		{"zero time", time.Time{}, BlankValue()},
		{"pre-1900 time", time.Date(1850, 1, 1, 0, 0, 0, 0, time.UTC), TextValue("1850-01-01T00:00:00Z")},
		{"proto date", &date.Date{Year: 2024, Month: 5, Day: 6}, DateTimeValue(time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC))},
		{"partial proto date", &date.Date{Year: 2024}, BlankValue()},
		{"timestamp", timestamppb.New(when), DateTimeValue(when)},
		{"bool", true, TextValue("true")},
		{"string pointer", &name, TextValue("x")},
		{"named string", status("open"), TextValue("open")},
		{"stringer", point{1, 2}, TextValue("(1,2)")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EncodeValue(reflect.ValueOf(tt.in), NoFormat, EncodingNative)
			assert.Equal(t, tt.want.Kind, got.Kind)
			assert.Equal(t, tt.want.String(), got.String())
			if tt.want.Kind == CellDateTime {
				assert.True(t, tt.want.Time.Equal(got.Time))
			}
		})
	}
}

func TestEncodeValueLegacyText(t *testing.T) {
	when := time.Date(2024, 5, 6, 15, 4, 5, 0, time.UTC)

	got := EncodeValue(reflect.ValueOf(12.5), CurrencyFormat, EncodingLegacyText)
	assert.Equal(t, CellNumber, got.Kind, "currency stays numeric")

	got = EncodeValue(reflect.ValueOf(3), FixedFormat(2), EncodingLegacyText)
	assert.Equal(t, CellNumber, got.Kind)

	got = EncodeValue(reflect.ValueOf(42), NoFormat, EncodingLegacyText)
	assert.Equal(t, TextValue("42"), got)

	got = EncodeValue(reflect.ValueOf(when), DateFormat, EncodingLegacyText)
	assert.Equal(t, TextValue("5/6/2024"), got)

	got = EncodeValue(reflect.ValueOf(when), NoFormat, EncodingLegacyText)
	assert.Equal(t, TextValue("5/6/2024 3:04:05 PM"), got)
}

func TestCellText(t *testing.T) {
	sst := []string{"alpha", "beta"}

	text, err := cellText(ooxml.Cell{Type: ooxml.TypeSharedString, Value: "1", HasValue: true}, sst)
	require.NoError(t, err)
	assert.Equal(t, "beta", text)

	_, err = cellText(ooxml.Cell{Type: ooxml.TypeSharedString, Value: "2", HasValue: true}, sst)
	assert.ErrorIs(t, err, ErrPackageStructure)

	_, err = cellText(ooxml.Cell{Type: ooxml.TypeSharedString, Value: "x", HasValue: true}, sst)
	assert.ErrorIs(t, err, ErrPackageStructure)

	text, err = cellText(ooxml.Cell{Type: ooxml.TypeBool, Value: "0", HasValue: true}, sst)
	require.NoError(t, err)
	assert.Equal(t, "FALSE", text)

	text, err = cellText(ooxml.Cell{Type: ooxml.TypeBool, Value: "1", HasValue: true}, sst)
	require.NoError(t, err)
	assert.Equal(t, "TRUE", text)

	text, err = cellText(ooxml.Cell{Type: ooxml.TypeNumber}, sst)
	require.NoError(t, err)
	assert.Empty(t, text)
}

type decodeTarget struct {
	S    string
	I    int
	I8   int8
	U    uint16
	F    float64
	B    bool
	T    time.Time
	D    decimal.Decimal
	PI   *int
	PT   *time.Time
	PD   *date.Date
	TS   *timestamppb.Timestamp
	Kind status
}

func decodeField(t *testing.T, field, text string) (decodeTarget, error) {
	t.Helper()
	var target decodeTarget
	v := reflect.ValueOf(&target).Elem().FieldByName(field)
	require.True(t, v.IsValid(), field)
	err := decodeInto(v, text, false)
	return target, err
}

func TestDecodeInto(t *testing.T) {
	got, err := decodeField(t, "S", "  padded ")
	require.NoError(t, err)
	assert.Equal(t, "  padded ", got.S)

	got, err = decodeField(t, "I", "42")
	require.NoError(t, err)
	assert.Equal(t, 42, got.I)

	got, err = decodeField(t, "I", "4.2E+1")
	require.NoError(t, err)
	assert.Equal(t, 42, got.I)

	_, err = decodeField(t, "I", "4.5")
	assert.Error(t, err)

	_, err = decodeField(t, "I8", "300")
	assert.Error(t, err)

	_, err = decodeField(t, "U", "-1")
	assert.Error(t, err)

	got, err = decodeField(t, "F", "0.1")
	require.NoError(t, err)
	assert.Equal(t, 0.1, got.F)

	got, err = decodeField(t, "B", "TRUE")
	require.NoError(t, err)
	assert.True(t, got.B)

	got, err = decodeField(t, "D", "12345678901234567890.123")
	require.NoError(t, err)
	assert.Equal(t, "12345678901234567890.123", got.D.String())

	got, err = decodeField(t, "PI", "7")
	require.NoError(t, err)
	require.NotNil(t, got.PI)
	assert.Equal(t, 7, *got.PI)

	got, err = decodeField(t, "PI", "")
	require.NoError(t, err)
	assert.Nil(t, got.PI)

	got, err = decodeField(t, "Kind", "closed")
	require.NoError(t, err)
	assert.Equal(t, status("closed"), got.Kind)

	got, err = decodeField(t, "S", "")
	require.NoError(t, err)
	assert.Empty(t, got.S)
}

func TestDecodeIntoEmptyNonNullable(t *testing.T) {
	for _, field := range []string{"I", "F", "B", "T", "D"} {
		_, err := decodeField(t, field, "")
		assert.ErrorIs(t, err, errEmptyValue, field)
	}
}

func TestDecodeIntoDates(t *testing.T) {
	want := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	for _, text := range []string{"2024-03-05", "3/5/2024", "45356", "2024-03-05T00:00:00Z"} {
		got, err := decodeField(t, "T", text)
		require.NoError(t, err, text)
		assert.True(t, want.Equal(got.T), "%s: got %v", text, got.T)
	}

	got, err := decodeField(t, "T", "45356.5")
	require.NoError(t, err)
	assert.Equal(t, want.Add(12*time.Hour), got.T)

	got, err = decodeField(t, "PT", "45356")
	require.NoError(t, err)
	require.NotNil(t, got.PT)
	assert.True(t, want.Equal(*got.PT))

	got, err = decodeField(t, "PD", "45356")
	require.NoError(t, err)
	require.NotNil(t, got.PD)
	assert.Equal(t, int32(2024), got.PD.GetYear())
	assert.Equal(t, int32(3), got.PD.GetMonth())
	assert.Equal(t, int32(5), got.PD.GetDay())

	got, err = decodeField(t, "TS", "2024-03-05")
	require.NoError(t, err)
	assert.True(t, want.Equal(got.TS.AsTime()))

	_, err = decodeField(t, "T", "not a date")
	assert.Error(t, err)
}

func TestDecodable(t *testing.T) {
	assert.True(t, decodable(reflect.TypeOf(time.Time{})))
	assert.True(t, decodable(reflect.TypeOf(&date.Date{})))
	assert.True(t, decodable(reflect.TypeOf(&timestamppb.Timestamp{})))
	assert.True(t, decodable(reflect.TypeOf(decimal.Decimal{})))
	assert.True(t, decodable(reflect.TypeOf(status(""))))
	assert.False(t, decodable(reflect.TypeOf([]string{})))
	assert.False(t, decodable(reflect.TypeOf(map[string]int{})))
}
