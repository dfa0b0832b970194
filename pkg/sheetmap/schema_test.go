package sheetmap

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Audit struct {
	CreatedBy string
	UpdatedAt time.Time
}

type taggedRecord struct {
	Name      string    `sheet:"Full Name"`
	DueDate   time.Time `display:"Due" sheetformat:"D"`
	Both      string    `sheet:"Explicit,format=d" display:"Legacy" sheetformat:"c"`
	TotalCost float64   `sheet:",format=c,formula=sum"`
	Ratio     float64   `sheet:",format=#,##0.000,width=12.5"`
	Skipped   string    `sheet:"-"`
	Legacy    string    `sheetignore:""`
	Dropped   string    `sheet:",ignore"`

	HTTPServer string
	Line2Total int
	hidden     int
	Audit
}

func TestDiscover(t *testing.T) {
	cols, err := Discover(reflect.TypeOf(taggedRecord{}))
	require.NoError(t, err)

	var names []string
	for i, c := range cols {
		assert.Equal(t, i+1, c.Order, "order of %s", c.FieldName)
		assert.True(t, c.Included)
		names = append(names, c.DisplayName)
	}
	assert.Equal(t, []string{
		"Full Name", "Due", "Explicit", "Total Cost", "Ratio",
		"HTTP Server", "Line 2 Total", "Created By", "Updated At",
	}, names)

	byField := make(map[string]ColumnDescriptor)
	for _, c := range cols {
		byField[c.FieldName] = c
	}
	assert.Equal(t, DateFormat, byField["DueDate"].Format)
	assert.Equal(t, DateFormat, byField["Both"].Format, "explicit format wins over legacy annotation")
	assert.Equal(t, CurrencyFormat, byField["TotalCost"].Format)
	assert.Equal(t, "SUM", byField["TotalCost"].Formula)
	assert.Equal(t, FormatCode{Kind: FormatCustom, Mask: "#,##0.000"}, byField["Ratio"].Format)
	assert.Equal(t, 12.5, byField["Ratio"].Width)
	assert.Zero(t, byField["Name"].Width)
	assert.Equal(t, []int{11, 0}, byField["CreatedBy"].FieldIndex)
}

func TestDiscoverPointerAndAccessor(t *testing.T) {
	cols, err := Discover(reflect.TypeOf(&taggedRecord{}))
	require.NoError(t, err)
	require.NotEmpty(t, cols)

	rec := &taggedRecord{Name: "Ada", Audit: Audit{CreatedBy: "ops"}}
	assert.Equal(t, "Ada", cols[0].Value(reflect.ValueOf(rec)).Interface())
	assert.False(t, cols[0].Value(reflect.ValueOf((*taggedRecord)(nil))).IsValid())
}

func TestDiscoverOverrides(t *testing.T) {
	cols, err := discoverColumns(reflect.TypeOf(taggedRecord{}), map[string]ColumnOverride{
		"Name":      {Header: "Customer", Width: 30},
		"DueDate":   {Format: "dt"},
		"Ratio":     {Ignore: true},
		"Skipped":   {Header: "still skipped"},
		"TotalCost": {Formula: "max"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Customer", cols[0].DisplayName)
	assert.Equal(t, 30.0, cols[0].Width)
	assert.Equal(t, DateTimeFormat, cols[1].Format)
	assert.Equal(t, "MAX", cols[3].Formula)
	for _, c := range cols {
		assert.NotEqual(t, "Ratio", c.FieldName)
		assert.NotEqual(t, "Skipped", c.FieldName)
	}
}

func TestDiscoverEmptyAndInvalid(t *testing.T) {
	type onlyHidden struct {
		A string `sheet:"-"`
		b int
	}
	cols, err := Discover(reflect.TypeOf(onlyHidden{}))
	require.NoError(t, err)
	assert.Empty(t, cols)

	_, err = Discover(reflect.TypeOf(42))
	assert.ErrorIs(t, err, ErrSchema)

	type badWidth struct {
		A string `sheet:",width=wide"`
	}
	_, err = Discover(reflect.TypeOf(badWidth{}))
	assert.ErrorIs(t, err, ErrSchema)

	type badFormula struct {
		A float64 `sheet:",formula=MEDIAN"`
	}
	_, err = Discover(reflect.TypeOf(badFormula{}))
	assert.ErrorIs(t, err, ErrSchema)
}

func TestHumanize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Name", "Name"},
		{"SomeProp", "Some Prop"},
		{"HTTPServer", "HTTP Server"},
		{"ID", "ID"},
		{"UserID", "User ID"},
		{"Line2Total", "Line 2 Total"},
		{"Address2", "Address 2"},
		{"X", "X"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, humanize(tt.in))
		})
	}
}

func TestDiscoverImportColumns(t *testing.T) {
	type person struct {
		Name  string `sheetcol:"1"`
		Age   int    `sheetcol:"2"`
		Notes string
	}
	cols, err := DiscoverImportColumns(reflect.TypeOf(person{}))
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, 1, cols[0].Index)
	assert.Equal(t, "Age", cols[1].FieldName)

	t.Run("none declared", func(t *testing.T) {
		type plain struct{ Name string }
		_, err := DiscoverImportColumns(reflect.TypeOf(plain{}))
		var se *SchemaError
		require.ErrorAs(t, err, &se)
		assert.Contains(t, se.Type, "plain")
	})

	t.Run("bad index", func(t *testing.T) {
		type bad struct {
			Name string `sheetcol:"0"`
		}
		_, err := DiscoverImportColumns(reflect.TypeOf(bad{}))
		assert.ErrorIs(t, err, ErrSchema)
	})

	t.Run("unsupported type", func(t *testing.T) {
		type bad struct {
			Tags []string `sheetcol:"1"`
		}
		_, err := DiscoverImportColumns(reflect.TypeOf(bad{}))
		assert.ErrorIs(t, err, ErrSchema)
	})
}
