package sheetmap

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/locvowork/sheetmap/internal/ooxml"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type sampleRecord struct {
	ID        int             `sheetcol:"1"`
	DueDate   time.Time       `sheet:",format=D" sheetcol:"2"`
	TotalCost decimal.Decimal `sheet:",format=C" sheetcol:"3"`
}

func sampleRecords(n int) []sampleRecord {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]sampleRecord, n)
	for i := range out {
		out[i] = sampleRecord{
			ID:        i + 1,
			DueDate:   start.AddDate(0, 0, i),
			TotalCost: decimal.New(int64(1000+i*25), -2),
		}
	}
	return out
}

func openWorkbook(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func readPart(t *testing.T, data []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			require.NoError(t, err)
			defer rc.Close()
			b, err := io.ReadAll(rc)
			require.NoError(t, err)
			return string(b)
		}
	}
	t.Fatalf("part %s not found", name)
	return ""
}

func TestHeaderRowIndex(t *testing.T) {
	tests := []struct {
		title, subtitle bool
		want            int
	}{
		{false, false, 1},
		{true, false, 2},
		{false, true, 2},
		{true, true, 3},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("title=%v,subtitle=%v", tt.title, tt.subtitle), func(t *testing.T) {
			assert.Equal(t, tt.want, HeaderRowIndex(tt.title, tt.subtitle))
		})
	}
}

func TestExportValidation(t *testing.T) {
	records := sampleRecords(1)
	tests := []struct {
		name      string
		spec      *SheetExportSpec[sampleRecord]
		wantField string
	}{
		{"empty worksheet name", &SheetExportSpec[sampleRecord]{Records: records}, "WorksheetName"},
		{"blank worksheet name", &SheetExportSpec[sampleRecord]{WorksheetName: "  \t", Records: records}, "WorksheetName"},
		{"invalid worksheet name", &SheetExportSpec[sampleRecord]{WorksheetName: "a/b", Records: records}, "WorksheetName"},
		{"nil records", &SheetExportSpec[sampleRecord]{WorksheetName: "Data"}, "Records"},
		{"title without text", &SheetExportSpec[sampleRecord]{WorksheetName: "Data", Records: records, RenderTitle: true}, "DocumentTitle"},
		{"subtitle without text", &SheetExportSpec[sampleRecord]{WorksheetName: "Data", Records: records, RenderSubtitle: true}, "DocumentSubtitle"},
		{"unknown column override", &SheetExportSpec[sampleRecord]{WorksheetName: "Data", Records: records, Columns: map[string]ColumnOverride{"Nope": {}}}, "Columns"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CreateSingleSheet(tt.spec)
			var ce *ConfigurationError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.wantField, ce.Field)
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}

func TestExportAcceptsEmptyRecords(t *testing.T) {
	data, err := CreateSingleSheet(&SheetExportSpec[sampleRecord]{WorksheetName: "Empty", Records: []sampleRecord{}})
	require.NoError(t, err)

	rows, err := openWorkbook(t, data).GetRows("Empty")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"ID", "Due Date", "Total Cost"}, rows[0])
}

func TestExportSchemaError(t *testing.T) {
	type nothing struct {
		A string `sheet:"-"`
	}
	_, err := CreateSingleSheet(&SheetExportSpec[nothing]{WorksheetName: "X", Records: []nothing{{}}})
	assert.ErrorIs(t, err, ErrSchema)
}

func TestExportHundredRecordsScenario(t *testing.T) {
	records := sampleRecords(100)
	data, err := CreateSingleSheet(&SheetExportSpec[sampleRecord]{
		WorksheetName: "Sample",
		RenderTitle:   true,
		DocumentTitle: "Sample",
		Records:       records,
	})
	require.NoError(t, err)

	f := openWorkbook(t, data)
	rows, err := f.GetRows("Sample", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 102)
	assert.Equal(t, "Sample", rows[0][0])
	assert.Equal(t, []string{"ID", "Due Date", "Total Cost"}, rows[1])
	for i := 0; i < 100; i++ {
		assert.Equal(t, fmt.Sprint(i+1), rows[i+2][0], "row %d", i+3)
	}

	merged, err := f.GetMergeCells("Sample")
	require.NoError(t, err)
	require.Len(t, merged, 1)
	assert.Equal(t, "A1", merged[0].GetStartAxis())
	assert.Equal(t, "C1", merged[0].GetEndAxis())

	currencyStyle, err := f.GetCellStyle("Sample", "C3")
	require.NoError(t, err)
	dateStyle, err := f.GetCellStyle("Sample", "B3")
	require.NoError(t, err)
	assert.NotEqual(t, currencyStyle, dateStyle)
	for row := 3; row <= 102; row++ {
		got, err := f.GetCellStyle("Sample", fmt.Sprintf("C%d", row))
		require.NoError(t, err)
		assert.Equal(t, currencyStyle, got, "currency style at row %d", row)
		got, err = f.GetCellStyle("Sample", fmt.Sprintf("B%d", row))
		require.NoError(t, err)
		assert.Equal(t, dateStyle, got, "date style at row %d", row)
	}

	pkg, err := ooxml.OpenBytes(data)
	require.NoError(t, err)
	currencyID, currencyMask, ok := pkg.NumberFormat(currencyStyle)
	require.True(t, ok)
	dateID, dateMaskGot, ok := pkg.NumberFormat(dateStyle)
	require.True(t, ok)
	assert.NotEqual(t, currencyID, dateID)
	assert.Equal(t, `"$"#,##0.00`, currencyMask)
	assert.Equal(t, "mm/dd/yyyy", dateMaskGot)
}

func TestExportMultiSheet(t *testing.T) {
	type note struct {
		Text string
	}
	exp := NewExporter()
	data, err := exp.CreateMultiSheet(
		&SheetExportSpec[sampleRecord]{WorksheetName: "Sample", Records: sampleRecords(3)},
		&SheetExportSpec[note]{WorksheetName: "Additional", Records: []note{{"a"}, {"b"}}},
		&SheetExportSpec[sampleRecord]{WorksheetName: "Third", Records: sampleRecords(1)},
	)
	require.NoError(t, err)

	f := openWorkbook(t, data)
	assert.Equal(t, []string{"Sample", "Additional", "Third"}, f.GetSheetList())

	pkg, err := ooxml.OpenBytes(data)
	require.NoError(t, err)
	for i, s := range pkg.Sheets() {
		assert.Equal(t, i+1, s.SheetID)
	}

	s1, err := f.GetCellStyle("Sample", "C2")
	require.NoError(t, err)
	s3, err := f.GetCellStyle("Third", "C2")
	require.NoError(t, err)
	assert.Equal(t, s1, s3, "sheets share one catalogue")

	_, err = exp.CreateMultiSheet(
		&SheetExportSpec[note]{WorksheetName: "Notes", Records: []note{}},
		&SheetExportSpec[note]{WorksheetName: "notes", Records: []note{}},
	)
	var ce *ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "WorksheetName", ce.Field)

	_, err = exp.CreateMultiSheet()
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestExportTitleSubtitleAndFreeze(t *testing.T) {
	data, err := CreateSingleSheet(&SheetExportSpec[sampleRecord]{
		WorksheetName:    "Report",
		RenderTitle:      true,
		DocumentTitle:    "Quarterly",
		RenderSubtitle:   true,
		DocumentSubtitle: "Q1",
		FreezeHeaders:    true,
		Records:          sampleRecords(2),
	})
	require.NoError(t, err)

	rows, err := openWorkbook(t, data).GetRows("Report")
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "Quarterly", rows[0][0])
	assert.Equal(t, "Q1", rows[1][0])
	assert.Equal(t, "ID", rows[2][0])

	sheetXML := readPart(t, data, "xl/worksheets/sheet1.xml")
	assert.Contains(t, sheetXML, `state="frozen"`)
	assert.Contains(t, sheetXML, `ySplit="3"`)
	assert.Contains(t, sheetXML, `topLeftCell="A4"`)
}

func TestExportColumnWidths(t *testing.T) {
	type widths struct {
		Short   string
		Fixed   string  `sheet:",width=25"`
		Amount  float64 `sheet:",format=c"`
		Comment string
	}
	records := []widths{{Short: "a", Fixed: "b", Amount: 1234567.5, Comment: "a fairly long comment value"}}

	data, err := NewExporter(WithDefaultColumnWidth(12)).CreateSingleSheet(&SheetExportSpec[widths]{WorksheetName: "W", Records: records})
	require.NoError(t, err)
	f := openWorkbook(t, data)
	w, err := f.GetColWidth("W", "A")
	require.NoError(t, err)
	assert.Equal(t, 12.0, w)
	w, err = f.GetColWidth("W", "B")
	require.NoError(t, err)
	assert.Equal(t, 25.0, w)

	data, err = CreateSingleSheet(&SheetExportSpec[widths]{WorksheetName: "W", Records: records, AutoSizeColumns: true})
	require.NoError(t, err)
	f = openWorkbook(t, data)

	w, err = f.GetColWidth("W", "A")
	require.NoError(t, err)
	assert.Equal(t, columnWidth(len("Short")+1), w, "bold header is the widest cell")

	w, err = f.GetColWidth("W", "C")
	require.NoError(t, err)
	amount := len("1234567.5")
	assert.Equal(t, columnWidth(amount+3+amount/4), w)

	w, err = f.GetColWidth("W", "D")
	require.NoError(t, err)
	assert.Equal(t, columnWidth(len("a fairly long comment value")), w)
}

func TestColumnWidth(t *testing.T) {
	assert.InDelta(t, 10.7109375, columnWidth(10), 1e-9)
	assert.Equal(t, maxColumnWidth, columnWidth(10000))
}

func TestExportTotalsRow(t *testing.T) {
	type line struct {
		Item  string
		Total float64 `sheet:",format=c,formula=SUM"`
	}
	data, err := CreateSingleSheet(&SheetExportSpec[line]{
		WorksheetName: "Lines",
		Records:       []line{{"a", 1.5}, {"b", 2.25}, {"c", 3}},
	})
	require.NoError(t, err)

	f := openWorkbook(t, data)
	formula, err := f.GetCellFormula("Lines", "B5")
	require.NoError(t, err)
	assert.Equal(t, "SUM(B2:B4)", formula)

	dataStyle, err := f.GetCellStyle("Lines", "B2")
	require.NoError(t, err)
	totalStyle, err := f.GetCellStyle("Lines", "B5")
	require.NoError(t, err)
	assert.Equal(t, dataStyle, totalStyle)

	v, err := f.GetCellValue("Lines", "A5")
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestExportLegacyTextEncoding(t *testing.T) {
	data, err := NewExporter(WithCellEncoding(EncodingLegacyText)).CreateSingleSheet(&SheetExportSpec[sampleRecord]{
		WorksheetName: "Legacy",
		Records:       sampleRecords(1),
	})
	require.NoError(t, err)

	pkg, err := ooxml.OpenBytes(data)
	require.NoError(t, err)
	rows, err := pkg.ReadSheet(pkg.Sheets()[0])
	require.NoError(t, err)
	require.Len(t, rows, 2)

	id, _ := rows[1].Lookup(1)
	due, _ := rows[1].Lookup(2)
	cost, _ := rows[1].Lookup(3)
	assert.Equal(t, ooxml.TypeSharedString, id.Type, "plain numbers become text")
	assert.Equal(t, ooxml.TypeSharedString, due.Type, "dates become short-date text")
	assert.Equal(t, ooxml.TypeNumber, cost.Type, "currency stays numeric")

	text, err := cellText(due, pkg.SharedStrings())
	require.NoError(t, err)
	assert.Equal(t, "1/1/2024", text)

	got, err := ParseWorksheet[sampleRecord](bytes.NewReader(data), 1, true)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].ID)
	assert.True(t, got[0].TotalCost.Equal(decimal.New(1000, -2)))
}

func TestExportToFileAndWriter(t *testing.T) {
	exp := NewExporter()
	spec := &SheetExportSpec[sampleRecord]{WorksheetName: "Sample", Records: sampleRecords(2)}

	var buf bytes.Buffer
	require.NoError(t, exp.WriteSingleSheet(&buf, spec))
	assert.NotZero(t, buf.Len())

	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, exp.ExportToFile(context.Background(), path, spec))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, exp.ExportToFile(ctx, path, spec), context.Canceled)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := NewExporter().WriteCSV(&buf, &SheetExportSpec[sampleRecord]{
		WorksheetName: "Sample",
		RenderTitle:   true,
		DocumentTitle: "Sample",
		Records:       sampleRecords(2),
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"Sample",
		"ID,Due Date,Total Cost",
		"1,01/01/2024,10",
		"2,01/02/2024,10.25",
	}, lines)
}
