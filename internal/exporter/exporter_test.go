package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleTable() Table {
	return Table{
		Sheet:   "Items",
		Headers: []string{"ID", "Name", "Price"},
		Records: [][]string{
			{"1", "HBM Memory", "18.5 $/GB"},
			{"7", "Gallium", "1.5M KRW/kg"},
			{"9", "Quote, \"escaped\"", ""},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatCSV, false},
		{"csv", FormatCSV, false},
		{" XLSX ", FormatXLSX, false},
		{"pdf", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, ".xlsx", FormatXLSX.Extension())
	assert.Equal(t, "text/csv; charset=utf-8", FormatCSV.ContentType())
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, sampleTable()))

	data := buf.Bytes()
	require.True(t, bytes.HasPrefix(data, utf8BOM), "missing BOM")

	records, err := csv.NewReader(bytes.NewReader(data[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"ID", "Name", "Price"}, records[0])
	assert.Equal(t, []string{"9", "Quote, \"escaped\"", ""}, records[3])
}

func TestWriteCSV_NoHeaderNoBOM(t *testing.T) {
	var buf bytes.Buffer
	table := Table{Records: [][]string{{"a", "b"}}}
	require.NoError(t, WriteCSV(&buf, table, WriteOptions{}))
	assert.Equal(t, "a,b\n", buf.String())
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatXLSX, sampleTable()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Items"}, f.GetSheetList())
	rows, err := f.GetRows("Items")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"ID", "Name", "Price"}, rows[0])
	assert.Equal(t, []string{"7", "Gallium", "1.5M KRW/kg"}, rows[2])
}

func TestWriteXLSX_DefaultSheet(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, Table{Headers: []string{"only"}}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{DefaultSheet}, f.GetSheetList())
}

func TestWrite_UnknownFormat(t *testing.T) {
	assert.Error(t, Write(&bytes.Buffer{}, Format("pdf"), sampleTable()))
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "items.csv")
	require.NoError(t, WriteFile(path, FormatCSV, sampleTable()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "HBM Memory")
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "18.5", FormatNumber(18.5))
	assert.Equal(t, "-42", FormatNumber(-42))
	assert.Equal(t, "7", FormatInt(7))
}
