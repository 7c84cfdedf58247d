package excel

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"portfolioSim/internal/ports"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

const (
	dumpSheet  = "1. Data Dump"
	listSheet  = "3. List of 57 High Conviction S"
	rulesSheet = "4. Entry & Exit Points"
)

func writeWorkbook(t *testing.T, sheets map[string][][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for name, rows := range sheets {
		_, err := f.NewSheet(name)
		require.NoError(t, err)
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			r := row
			require.NoError(t, f.SetSheetRow(name, cell, &r))
		}
	}
	require.NoError(t, f.DeleteSheet("Sheet1"))

	path := filepath.Join(t.TempDir(), "workbook.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func testConfig(path string) Config {
	return Config{
		Path:           path,
		DataDumpSheet:  dumpSheet,
		StockListSheet: listSheet,
		EntryExitSheet: rulesSheet,
		NameColumn:     "Name of Company",
		PriceColumn:    "Holding Value in crores",
		Logger:         &mockLogger{},
	}
}

func TestSource_Load(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{
		dumpSheet: {
			{"Name of Company", "Holding Value in crores", "Sector"},
			{"ACME", 1234.5, "Tech"},
			{"BETA", "-", "Energy"},
			{"", 99},
		},
		listSheet: {
			{"Name of Company"},
			{"ACME"},
			{"BETA"},
		},
		rulesSheet: {
			{"Rule", "Threshold"},
			{"Entry", "5%"},
			{"Exit", "10%"},
		},
	})

	src, err := New(testConfig(path))
	require.NoError(t, err)

	snap, err := src.Load(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Rows, 3)
	assert.Equal(t, "ACME", snap.Rows[0].CompanyName)
	assert.Equal(t, "1234.5", snap.Rows[0].HoldingValue)
	assert.Equal(t, "Tech", snap.Rows[0].Fields["Sector"])
	assert.Equal(t, 2, snap.Rows[0].Row)
	assert.Equal(t, "-", snap.Rows[1].HoldingValue)
	assert.Equal(t, "", snap.Rows[2].CompanyName)

	assert.Equal(t, []string{"ACME", "BETA"}, snap.StockList)
	require.Len(t, snap.Rules.Rows, 2)
	assert.Equal(t, "Entry", snap.Rules.Rows[0]["Rule"])
	assert.Equal(t, "10%", snap.Rules.Rows[1]["Threshold"])
}

func TestSource_LoadMissingFile(t *testing.T) {
	src, err := New(testConfig(filepath.Join(t.TempDir(), "missing.xlsx")))
	require.NoError(t, err)

	_, err = src.Load(context.Background())
	assert.ErrorIs(t, err, ports.ErrDataSourceUnavailable)
}

func TestSource_LoadMissingSheet(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{
		dumpSheet: {{"Name of Company", "Holding Value in crores"}, {"ACME", 10}},
	})
	src, err := New(testConfig(path))
	require.NoError(t, err)

	_, err = src.Load(context.Background())
	assert.ErrorIs(t, err, ports.ErrDataSourceUnavailable)
}

func TestSource_LoadMissingColumn(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{
		dumpSheet:  {{"Company", "Price"}, {"ACME", 10}},
		listSheet:  {{"Name of Company"}},
		rulesSheet: {{"Rule"}},
	})
	src, err := New(testConfig(path))
	require.NoError(t, err)

	_, err = src.Load(context.Background())
	assert.ErrorIs(t, err, ports.ErrMalformedData)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{Path: "x.xlsx"})
	assert.Error(t, err)

	cfg := testConfig("")
	_, err = New(cfg)
	assert.ErrorIs(t, err, ports.ErrConfigurationError)
}
