package csvdata

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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
	nameCol  = "Name of Company"
	priceCol = "Holding Value in crores"
)

func TestReadRows(t *testing.T) {
	input := "\ufeffSector,Name of Company,Holding Value in crores\n" +
		"Tech,ACME,\"1,234.5\"\n" +
		"Energy,  BETA ,-\n" +
		"Misc\n"

	rows, err := ReadRows(strings.NewReader(input), nameCol, priceCol)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, 2, rows[0].Row)
	assert.Equal(t, "ACME", rows[0].CompanyName)
	assert.Equal(t, "1,234.5", rows[0].HoldingValue)
	assert.Equal(t, "Tech", rows[0].Fields["Sector"])

	assert.Equal(t, "BETA", rows[1].CompanyName)
	assert.Equal(t, "-", rows[1].HoldingValue)

	// Short record: missing cells are empty.
	assert.Equal(t, "", rows[2].CompanyName)
	assert.Equal(t, "", rows[2].HoldingValue)
}

func TestReadRows_Errors(t *testing.T) {
	_, err := ReadRows(strings.NewReader(""), nameCol, priceCol)
	assert.ErrorIs(t, err, ports.ErrMalformedData)

	_, err = ReadRows(strings.NewReader("Company,Price\nACME,10\n"), nameCol, priceCol)
	assert.ErrorIs(t, err, ports.ErrMalformedData)
}

func TestSource_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "market.csv")
	content := "Name of Company,Holding Value in crores\nACME,100\nBETA,200\nACME,110\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	src, err := New(Config{Path: path, NameColumn: nameCol, PriceColumn: priceCol, Logger: &mockLogger{}})
	require.NoError(t, err)

	snap, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Rows, 3)
	assert.Equal(t, []string{"ACME", "BETA"}, snap.StockList)
}

func TestSource_LoadMissingFile(t *testing.T) {
	src, err := New(Config{Path: filepath.Join(t.TempDir(), "nope.csv"), NameColumn: nameCol, PriceColumn: priceCol, Logger: &mockLogger{}})
	require.NoError(t, err)

	_, err = src.Load(context.Background())
	assert.ErrorIs(t, err, ports.ErrDataSourceUnavailable)
}
