package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolioSim/internal/analytics"
	"portfolioSim/internal/app"
	"portfolioSim/internal/domain"
	"portfolioSim/internal/ports"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

type fakeSimulation struct {
	runErr     error
	runs       int
	resets     int
	capital    float64
	trades     []domain.TradeRecord
	report     analytics.Report
	chart      analytics.ChartData
	catchUp    []app.RunSummary
	capitalErr error
}

func (f *fakeSimulation) RunSimulation(ctx context.Context) (app.RunSummary, error) {
	f.runs++
	if f.runErr != nil {
		return app.RunSummary{}, f.runErr
	}
	return app.RunSummary{Rows: 3, Executed: 2, Skipped: 1}, nil
}

func (f *fakeSimulation) CatchUp(ctx context.Context) ([]app.RunSummary, error) {
	return f.catchUp, f.runErr
}

func (f *fakeSimulation) Reset(ctx context.Context) error {
	f.resets++
	return nil
}

func (f *fakeSimulation) SetCapital(ctx context.Context, capital float64) error {
	if capital <= 0 {
		return fmt.Errorf("capital must be positive: %w", ports.ErrInvalidRequest)
	}
	f.capital = capital
	return f.capitalErr
}

func (f *fakeSimulation) Metrics() analytics.Report      { return f.report }
func (f *fakeSimulation) Trades() []domain.TradeRecord   { return f.trades }
func (f *fakeSimulation) ChartData() analytics.ChartData { return f.chart }

func (f *fakeSimulation) Positions() map[string]domain.Position {
	return map[string]domain.Position{"ACME": {Quantity: 10, EntryPrice: 100}}
}

func newTestServer(t *testing.T, sim *fakeSimulation, staticDir string) http.Handler {
	t.Helper()
	s, err := New(Config{Port: 5000, Logger: &mockLogger{}, Simulation: sim, DefaultCapital: 300000, StaticDir: staticDir, DevMode: true})
	require.NoError(t, err)
	return s.Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]interface{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Config{Logger: &mockLogger{}})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, &fakeSimulation{}, "")
	rec, body := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestMetrics(t *testing.T) {
	sim := &fakeSimulation{report: analytics.Report{TotalTrades: 4, ProfitableTrades: 1, SuccessRate: 25, FinalCapital: 1100, ProfitLoss: 100, WinLossRatio: analytics.Unbounded()}}
	h := newTestServer(t, sim, "")

	rec, body := do(t, h, http.MethodGet, "/api/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, 4.0, body["total_trades"])
	assert.Equal(t, 25.0, body["success_rate"])
	assert.Equal(t, 100.0, body["profit_loss"])
	assert.Equal(t, "Infinity", body["win_loss_ratio"])
	for _, key := range []string{"profitable_trades", "final_capital", "max_drawdown", "sharpe_ratio"} {
		assert.Contains(t, body, key)
	}
}

func TestTrades(t *testing.T) {
	h := newTestServer(t, &fakeSimulation{}, "")
	_, body := do(t, h, http.MethodGet, "/api/trades", "")
	assert.Equal(t, []interface{}{}, body["trades"])

	sim := &fakeSimulation{trades: []domain.TradeRecord{{ID: "t1", Stock: "ACME", Type: domain.Buy, Price: 100, Quantity: 10, Value: 1000, Date: time.Date(2024, 3, 4, 9, 15, 0, 0, time.UTC)}}}
	h = newTestServer(t, sim, "")
	_, body = do(t, h, http.MethodGet, "/api/trades", "")
	trades := body["trades"].([]interface{})
	require.Len(t, trades, 1)
	assert.Equal(t, "ACME", trades[0].(map[string]interface{})["stock"])
}

func TestPositionsAndChartData(t *testing.T) {
	sim := &fakeSimulation{chart: analytics.ChartData{Dates: []string{"2024-03-04"}, Capital: []float64{900}, Profits: []float64{0}, TradeCounts: []int{1}}}
	h := newTestServer(t, sim, "")

	_, body := do(t, h, http.MethodGet, "/api/positions", "")
	assert.Contains(t, body["positions"], "ACME")

	_, body = do(t, h, http.MethodGet, "/api/chart_data", "")
	assert.Equal(t, []interface{}{"2024-03-04"}, body["dates"])
	assert.Equal(t, []interface{}{900.0}, body["capital"])
	assert.Equal(t, []interface{}{1.0}, body["trade_counts"])
}

func TestStartSimulation(t *testing.T) {
	sim := &fakeSimulation{}
	h := newTestServer(t, sim, "")

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		rec, body := do(t, h, method, "/api/start_simulation", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "success", body["status"])
		assert.Equal(t, 2.0, body["summary"].(map[string]interface{})["executed"])
	}
	assert.Equal(t, 2, sim.runs)

	sim.runErr = fmt.Errorf("load: %w", ports.ErrDataSourceUnavailable)
	rec, body := do(t, h, http.MethodPost, "/api/start_simulation", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "error", body["status"])
	assert.Contains(t, body["error"], "market data source is unavailable")
}

func TestCatchUp(t *testing.T) {
	sim := &fakeSimulation{catchUp: []app.RunSummary{{Rows: 1}, {Rows: 1}}}
	h := newTestServer(t, sim, "")

	rec, body := do(t, h, http.MethodPost, "/api/catch_up", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["days"], 2)

	rec, _ = do(t, h, http.MethodGet, "/api/catch_up", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestResetSimulation(t *testing.T) {
	sim := &fakeSimulation{}
	h := newTestServer(t, sim, "")

	rec, body := do(t, h, http.MethodGet, "/api/reset_simulation", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Simulation reset successfully", body["message"])
	assert.Equal(t, 1, sim.resets)
}

func TestSetCapital(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantCode    int
		wantCapital float64
	}{
		{name: "explicit capital", body: `{"capital": 50000}`, wantCode: http.StatusOK, wantCapital: 50000},
		{name: "missing capital uses default", body: `{}`, wantCode: http.StatusOK, wantCapital: 300000},
		{name: "empty body uses default", body: "", wantCode: http.StatusOK, wantCapital: 300000},
		{name: "invalid JSON", body: `{"capital":`, wantCode: http.StatusBadRequest},
		{name: "non-positive capital", body: `{"capital": -5}`, wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := &fakeSimulation{}
			h := newTestServer(t, sim, "")
			rec, body := do(t, h, http.MethodPost, "/api/set_capital", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, "success", body["status"])
				assert.Equal(t, tt.wantCapital, sim.capital)
			} else {
				assert.Equal(t, "error", body["status"])
			}
		})
	}
}

func TestSetCapital_InternalError(t *testing.T) {
	sim := &fakeSimulation{capitalErr: errors.New("disk full")}
	h := newTestServer(t, sim, "")
	rec, _ := do(t, h, http.MethodPost, "/api/set_capital", `{"capital": 1000}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCORS(t *testing.T) {
	h := newTestServer(t, &fakeSimulation{}, "")
	req := httptest.NewRequest(http.MethodOptions, "/api/set_capital", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>dashboard</h1>"), 0o644))
	h := newTestServer(t, &fakeSimulation{}, dir)

	rec, _ := do(t, h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dashboard")

	// Missing directory disables the dashboard without failing.
	h = newTestServer(t, &fakeSimulation{}, filepath.Join(dir, "missing"))
	rec, _ = do(t, h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
