package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"portfolioSim/internal/domain"
	"portfolioSim/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements the ports.StateStore interface using SQLite.
// The ledger header, open positions and the trade log live in separate tables;
// trades are append-only and keyed by their ID.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/portfolio_sim.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Open database connection
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000") // WAL mode for better concurrency
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %v: %w", dbPath, err, ports.ErrDBConnection)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close() // Close the connection if ping fails
		err = fmt.Errorf("failed to ping database at '%s': %v: %w", dbPath, err, ports.ErrDBConnection)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Set connection pool settings (important for SQLite)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cfg.Logger.Info(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	repo := &Repository{db: db, logger: cfg.Logger}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "Database schema initialized/verified")

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS ledger_state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		initial_capital REAL NOT NULL,
		capital REAL NOT NULL,
		last_run_date TIMESTAMP NULL
	);

	CREATE TABLE IF NOT EXISTS positions (
		stock TEXT PRIMARY KEY,
		quantity INTEGER NOT NULL,
		entry_price REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS trades (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		date TIMESTAMP NOT NULL,
		stock TEXT NOT NULL,
		type TEXT NOT NULL,
		price REAL NOT NULL,
		quantity INTEGER NOT NULL,
		value REAL NOT NULL,
		profit REAL NOT NULL,
		capital_remaining REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_trades_stock_date ON trades (stock, date);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// --- StateStore Implementation ---

// Load implements ports.StateStore.
// Returns nil, nil if no state has been saved yet.
func (r *Repository) Load(ctx context.Context) (*domain.LedgerState, error) {
	const headerQuery = `SELECT initial_capital, capital, last_run_date FROM ledger_state WHERE id = 1`

	state := &domain.LedgerState{}
	var lastRun sql.NullTime
	err := r.db.QueryRowContext(ctx, headerQuery).Scan(&state.InitialCapital, &state.Capital, &lastRun)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Debug(ctx, "No ledger state stored")
			return nil, nil // Not an error, nothing saved yet
		}
		return nil, fmt.Errorf("failed to query ledger state: %v: %w", err, ports.ErrQueryFailed)
	}
	if lastRun.Valid {
		state.LastRunDate = lastRun.Time
	}

	state.Positions, err = r.loadPositions(ctx)
	if err != nil {
		return nil, err
	}
	state.History, err = r.FindTrades(ctx, "", 0)
	if err != nil {
		return nil, err
	}
	return state, nil
}

func (r *Repository) loadPositions(ctx context.Context) (map[string]domain.Position, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT stock, quantity, entry_price FROM positions`)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %v: %w", err, ports.ErrQueryFailed)
	}
	defer rows.Close()

	positions := make(map[string]domain.Position)
	for rows.Next() {
		var stock string
		var p domain.Position
		if err := rows.Scan(&stock, &p.Quantity, &p.EntryPrice); err != nil {
			return nil, fmt.Errorf("failed to scan position: %v: %w", err, ports.ErrCorruptState)
		}
		positions[stock] = p
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating position rows: %w", err)
	}
	return positions, nil
}

// FindTrades returns stored trades in execution order. An empty stock matches
// every trade; a non-positive limit returns all of them.
func (r *Repository) FindTrades(ctx context.Context, stock string, limit int) ([]domain.TradeRecord, error) {
	query := `
	SELECT id, date, stock, type, price, quantity, value, profit, capital_remaining
	FROM trades`
	var args []interface{}
	if stock != "" {
		query += ` WHERE stock = ?`
		args = append(args, stock)
	}
	query += ` ORDER BY seq ASC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %v: %w", err, ports.ErrQueryFailed)
	}
	defer rows.Close()

	trades := make([]domain.TradeRecord, 0)
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %v: %w", err, ports.ErrCorruptState)
		}
		trades = append(trades, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade rows: %w", err)
	}
	return trades, nil
}

// Save implements ports.StateStore. Trades already stored are left untouched.
// A snapshot holding fewer trades than the table replaces the whole log.
func (r *Repository) Save(ctx context.Context, state domain.LedgerState) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v: %w", err, ports.ErrUpdateFailed)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var lastRun sql.NullTime
	if !state.LastRunDate.IsZero() {
		lastRun = sql.NullTime{Time: state.LastRunDate, Valid: true}
	}
	const upsertHeader = `
	INSERT INTO ledger_state (id, initial_capital, capital, last_run_date) VALUES (1, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET initial_capital = excluded.initial_capital,
		capital = excluded.capital, last_run_date = excluded.last_run_date`
	if _, err = tx.ExecContext(ctx, upsertHeader, state.InitialCapital, state.Capital, lastRun); err != nil {
		return fmt.Errorf("failed to save ledger header: %v: %w", err, ports.ErrUpdateFailed)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM positions`); err != nil {
		return fmt.Errorf("failed to clear positions: %v: %w", err, ports.ErrUpdateFailed)
	}
	for stock, p := range state.Positions {
		if _, err = tx.ExecContext(ctx, `INSERT INTO positions (stock, quantity, entry_price) VALUES (?, ?, ?)`,
			stock, p.Quantity, p.EntryPrice); err != nil {
			return fmt.Errorf("failed to save position %s: %v: %w", stock, err, ports.ErrUpdateFailed)
		}
	}

	var stored int
	if err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM trades`).Scan(&stored); err != nil {
		return fmt.Errorf("failed to count trades: %v: %w", err, ports.ErrQueryFailed)
	}
	if stored > len(state.History) {
		if _, err = tx.ExecContext(ctx, `DELETE FROM trades`); err != nil {
			return fmt.Errorf("failed to clear trades: %v: %w", err, ports.ErrDeleteFailed)
		}
	}

	const insertTrade = `
	INSERT OR IGNORE INTO trades (id, date, stock, type, price, quantity, value, profit, capital_remaining)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, t := range state.History {
		if _, err = tx.ExecContext(ctx, insertTrade,
			t.ID, t.Date, t.Stock, string(t.Type), t.Price, t.Quantity, t.Value, t.Profit, t.CapitalRemaining); err != nil {
			return fmt.Errorf("failed to save trade %s: %v: %w", t.ID, err, ports.ErrUpdateFailed)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ledger state: %v: %w", err, ports.ErrUpdateFailed)
	}
	r.logger.Debug(ctx, "Ledger state saved", map[string]interface{}{"trades": len(state.History), "positions": len(state.Positions)})
	return nil
}

// Clear implements ports.StateStore.
func (r *Repository) Clear(ctx context.Context) error {
	const query = `
	DELETE FROM trades;
	DELETE FROM positions;
	DELETE FROM ledger_state;`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to clear ledger state: %v: %w", err, ports.ErrDeleteFailed)
	}
	r.logger.Info(ctx, "Stored ledger state cleared")
	return nil
}

// --- Helper Scan Functions ---

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanTrade scans a row into a domain.TradeRecord.
func scanTrade(s scanner) (domain.TradeRecord, error) {
	var t domain.TradeRecord
	var tradeType string
	err := s.Scan(&t.ID, &t.Date, &t.Stock, &tradeType, &t.Price, &t.Quantity, &t.Value, &t.Profit, &t.CapitalRemaining)
	if err != nil {
		return domain.TradeRecord{}, err
	}
	t.Type = domain.TradeType(tradeType)
	if !t.Type.Valid() {
		return domain.TradeRecord{}, fmt.Errorf("unknown trade type %q", tradeType)
	}
	return t, nil
}
