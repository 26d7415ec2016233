package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"stocksalgo/internal/models"
)

// SQLiteStore implements TradeStore and CandleStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// Compile-time interface checks.
var (
	_ TradeStore  = (*SQLiteStore)(nil)
	_ CandleStore = (*SQLiteStore)(nil)
)

// NewSQLiteStore creates a new SQLite-backed store at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Mirrored fills; the JSON ledger state is authoritative
	CREATE TABLE IF NOT EXISTS trades (
		id TEXT PRIMARY KEY,
		timestamp DATETIME NOT NULL,
		symbol TEXT NOT NULL,
		side TEXT NOT NULL,
		quantity REAL NOT NULL,
		price REAL NOT NULL,
		total REAL NOT NULL,
		pnl REAL,
		balance_after REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
	CREATE INDEX IF NOT EXISTS idx_trades_timestamp ON trades(timestamp);

	-- Cached OHLCV bars for backtests
	CREATE TABLE IF NOT EXISTS candles (
		symbol TEXT NOT NULL,
		timeframe TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		open REAL NOT NULL,
		high REAL NOT NULL,
		low REAL NOT NULL,
		close REAL NOT NULL,
		volume REAL NOT NULL,
		PRIMARY KEY (symbol, timeframe, timestamp)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// AppendTrade inserts one fill record.
func (s *SQLiteStore) AppendTrade(trade models.Trade) error {
	var pnl sql.NullFloat64
	if trade.PnL != nil {
		pnl = sql.NullFloat64{Float64: *trade.PnL, Valid: true}
	}

	_, err := s.db.Exec(`
		INSERT INTO trades (id, timestamp, symbol, side, quantity, price, total, pnl, balance_after)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		trade.ID, trade.Timestamp, trade.Symbol, string(trade.Side),
		trade.Quantity, trade.Price, trade.Total, pnl, trade.BalanceAfter,
	)
	if err != nil {
		return fmt.Errorf("inserting trade: %w", err)
	}
	return nil
}

// GetTrades queries mirrored trades matching the filter, oldest first.
func (s *SQLiteStore) GetTrades(filter TradeFilter) ([]models.Trade, error) {
	query := "SELECT id, timestamp, symbol, side, quantity, price, total, pnl, balance_after FROM trades"
	var conditions []string
	var args []interface{}

	if filter.Symbol != "" {
		conditions = append(conditions, "symbol = ?")
		args = append(args, filter.Symbol)
	}
	if filter.Side != "" {
		conditions = append(conditions, "side = ?")
		args = append(args, string(filter.Side))
	}
	if !filter.StartDate.IsZero() {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, filter.StartDate)
	}
	if !filter.EndDate.IsZero() {
		conditions = append(conditions, "timestamp <= ?")
		args = append(args, filter.EndDate)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY timestamp ASC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying trades: %w", err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		var t models.Trade
		var side string
		var pnl sql.NullFloat64
		if err := rows.Scan(&t.ID, &t.Timestamp, &t.Symbol, &side, &t.Quantity, &t.Price, &t.Total, &pnl, &t.BalanceAfter); err != nil {
			return nil, fmt.Errorf("scanning trade: %w", err)
		}
		t.Side = models.Side(side)
		if pnl.Valid {
			v := pnl.Float64
			t.PnL = &v
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// SaveBars upserts cached bars for a symbol and timeframe.
func (s *SQLiteStore) SaveBars(symbol, timeframe string, bars []models.Bar) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO candles (symbol, timeframe, timestamp, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.Exec(symbol, timeframe, b.Timestamp, b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			return fmt.Errorf("inserting bar: %w", err)
		}
	}
	return tx.Commit()
}

// GetBars returns cached bars in [from, to], oldest first.
func (s *SQLiteStore) GetBars(symbol, timeframe string, from, to time.Time) ([]models.Bar, error) {
	rows, err := s.db.Query(`
		SELECT timestamp, open, high, low, close, volume FROM candles
		WHERE symbol = ? AND timeframe = ? AND timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC`,
		symbol, timeframe, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("querying bars: %w", err)
	}
	defer rows.Close()

	var bars []models.Bar
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Timestamp, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scanning bar: %w", err)
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
