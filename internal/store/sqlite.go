// Package store provides data persistence implementations.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"londonstock/internal/models"
)

// SQLiteStore implements TradeStore using SQLite.
//
// Prices and share counts are stored as TEXT in their decimal string form
// so that values round-trip exactly, without binary floating point drift.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based trade store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for concurrent access
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Trades table: the append-only ledger
	CREATE TABLE IF NOT EXISTS trades (
		id TEXT PRIMARY KEY,
		ticker_symbol TEXT NOT NULL,
		price TEXT NOT NULL,
		shares TEXT NOT NULL,
		broker_id TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Create indexes for performance
	CREATE INDEX IF NOT EXISTS idx_trades_ticker ON trades(ticker_symbol);
	CREATE INDEX IF NOT EXISTS idx_trades_ticker_timestamp ON trades(ticker_symbol, timestamp);
	CREATE INDEX IF NOT EXISTS idx_trades_timestamp ON trades(timestamp);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Insert persists a trade to the database.
func (s *SQLiteStore) Insert(ctx context.Context, trade *models.Trade) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trades (id, ticker_symbol, price, shares, broker_id, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`, trade.ID, trade.TickerSymbol, trade.Price.String(), trade.Shares.String(), trade.BrokerID, trade.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert trade: %w", err)
	}
	return nil
}

// ByTicker retrieves all trades for a normalized ticker symbol.
func (s *SQLiteStore) ByTicker(ctx context.Context, ticker string) ([]models.Trade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ticker_symbol, price, shares, broker_id, timestamp
		FROM trades
		WHERE ticker_symbol = ?
		ORDER BY timestamp ASC, created_at ASC
	`, ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	trades, err := scanTrades(rows)
	if err != nil {
		return nil, err
	}
	if trades == nil {
		trades = []models.Trade{}
	}
	return trades, nil
}

// GroupedByTicker retrieves all trades keyed by ticker symbol.
func (s *SQLiteStore) GroupedByTicker(ctx context.Context) (map[string][]models.Trade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ticker_symbol, price, shares, broker_id, timestamp
		FROM trades
		ORDER BY ticker_symbol ASC, timestamp ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	trades, err := scanTrades(rows)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]models.Trade)
	for _, t := range trades {
		grouped[t.TickerSymbol] = append(grouped[t.TickerSymbol], t)
	}
	return grouped, nil
}

func scanTrades(rows *sql.Rows) ([]models.Trade, error) {
	var trades []models.Trade
	for rows.Next() {
		var t models.Trade
		var price, shares string
		if err := rows.Scan(&t.ID, &t.TickerSymbol, &price, &shares, &t.BrokerID, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		p, err := decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stored price %q: %w", price, err)
		}
		sh, err := decimal.NewFromString(shares)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stored shares %q: %w", shares, err)
		}
		t.Price = p
		t.Shares = sh
		trades = append(trades, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades: %w", err)
	}

	return trades, nil
}
