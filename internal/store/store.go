// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"errors"

	"londonstock/internal/models"
)

var (
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store is closed")
	// ErrDuplicateID is returned when inserting a trade whose ID already exists.
	ErrDuplicateID = errors.New("trade id already exists")
)

// TradeStore defines the interface for trade persistence. The ledger is
// append-only: there are no update or delete operations.
type TradeStore interface {
	// Insert persists a single trade. The trade must already carry its
	// identity, normalized ticker, and timestamp.
	Insert(ctx context.Context, trade *models.Trade) error

	// ByTicker returns all trades for a normalized ticker symbol, in
	// insertion order. A ticker with no trades yields an empty slice.
	ByTicker(ctx context.Context, ticker string) ([]models.Trade, error)

	// GroupedByTicker returns all trades keyed by normalized ticker.
	GroupedByTicker(ctx context.Context) (map[string][]models.Trade, error)

	// Lifecycle
	Close() error
}
