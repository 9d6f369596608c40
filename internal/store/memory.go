package store

import (
	"context"
	"sync"

	"londonstock/internal/models"
)

// MemoryStore implements TradeStore with an in-process map. It mirrors the
// in-memory database mode used for development and is the store of choice
// in tests.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[string]struct{}
	trades map[string][]models.Trade // keyed by normalized ticker
	closed bool
}

// NewMemoryStore creates an empty in-memory trade store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[string]struct{}),
		trades: make(map[string][]models.Trade),
	}
}

// Insert stores a copy of the trade.
func (s *MemoryStore) Insert(ctx context.Context, trade *models.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if _, exists := s.byID[trade.ID]; exists {
		return ErrDuplicateID
	}

	s.byID[trade.ID] = struct{}{}
	s.trades[trade.TickerSymbol] = append(s.trades[trade.TickerSymbol], *trade)
	return nil
}

// ByTicker returns all trades for a normalized ticker, in insertion order.
func (s *MemoryStore) ByTicker(ctx context.Context, ticker string) ([]models.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	out := make([]models.Trade, len(s.trades[ticker]))
	copy(out, s.trades[ticker])
	return out, nil
}

// GroupedByTicker returns a copy of the full ledger keyed by ticker.
func (s *MemoryStore) GroupedByTicker(ctx context.Context) (map[string][]models.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	grouped := make(map[string][]models.Trade, len(s.trades))
	for ticker, trades := range s.trades {
		cp := make([]models.Trade, len(trades))
		copy(cp, trades)
		grouped[ticker] = cp
	}
	return grouped, nil
}

// Close marks the store closed; further operations fail.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
