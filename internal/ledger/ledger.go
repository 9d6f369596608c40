// Package ledger implements the append-only trade ledger service.
package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"londonstock/internal/errors"
	"londonstock/internal/models"
	"londonstock/internal/store"
)

const (
	maxTickerLen = 10
	maxBrokerLen = 50
)

// Ledger records trades into a TradeStore, assigning identity and
// timestamps at insertion time.
type Ledger struct {
	store  store.TradeStore
	logger zerolog.Logger
}

// New creates a Ledger backed by the given store.
func New(s store.TradeStore, logger zerolog.Logger) *Ledger {
	return &Ledger{store: s, logger: logger}
}

// NormalizeTicker trims and upper-cases a ticker symbol. Normalization is
// idempotent, so stored tickers and query tickers compare equal regardless
// of submitted case.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// Record validates and persists a trade attributed to brokerID, which must
// be the verified token identity. Any brokerId present in the input payload
// is ignored to prevent identity spoofing. Returns the new trade's ID.
func (l *Ledger) Record(ctx context.Context, input models.TradeInput, brokerID string) (string, error) {
	ticker := NormalizeTicker(input.TickerSymbol)
	if ticker == "" {
		return "", errors.NewValidationError("tickerSymbol", input.TickerSymbol, "ticker symbol is required")
	}
	if len(ticker) > maxTickerLen {
		return "", errors.NewValidationError("tickerSymbol", input.TickerSymbol, "ticker symbol must be between 1 and 10 characters")
	}
	if !input.Price.IsPositive() {
		return "", errors.NewValidationError("price", input.Price, "price must be a positive value")
	}
	if !input.Shares.IsPositive() {
		return "", errors.NewValidationError("shares", input.Shares, "number of shares must be a positive value")
	}
	if brokerID == "" {
		return "", errors.NewValidationError("brokerId", brokerID, "broker ID is required")
	}
	if len(brokerID) > maxBrokerLen {
		return "", errors.NewValidationError("brokerId", brokerID, "broker ID must be between 1 and 50 characters")
	}

	trade := &models.Trade{
		ID:           uuid.NewString(),
		TickerSymbol: ticker,
		Price:        input.Price,
		Shares:       input.Shares,
		BrokerID:     brokerID,
		Timestamp:    time.Now().UTC(),
	}

	if err := l.store.Insert(ctx, trade); err != nil {
		l.logger.Error().Err(err).
			Str("ticker", ticker).
			Str("broker_id", brokerID).
			Msg("Failed to persist trade")
		return "", errors.NewPersistenceError("insert trade", err)
	}

	l.logger.Info().
		Str("event", "trade_recorded").
		Str("trade_id", trade.ID).
		Str("ticker", trade.TickerSymbol).
		Str("broker_id", trade.BrokerID).
		Str("price", trade.Price.String()).
		Str("shares", trade.Shares.String()).
		Msg("Trade recorded")

	return trade.ID, nil
}
