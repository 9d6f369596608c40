// Package models defines the core domain types for the trade ledger.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices, share counts, and values serialize as JSON numbers rather
	// than quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Trade represents a single recorded trade. Trades are immutable once
// written: the ledger is append-only and exposes no update or delete.
type Trade struct {
	ID           string          `json:"tradeId"`
	TickerSymbol string          `json:"tickerSymbol"`
	Price        decimal.Decimal `json:"price"`
	Shares       decimal.Decimal `json:"shares"`
	BrokerID     string          `json:"brokerId"`
	Timestamp    time.Time       `json:"timestamp"`
}

// StockValue is the derived per-ticker valuation: the arithmetic mean of
// all recorded trade prices for that ticker. It is computed on demand and
// never stored.
type StockValue struct {
	TickerSymbol string          `json:"tickerSymbol"`
	CurrentValue decimal.Decimal `json:"currentValue"`
}

// TradeInput is the client-submitted payload for recording a trade.
// BrokerID is accepted for wire compatibility but the ledger always uses
// the authenticated identity instead.
type TradeInput struct {
	TickerSymbol string          `json:"tickerSymbol"`
	Price        decimal.Decimal `json:"price"`
	Shares       decimal.Decimal `json:"shares"`
	BrokerID     string          `json:"brokerId"`
}
