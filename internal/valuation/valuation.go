// Package valuation computes per-ticker stock values from the trade ledger.
package valuation

import (
	"context"
	"sort"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"londonstock/internal/errors"
	"londonstock/internal/ledger"
	"londonstock/internal/models"
	"londonstock/internal/store"
)

// Engine computes arithmetic-mean stock values over the trade ledger. It
// depends only on the TradeStore interface and holds no state of its own,
// so every query reflects the ledger at the moment it runs.
type Engine struct {
	store  store.TradeStore
	logger zerolog.Logger
}

// New creates an Engine reading from the given store.
func New(s store.TradeStore, logger zerolog.Logger) *Engine {
	return &Engine{store: s, logger: logger}
}

// ValueOf returns the stock value for a single ticker. A ticker with zero
// recorded trades yields ErrNoTrades, which is distinct from a zero value.
func (e *Engine) ValueOf(ctx context.Context, ticker string) (models.StockValue, error) {
	normalized := ledger.NormalizeTicker(ticker)
	if normalized == "" {
		return models.StockValue{}, errors.NewValidationError("tickerSymbol", ticker, "ticker symbol cannot be empty")
	}

	trades, err := e.store.ByTicker(ctx, normalized)
	if err != nil {
		return models.StockValue{}, errors.NewPersistenceError("query trades", err)
	}
	if len(trades) == 0 {
		e.logger.Debug().Str("ticker", normalized).Msg("No trades found for ticker")
		return models.StockValue{}, errors.ErrNoTrades
	}

	return models.StockValue{
		TickerSymbol: normalized,
		CurrentValue: meanPrice(trades),
	}, nil
}

// AllValues returns one stock value per distinct ticker in the ledger,
// ordered by ticker symbol ascending. An empty ledger yields an empty slice.
func (e *Engine) AllValues(ctx context.Context) ([]models.StockValue, error) {
	grouped, err := e.store.GroupedByTicker(ctx)
	if err != nil {
		return nil, errors.NewPersistenceError("query trades", err)
	}
	return valuesFromGroups(grouped), nil
}

// ValuesFor returns stock values for the requested tickers. Symbols are
// normalized and de-duplicated; tickers with zero trades are silently
// omitted. The result is ordered by ticker symbol ascending.
func (e *Engine) ValuesFor(ctx context.Context, tickers []string) ([]models.StockValue, error) {
	requested := make(map[string]struct{})
	for _, t := range tickers {
		if n := ledger.NormalizeTicker(t); n != "" {
			requested[n] = struct{}{}
		}
	}
	if len(requested) == 0 {
		return nil, errors.NewValidationError("tickers", tickers, "no valid ticker symbols provided")
	}

	grouped, err := e.store.GroupedByTicker(ctx)
	if err != nil {
		return nil, errors.NewPersistenceError("query trades", err)
	}

	for ticker := range grouped {
		if _, ok := requested[ticker]; !ok {
			delete(grouped, ticker)
		}
	}
	return valuesFromGroups(grouped), nil
}

func valuesFromGroups(grouped map[string][]models.Trade) []models.StockValue {
	values := make([]models.StockValue, 0, len(grouped))
	for ticker, trades := range grouped {
		if len(trades) == 0 {
			continue
		}
		values = append(values, models.StockValue{
			TickerSymbol: ticker,
			CurrentValue: meanPrice(trades),
		})
	}
	sort.Slice(values, func(i, j int) bool {
		return values[i].TickerSymbol < values[j].TickerSymbol
	})
	return values
}

// meanPrice computes the arithmetic mean of trade prices using decimal
// arithmetic throughout, so values like (100.00 + 200.00) / 2 come out as
// exactly 150 with no binary float drift.
func meanPrice(trades []models.Trade) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range trades {
		sum = sum.Add(t.Price)
	}
	return sum.Div(decimal.NewFromInt(int64(len(trades))))
}
