package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"londonstock/internal/errors"
	"londonstock/internal/models"
	"londonstock/internal/store"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newTestLedger() (*Ledger, *store.MemoryStore) {
	s := store.NewMemoryStore()
	return New(s, zerolog.Nop()), s
}

func TestNormalizeTicker(t *testing.T) {
	cases := map[string]string{
		"aapl":   "AAPL",
		"AAPL":   "AAPL",
		"Aapl":   "AAPL",
		" vod ":  "VOD",
		"barc.l": "BARC.L",
		"":       "",
		"   ":    "",
	}
	for in, want := range cases {
		if got := NormalizeTicker(in); got != want {
			t.Errorf("NormalizeTicker(%q) = %q, want %q", in, got, want)
		}
	}
	// Idempotence
	if got := NormalizeTicker(NormalizeTicker("aapl")); got != "AAPL" {
		t.Errorf("normalization is not idempotent: %q", got)
	}
}

func TestRecordPersistsNormalizedTrade(t *testing.T) {
	l, s := newTestLedger()
	ctx := context.Background()

	before := time.Now().UTC()
	id, err := l.Record(ctx, models.TradeInput{
		TickerSymbol: "aapl",
		Price:        dec("123.45"),
		Shares:       dec("10"),
		BrokerID:     "spoofed", // ignored
	}, "broker1")
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("trade ID %q is not a UUID: %v", id, err)
	}

	trades, err := s.ByTicker(ctx, "AAPL")
	if err != nil {
		t.Fatalf("ByTicker failed: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(trades))
	}
	tr := trades[0]
	if tr.TickerSymbol != "AAPL" {
		t.Errorf("ticker stored as %q, want AAPL", tr.TickerSymbol)
	}
	if tr.BrokerID != "broker1" {
		t.Errorf("broker stored as %q, want the authenticated identity", tr.BrokerID)
	}
	if !tr.Price.Equal(dec("123.45")) {
		t.Errorf("price stored as %s, want 123.45", tr.Price)
	}
	if tr.Timestamp.Before(before) || tr.Timestamp.After(time.Now().UTC()) {
		t.Errorf("timestamp %v outside insertion window", tr.Timestamp)
	}
	if tr.Timestamp.Location() != time.UTC {
		t.Errorf("timestamp not in UTC: %v", tr.Timestamp.Location())
	}
}

func TestRecordValidation(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()

	valid := models.TradeInput{
		TickerSymbol: "VOD",
		Price:        dec("100"),
		Shares:       dec("5"),
	}

	cases := []struct {
		name   string
		mutate func(*models.TradeInput)
		broker string
	}{
		{"empty ticker", func(in *models.TradeInput) { in.TickerSymbol = "" }, "broker1"},
		{"whitespace ticker", func(in *models.TradeInput) { in.TickerSymbol = "   " }, "broker1"},
		{"ticker too long", func(in *models.TradeInput) { in.TickerSymbol = "ABCDEFGHIJK" }, "broker1"},
		{"zero price", func(in *models.TradeInput) { in.Price = decimal.Zero }, "broker1"},
		{"negative price", func(in *models.TradeInput) { in.Price = dec("-0.01") }, "broker1"},
		{"zero shares", func(in *models.TradeInput) { in.Shares = decimal.Zero }, "broker1"},
		{"negative shares", func(in *models.TradeInput) { in.Shares = dec("-1") }, "broker1"},
		{"empty broker", func(in *models.TradeInput) {}, ""},
		{"broker too long", func(in *models.TradeInput) {}, string(make([]byte, 51))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.mutate(&in)
			_, err := l.Record(ctx, in, tc.broker)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.IsValidation(err) {
				t.Errorf("got %T (%v), want ValidationError", err, err)
			}
		})
	}
}

func TestRecordAcceptsMinimumPositiveIncrement(t *testing.T) {
	l, _ := newTestLedger()

	_, err := l.Record(context.Background(), models.TradeInput{
		TickerSymbol: "VOD",
		Price:        dec("0.0001"),
		Shares:       dec("0.0001"),
	}, "broker1")
	if err != nil {
		t.Fatalf("minimum positive values should be accepted: %v", err)
	}
}

// failingStore always fails inserts, standing in for an unavailable
// database.
type failingStore struct {
	store.TradeStore
}

func (f *failingStore) Insert(ctx context.Context, trade *models.Trade) error {
	return fmt.Errorf("disk is on fire")
}

func TestRecordMapsStoreFailureToPersistenceError(t *testing.T) {
	l := New(&failingStore{store.NewMemoryStore()}, zerolog.Nop())

	_, err := l.Record(context.Background(), models.TradeInput{
		TickerSymbol: "VOD",
		Price:        dec("100"),
		Shares:       dec("5"),
	}, "broker1")
	if err == nil {
		t.Fatal("expected persistence error")
	}
	if !errors.IsPersistence(err) {
		t.Errorf("got %T (%v), want PersistenceError", err, err)
	}
	if errors.IsValidation(err) {
		t.Error("persistence failure must not look like a validation error")
	}
}

func TestRecordConcurrentCallsGetDistinctIDs(t *testing.T) {
	l, s := newTestLedger()
	ctx := context.Background()

	const n = 100
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := l.Record(ctx, models.TradeInput{
				TickerSymbol: "VOD",
				Price:        decimal.NewFromInt(int64(i + 1)),
				Shares:       dec("1"),
			}, fmt.Sprintf("broker%d", i%2+1))
			if err != nil {
				t.Errorf("concurrent Record failed: %v", err)
				return
			}
			ids <- id
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate trade ID %q", id)
		}
		seen[id] = true
	}
	if len(seen) != n {
		t.Fatalf("got %d distinct IDs, want %d", len(seen), n)
	}

	trades, err := s.ByTicker(ctx, "VOD")
	if err != nil {
		t.Fatalf("ByTicker failed: %v", err)
	}
	if len(trades) != n {
		t.Fatalf("got %d stored trades, want %d (lost writes)", len(trades), n)
	}
}
