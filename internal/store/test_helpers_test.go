package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/grocer/internal/grocery"
)

// createTestStore creates a new file-backed store in a temp dir.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// mustDate parses a YYYY-MM-DD date or fails the test.
func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := grocery.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

// observation builds a price observation with an explicit price and quantity.
func observation(t *testing.T, item, brand, date string, price, quantity int64) grocery.PriceObservation {
	t.Helper()
	p := grocery.NewPriceObservation(item, brand, mustDate(t, date))
	p.Price = decimal.NewFromInt(price)
	p.Quantity = decimal.NewNullDecimal(decimal.NewFromInt(quantity))
	return p
}

// seedItem adds a store and an item of that store's brand.
func seedItem(t *testing.T, s *Store, item, brand string) {
	t.Helper()
	ctx := context.Background()
	if err := s.AddStore(ctx, brand); err != nil {
		t.Fatalf("AddStore(%q): %v", brand, err)
	}
	if err := s.AddItem(ctx, item, brand); err != nil {
		t.Fatalf("AddItem(%q, %q): %v", item, brand, err)
	}
}

// countRows returns the number of rows in table.
func countRows(t *testing.T, s *Store, table string) int {
	t.Helper()
	var n int
	if err := s.db.Get(&n, "SELECT COUNT(*) FROM "+table); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
