package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func mustCreateAccount(t *testing.T, s *Store, name string, balance decimal.Decimal) core.Account {
	t.Helper()
	a, err := s.CreateAccount(context.Background(), core.AccountDraft{
		Name:        name,
		AccountType: core.AccountChecking,
		Balance:     balance,
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	return a
}
