package storage

import (
	"context"
	"errors"
	"testing"

	"ledger/internal/core"
)

func TestCreateAccountDefaults(t *testing.T) {
	s := newTestStore(t)

	a := mustCreateAccount(t, s, "main", dec("100"))
	if a.Currency != "USD" {
		t.Errorf("currency = %s, want USD", a.Currency)
	}
	if !a.IsActive {
		t.Error("account should be active by default")
	}
	if !a.Balance.Equal(dec("100")) {
		t.Errorf("balance = %s, want 100", a.Balance)
	}
}

func TestUpdateAccountPatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := mustCreateAccount(t, s, "main", dec("100"))

	name := "renamed"
	inactive := false
	updated, err := s.UpdateAccount(ctx, a.ID, core.AccountPatch{Name: &name, IsActive: &inactive})
	if err != nil {
		t.Fatalf("update account: %v", err)
	}
	if updated.Name != "renamed" {
		t.Errorf("name = %s, want renamed", updated.Name)
	}
	if updated.IsActive {
		t.Error("account should be inactive")
	}
	if !updated.Balance.Equal(dec("100")) {
		t.Errorf("balance = %s, want 100 untouched", updated.Balance)
	}
}

func TestListAccountsActiveFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateAccount(t, s, "active-1", dec("0"))
	b := mustCreateAccount(t, s, "inactive-1", dec("0"))
	inactive := false
	if _, err := s.UpdateAccount(ctx, b.ID, core.AccountPatch{IsActive: &inactive}); err != nil {
		t.Fatalf("deactivate account: %v", err)
	}

	active := true
	got, err := s.ListAccounts(ctx, AccountFilter{IsActive: &active})
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}
	if len(got) != 1 || got[0].Name != "active-1" {
		t.Errorf("active accounts = %+v, want only active-1", got)
	}
}

func TestDeleteAccount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := mustCreateAccount(t, s, "main", dec("0"))
	if err := s.DeleteAccount(ctx, a.ID); err != nil {
		t.Fatalf("delete account: %v", err)
	}
	if _, err := s.GetAccountByID(ctx, a.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("get deleted err = %v, want ErrNotFound", err)
	}
	if err := s.DeleteAccount(ctx, a.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}
