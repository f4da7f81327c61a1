package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

const accountCols = "id, name, account_type, account_number, currency, balance, is_active, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (core.Account, error) {
	var (
		a                         core.Account
		number                    sql.NullString
		balance, created, updated string
		active                    int64
	)
	err := row.Scan(&a.ID, &a.Name, &a.AccountType, &number, &a.Currency, &balance, &active, &created, &updated)
	if err != nil {
		return core.Account{}, err
	}
	a.AccountNumber = orEmpty(number)
	a.IsActive = active != 0
	if a.Balance, err = parseStoredDecimal(balance); err != nil {
		return core.Account{}, err
	}
	if a.CreatedAt, err = parseStoredTime(created); err != nil {
		return core.Account{}, err
	}
	if a.UpdatedAt, err = parseStoredTime(updated); err != nil {
		return core.Account{}, err
	}
	return a, nil
}

func (s *Store) CreateAccount(ctx context.Context, draft core.AccountDraft) (core.Account, error) {
	if err := draft.Validate(); err != nil {
		return core.Account{}, err
	}

	now := time.Now().UTC()
	a := core.Account{
		ID:            uuid.NewString(),
		Name:          draft.Name,
		AccountType:   draft.AccountType,
		AccountNumber: draft.AccountNumber,
		Currency:      draft.Currency,
		Balance:       draft.Balance,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if draft.IsActive != nil {
		a.IsActive = *draft.IsActive
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (`+accountCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, string(a.AccountType), nullable(a.AccountNumber), a.Currency,
		a.Balance.String(), boolInt(a.IsActive), fmtTime(now), fmtTime(now))
	if err != nil {
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}
	return a, nil
}

// AccountFilter narrows ListAccounts; a nil IsActive matches everything.
type AccountFilter struct {
	IsActive *bool
	Offset   int
	Limit    int
}

func (s *Store) ListAccounts(ctx context.Context, f AccountFilter) ([]core.Account, error) {
	query := `SELECT ` + accountCols + ` FROM accounts`
	var args []any
	if f.IsActive != nil {
		query += ` WHERE is_active = ?`
		args = append(args, boolInt(*f.IsActive))
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`
	args = append(args, normLimit(f.Limit), f.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (s *Store) GetAccountByID(ctx context.Context, id string) (core.Account, error) {
	return s.getAccount(ctx, `SELECT `+accountCols+` FROM accounts WHERE id = ?`, id)
}

func (s *Store) GetAccountByNumber(ctx context.Context, number string) (core.Account, error) {
	return s.getAccount(ctx, `SELECT `+accountCols+` FROM accounts WHERE account_number = ?`, number)
}

func (s *Store) getAccount(ctx context.Context, query, arg string) (core.Account, error) {
	a, err := scanAccount(s.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, fmt.Errorf("account %s: %w", arg, core.ErrNotFound)
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (s *Store) UpdateAccount(ctx context.Context, id string, patch core.AccountPatch) (core.Account, error) {
	var updated core.Account
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		a, err := scanAccount(tx.QueryRowContext(ctx, `SELECT `+accountCols+` FROM accounts WHERE id = ?`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("account %s: %w", id, core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get account: %w", err)
		}

		if patch.Name != nil {
			a.Name = *patch.Name
		}
		if patch.AccountType != nil {
			if !patch.AccountType.Valid() {
				return fmt.Errorf("%w: unknown account_type %q", core.ErrInvalidInput, *patch.AccountType)
			}
			a.AccountType = *patch.AccountType
		}
		if patch.AccountNumber != nil {
			a.AccountNumber = *patch.AccountNumber
		}
		if patch.Currency != nil {
			a.Currency = *patch.Currency
		}
		if patch.Balance != nil {
			a.Balance = *patch.Balance
		}
		if patch.IsActive != nil {
			a.IsActive = *patch.IsActive
		}
		a.UpdatedAt = time.Now().UTC()

		_, err = tx.ExecContext(ctx,
			`UPDATE accounts SET name = ?, account_type = ?, account_number = ?, currency = ?,
			        balance = ?, is_active = ?, updated_at = ? WHERE id = ?`,
			a.Name, string(a.AccountType), nullable(a.AccountNumber), a.Currency,
			a.Balance.String(), boolInt(a.IsActive), fmtTime(a.UpdatedAt), id)
		if err != nil {
			return fmt.Errorf("update account: %w", err)
		}
		updated = a
		return nil
	})
	if err != nil {
		return core.Account{}, err
	}
	return updated, nil
}

func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("account %s: %w", id, core.ErrNotFound)
	}
	return nil
}

// AdjustBalance applies an administrative deposit or withdrawal directly to
// an account balance, outside of transaction posting.
func (s *Store) AdjustBalance(ctx context.Context, id string, amount decimal.Decimal, deposit bool) (core.Account, error) {
	var updated core.Account
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		a, err := scanAccount(tx.QueryRowContext(ctx, `SELECT `+accountCols+` FROM accounts WHERE id = ?`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("account %s: %w", id, core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get account: %w", err)
		}

		if deposit {
			a.Balance = a.Balance.Add(amount)
		} else {
			a.Balance = a.Balance.Sub(amount)
		}
		a.UpdatedAt = time.Now().UTC()

		_, err = tx.ExecContext(ctx, `UPDATE accounts SET balance = ?, updated_at = ? WHERE id = ?`,
			a.Balance.String(), fmtTime(a.UpdatedAt), id)
		if err != nil {
			return fmt.Errorf("adjust balance: %w", err)
		}
		updated = a
		return nil
	})
	if err != nil {
		return core.Account{}, err
	}
	return updated, nil
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func normLimit(limit int) int {
	if limit <= 0 || limit > 1000 {
		return 100
	}
	return limit
}
