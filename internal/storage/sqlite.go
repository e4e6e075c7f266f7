package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"grana/internal/core"
)

// SQLiteStore persists the three collections in a local SQLite database.
// Batch commits run inside a single transaction.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) Snapshot(ctx context.Context, userID string) (core.Snapshot, error) {
	var snap core.Snapshot

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, description, amount, type, category, tx_date, paid_with_vr, account_id, recurring_expense_id
		FROM transactions WHERE user_id = ? ORDER BY tx_date, id`, userID)
	if err != nil {
		return snap, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			t          core.Transaction
			amount     string
			txDate     string
			paidWithVR int64
			accountID  sql.NullString
			recID      sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.Description, &amount, &t.Type, &t.Category, &txDate, &paidWithVR, &accountID, &recID); err != nil {
			return snap, fmt.Errorf("scan transaction: %w", err)
		}
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return snap, fmt.Errorf("parse transaction amount: %w", err)
		}
		if t.Date, err = core.ParseDate(txDate); err != nil {
			return snap, fmt.Errorf("parse transaction date: %w", err)
		}
		t.PaidWithVR = paidWithVR != 0
		t.AccountID = accountID.String
		t.RecurringExpenseID = recID.String
		snap.Transactions = append(snap.Transactions, t)
	}
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("iterate transactions: %w", err)
	}

	recRows, err := s.db.QueryContext(ctx, `
		SELECT id, description, amount, category, start_date, frequency
		FROM recurring_expenses WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return snap, fmt.Errorf("query recurring expenses: %w", err)
	}
	defer recRows.Close()
	for recRows.Next() {
		var (
			r         core.RecurringExpense
			amount    string
			startDate string
		)
		if err := recRows.Scan(&r.ID, &r.Description, &amount, &r.Category, &startDate, &r.Frequency); err != nil {
			return snap, fmt.Errorf("scan recurring expense: %w", err)
		}
		if r.Amount, err = decimal.NewFromString(amount); err != nil {
			return snap, fmt.Errorf("parse recurring amount: %w", err)
		}
		if r.StartDate, err = core.ParseDate(startDate); err != nil {
			return snap, fmt.Errorf("parse recurring start date: %w", err)
		}
		snap.RecurringExpenses = append(snap.RecurringExpenses, r)
	}
	if err := recRows.Err(); err != nil {
		return snap, fmt.Errorf("iterate recurring expenses: %w", err)
	}

	accRows, err := s.db.QueryContext(ctx, `
		SELECT id, name, current_value, goal_amount, created_at
		FROM accounts WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return snap, fmt.Errorf("query accounts: %w", err)
	}
	defer accRows.Close()
	for accRows.Next() {
		var (
			a         core.Account
			current   string
			goal      string
			createdAt time.Time
		)
		if err := accRows.Scan(&a.ID, &a.Name, &current, &goal, &createdAt); err != nil {
			return snap, fmt.Errorf("scan account: %w", err)
		}
		if a.CurrentValue, err = decimal.NewFromString(current); err != nil {
			return snap, fmt.Errorf("parse account value: %w", err)
		}
		if a.GoalAmount, err = decimal.NewFromString(goal); err != nil {
			return snap, fmt.Errorf("parse account goal: %w", err)
		}
		a.CreatedAt = createdAt
		snap.Accounts = append(snap.Accounts, a)
	}
	if err := accRows.Err(); err != nil {
		return snap, fmt.Errorf("iterate accounts: %w", err)
	}

	return snap, nil
}

func (s *SQLiteStore) Commit(ctx context.Context, userID string, batch *Batch) error {
	if batch.Len() == 0 {
		return ErrEmptyBatch
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback()

	for _, o := range batch.ops {
		if err := applySQL(ctx, tx, userID, o); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// applySQL runs one batch operation. The statements use ? placeholders and
// work for both SQLite and (after rewriting) Postgres, so the two backends
// share the schema.
func applySQL(ctx context.Context, tx *sql.Tx, userID string, o op) error {
	switch o.kind {
	case opPutTransaction:
		t := o.transaction
		_, err := tx.ExecContext(ctx, `
			INSERT INTO transactions (id, user_id, description, amount, type, category, tx_date, paid_with_vr, account_id, recurring_expense_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				description = excluded.description,
				amount = excluded.amount,
				type = excluded.type,
				category = excluded.category,
				tx_date = excluded.tx_date,
				paid_with_vr = excluded.paid_with_vr,
				account_id = excluded.account_id,
				recurring_expense_id = excluded.recurring_expense_id`,
			t.ID, userID, t.Description, t.Amount.String(), string(t.Type), t.Category,
			t.Date.ISO(), boolToInt(t.PaidWithVR), nullable(t.AccountID), nullable(t.RecurringExpenseID))
		if err != nil {
			return fmt.Errorf("put transaction %s: %w", t.ID, err)
		}
	case opDeleteTransaction:
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM transactions WHERE user_id = ? AND id = ?`, userID, o.id); err != nil {
			return fmt.Errorf("delete transaction %s: %w", o.id, err)
		}
	case opPutRecurringExpense:
		r := o.recurring
		_, err := tx.ExecContext(ctx, `
			INSERT INTO recurring_expenses (id, user_id, description, amount, category, start_date, frequency)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				description = excluded.description,
				amount = excluded.amount,
				category = excluded.category,
				start_date = excluded.start_date,
				frequency = excluded.frequency`,
			r.ID, userID, r.Description, r.Amount.String(), r.Category, r.StartDate.ISO(), string(r.Frequency))
		if err != nil {
			return fmt.Errorf("put recurring expense %s: %w", r.ID, err)
		}
	case opDeleteRecurringExpense:
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM recurring_expenses WHERE user_id = ? AND id = ?`, userID, o.id); err != nil {
			return fmt.Errorf("delete recurring expense %s: %w", o.id, err)
		}
	case opPutAccount:
		a := o.account
		_, err := tx.ExecContext(ctx, `
			INSERT INTO accounts (id, user_id, name, current_value, goal_amount, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				name = excluded.name,
				current_value = excluded.current_value,
				goal_amount = excluded.goal_amount`,
			a.ID, userID, a.Name, a.CurrentValue.String(), a.GoalAmount.String(), a.CreatedAt)
		if err != nil {
			return fmt.Errorf("put account %s: %w", a.ID, err)
		}
	case opDeleteAccount:
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM accounts WHERE user_id = ? AND id = ?`, userID, o.id); err != nil {
			return fmt.Errorf("delete account %s: %w", o.id, err)
		}
	}
	return nil
}

func (s *SQLiteStore) UserIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT user_id FROM recurring_expenses ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("query user ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CreateUser registers auth credentials. Implements auth.UserStore.
func (s *SQLiteStore) CreateUser(ctx context.Context, id, email, passwordHash string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash) VALUES (?, ?, ?)`,
		id, email, passwordHash)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UserByEmail returns the user id and password hash for an email.
// Implements auth.UserStore.
func (s *SQLiteStore) UserByEmail(ctx context.Context, email string) (string, string, error) {
	var id, hash string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, password_hash FROM users WHERE email = ?`, email).Scan(&id, &hash)
	if err == sql.ErrNoRows {
		return "", "", ErrNotFound
	}
	if err != nil {
		return "", "", fmt.Errorf("query user: %w", err)
	}
	return id, hash, nil
}

// UpdatePassword replaces a user's password hash. Implements auth.UserStore.
func (s *SQLiteStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
