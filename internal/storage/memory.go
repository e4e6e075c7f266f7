package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"grana/internal/core"
)

// MemoryStore keeps all collections in process memory. It backs local runs
// without a database and the service-layer tests.
type MemoryStore struct {
	mu    sync.Mutex
	users map[string]*userDocs
	creds map[string]credential // keyed by email

	// CommitErr, when set, makes every Commit fail without applying
	// anything. Tests use it to exercise batch-failure paths.
	CommitErr error
}

type credential struct {
	id           string
	passwordHash string
}

type userDocs struct {
	transactions map[string]core.Transaction
	recurring    map[string]core.RecurringExpense
	accounts     map[string]core.Account
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]*userDocs),
		creds: make(map[string]credential),
	}
}

func (s *MemoryStore) docs(userID string) *userDocs {
	d, ok := s.users[userID]
	if !ok {
		d = &userDocs{
			transactions: make(map[string]core.Transaction),
			recurring:    make(map[string]core.RecurringExpense),
			accounts:     make(map[string]core.Account),
		}
		s.users[userID] = d
	}
	return d
}

func (s *MemoryStore) Snapshot(_ context.Context, userID string) (core.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Reads never register a user; only Commit does.
	d, ok := s.users[userID]
	if !ok {
		return core.Snapshot{
			Transactions:      []core.Transaction{},
			RecurringExpenses: []core.RecurringExpense{},
			Accounts:          []core.Account{},
		}, nil
	}
	snap := core.Snapshot{
		Transactions:      make([]core.Transaction, 0, len(d.transactions)),
		RecurringExpenses: make([]core.RecurringExpense, 0, len(d.recurring)),
		Accounts:          make([]core.Account, 0, len(d.accounts)),
	}
	for _, t := range d.transactions {
		snap.Transactions = append(snap.Transactions, t)
	}
	for _, r := range d.recurring {
		snap.RecurringExpenses = append(snap.RecurringExpenses, r)
	}
	for _, a := range d.accounts {
		snap.Accounts = append(snap.Accounts, a)
	}

	// Map iteration order is random; keep snapshots deterministic.
	sort.Slice(snap.Transactions, func(i, j int) bool {
		a, b := snap.Transactions[i], snap.Transactions[j]
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.Before(b.Date.Time)
		}
		return a.ID < b.ID
	})
	sort.Slice(snap.RecurringExpenses, func(i, j int) bool {
		return snap.RecurringExpenses[i].ID < snap.RecurringExpenses[j].ID
	})
	sort.Slice(snap.Accounts, func(i, j int) bool {
		return snap.Accounts[i].ID < snap.Accounts[j].ID
	})
	return snap, nil
}

func (s *MemoryStore) Commit(_ context.Context, userID string, batch *Batch) error {
	if batch.Len() == 0 {
		return ErrEmptyBatch
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.CommitErr != nil {
		return s.CommitErr
	}

	d := s.docs(userID)
	for _, o := range batch.ops {
		switch o.kind {
		case opPutTransaction:
			d.transactions[o.id] = o.transaction
		case opDeleteTransaction:
			delete(d.transactions, o.id)
		case opPutRecurringExpense:
			d.recurring[o.id] = o.recurring
		case opDeleteRecurringExpense:
			delete(d.recurring, o.id)
		case opPutAccount:
			d.accounts[o.id] = o.account
		case opDeleteAccount:
			delete(d.accounts, o.id)
		}
	}
	return nil
}

func (s *MemoryStore) UserIDs(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// CreateUser registers auth credentials. Implements auth.UserStore.
func (s *MemoryStore) CreateUser(_ context.Context, id, email, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.creds[email]; exists {
		return errors.New("email already registered")
	}
	s.creds[email] = credential{id: id, passwordHash: passwordHash}
	return nil
}

// UserByEmail returns the user id and password hash for an email.
// Implements auth.UserStore.
func (s *MemoryStore) UserByEmail(_ context.Context, email string) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.creds[email]
	if !ok {
		return "", "", ErrNotFound
	}
	return c.id, c.passwordHash, nil
}

// UpdatePassword replaces a user's password hash. Implements auth.UserStore.
func (s *MemoryStore) UpdatePassword(_ context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for email, c := range s.creds {
		if c.id == id {
			s.creds[email] = credential{id: id, passwordHash: passwordHash}
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) Close() error { return nil }
