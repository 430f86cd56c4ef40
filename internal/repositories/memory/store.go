// Package memory provides an in-process ledger store. It backs tests and the
// STORAGE_DRIVER=memory mode. Balance locks are per owner, so different owners
// never wait on each other.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/SscSPs/expense_ledger/internal/apperrors"
	"github.com/SscSPs/expense_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/expense_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/expense_ledger/internal/utils/accounting"
	"github.com/SscSPs/expense_ledger/internal/utils/pagination"
	"github.com/shopspring/decimal"
)

// DefaultLockTimeout bounds how long a unit of work waits for an owner's lock.
const DefaultLockTimeout = 5 * time.Second

// Store is a thread-safe in-memory implementation of the ledger and category repositories.
type Store struct {
	mu           sync.RWMutex
	transactions map[string]domain.Transaction
	balances     map[string]domain.Balance
	categories   map[string]domain.Category

	locks *ownerLocks
}

// Option configures a Store.
type Option func(*Store)

// WithLockTimeout overrides DefaultLockTimeout.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.locks.timeout = d
	}
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		transactions: make(map[string]domain.Transaction),
		balances:     make(map[string]domain.Balance),
		categories:   make(map[string]domain.Category),
		locks:        newOwnerLocks(DefaultLockTimeout),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	_ portsrepo.LedgerRepositoryWithTx   = (*Store)(nil)
	_ portsrepo.CategoryRepositoryFacade = (*Store)(nil)
)

// --- balances ---

// CreateBalanceIfAbsent inserts a zero balance for ownerID unless one exists.
func (s *Store) CreateBalanceIfAbsent(ctx context.Context, ownerID string, now time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.balances[ownerID]; exists {
		return false, nil
	}
	s.balances[ownerID] = domain.Balance{
		OwnerID:       ownerID,
		Amount:        decimal.Zero,
		CreatedAt:     now,
		LastUpdatedAt: now,
	}
	return true, nil
}

// FindBalanceByOwner retrieves the owner's balance without locking it.
func (s *Store) FindBalanceByOwner(ctx context.Context, ownerID string) (*domain.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.balances[ownerID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &b, nil
}

// --- transactions ---

// FindTransactionByID retrieves a transaction regardless of owner.
func (s *Store) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txn, ok := s.transactions[transactionID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &txn, nil
}

// ListTransactionsByOwner returns the owner's transactions, newest first.
func (s *Store) ListTransactionsByOwner(ctx context.Context, ownerID string, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	if limit <= 0 {
		limit = 20
	}

	var cursor *pagination.Cursor
	if nextToken != nil && *nextToken != "" {
		c, err := pagination.DecodeCursor(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid nextToken: %v", apperrors.ErrValidation, err)
		}
		cursor = &c
	}

	s.mu.RLock()
	owned := make([]domain.Transaction, 0)
	for _, txn := range s.transactions {
		if txn.OwnerID != ownerID {
			continue
		}
		if cursor != nil && !cursor.Before(txn.OccurredOn, txn.CreatedAt, txn.TransactionID) {
			continue
		}
		owned = append(owned, txn)
	}
	s.mu.RUnlock()

	sort.Slice(owned, func(i, j int) bool {
		a, b := owned[i], owned[j]
		if !a.OccurredOn.Equal(b.OccurredOn) {
			return a.OccurredOn.After(b.OccurredOn)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.TransactionID > b.TransactionID
	})

	if len(owned) <= limit {
		return owned, nil, nil
	}
	page := owned[:limit]
	last := page[len(page)-1]
	token := pagination.EncodeCursor(pagination.Cursor{Date: last.OccurredOn, CreatedAt: last.CreatedAt, ID: last.TransactionID})
	return page, &token, nil
}

// SumTransactionEffects recomputes the owner's balance from stored transactions.
func (s *Store) SumTransactionEffects(ctx context.Context, ownerID string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owned := make([]domain.Transaction, 0)
	for _, txn := range s.transactions {
		if txn.OwnerID == ownerID {
			owned = append(owned, txn)
		}
	}
	return accounting.SumEffects(owned), nil
}

// --- categories ---

// SaveCategory persists a new category.
func (s *Store) SaveCategory(ctx context.Context, category domain.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.categories[category.CategoryID]; exists {
		return fmt.Errorf("%w: category with ID %s already exists", apperrors.ErrDuplicate, category.CategoryID)
	}
	s.categories[category.CategoryID] = category
	return nil
}

// FindCategoryByID retrieves a category by its ID.
func (s *Store) FindCategoryByID(ctx context.Context, categoryID string) (*domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories[categoryID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &c, nil
}

// ListCategoriesByOwner lists the owner's categories ordered by name.
func (s *Store) ListCategoriesByOwner(ctx context.Context, ownerID string) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Category, 0)
	for _, c := range s.categories {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// --- unit of work ---

// RunInTx executes fn in a unit of work. Staged writes are applied only when fn
// returns nil; owner locks are released on every exit path.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.LedgerTx) error) error {
	tx := &memTx{store: s, held: make(map[string]struct{})}
	defer tx.releaseAll()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, apply := range tx.staged {
		apply()
	}
	return nil
}

// memTx stages writes until commit. Reads see committed state only.
type memTx struct {
	store  *Store
	held   map[string]struct{}
	staged []func()
}

func (t *memTx) releaseAll() {
	for ownerID := range t.held {
		t.store.locks.release(ownerID)
	}
	t.held = nil
}

func (t *memTx) requireLocked(ownerID string) error {
	if _, ok := t.held[ownerID]; !ok {
		return fmt.Errorf("%w: balance lock for owner %s not held", apperrors.ErrInternal, ownerID)
	}
	return nil
}

func (t *memTx) LockBalance(ctx context.Context, ownerID string) (*domain.Balance, error) {
	if _, already := t.held[ownerID]; !already {
		if err := t.store.locks.acquire(ctx, ownerID); err != nil {
			return nil, err
		}
		t.held[ownerID] = struct{}{}
	}

	b, err := t.store.FindBalanceByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: no balance for owner %s after bootstrap", apperrors.ErrIntegrity, ownerID)
	}
	return b, nil
}

func (t *memTx) FindTransactionForUpdate(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	txn, err := t.store.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if err := t.requireLocked(txn.OwnerID); err != nil {
		return nil, err
	}
	return txn, nil
}

func (t *memTx) InsertTransaction(ctx context.Context, txn domain.Transaction) error {
	if err := t.requireLocked(txn.OwnerID); err != nil {
		return err
	}
	if _, err := t.store.FindTransactionByID(ctx, txn.TransactionID); err == nil {
		return fmt.Errorf("%w: transaction with ID %s already exists", apperrors.ErrDuplicate, txn.TransactionID)
	}
	t.staged = append(t.staged, func() {
		t.store.transactions[txn.TransactionID] = txn
	})
	return nil
}

func (t *memTx) UpdateTransaction(ctx context.Context, txn domain.Transaction) error {
	current, err := t.FindTransactionForUpdate(ctx, txn.TransactionID)
	if err != nil {
		return err
	}
	// Owner and creation audit fields are immutable.
	txn.OwnerID = current.OwnerID
	txn.CreatedAt = current.CreatedAt
	txn.CreatedBy = current.CreatedBy
	t.staged = append(t.staged, func() {
		t.store.transactions[txn.TransactionID] = txn
	})
	return nil
}

func (t *memTx) DeleteTransaction(ctx context.Context, transactionID string) error {
	if _, err := t.FindTransactionForUpdate(ctx, transactionID); err != nil {
		return err
	}
	t.staged = append(t.staged, func() {
		delete(t.store.transactions, transactionID)
	})
	return nil
}

func (t *memTx) SetBalance(ctx context.Context, ownerID string, amount decimal.Decimal, now time.Time) error {
	if err := t.requireLocked(ownerID); err != nil {
		return err
	}
	t.staged = append(t.staged, func() {
		b := t.store.balances[ownerID]
		b.OwnerID = ownerID
		b.Amount = amount
		b.LastUpdatedAt = now
		t.store.balances[ownerID] = b
	})
	return nil
}
