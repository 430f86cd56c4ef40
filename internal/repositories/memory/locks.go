package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/SscSPs/expense_ledger/internal/apperrors"
	"golang.org/x/sync/semaphore"
)

// ownerLocks hands out one binary semaphore per owner. Waiting is bounded by timeout.
type ownerLocks struct {
	mu      sync.Mutex
	byOwner map[string]*semaphore.Weighted
	timeout time.Duration
}

func newOwnerLocks(timeout time.Duration) *ownerLocks {
	return &ownerLocks{
		byOwner: make(map[string]*semaphore.Weighted),
		timeout: timeout,
	}
}

func (l *ownerLocks) get(ownerID string) *semaphore.Weighted {
	l.mu.Lock()
	defer l.mu.Unlock()

	sem, ok := l.byOwner[ownerID]
	if !ok {
		sem = semaphore.NewWeighted(1)
		l.byOwner[ownerID] = sem
	}
	return sem
}

// acquire blocks until the owner's lock is free, ctx is done or the timeout
// elapses. A timeout is reported as apperrors.ErrBusy.
func (l *ownerLocks) acquire(ctx context.Context, ownerID string) error {
	lockCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	if err := l.get(ownerID).Acquire(lockCtx, 1); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: balance of owner %s is locked", apperrors.ErrBusy, ownerID)
		}
		return err
	}
	return nil
}

func (l *ownerLocks) release(ownerID string) {
	l.get(ownerID).Release(1)
}
