package writeback

import (
	"context"

	"go.trai.ch/knob/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/sync/semaphore"
)

// exclusiveWeight is the semaphore weight of the writer slot. Readers take a weight of one.
const exclusiveWeight = 1 << 30

// rwLock is a reader/writer lock whose waits can be cancelled.
// The semaphore serves waiters in FIFO order, so a waiting writer holds back later readers.
type rwLock struct {
	sem *semaphore.Weighted
}

func newRWLock() *rwLock {
	return &rwLock{sem: semaphore.NewWeighted(exclusiveWeight)}
}

func (l *rwLock) RLock(ctx context.Context) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrLockFailed, err.Error()), "mode", "shared")
	}
	return nil
}

func (l *rwLock) RUnlock() {
	l.sem.Release(1)
}

func (l *rwLock) Lock(ctx context.Context) error {
	if err := l.sem.Acquire(ctx, exclusiveWeight); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrLockFailed, err.Error()), "mode", "exclusive")
	}
	return nil
}

func (l *rwLock) Unlock() {
	l.sem.Release(exclusiveWeight)
}
