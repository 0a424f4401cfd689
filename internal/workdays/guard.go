package workdays

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/repository"
)

// LockName is the job_locks row guarding propagation runs.
const LockName = "working-days-propagation"

// Guard grants the single propagation slot. Acquire never waits: when the
// slot is taken it returns domain.ErrConcurrencyLimitReached.
type Guard interface {
	Acquire(ctx context.Context, holder string) (release func() error, err error)
}

// JobLockGuard holds the slot in the job_locks table, so it is shared by
// every process using the same database. A holder that dies keeps the slot
// until ttl passes.
type JobLockGuard struct {
	locks repository.JobLockRepo
	ttl   time.Duration
}

func NewJobLockGuard(locks repository.JobLockRepo, ttl time.Duration) *JobLockGuard {
	return &JobLockGuard{locks: locks, ttl: ttl}
}

func (g *JobLockGuard) Acquire(ctx context.Context, holder string) (func() error, error) {
	ok, err := g.locks.TryAcquire(ctx, LockName, holder, g.ttl)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", LockName, domain.ErrConcurrencyLimitReached)
	}
	return func() error {
		if err := g.locks.Release(context.WithoutCancel(ctx), LockName, holder); err != nil {
			return fmt.Errorf("releasing %s: %w", LockName, err)
		}
		return nil
	}, nil
}

// LocalGuard limits runs within one process.
type LocalGuard struct {
	mu sync.Mutex
}

func (g *LocalGuard) Acquire(context.Context, string) (func() error, error) {
	if !g.mu.TryLock() {
		return nil, fmt.Errorf("%s: %w", LockName, domain.ErrConcurrencyLimitReached)
	}
	return func() error {
		g.mu.Unlock()
		return nil
	}, nil
}
