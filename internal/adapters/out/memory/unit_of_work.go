package memory

import (
	"context"
	"errors"
	"sync"

	"orderflow/internal/core/ports"
)

// ErrNoTransaction is returned by Commit without a matching Begin.
var ErrNoTransaction = errors.New("memory: no active transaction")

// Store owns the committed state.
type Store struct {
	txLock chan struct{}

	mu        sync.RWMutex
	committed *state
}

func NewStore() *Store {
	return &Store{
		txLock:    make(chan struct{}, 1),
		committed: newState(),
	}
}

func (s *Store) acquire(ctx context.Context) error {
	select {
	case s.txLock <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) release() {
	<-s.txLock
}

func (s *Store) snapshot() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.committed.clone()
}

func (s *Store) swap(next *state) {
	s.mu.Lock()
	s.committed = next
	s.mu.Unlock()
}

// read runs fn against the committed state.
func (s *Store) read(fn func(st *state) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.committed)
}

// write runs fn in its own short transaction.
func (s *Store) write(ctx context.Context, fn func(st *state) error) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	next := s.snapshot()
	if err := fn(next); err != nil {
		return err
	}
	s.swap(next)
	return nil
}

// UnitOfWorkFactory creates units of work over one Store.
type UnitOfWorkFactory struct {
	store *Store
}

func NewUnitOfWorkFactory(store *Store) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{store: store}
}

func (f *UnitOfWorkFactory) Create() ports.UnitOfWork {
	return &UnitOfWork{store: f.store}
}

// UnitOfWork is a serialized transaction over a Store.
type UnitOfWork struct {
	store *Store
	tx    *state
}

// Begin waits for exclusive access to the store or for ctx to end.
func (u *UnitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return nil
	}
	if err := u.store.acquire(ctx); err != nil {
		return err
	}
	u.tx = u.store.snapshot()
	return nil
}

func (u *UnitOfWork) Commit(ctx context.Context) error {
	if u.tx == nil {
		return ErrNoTransaction
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	u.store.swap(u.tx)
	u.tx = nil
	u.store.release()
	return nil
}

func (u *UnitOfWork) Rollback(_ context.Context) error {
	if u.tx == nil {
		return nil
	}
	u.tx = nil
	u.store.release()
	return nil
}

// access picks the transaction state or the committed state.
type access struct {
	uow *UnitOfWork
}

func (a access) read(fn func(st *state) error) error {
	if a.uow.tx != nil {
		return fn(a.uow.tx)
	}
	return a.uow.store.read(fn)
}

func (a access) write(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if a.uow.tx != nil {
		return fn(a.uow.tx)
	}
	return a.uow.store.write(ctx, fn)
}

func (u *UnitOfWork) OrderRepository() ports.OrderRepository {
	return &orderRepository{access{u}}
}

func (u *UnitOfWork) HistoryRepository() ports.HistoryRepository {
	return &historyRepository{access{u}}
}

func (u *UnitOfWork) IdempotencyRepository() ports.IdempotencyRepository {
	return &idempotencyRepository{access{u}}
}

func (u *UnitOfWork) OutboxRepository() ports.OutboxRepository {
	return &outboxRepository{access{u}}
}

func (u *UnitOfWork) ArtifactRepository() ports.ArtifactRepository {
	return &artifactRepository{access{u}}
}

func (u *UnitOfWork) DocumentRepository() ports.DocumentRepository {
	return &documentRepository{access{u}}
}

func (u *UnitOfWork) InventoryRepository() ports.InventoryRepository {
	return &inventoryRepository{access{u}}
}
