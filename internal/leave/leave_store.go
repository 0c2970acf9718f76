package leave

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"

	leaveerrors "go-leave/internal/leave/errors"

	"github.com/google/uuid"
)

// StoreTx is the view of one employee's requests inside Store.Atomically.
// Writes become visible to other callers only when the callback returns nil.
type StoreTx interface {
	ListByEmployee(ctx context.Context) ([]LeaveRequest, error)
	Get(ctx context.Context, id uuid.UUID) (LeaveRequest, error)
	Insert(ctx context.Context, r LeaveRequest) error
	Save(ctx context.Context, r LeaveRequest) error
}

// SQLTxProvider is implemented by StoreTx values backed by a database/sql
// transaction. Writes made through the returned *sql.Tx commit or roll back
// with the leave write.
type SQLTxProvider interface {
	SQLTx() (*sql.Tx, error)
}

// Store owns every LeaveRequest. Reads return committed state only; lookups
// of unknown ids fail with leaveerrors.ErrNotFound.
//
//go:generate mockgen -source=leave_store.go -destination=mock/leave_store_mock.go -package=mock
type Store interface {
	Get(ctx context.Context, id uuid.UUID) (LeaveRequest, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]LeaveRequest, error)
	ListByManager(ctx context.Context, managerID string) ([]LeaveRequest, error)
	// Atomically serializes fn with every other Atomically call for the same
	// employee and commits its writes all-or-nothing.
	Atomically(ctx context.Context, employeeID string, fn func(tx StoreTx) error) error
}

// sortRequests orders newest leave first, matching the postgres repository.
func sortRequests(requests []LeaveRequest) {
	sort.SliceStable(requests, func(i, j int) bool {
		if !requests[i].StartDate.Equal(requests[j].StartDate) {
			return requests[i].StartDate.After(requests[j].StartDate)
		}
		return requests[i].CreatedAt.After(requests[j].CreatedAt)
	})
}

type employeeBucket struct {
	mu       sync.RWMutex
	requests map[uuid.UUID]LeaveRequest
}

func (b *employeeBucket) snapshot() []LeaveRequest {
	out := make([]LeaveRequest, 0, len(b.requests))
	for _, r := range b.requests {
		out = append(out, r)
	}
	return out
}

// MemoryStore keeps requests in process. Each employee has its own lock, so
// writers for different employees never wait on each other.
type MemoryStore struct {
	mu      sync.RWMutex
	buckets map[string]*employeeBucket
	owners  map[uuid.UUID]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		buckets: make(map[string]*employeeBucket),
		owners:  make(map[uuid.UUID]string),
	}
}

func (s *MemoryStore) bucket(employeeID string, create bool) *employeeBucket {
	s.mu.RLock()
	b, ok := s.buckets[employeeID]
	s.mu.RUnlock()
	if ok || !create {
		return b
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok = s.buckets[employeeID]; !ok {
		b = &employeeBucket{requests: make(map[uuid.UUID]LeaveRequest)}
		s.buckets[employeeID] = b
	}
	return b
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (LeaveRequest, error) {
	s.mu.RLock()
	employeeID, ok := s.owners[id]
	s.mu.RUnlock()
	if !ok {
		return LeaveRequest{}, leaveerrors.ErrNotFound
	}

	b := s.bucket(employeeID, false)
	b.mu.RLock()
	defer b.mu.RUnlock()
	r, ok := b.requests[id]
	if !ok {
		return LeaveRequest{}, leaveerrors.ErrNotFound
	}
	return r, nil
}

func (s *MemoryStore) ListByEmployee(_ context.Context, employeeID string) ([]LeaveRequest, error) {
	b := s.bucket(employeeID, false)
	if b == nil {
		return []LeaveRequest{}, nil
	}
	b.mu.RLock()
	out := b.snapshot()
	b.mu.RUnlock()

	sortRequests(out)
	return out, nil
}

func (s *MemoryStore) ListByManager(_ context.Context, managerID string) ([]LeaveRequest, error) {
	s.mu.RLock()
	buckets := make([]*employeeBucket, 0, len(s.buckets))
	for _, b := range s.buckets {
		buckets = append(buckets, b)
	}
	s.mu.RUnlock()

	out := []LeaveRequest{}
	for _, b := range buckets {
		b.mu.RLock()
		for _, r := range b.requests {
			if r.ManagerID == managerID {
				out = append(out, r)
			}
		}
		b.mu.RUnlock()
	}

	sortRequests(out)
	return out, nil
}

func (s *MemoryStore) Atomically(ctx context.Context, employeeID string, fn func(tx StoreTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b := s.bucket(employeeID, true)
	b.mu.Lock()
	defer b.mu.Unlock()

	tx := &memoryTx{
		employeeID: employeeID,
		committed:  b.requests,
		staged:     make(map[uuid.UUID]LeaveRequest),
	}
	if err := fn(tx); err != nil {
		return err
	}
	if len(tx.staged) == 0 {
		return nil
	}

	// owners first: a concurrent Get that finds the id then blocks on b.mu
	// until the requests below are in place.
	s.mu.Lock()
	for id := range tx.staged {
		s.owners[id] = employeeID
	}
	s.mu.Unlock()

	for id, r := range tx.staged {
		b.requests[id] = r
	}
	return nil
}

type memoryTx struct {
	employeeID string
	committed  map[uuid.UUID]LeaveRequest
	staged     map[uuid.UUID]LeaveRequest
}

func (tx *memoryTx) lookup(id uuid.UUID) (LeaveRequest, bool) {
	if r, ok := tx.staged[id]; ok {
		return r, true
	}
	r, ok := tx.committed[id]
	return r, ok
}

func (tx *memoryTx) ListByEmployee(_ context.Context) ([]LeaveRequest, error) {
	out := make([]LeaveRequest, 0, len(tx.committed)+len(tx.staged))
	for id, r := range tx.committed {
		if _, ok := tx.staged[id]; !ok {
			out = append(out, r)
		}
	}
	for _, r := range tx.staged {
		out = append(out, r)
	}
	sortRequests(out)
	return out, nil
}

func (tx *memoryTx) Get(_ context.Context, id uuid.UUID) (LeaveRequest, error) {
	r, ok := tx.lookup(id)
	if !ok {
		return LeaveRequest{}, leaveerrors.ErrNotFound
	}
	return r, nil
}

func (tx *memoryTx) Insert(_ context.Context, r LeaveRequest) error {
	if r.EmployeeID != tx.employeeID {
		return fmt.Errorf("memory store: insert %s for employee %q inside tx of %q", r.ID, r.EmployeeID, tx.employeeID)
	}
	if _, exists := tx.lookup(r.ID); exists {
		return fmt.Errorf("memory store: duplicate leave request id %s", r.ID)
	}
	tx.staged[r.ID] = r
	return nil
}

func (tx *memoryTx) Save(_ context.Context, r LeaveRequest) error {
	current, ok := tx.lookup(r.ID)
	if !ok {
		return leaveerrors.ErrNotFound
	}
	if current.EmployeeID != r.EmployeeID || current.ManagerID != r.ManagerID {
		return fmt.Errorf("memory store: employee and manager of %s are immutable", r.ID)
	}
	tx.staged[r.ID] = r
	return nil
}
