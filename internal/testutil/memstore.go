// Package testutil provides an in-memory domain.TagStore for package tests.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"rfidtags/internal/domain"
)

// MemStore is an in-memory TagStore with transaction and savepoint rollback.
// It is safe for concurrent use; transactions are serialized.
type MemStore struct {
	mu        sync.Mutex
	txMu      sync.Mutex
	tags      []domain.Tag
	locations map[int64]bool
	nextID    int64
	clock     time.Time

	// InsertErr makes Insert fail for the given EPC.
	InsertErr map[string]error
	// CommitErr makes every WithTx call fail at commit time.
	CommitErr error
	// SavepointErr makes every Savepoint call fail before running fn.
	SavepointErr error
	PingErr      error
}

// NewMemStore returns an empty store whose clock starts at a fixed instant and
// advances one second per insert, so creation order is deterministic.
func NewMemStore() *MemStore {
	return &MemStore{
		locations: make(map[int64]bool),
		nextID:    1,
		clock:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		InsertErr: make(map[string]error),
	}
}

// AddLocation registers a location id for LocationExists.
func (s *MemStore) AddLocation(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations[id] = true
}

// Len returns the number of stored tags.
func (s *MemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tags)
}

// Seed inserts a tag with the given EPC and status directly.
func (s *MemStore) Seed(epc string, status domain.Status) *domain.Tag {
	t, err := s.Insert(context.Background(), &domain.TagDraft{EPC: epc, Status: status, Count: 1})
	if err != nil {
		panic(fmt.Sprintf("seed %s: %v", epc, err))
	}
	return t
}

func (s *MemStore) snapshot() []domain.Tag {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Tag(nil), s.tags...)
}

func (s *MemStore) restore(tags []domain.Tag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tags = tags
}

func (s *MemStore) Ping(ctx context.Context) error {
	if s.PingErr != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, s.PingErr)
	}
	return nil
}

func (s *MemStore) WithTx(ctx context.Context, fn func(tx domain.TagTx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	before := s.snapshot()
	if err := fn(&memTx{MemStore: s}); err != nil {
		s.restore(before)
		return err
	}
	if s.CommitErr != nil {
		s.restore(before)
		return fmt.Errorf("%w: commit: %w", domain.ErrStoreUnavailable, s.CommitErr)
	}
	return nil
}

type memTx struct {
	*MemStore
}

func (t *memTx) Savepoint(ctx context.Context, fn func() error) error {
	if t.SavepointErr != nil {
		return fmt.Errorf("%w: savepoint: %w", domain.ErrStoreUnavailable, t.SavepointErr)
	}
	before := t.snapshot()
	if err := fn(); err != nil {
		t.restore(before)
		return err
	}
	return nil
}

func (s *MemStore) find(pred func(t *domain.Tag) bool) int {
	for i := range s.tags {
		if pred(&s.tags[i]) {
			return i
		}
	}
	return -1
}

func (s *MemStore) FindByKey(ctx context.Context, epc string) (*domain.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(func(t *domain.Tag) bool { return t.EPC == epc })
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	t := s.tags[i]
	return &t, nil
}

func (s *MemStore) ExistsByID(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(func(t *domain.Tag) bool { return t.ID == id }) >= 0, nil
}

func (s *MemStore) LocationExists(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locations[id], nil
}

func (s *MemStore) Insert(ctx context.Context, d *domain.TagDraft) (*domain.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.InsertErr[d.EPC]; err != nil {
		return nil, err
	}
	if s.find(func(t *domain.Tag) bool { return t.EPC == d.EPC }) >= 0 {
		return nil, domain.ErrDuplicateKey
	}
	s.clock = s.clock.Add(time.Second)
	t := domain.Tag{
		ID:                s.nextID,
		EPC:               d.EPC,
		Status:            d.Status,
		ParentTagID:       d.ParentTagID,
		CurrentLocationID: d.CurrentLocationID,
		RSSI:              d.RSSI,
		Count:             d.Count,
		DeviceID:          d.DeviceID,
		SessionID:         d.SessionID,
		Location:          d.Location,
		ReaderID:          d.ReaderID,
		Timestamp:         d.Timestamp,
		CreatedAt:         s.clock,
		UpdatedAt:         s.clock,
	}
	s.nextID++
	s.tags = append(s.tags, t)
	return &t, nil
}

func applyOptional[T any](dst **T, o domain.Optional[T]) {
	if !o.Set {
		return
	}
	if o.Null {
		*dst = nil
		return
	}
	v := o.Value
	*dst = &v
}

func (s *MemStore) UpdateByKey(ctx context.Context, epc string, u domain.TagUpdate) (*domain.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(func(t *domain.Tag) bool { return t.EPC == epc })
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	t := &s.tags[i]
	if u.Status.Set && !u.Status.Null {
		t.Status = u.Status.Value
	}
	if u.Count.Set && !u.Count.Null {
		t.Count = u.Count.Value
	}
	applyOptional(&t.Location, u.Location)
	applyOptional(&t.ReaderID, u.ReaderID)
	applyOptional(&t.RSSI, u.RSSI)
	applyOptional(&t.DeviceID, u.DeviceID)
	applyOptional(&t.SessionID, u.SessionID)
	applyOptional(&t.ParentTagID, u.ParentTagID)
	applyOptional(&t.CurrentLocationID, u.CurrentLocationID)
	s.clock = s.clock.Add(time.Second)
	t.UpdatedAt = s.clock
	out := *t
	return &out, nil
}

func (s *MemStore) remove(pred func(t *domain.Tag) bool) (*domain.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(pred)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	t := s.tags[i]
	s.tags = append(s.tags[:i:i], s.tags[i+1:]...)
	return &t, nil
}

func (s *MemStore) DeleteByKey(ctx context.Context, epc string) (*domain.Tag, error) {
	return s.remove(func(t *domain.Tag) bool { return t.EPC == epc })
}

func (s *MemStore) DeleteByID(ctx context.Context, id int64) (*domain.Tag, error) {
	return s.remove(func(t *domain.Tag) bool { return t.ID == id })
}

func (s *MemStore) Count(ctx context.Context, status domain.Status) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tags {
		if status == "" || t.Status == status {
			n++
		}
	}
	return n, nil
}

func (s *MemStore) List(ctx context.Context, f domain.TagFilter) ([]*domain.Tag, error) {
	f = f.Normalized()
	s.mu.Lock()
	matched := make([]*domain.Tag, 0)
	for _, t := range s.tags {
		if f.Status == "" || t.Status == f.Status {
			t := t
			matched = append(matched, &t)
		}
	}
	s.mu.Unlock()
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})
	if f.Offset >= len(matched) {
		return []*domain.Tag{}, nil
	}
	end := f.Offset + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[f.Offset:end], nil
}
