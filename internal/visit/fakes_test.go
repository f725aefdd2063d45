// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package visit_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/taibuivan/ashaassist/internal/patient"
	"github.com/taibuivan/ashaassist/internal/platform/dberr"
	"github.com/taibuivan/ashaassist/internal/users/auth"
	"github.com/taibuivan/ashaassist/internal/visit"
)

// # In-memory collaborators

// memoryVisits stores copies so that callers never share state with the store.
type memoryVisits struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]visit.Visit
	finds  int
}

func newMemoryVisits() *memoryVisits {
	return &memoryVisits{rows: make(map[int64]visit.Visit)}
}

func (m *memoryVisits) FindByID(_ context.Context, id int64) (*visit.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finds++
	row, ok := m.rows[id]
	if !ok {
		return nil, dberr.ErrNotFound
	}
	return &row, nil
}

func (m *memoryVisits) Save(_ context.Context, v *visit.Visit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	v.ID = m.nextID
	m.rows[v.ID] = *v
	return nil
}

// MarkVerified mirrors the conditional UPDATE of the Postgres store.
func (m *memoryVisits) MarkVerified(_ context.Context, id int64, verifiedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return false, dberr.ErrNotFound
	}
	if row.IsVerified {
		return false, nil
	}
	row.IsVerified = true
	row.VerifiedAt = &verifiedAt
	m.rows[id] = row
	return true, nil
}

// stored returns the current row, bypassing the find counter.
func (m *memoryVisits) stored(id int64) visit.Visit {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[id]
}

// staleVisits serves a frozen copy of each visit from the first read onward,
// like a cache entry that outlived a write. Writes go to the live store.
type staleVisits struct {
	*memoryVisits

	mu       sync.Mutex
	snapshot map[int64]visit.Visit
}

func newStaleVisits(live *memoryVisits) *staleVisits {
	return &staleVisits{memoryVisits: live, snapshot: make(map[int64]visit.Visit)}
}

func (s *staleVisits) FindByID(ctx context.Context, id int64) (*visit.Visit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row, ok := s.snapshot[id]; ok {
		return &row, nil
	}
	v, err := s.memoryVisits.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.snapshot[id] = *v
	return v, nil
}

func (m *memoryVisits) ListRecentByOwner(_ context.Context, username string, limit int) ([]*visit.Visit, error) {
	return m.filter(func(v visit.Visit) bool { return v.OwnerUsername == username }, limit), nil
}

func (m *memoryVisits) ListRecentlyVerified(_ context.Context, limit int) ([]*visit.Visit, error) {
	return m.filter(func(v visit.Visit) bool { return v.IsVerified }, limit), nil
}

func (m *memoryVisits) ListByOwnerID(_ context.Context, ownerID int64) ([]*visit.Visit, error) {
	return m.filter(func(v visit.Visit) bool { return v.OwnerID == ownerID }, 0), nil
}

func (m *memoryVisits) ListByPatientID(_ context.Context, patientID int64) ([]*visit.Visit, error) {
	return m.filter(func(v visit.Visit) bool { return v.PatientID == patientID }, 0), nil
}

func (m *memoryVisits) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows), nil
}

func (m *memoryVisits) findCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.finds
}

// filter returns matching rows newest first, truncated to limit when positive.
func (m *memoryVisits) filter(keep func(visit.Visit) bool, limit int) []*visit.Visit {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*visit.Visit, 0)
	for _, row := range m.rows {
		if keep(row) {
			copied := row
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

type memoryRecords struct {
	byVisit map[int64]*visit.MedicalRecord
}

func (m *memoryRecords) FindByVisitID(_ context.Context, visitID int64) (*visit.MedicalRecord, error) {
	if record, ok := m.byVisit[visitID]; ok {
		return record, nil
	}
	return nil, dberr.ErrNotFound
}

type memoryPatients struct {
	mu     sync.Mutex
	nextID int64
	rows   map[string]*patient.Patient
}

func newMemoryPatients() *memoryPatients {
	return &memoryPatients{rows: make(map[string]*patient.Patient)}
}

func (m *memoryPatients) FindByPhone(_ context.Context, phoneNumber string) (*patient.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if found, ok := m.rows[phoneNumber]; ok {
		return found, nil
	}
	return nil, dberr.ErrNotFound
}

func (m *memoryPatients) FindByID(_ context.Context, id int64) (*patient.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.ID == id {
			return row, nil
		}
	}
	return nil, dberr.ErrNotFound
}

func (m *memoryPatients) Save(_ context.Context, p *patient.Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[p.PhoneNumber]; ok {
		return dberr.ErrDuplicate
	}
	m.nextID++
	p.ID = m.nextID
	m.rows[p.PhoneNumber] = p
	return nil
}

func (m *memoryPatients) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows), nil
}

func (m *memoryPatients) List(context.Context, int, int) ([]*patient.Patient, error) {
	return nil, nil
}

type staticUsers map[string]*auth.User

func (s staticUsers) FindByUsername(_ context.Context, username string) (*auth.User, error) {
	if user, ok := s[username]; ok {
		return user, nil
	}
	return nil, dberr.ErrNotFound
}

// # Delivery doubles

type sentMessage struct {
	destination string
	message     string
}

// recordingSender captures messages and fails with err when set.
type recordingSender struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (s *recordingSender) Send(_ context.Context, destination, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentMessage{destination: destination, message: message})
	return nil
}

// blockingSender never completes on its own.
type blockingSender struct{}

func (blockingSender) Send(ctx context.Context, _, _ string) error {
	<-ctx.Done()
	return ctx.Err()
}

// # Clock

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
