package service

import (
	"context"
	"sync"
	"time"

	"conecta-ongs/internal/domain"
	"conecta-ongs/internal/repo"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

type fakeClock interface {
	clockwork.Clock
	Advance(d time.Duration)
}

type memReceipts struct {
	mu       sync.Mutex
	receipts []domain.Receipt
	err      error
}

func (m *memReceipts) Save(_ context.Context, r *domain.Receipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, existing := range m.receipts {
		if existing.SessionID == r.SessionID && existing.Generation == r.Generation {
			return nil
		}
	}
	m.receipts = append(m.receipts, *r)
	return nil
}

func (m *memReceipts) ListBySession(_ context.Context, id uuid.UUID) ([]domain.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Receipt
	for _, r := range m.receipts {
		if r.SessionID == id {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memReceipts) List(_ context.Context, limit, offset int) ([]domain.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if offset >= len(m.receipts) {
		return []domain.Receipt{}, nil
	}
	end := min(offset+limit, len(m.receipts))
	return append([]domain.Receipt(nil), m.receipts[offset:end]...), nil
}

func (m *memReceipts) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.receipts)
}

// blockingReceipts holds Save until release is closed.
type blockingReceipts struct {
	*memReceipts
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newBlockingReceipts() *blockingReceipts {
	return &blockingReceipts{
		memReceipts: &memReceipts{},
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
}

func (b *blockingReceipts) Save(ctx context.Context, r *domain.Receipt) error {
	b.once.Do(func() { close(b.entered) })
	<-b.release
	return b.memReceipts.Save(ctx, r)
}

type memPublisher struct {
	mu        sync.Mutex
	published []domain.Receipt
}

func (p *memPublisher) PublishApproved(_ context.Context, r domain.Receipt) error {
	p.mu.Lock()
	p.published = append(p.published, r)
	p.mu.Unlock()
	return nil
}

func (p *memPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

type memBroadcaster struct {
	mu           sync.Mutex
	updates      map[uuid.UUID]int
	disconnected []uuid.UUID
}

func newMemBroadcaster() *memBroadcaster {
	return &memBroadcaster{updates: make(map[uuid.UUID]int)}
}

func (b *memBroadcaster) Publish(id uuid.UUID, _ any) {
	b.mu.Lock()
	b.updates[id]++
	b.mu.Unlock()
}

func (b *memBroadcaster) Disconnect(id uuid.UUID) {
	b.mu.Lock()
	b.disconnected = append(b.disconnected, id)
	b.mu.Unlock()
}

func (b *memBroadcaster) updatesFor(id uuid.UUID) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.updates[id]
}

type memVolunteers struct {
	mu   sync.Mutex
	byID map[uuid.UUID]domain.Volunteer
}

func newMemVolunteers() *memVolunteers {
	return &memVolunteers{byID: make(map[uuid.UUID]domain.Volunteer)}
}

func (m *memVolunteers) Create(_ context.Context, v *domain.Volunteer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.CPF == v.CPF {
			return repo.ErrDuplicateVolunteer
		}
	}
	m.byID[v.ID] = *v
	return nil
}

func (m *memVolunteers) FindByID(_ context.Context, id uuid.UUID) (*domain.Volunteer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (m *memVolunteers) List(_ context.Context, _, _ int) ([]domain.Volunteer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Volunteer, 0, len(m.byID))
	for _, v := range m.byID {
		out = append(out, v)
	}
	return out, nil
}

type stubLookup struct {
	addr  domain.Address
	err   error
	calls int
}

func (s *stubLookup) Lookup(_ context.Context, _ string) (domain.Address, error) {
	s.calls++
	return s.addr, s.err
}

type stubGeocoder struct {
	state string
	err   error
}

func (s stubGeocoder) StateAt(context.Context, float64, float64) (string, error) {
	return s.state, s.err
}
