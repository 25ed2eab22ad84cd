package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"opengov/internal/services/divisions/domain"
)

type fakeSource struct {
	mu       sync.Mutex
	list     []domain.DivisionRecord
	details  map[int]domain.DivisionRecord
	listErr  error
	fetchErr map[int]error
	block    bool
	fetches  int
}

func newSource(rs ...domain.DivisionRecord) *fakeSource {
	return &fakeSource{list: rs, details: map[int]domain.DivisionRecord{}, fetchErr: map[int]error{}}
}

// set replaces the listing and the detail documents
func (f *fakeSource) set(rs ...domain.DivisionRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.list = rs
	f.details = map[int]domain.DivisionRecord{}
}

func (f *fakeSource) ListDivisions(context.Context) ([]domain.DivisionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]domain.DivisionRecord(nil), f.list...), nil
}

func (f *fakeSource) FetchDivision(ctx context.Context, id int) (domain.DivisionRecord, error) {
	f.mu.Lock()
	f.fetches++
	block := f.block
	err := f.fetchErr[id]
	d, ok := f.details[id]
	if !ok {
		for _, r := range f.list {
			if r.DivisionID == id {
				d, ok = r, true
			}
		}
	}
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return domain.DivisionRecord{}, domain.Mark(domain.ErrSourceUnavailable, ctx.Err())
	}
	if err != nil {
		return domain.DivisionRecord{}, err
	}
	if !ok {
		return domain.DivisionRecord{}, domain.Mark(domain.ErrSourceNotFound, fmt.Errorf("division %d", id))
	}
	return d, nil
}

type memStore struct {
	mu       sync.Mutex
	nextID   int64
	mappings map[int]domain.DivisionMapping
	seen     map[int]string

	findErr      map[int]error
	createErr    error
	recordErr    error
	beforeCreate func(divisionID int)
	creates      int
	records      int
}

func newStore() *memStore {
	return &memStore{mappings: map[int]domain.DivisionMapping{}, seen: map[int]string{}, findErr: map[int]error{}}
}

func (m *memStore) FindMapping(_ context.Context, id int) (domain.DivisionMapping, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.findErr[id]; err != nil {
		return domain.DivisionMapping{}, false, err
	}
	v, ok := m.mappings[id]
	return v, ok, nil
}

func (m *memStore) CreateMapping(_ context.Context, id int, thread domain.ThreadID) (domain.DivisionMapping, error) {
	if m.beforeCreate != nil {
		m.beforeCreate(id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if m.createErr != nil {
		return domain.DivisionMapping{}, m.createErr
	}
	if _, dup := m.mappings[id]; dup {
		return domain.DivisionMapping{}, domain.Mark(domain.ErrDuplicateMapping, fmt.Errorf("division %d", id))
	}
	m.nextID++
	v := domain.DivisionMapping{ID: m.nextID, DivisionID: id, ThreadID: thread}
	m.mappings[id] = v
	return v, nil
}

func (m *memStore) LastSeen(_ context.Context, id int) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.seen[id]
	return v, ok, nil
}

func (m *memStore) RecordUpdateSeen(_ context.Context, id int, marker string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recordErr != nil {
		return m.recordErr
	}
	if _, ok := m.mappings[id]; !ok {
		return domain.Mark(domain.ErrStoreUnavailable, errors.New("foreign key violation"))
	}
	m.records++
	m.seen[id] = marker
	return nil
}

func (m *memStore) rows() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.mappings)
}

func (m *memStore) View(_ context.Context, id int) (domain.DivisionView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.mappings[id]
	if !ok {
		return domain.DivisionView{}, errors.New("not tracked")
	}
	marker, seen := m.seen[id]
	return domain.DivisionView{DivisionID: id, ThreadID: v.ThreadID, PublicationUpdated: marker, Seen: seen}, nil
}

type post struct {
	thread  domain.ThreadID
	content string
}

type fakeThreads struct {
	mu        sync.Mutex
	next      int
	created   []string
	posts     []post
	createErr map[string]error
	postErr   map[domain.ThreadID]error
}

func newThreads() *fakeThreads {
	return &fakeThreads{createErr: map[string]error{}, postErr: map[domain.ThreadID]error{}}
}

func (f *fakeThreads) CreateThread(_ context.Context, title string) (domain.ThreadID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.createErr[title]; err != nil {
		return "", err
	}
	f.next++
	f.created = append(f.created, title)
	return domain.ThreadID(fmt.Sprintf("%d", 1000+f.next)), nil
}

func (f *fakeThreads) PostUpdate(_ context.Context, thread domain.ThreadID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.postErr[thread]; err != nil {
		return err
	}
	f.posts = append(f.posts, post{thread, content})
	return nil
}

func (f *fakeThreads) counts() (creates, posts int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created), len(f.posts)
}
