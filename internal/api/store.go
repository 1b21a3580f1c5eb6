package api

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samcharles93/tmckit/internal/report"
	"github.com/samcharles93/tmckit/pkg/tmc"
)

// DefaultStoreCapacity bounds how many parsed documents are kept.
const DefaultStoreCapacity = 64

// ParseStore keeps recent parse results in memory. When full, the oldest
// record is evicted.
type ParseStore struct {
	mu       sync.Mutex
	capacity int
	order    []string
	records  map[string]*parseRecord
}

func NewParseStore(capacity int) *ParseStore {
	if capacity <= 0 {
		capacity = DefaultStoreCapacity
	}
	return &ParseStore{
		capacity: capacity,
		records:  make(map[string]*parseRecord),
	}
}

func (s *ParseStore) Create(doc tmc.Document, now time.Time) *parseRecord {
	rec := &parseRecord{
		ID:        newParseID(),
		CreatedAt: now,
		Tree:      report.Build(doc),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.order) >= s.capacity {
		delete(s.records, s.order[0])
		s.order = s.order[1:]
	}
	s.records[rec.ID] = rec
	s.order = append(s.order, rec.ID)
	return rec
}

func (s *ParseStore) Get(id string) (*parseRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	return rec, ok
}

func (s *ParseStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return false
	}
	delete(s.records, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *ParseStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func newParseID() string {
	return "parse_" + uuid.NewString()
}
