package store

import (
	"context"
	"sync"

	"github.com/naka-gawa/talentrank/internal/domain"
)

// Memory keeps records in process memory. It is the default backend and the
// one used by tests.
type Memory struct {
	mu      sync.RWMutex
	records map[string]domain.AnalysisRecord
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]domain.AnalysisRecord)}
}

func (m *Memory) Get(_ context.Context, subject domain.Subject) (domain.AnalysisRecord, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[subject.Key()]
	if !ok {
		return domain.AnalysisRecord{}, false, nil
	}
	return cloneRecord(r), true, nil
}

func (m *Memory) Put(_ context.Context, record domain.AnalysisRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.Subject.Key()] = cloneRecord(record)
	return nil
}

func (m *Memory) Search(_ context.Context, q domain.Query) (domain.SearchResult, error) {
	return filterAndPage(m.snapshot(), q), nil
}

func (m *Memory) Stats(_ context.Context, nationThreshold float64) (domain.Stats, error) {
	b := domain.NewStatsBuilder(nationThreshold)
	for _, r := range m.snapshot() {
		b.Add(r)
	}
	return b.Build(), nil
}

func (m *Memory) snapshot() []domain.AnalysisRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.AnalysisRecord, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, cloneRecord(r))
	}
	return out
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }
