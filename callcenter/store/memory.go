package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used for local development and tests.
// It honors the same contracts as PostgresStore, including the append-only
// log ordering and the one-directional priority rule.
type MemoryStore struct {
	mu      sync.RWMutex
	calls   map[string]*Call
	logs    map[string][]CallLogEntry
	agents  map[string]*AgentRecord
	metrics []QualityMetric
	nextID  int64
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		calls:  make(map[string]*Call),
		logs:   make(map[string][]CallLogEntry),
		agents: make(map[string]*AgentRecord),
	}
}

// SeedAgents registers worker records, replacing any existing entry with the
// same agent id.
func (s *MemoryStore) SeedAgents(agents ...AgentRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range agents {
		a := agents[i]
		s.nextID++
		a.ID = s.nextID
		s.agents[a.AgentID] = &a
	}
}

func (s *MemoryStore) CreateCall(ctx context.Context, call *Call) error {
	if call == nil {
		return ErrNilRecord
	}
	if strings.TrimSpace(call.CallID) == "" {
		return ErrEmptyCallID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if call.CreatedAt.IsZero() {
		call.CreatedAt = time.Now().UTC()
	}
	s.nextID++
	stored := *call
	stored.ID = s.nextID
	s.calls[call.CallID] = &stored
	return nil
}

func (s *MemoryStore) CallByID(ctx context.Context, callID string) (*Call, error) {
	if strings.TrimSpace(callID) == "" {
		return nil, ErrEmptyCallID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	call, ok := s.calls[callID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *call
	return &copied, nil
}

func (s *MemoryStore) ActiveCalls(ctx context.Context) ([]Call, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var calls []Call
	for _, call := range s.calls {
		if call.Status == CallStatusActive {
			calls = append(calls, *call)
		}
	}
	sort.Slice(calls, func(i, j int) bool {
		return calls[i].CreatedAt.After(calls[j].CreatedAt)
	})
	return calls, nil
}

func (s *MemoryStore) UpdateRouting(ctx context.Context, callID, department string, priority int, assignedWorker string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	call, ok := s.calls[callID]
	if !ok {
		return ErrNotFound
	}
	call.Department = department
	call.Priority = priority
	call.AssignedWorker = assignedWorker
	return nil
}

func (s *MemoryStore) RaisePriority(ctx context.Context, callID string, priority int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	call, ok := s.calls[callID]
	if !ok {
		return ErrNotFound
	}
	if call.Priority < priority {
		call.Priority = priority
	}
	return nil
}

func (s *MemoryStore) FinalizeCall(ctx context.Context, callID, status string, endedAt time.Time, durationSeconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	call, ok := s.calls[callID]
	if !ok {
		return ErrNotFound
	}
	ended := endedAt.UTC()
	call.Status = status
	call.EndedAt = &ended
	call.DurationSeconds = durationSeconds
	return nil
}

func (s *MemoryStore) AppendLog(ctx context.Context, entry *CallLogEntry) error {
	if entry == nil {
		return ErrNilRecord
	}
	if strings.TrimSpace(entry.CallID) == "" {
		return ErrEmptyCallID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.nextID++
	stored := *entry
	stored.ID = s.nextID
	s.logs[entry.CallID] = append(s.logs[entry.CallID], stored)
	return nil
}

func (s *MemoryStore) LogsByCall(ctx context.Context, callID string) ([]CallLogEntry, error) {
	if strings.TrimSpace(callID) == "" {
		return nil, ErrEmptyCallID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.logs[callID]
	out := make([]CallLogEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func (s *MemoryStore) Agents(ctx context.Context) ([]AgentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agents := make([]AgentRecord, 0, len(s.agents))
	for _, a := range s.agents {
		agents = append(agents, *a)
	}
	sort.Slice(agents, func(i, j int) bool {
		return agents[i].Name < agents[j].Name
	})
	return agents, nil
}

func (s *MemoryStore) InsertQualityMetric(ctx context.Context, metric *QualityMetric) error {
	if metric == nil {
		return ErrNilRecord
	}
	if strings.TrimSpace(metric.CallID) == "" {
		return ErrEmptyCallID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if metric.CreatedAt.IsZero() {
		metric.CreatedAt = time.Now().UTC()
	}
	s.nextID++
	stored := *metric
	stored.ID = s.nextID
	s.metrics = append(s.metrics, stored)
	return nil
}

func (s *MemoryStore) QualityMetricsSince(ctx context.Context, since time.Time) ([]QualityMetric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []QualityMetric
	for _, m := range s.metrics {
		if !m.CreatedAt.Before(since) {
			out = append(out, m)
		}
	}
	return out, nil
}
