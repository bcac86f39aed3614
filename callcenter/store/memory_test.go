package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreCallLifecycle(t *testing.T) {
	t.Parallel()

	st := NewMemoryStore()
	ctx := context.Background()

	err := st.CreateCall(ctx, &Call{
		CallID:     "call_abc123",
		Department: "general",
		Priority:   2,
		Status:     CallStatusActive,
	})
	if err != nil {
		t.Fatalf("CreateCall() error = %v", err)
	}

	call, err := st.CallByID(ctx, "call_abc123")
	if err != nil {
		t.Fatalf("CallByID() error = %v", err)
	}
	if call.ID == 0 || call.CreatedAt.IsZero() {
		t.Fatalf("expected assigned id and timestamp: %+v", call)
	}

	if err := st.UpdateRouting(ctx, "call_abc123", "billing", 3, "agent_001"); err != nil {
		t.Fatalf("UpdateRouting() error = %v", err)
	}
	ended := time.Now().UTC()
	if err := st.FinalizeCall(ctx, "call_abc123", CallStatusCompleted, ended, 95); err != nil {
		t.Fatalf("FinalizeCall() error = %v", err)
	}

	call, err = st.CallByID(ctx, "call_abc123")
	if err != nil {
		t.Fatalf("CallByID() error = %v", err)
	}
	if call.Status != CallStatusCompleted || call.DurationSeconds != 95 || call.EndedAt == nil {
		t.Fatalf("finalize not applied: %+v", call)
	}

	active, err := st.ActiveCalls(ctx)
	if err != nil {
		t.Fatalf("ActiveCalls() error = %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("completed call must leave the active set, got %d", len(active))
	}
}

func TestMemoryStoreValidation(t *testing.T) {
	t.Parallel()

	st := NewMemoryStore()
	ctx := context.Background()

	if err := st.CreateCall(ctx, nil); !errors.Is(err, ErrNilRecord) {
		t.Fatalf("expected ErrNilRecord, got %v", err)
	}
	if err := st.CreateCall(ctx, &Call{CallID: "   "}); !errors.Is(err, ErrEmptyCallID) {
		t.Fatalf("expected ErrEmptyCallID, got %v", err)
	}
	if _, err := st.CallByID(ctx, "call_nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := st.UpdateRouting(ctx, "call_nope", "billing", 2, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := st.FinalizeCall(ctx, "call_nope", CallStatusCompleted, time.Now(), 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreRaisePriorityIsOneDirectional(t *testing.T) {
	t.Parallel()

	st := NewMemoryStore()
	ctx := context.Background()
	if err := st.CreateCall(ctx, &Call{CallID: "call_prio", Priority: 2, Status: CallStatusActive}); err != nil {
		t.Fatalf("CreateCall() error = %v", err)
	}

	if err := st.RaisePriority(ctx, "call_prio", 4); err != nil {
		t.Fatalf("RaisePriority() error = %v", err)
	}
	if err := st.RaisePriority(ctx, "call_prio", 3); err != nil {
		t.Fatalf("RaisePriority() error = %v", err)
	}

	call, err := st.CallByID(ctx, "call_prio")
	if err != nil {
		t.Fatalf("CallByID() error = %v", err)
	}
	if call.Priority != 4 {
		t.Fatalf("priority must never decrease, got %d", call.Priority)
	}
}

func TestMemoryStoreLogOrdering(t *testing.T) {
	t.Parallel()

	st := NewMemoryStore()
	ctx := context.Background()

	contents := []string{"first", "second", "third"}
	for _, c := range contents {
		err := st.AppendLog(ctx, &CallLogEntry{
			CallID:    "call_log",
			HandlerID: "system",
			EntryType: EntrySystem,
			Content:   c,
		})
		if err != nil {
			t.Fatalf("AppendLog(%q) error = %v", c, err)
		}
	}

	entries, err := st.LogsByCall(ctx, "call_log")
	if err != nil {
		t.Fatalf("LogsByCall() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i, c := range contents {
		if entries[i].Content != c {
			t.Fatalf("entry %d = %q, want %q", i, entries[i].Content, c)
		}
	}

	// Returned slices are copies; mutating them must not touch the store.
	entries[0].Content = "mutated"
	again, _ := st.LogsByCall(ctx, "call_log")
	if again[0].Content != "first" {
		t.Fatal("LogsByCall() must return an independent copy")
	}
}

func TestMemoryStoreQualityMetricsSince(t *testing.T) {
	t.Parallel()

	st := NewMemoryStore()
	ctx := context.Background()

	old := &QualityMetric{CallID: "call_old", HandlerID: "supervisor_agent", QualityScore: 3,
		CreatedAt: time.Now().UTC().AddDate(0, 0, -60)}
	recent := &QualityMetric{CallID: "call_new", HandlerID: "supervisor_agent", QualityScore: 5}
	if err := st.InsertQualityMetric(ctx, old); err != nil {
		t.Fatalf("InsertQualityMetric() error = %v", err)
	}
	if err := st.InsertQualityMetric(ctx, recent); err != nil {
		t.Fatalf("InsertQualityMetric() error = %v", err)
	}

	metrics, err := st.QualityMetricsSince(ctx, time.Now().UTC().AddDate(0, 0, -7))
	if err != nil {
		t.Fatalf("QualityMetricsSince() error = %v", err)
	}
	if len(metrics) != 1 || metrics[0].CallID != "call_new" {
		t.Fatalf("expected only the recent metric, got %+v", metrics)
	}
}
