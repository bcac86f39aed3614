package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound    = errors.New("record not found")
	ErrNilRecord   = errors.New("record is nil")
	ErrEmptyCallID = errors.New("call id is empty")
)

// Store is the persistence contract consumed by the registry and handlers:
// keyed CRUD for Call, append-and-query for CallLogEntry, reads for
// AgentRecord, insert for QualityMetric.
type Store interface {
	CreateCall(ctx context.Context, call *Call) error
	CallByID(ctx context.Context, callID string) (*Call, error)
	ActiveCalls(ctx context.Context) ([]Call, error)

	// UpdateRouting applies the routing decision to an active call.
	UpdateRouting(ctx context.Context, callID, department string, priority int, assignedWorker string) error

	// RaisePriority lifts the call's priority to at least the given level.
	// It never lowers a priority.
	RaisePriority(ctx context.Context, callID string, priority int) error

	// FinalizeCall marks the call completed and records its duration.
	FinalizeCall(ctx context.Context, callID, status string, endedAt time.Time, durationSeconds int) error

	AppendLog(ctx context.Context, entry *CallLogEntry) error
	LogsByCall(ctx context.Context, callID string) ([]CallLogEntry, error)

	Agents(ctx context.Context) ([]AgentRecord, error)

	InsertQualityMetric(ctx context.Context, metric *QualityMetric) error
	QualityMetricsSince(ctx context.Context, since time.Time) ([]QualityMetric, error)
}
