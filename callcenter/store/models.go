package store

import (
	"time"

	"github.com/uptrace/bun"
)

// Call statuses.
const (
	CallStatusActive    = "active"
	CallStatusCompleted = "completed"
)

// Call log entry types.
const (
	EntryCustomer   = "customer"
	EntryAgent      = "agent"
	EntrySupervisor = "supervisor"
	EntrySystem     = "system"
)

// Worker availability states.
const (
	WorkerAvailable = "available"
	WorkerBusy      = "busy"
	WorkerOffline   = "offline"
)

// Call is the durable record of one end-to-end customer interaction. It is
// created at call initiation and outlives the in-memory session.
type Call struct {
	bun.BaseModel `bun:"table:calls,alias:c"`

	ID              int64      `bun:"id,pk,autoincrement"`
	CallID          string     `bun:"call_id,notnull,unique"`
	CustomerPhone   string     `bun:"customer_phone"`
	CustomerName    string     `bun:"customer_name"`
	Department      string     `bun:"department,notnull,default:'general'"`
	Priority        int        `bun:"priority,notnull,default:2"`
	Status          string     `bun:"status,notnull,default:'active'"`
	AssignedWorker  string     `bun:"assigned_worker"`
	CreatedAt       time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	EndedAt         *time.Time `bun:"ended_at,nullzero"`
	DurationSeconds int        `bun:"duration_seconds"`
}

// CallLogEntry is one append-only audit row: a customer message, a handler
// reply, or a system event. Never updated or deleted.
type CallLogEntry struct {
	bun.BaseModel `bun:"table:call_logs,alias:cl"`

	ID        int64     `bun:"id,pk,autoincrement"`
	CallID    string    `bun:"call_id,notnull"`
	HandlerID string    `bun:"handler_id,notnull"`
	EntryType string    `bun:"entry_type,notnull"`
	Content   string    `bun:"content,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// AgentRecord identifies a human or automated call-taker with bounded
// concurrent-call capacity. Written by an external roster service; read here
// by the routing engine.
type AgentRecord struct {
	bun.BaseModel `bun:"table:agents,alias:a"`

	ID           int64     `bun:"id,pk,autoincrement"`
	AgentID      string    `bun:"agent_id,notnull,unique"`
	Name         string    `bun:"name,notnull"`
	Role         string    `bun:"role"`
	Status       string    `bun:"status,notnull,default:'available'"`
	CurrentCalls int       `bun:"current_calls,notnull,default:0"`
	TotalCalls   int       `bun:"total_calls,notnull,default:0"`
	LastActiveAt time.Time `bun:"last_active,nullzero"`
}

// QualityMetric is the one-per-completed-call quality review record.
type QualityMetric struct {
	bun.BaseModel `bun:"table:quality_metrics,alias:qm"`

	ID                   int64     `bun:"id,pk,autoincrement"`
	CallID               string    `bun:"call_id,notnull"`
	HandlerID            string    `bun:"handler_id,notnull"`
	QualityScore         int       `bun:"quality_score"`
	ResolutionStatus     string    `bun:"resolution_status"`
	CustomerSatisfaction int       `bun:"customer_satisfaction"`
	Notes                string    `bun:"notes"`
	CreatedAt            time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
