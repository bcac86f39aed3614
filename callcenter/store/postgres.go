package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// PostgresConfig configures the bun/Postgres record store.
type PostgresConfig struct {
	DSN          string        `envconfig:"DSN" split_words:"true" required:"true"`
	MaxOpenConns int           `envconfig:"MAX_OPEN_CONNS" split_words:"true" default:"8"`
	Timeout      time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// PostgresStore persists call records in Postgres via bun.
type PostgresStore struct {
	db *bun.DB
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(cfg PostgresConfig) (*PostgresStore, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithTimeout(timeout),
	))
	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	return &PostgresStore{db: bun.NewDB(sqldb, pgdialect.New())}, nil
}

// CreateSchema creates all call-center tables if they do not exist yet.
func (s *PostgresStore) CreateSchema(ctx context.Context) error {
	models := []any{
		(*Call)(nil),
		(*CallLogEntry)(nil),
		(*AgentRecord)(nil),
		(*QualityMetric)(nil),
	}
	for _, model := range models {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", model, err)
		}
	}
	return nil
}

func (s *PostgresStore) CreateCall(ctx context.Context, call *Call) error {
	if call == nil {
		return ErrNilRecord
	}
	if strings.TrimSpace(call.CallID) == "" {
		return ErrEmptyCallID
	}
	if call.CreatedAt.IsZero() {
		call.CreatedAt = time.Now().UTC()
	}
	if _, err := s.db.NewInsert().Model(call).Exec(ctx); err != nil {
		return fmt.Errorf("insert call %s: %w", call.CallID, err)
	}
	return nil
}

func (s *PostgresStore) CallByID(ctx context.Context, callID string) (*Call, error) {
	if strings.TrimSpace(callID) == "" {
		return nil, ErrEmptyCallID
	}
	call := new(Call)
	err := s.db.NewSelect().Model(call).Where("c.call_id = ?", callID).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select call %s: %w", callID, err)
	}
	return call, nil
}

func (s *PostgresStore) ActiveCalls(ctx context.Context) ([]Call, error) {
	var calls []Call
	err := s.db.NewSelect().
		Model(&calls).
		Where("c.status = ?", CallStatusActive).
		Order("c.created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select active calls: %w", err)
	}
	return calls, nil
}

func (s *PostgresStore) UpdateRouting(ctx context.Context, callID, department string, priority int, assignedWorker string) error {
	res, err := s.db.NewUpdate().
		Model((*Call)(nil)).
		Set("department = ?", department).
		Set("priority = ?", priority).
		Set("assigned_worker = ?", assignedWorker).
		Where("call_id = ?", callID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update routing for %s: %w", callID, err)
	}
	return requireRow(res, callID)
}

func (s *PostgresStore) RaisePriority(ctx context.Context, callID string, priority int) error {
	// The priority guard in the WHERE clause keeps this one-directional.
	_, err := s.db.NewUpdate().
		Model((*Call)(nil)).
		Set("priority = ?", priority).
		Where("call_id = ?", callID).
		Where("priority < ?", priority).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("raise priority for %s: %w", callID, err)
	}
	return nil
}

func (s *PostgresStore) FinalizeCall(ctx context.Context, callID, status string, endedAt time.Time, durationSeconds int) error {
	res, err := s.db.NewUpdate().
		Model((*Call)(nil)).
		Set("status = ?", status).
		Set("ended_at = ?", endedAt.UTC()).
		Set("duration_seconds = ?", durationSeconds).
		Where("call_id = ?", callID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("finalize call %s: %w", callID, err)
	}
	return requireRow(res, callID)
}

func (s *PostgresStore) AppendLog(ctx context.Context, entry *CallLogEntry) error {
	if entry == nil {
		return ErrNilRecord
	}
	if strings.TrimSpace(entry.CallID) == "" {
		return ErrEmptyCallID
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if _, err := s.db.NewInsert().Model(entry).Exec(ctx); err != nil {
		return fmt.Errorf("append log for %s: %w", entry.CallID, err)
	}
	return nil
}

func (s *PostgresStore) LogsByCall(ctx context.Context, callID string) ([]CallLogEntry, error) {
	if strings.TrimSpace(callID) == "" {
		return nil, ErrEmptyCallID
	}
	var entries []CallLogEntry
	err := s.db.NewSelect().
		Model(&entries).
		Where("cl.call_id = ?", callID).
		Order("cl.created_at ASC", "cl.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select logs for %s: %w", callID, err)
	}
	return entries, nil
}

func (s *PostgresStore) Agents(ctx context.Context) ([]AgentRecord, error) {
	var agents []AgentRecord
	err := s.db.NewSelect().Model(&agents).Order("a.name ASC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select agents: %w", err)
	}
	return agents, nil
}

func (s *PostgresStore) InsertQualityMetric(ctx context.Context, metric *QualityMetric) error {
	if metric == nil {
		return ErrNilRecord
	}
	if strings.TrimSpace(metric.CallID) == "" {
		return ErrEmptyCallID
	}
	if metric.CreatedAt.IsZero() {
		metric.CreatedAt = time.Now().UTC()
	}
	if _, err := s.db.NewInsert().Model(metric).Exec(ctx); err != nil {
		return fmt.Errorf("insert quality metric for %s: %w", metric.CallID, err)
	}
	return nil
}

func (s *PostgresStore) QualityMetricsSince(ctx context.Context, since time.Time) ([]QualityMetric, error) {
	var metrics []QualityMetric
	err := s.db.NewSelect().
		Model(&metrics).
		Where("qm.created_at >= ?", since.UTC()).
		Order("qm.created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select quality metrics: %w", err)
	}
	return metrics, nil
}

func requireRow(res sql.Result, callID string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for %s: %w", callID, err)
	}
	if affected == 0 {
		return fmt.Errorf("call %s: %w", callID, ErrNotFound)
	}
	return nil
}
