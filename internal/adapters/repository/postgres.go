package repository

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/okian/valuematrix/internal/domain/model"
	"github.com/okian/valuematrix/pkg/metrics"
)

const defaultTable = "ranking_decisions"

var tableName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// PostgresDecisionLog stores decisions in PostgreSQL through lib/pq.
type PostgresDecisionLog struct {
	db           *sql.DB
	table        string
	maxOpenConns int
}

// NewPostgresDecisionLog connects to dsn and creates the table if needed.
func NewPostgresDecisionLog(ctx context.Context, dsn string, opts ...PostgresOption) (*PostgresDecisionLog, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, ErrInvalidDSN
	}
	l := &PostgresDecisionLog{table: defaultTable, maxOpenConns: 10}
	for _, opt := range opts {
		opt(l)
	}
	if !tableName.MatchString(l.table) {
		return nil, fmt.Errorf("invalid table name %q", l.table)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open decision log: %w", err)
	}
	db.SetMaxOpenConns(l.maxOpenConns)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping decision log: %w", err)
	}
	l.db = db
	if err := l.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

// EnsureSchema creates the decision table and its index.
func (l *PostgresDecisionLog) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s (
			session_id  TEXT        NOT NULL,
			sequence    INTEGER     NOT NULL,
			strategy    TEXT        NOT NULL,
			item1_id    TEXT        NOT NULL,
			item2_id    TEXT        NOT NULL,
			winner_id   TEXT        NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (session_id, sequence)
		)`, l.table)
	if _, err := l.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create decision table: %w", err)
	}
	return nil
}

func (l *PostgresDecisionLog) Append(ctx context.Context, events ...model.DecisionEvent) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordDecisionLogWrite(float64(time.Since(start).Milliseconds()), err != nil)
	}()

	for _, ev := range events {
		if ev.SessionID == "" {
			return ErrMissingData
		}
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin decision write: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	insert := fmt.Sprintf(`
		INSERT INTO %s (session_id, sequence, strategy, item1_id, item2_id, winner_id, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (session_id, sequence) DO NOTHING`, l.table)
	for _, ev := range events {
		d := ev.Decision
		if _, err = tx.ExecContext(ctx, insert, ev.SessionID, d.Sequence, ev.Strategy, d.Item1ID, d.Item2ID, d.WinnerID, ev.RecordedAt.UTC()); err != nil {
			return fmt.Errorf("insert decision %s/%d: %w", ev.SessionID, d.Sequence, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit decision write: %w", err)
	}
	return nil
}

func (l *PostgresDecisionLog) List(ctx context.Context, sessionID string) ([]model.DecisionEvent, error) {
	query := fmt.Sprintf(`
		SELECT sequence, strategy, item1_id, item2_id, winner_id, recorded_at
		FROM %s WHERE session_id = $1 ORDER BY sequence`, l.table)
	rows, err := l.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	var out []model.DecisionEvent
	for rows.Next() {
		ev := model.DecisionEvent{SessionID: sessionID}
		d := &ev.Decision
		if err := rows.Scan(&d.Sequence, &ev.Strategy, &d.Item1ID, &d.Item2ID, &d.WinnerID, &ev.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	return out, nil
}

func (l *PostgresDecisionLog) Delete(ctx context.Context, sessionID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE session_id = $1`, l.table)
	if _, err := l.db.ExecContext(ctx, query, sessionID); err != nil {
		return fmt.Errorf("delete decisions: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (l *PostgresDecisionLog) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}

func (l *PostgresDecisionLog) Close() error {
	return l.db.Close()
}
