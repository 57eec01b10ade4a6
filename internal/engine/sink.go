package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/emo-bon/dqc/internal/logging"
	"github.com/emo-bon/dqc/internal/rules"
)

// CopyDB is the subset of pgx used by PostgresSink.
// Satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type CopyDB interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

const violationsTable = "dqc_violations"

const createViolationsTable = `CREATE TABLE IF NOT EXISTS dqc_violations (
	run_id             uuid        NOT NULL,
	position           integer     NOT NULL,
	diagnosis          text        NOT NULL,
	"table"            text        NOT NULL,
	"column"           text        NOT NULL,
	"row"              integer     NOT NULL,
	value              text        NOT NULL,
	extended_diagnosis text        NOT NULL,
	repair             text,
	created_at         timestamptz NOT NULL,
	PRIMARY KEY (run_id, position)
)`

var violationColumns = []string{
	"run_id", "position", "diagnosis", "table", "column", "row",
	"value", "extended_diagnosis", "repair", "created_at",
}

// PostgresSink copies violations into the dqc_violations table.
type PostgresSink struct {
	db  CopyDB
	now func() time.Time
}

// NewPostgresSink creates a sink writing through db.
func NewPostgresSink(db CopyDB) *PostgresSink {
	return &PostgresSink{db: db, now: time.Now}
}

// EnsureSchema creates the violations table when it does not exist.
func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createViolationsTable); err != nil {
		return fmt.Errorf("create %s: %w", violationsTable, err)
	}
	return nil
}

// Write copies violations under runID, keeping their report position.
func (s *PostgresSink) Write(ctx context.Context, runID string, violations []rules.Violation) error {
	id, err := uuid.Parse(runID)
	if err != nil {
		return fmt.Errorf("run id %q: %w", runID, err)
	}
	if len(violations) == 0 {
		return nil
	}

	created := s.now().UTC()
	rows := make([][]any, len(violations))
	for i, v := range violations {
		rows[i] = []any{
			pgtype.UUID{Bytes: id, Valid: true},
			int32(i + 1),
			v.Diagnosis,
			v.Table,
			v.Column,
			int32(v.Row),
			v.Value,
			v.ExtendedDiagnosis,
			pgtype.Text{String: v.Repair, Valid: v.HasRepair()},
			created,
		}
	}

	n, err := s.db.CopyFrom(ctx, pgx.Identifier{violationsTable}, violationColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("copy violations: %w", err)
	}

	logging.FromContext(ctx).Info("violations stored", "table", violationsTable, "rows", n)
	return nil
}
