package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/emo-bon/dqc/internal/rules"
)

// fakeCopyDB records the statements and copied rows.
type fakeCopyDB struct {
	execs   []string
	table   pgx.Identifier
	columns []string
	rows    [][]any
}

func (f *fakeCopyDB) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, sql)
	return pgconn.NewCommandTag("CREATE TABLE"), nil
}

func (f *fakeCopyDB) CopyFrom(_ context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error) {
	f.table = table
	f.columns = columns
	for src.Next() {
		values, err := src.Values()
		if err != nil {
			return 0, err
		}
		f.rows = append(f.rows, values)
	}
	return int64(len(f.rows)), src.Err()
}

func TestPostgresSink(t *testing.T) {
	db := &fakeCopyDB{}
	sink := NewPostgresSink(db)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	sink.now = func() time.Time { return now }
	ctx := context.Background()

	if err := sink.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if len(db.execs) != 1 || !strings.Contains(db.execs[0], "CREATE TABLE IF NOT EXISTS dqc_violations") {
		t.Errorf("execs = %v", db.execs)
	}

	runID := "0b6f5b3e-5f07-4a43-9a43-2d8b1c6f7e10"
	violations := []rules.Violation{
		{Diagnosis: "illegal depth", Table: "ss", Column: "depth", Row: 3, Value: "25.5"},
		{Diagnosis: "organization edmoid error", Table: "so", Column: "organization_edmoid", Row: 1, Value: "1",
			Repair: "https://edmo.seadatanet.org/report/1"},
	}
	if err := sink.Write(ctx, runID, violations); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if db.table.Sanitize() != `"dqc_violations"` {
		t.Errorf("table = %s", db.table.Sanitize())
	}
	if len(db.columns) != len(violationColumns) {
		t.Errorf("columns = %v", db.columns)
	}
	if len(db.rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(db.rows))
	}

	first := db.rows[0]
	if first[1] != int32(1) || first[5] != int32(3) || first[2] != "illegal depth" {
		t.Errorf("first row = %v", first)
	}
	if repair := first[8].(pgtype.Text); repair.Valid {
		t.Errorf("first repair = %+v, want NULL", repair)
	}
	if repair := db.rows[1][8].(pgtype.Text); !repair.Valid || repair.String != violations[1].Repair {
		t.Errorf("second repair = %+v", repair)
	}
	if id := first[0].(pgtype.UUID); !id.Valid {
		t.Errorf("run id = %+v, want valid", id)
	}
	if created := first[9].(time.Time); !created.Equal(now) {
		t.Errorf("created_at = %v, want %v", first[9], now)
	}
}

func TestPostgresSink_RejectsBadRunID(t *testing.T) {
	db := &fakeCopyDB{}
	if err := NewPostgresSink(db).Write(context.Background(), "run-1", []rules.Violation{{Row: 1}}); err == nil {
		t.Error("Write() expected error for non-uuid run id")
	}
	if len(db.rows) != 0 {
		t.Errorf("rows copied = %d, want 0", len(db.rows))
	}
}
