// Package repair feeds the automatic repairs of a violation report back into
// the logsheets before they are transformed.
//
// Repairs are applied to tables freshly loaded from the filtered logsheets,
// never to the data model the rules read, and are addressed by the 1-based
// source row number the report carries.
package repair

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/emo-bon/dqc/internal/core"
	"github.com/emo-bon/dqc/internal/logging"
	"github.com/emo-bon/dqc/internal/rules"
)

// Stats counts what Apply did.
type Stats struct {
	Applied    int
	Unrepaired int
	TypeWarns  int
}

// Apply overwrites each (table, row, column) named by a repairing violation
// with its repair value. Violations without a repair are counted and left
// alone. A repair that does not satisfy the column type is still applied and
// logged at warn level.
func Apply(ctx context.Context, tables map[string]*core.Table, violations []rules.Violation) (Stats, error) {
	var stats Stats
	logger := logging.FromContext(ctx)

	for _, v := range violations {
		if !v.HasRepair() {
			stats.Unrepaired++
			continue
		}

		t, ok := tables[v.Table]
		if !ok {
			return stats, fmt.Errorf("repair %s row %d: %w: %s", v.Column, v.Row, core.ErrTableNotFound, v.Table)
		}
		old, err := t.SetByRowNumber(v.Row, v.Column, v.Repair)
		if err != nil {
			return stats, fmt.Errorf("repair: %w", err)
		}
		stats.Applied++

		if col, ok := t.Schema.Column(v.Column); ok && !col.Type.Match(v.Repair) {
			stats.TypeWarns++
			logger.Warn("repair does not match column type",
				"table", v.Table,
				"column", v.Column,
				"row", v.Row,
				"type", col.Type.String(),
				"repair", v.Repair,
			)
		}
		logger.Debug("repair applied", "table", v.Table, "column", v.Column, "row", v.Row, "old", old, "new", v.Repair)
	}
	return stats, nil
}

// Transform loads the filtered logsheets of h, applies the repairs and writes
// the result to outDir under the same base names.
func Transform(ctx context.Context, filteredDir, outDir string, h core.Habitat, entries []core.SchemaEntry, violations []rules.Violation) (Stats, error) {
	tables, err := core.LoadTables(ctx, filteredDir, h, entries)
	if err != nil {
		return Stats{}, err
	}

	stats, err := Apply(ctx, tables, violations)
	if err != nil {
		return stats, err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return stats, fmt.Errorf("create transformed dir: %w", err)
	}
	for alias, t := range tables {
		info, _ := core.LookupLogsheet(alias)
		if err := writeTable(filepath.Join(outDir, info.BaseName+".csv"), t); err != nil {
			return stats, err
		}
	}

	logging.FromContext(ctx).Info("logsheets transformed",
		"habitat", h,
		"dir", outDir,
		"repairs_applied", stats.Applied,
		"unrepaired", stats.Unrepaired,
		"type_warnings", stats.TypeWarns,
	)
	return stats, nil
}

func writeTable(path string, t *core.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	if err := t.WriteCSV(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}
