package repair

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/emo-bon/dqc/internal/authority"
	"github.com/emo-bon/dqc/internal/core"
	"github.com/emo-bon/dqc/internal/rules"
)

const edmo = "https://edmo.seadatanet.org/report/"

func observatory(t *testing.T, data string, schema core.Schema) *core.Table {
	t.Helper()
	tbl, _, err := core.ReadTable(strings.NewReader(data), "so", schema)
	if err != nil {
		t.Fatalf("ReadTable() error = %v", err)
	}
	return tbl
}

func TestApply(t *testing.T) {
	schema := core.Schema{Columns: []core.Column{
		{Name: "organization_edmoid", Type: core.DataType{Kind: core.KindList}},
		{Name: "tot_depth_water_col", Type: core.DataType{Kind: core.KindFloat}},
	}}
	so := observatory(t, "organization_edmoid,tot_depth_water_col\n,\n\"1; 2\",20\n", schema)
	tables := map[string]*core.Table{"so": so}

	violations := []rules.Violation{
		{Table: "so", Column: "organization_edmoid", Row: 2, Value: "1; 2", Repair: edmo + "1;" + edmo + "2"},
		{Table: "so", Column: "tot_depth_water_col", Row: 2, Value: "20", Repair: "twenty"},
		{Table: "so", Column: "tot_depth_water_col", Row: 2, Value: "20"},
	}

	stats, err := Apply(context.Background(), tables, violations)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if stats != (Stats{Applied: 2, Unrepaired: 1, TypeWarns: 1}) {
		t.Errorf("stats = %+v", stats)
	}
	if v, _ := so.Cell(0, "organization_edmoid"); v != edmo+"1;"+edmo+"2" {
		t.Errorf("organization_edmoid = %q", v)
	}
	if v, _ := so.Cell(0, "tot_depth_water_col"); v != "twenty" {
		t.Errorf("tot_depth_water_col = %q, want repair applied despite type warning", v)
	}
}

func TestApply_Errors(t *testing.T) {
	so := observatory(t, "organization_edmoid\n1\n", core.Schema{})
	tables := map[string]*core.Table{"so": so}

	tests := []struct {
		name string
		v    rules.Violation
		want error
	}{
		{"unknown table", rules.Violation{Table: "wo", Column: "organization_edmoid", Row: 1, Repair: "x"}, core.ErrTableNotFound},
		{"unknown column", rules.Violation{Table: "so", Column: "nope", Row: 1, Repair: "x"}, core.ErrColumnNotFound},
		{"unknown row", rules.Violation{Table: "so", Column: "organization_edmoid", Row: 9, Repair: "x"}, core.ErrRowOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Apply(context.Background(), tables, []rules.Violation{tt.v}); !errors.Is(err, tt.want) {
				t.Errorf("Apply() error = %v, want %v", err, tt.want)
			}
		})
	}
}

// Applying the repairs of a pass and checking again yields no violations
// for the repaired cells.
func TestApply_RepairIsIdempotent(t *testing.T) {
	const rawObs = "organization_edmoid\n\"123; 456\"\n789\n"
	rule := rules.EDMO{Column: "organization_edmoid", Aliases: []string{"so"}}

	pass := func(so *core.Table) []rules.Violation {
		t.Helper()
		m, err := core.NewDataModel(core.HabitatSediment, mustTable(t, "sm"), so, mustTable(t, "ss"))
		if err != nil {
			t.Fatal(err)
		}
		found, err := rule.Check(context.Background(), rules.Env{Model: m, Authority: authority.NewCache()})
		if err != nil {
			t.Fatal(err)
		}
		return found
	}

	first := pass(observatory(t, rawObs, core.Schema{}))
	if len(first) != 2 {
		t.Fatalf("first pass violations = %d, want 2", len(first))
	}

	so := observatory(t, rawObs, core.Schema{})
	if _, err := Apply(context.Background(), map[string]*core.Table{"so": so}, first); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if second := pass(so); len(second) != 0 {
		t.Errorf("second pass violations = %+v, want none", second)
	}
}

func mustTable(t *testing.T, alias string) *core.Table {
	t.Helper()
	tbl, err := core.NewTable(alias, core.Schema{}, []string{"x"})
	if err != nil {
		t.Fatal(err)
	}
	return tbl
}

func TestTransform(t *testing.T) {
	filtered := t.TempDir()
	out := filepath.Join(t.TempDir(), "transformed")

	files := map[string]string{
		"water_measured.csv":    "source_mat_id\nA\n",
		"water_observatory.csv": "wa_id,organization_edmoid\nVB,42\n",
		"water_sampling.csv":    "source_mat_id\n\"\"\nA\n",
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(filtered, name), []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	violations := []rules.Violation{
		{Diagnosis: "organization edmoid error", Table: "wo", Column: "organization_edmoid", Row: 1, Value: "42", Repair: edmo + "42"},
		{Diagnosis: "pattern error", Table: "ws", Column: "source_mat_id", Row: 2, Value: "A"},
	}
	stats, err := Transform(context.Background(), filtered, out, core.HabitatWater, nil, violations)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	if stats.Applied != 1 || stats.Unrepaired != 1 {
		t.Errorf("stats = %+v", stats)
	}

	data, err := os.ReadFile(filepath.Join(out, "water_observatory.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if want := "wa_id,organization_edmoid\nVB," + edmo + "42\n"; string(data) != want {
		t.Errorf("water_observatory.csv = %q, want %q", data, want)
	}

	// Dropped empty rows are not written back.
	data, err = os.ReadFile(filepath.Join(out, "water_sampling.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if want := "source_mat_id\nA\n"; string(data) != want {
		t.Errorf("water_sampling.csv = %q, want %q", data, want)
	}
}
