package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/emo-bon/dqc/internal/authority"
	"github.com/emo-bon/dqc/internal/core"
	"github.com/emo-bon/dqc/internal/logging"
	"github.com/emo-bon/dqc/internal/rules"
)

// fixedRule returns canned violations or an error.
type fixedRule struct {
	name       string
	violations []rules.Violation
	err        error
	ran        *int
}

func (r fixedRule) Name() string { return r.name }

func (r fixedRule) Check(context.Context, rules.Env) ([]rules.Violation, error) {
	if r.ran != nil {
		*r.ran++
	}
	return r.violations, r.err
}

// lookupRule resolves one identifier through the pass cache.
type lookupRule struct {
	resolver authority.Resolver
}

func (r lookupRule) Name() string { return "lookup" }

func (r lookupRule) Check(ctx context.Context, env rules.Env) ([]rules.Violation, error) {
	for range 2 {
		if _, _, err := env.Authority.Lookup(ctx, r.resolver, "id"); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

type countingResolver struct{ calls int }

func (c *countingResolver) Name() string { return "counting" }

func (c *countingResolver) Resolve(context.Context, string) (string, error) {
	c.calls++
	return "name", nil
}

func testModel(t *testing.T) *core.DataModel {
	t.Helper()
	var tables []*core.Table
	for _, alias := range []string{"wm", "wo", "ws"} {
		tbl, err := core.NewTable(alias, core.Schema{}, []string{"source_mat_id"})
		if err != nil {
			t.Fatal(err)
		}
		tables = append(tables, tbl)
	}
	m, err := core.NewDataModel(core.HabitatWater, tables...)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func v(diagnosis string, row int) rules.Violation {
	return rules.Violation{Diagnosis: diagnosis, Table: "ws", Column: "c", Row: row}
}

func TestExecute_ConcatenatesInRuleOrder(t *testing.T) {
	rs := rules.RuleSet{
		fixedRule{name: "b", violations: []rules.Violation{v("b", 2), v("b", 1)}},
		fixedRule{name: "none"},
		fixedRule{name: "a", violations: []rules.Violation{v("a", 1)}},
	}

	got, err := Execute(context.Background(), rs, testModel(t))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	want := []rules.Violation{v("b", 2), v("b", 1), v("a", 1)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("violations mismatch (-want +got):\n%s", diff)
	}
}

func TestExecute_FailFast(t *testing.T) {
	var after int
	rs := rules.RuleSet{
		fixedRule{name: "ok", violations: []rules.Violation{v("ok", 1)}},
		fixedRule{name: "broken", err: core.ErrColumnNotFound},
		fixedRule{name: "never", ran: &after},
	}

	_, err := Execute(context.Background(), rs, testModel(t))
	if !errors.Is(err, core.ErrColumnNotFound) {
		t.Fatalf("Execute() error = %v, want ErrColumnNotFound", err)
	}
	if !strings.Contains(err.Error(), "rule broken") {
		t.Errorf("error %q does not name the rule", err)
	}
	if after != 0 {
		t.Errorf("rule after the failure ran %d times", after)
	}
}

func TestExecute_FreshCachePerPass(t *testing.T) {
	res := &countingResolver{}
	rs := rules.RuleSet{lookupRule{resolver: res}, lookupRule{resolver: res}}
	m := testModel(t)

	for range 2 {
		if _, err := Execute(context.Background(), rs, m); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
	}
	if res.calls != 2 {
		t.Errorf("resolver calls = %d, want one per pass", res.calls)
	}
}

type recordingSink struct {
	runID      string
	violations []rules.Violation
	err        error
}

func (s *recordingSink) Write(_ context.Context, runID string, violations []rules.Violation) error {
	s.runID = runID
	s.violations = violations
	return s.err
}

func TestEngine_Run(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data-quality-control", "dqc.csv")
	sink := &recordingSink{}
	e := New(path, sink)

	repaired := v("organization edmoid error", 3)
	repaired.Repair = "https://edmo.seadatanet.org/report/1"
	rs := rules.RuleSet{fixedRule{name: "r", violations: []rules.Violation{v("pattern error", 1), repaired}}}

	res, err := e.Run(context.Background(), rs, testModel(t))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if _, err := uuid.Parse(res.RunID); err != nil {
		t.Errorf("RunID %q is not a uuid: %v", res.RunID, err)
	}
	if res.Repairable != 1 {
		t.Errorf("Repairable = %d, want 1", res.Repairable)
	}
	if sink.runID != res.RunID || len(sink.violations) != 2 {
		t.Errorf("sink got run %q with %d violations", sink.runID, len(sink.violations))
	}

	got, err := ReadReportFile(path)
	if err != nil {
		t.Fatalf("ReadReportFile() error = %v", err)
	}
	if diff := cmp.Diff(res.Violations, got); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_RunKeepsContextRunID(t *testing.T) {
	ctx := logging.WithRunID(context.Background(), "0b6f5b3e-5f07-4a43-9a43-2d8b1c6f7e10")
	res, err := New(filepath.Join(t.TempDir(), "dqc.csv")).Run(ctx, nil, testModel(t))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.RunID != "0b6f5b3e-5f07-4a43-9a43-2d8b1c6f7e10" {
		t.Errorf("RunID = %q", res.RunID)
	}
}

func TestEngine_RunFailureLeavesPreviousReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dqc.csv")
	if err := os.WriteFile(path, []byte("previous"), 0o644); err != nil {
		t.Fatal(err)
	}

	rs := rules.RuleSet{fixedRule{name: "broken", err: rules.ErrPrecondition}}
	if _, err := New(path).Run(context.Background(), rs, testModel(t)); err == nil {
		t.Fatal("Run() expected error")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "previous" {
		t.Errorf("report = %q, want it untouched", data)
	}
}

// contactModel holds one observatory row whose contact name disagrees with
// the name the ORCID registry holds.
func contactModel(t *testing.T) *core.DataModel {
	t.Helper()
	headers := map[string][]string{
		"wm": {"source_mat_id"},
		"wo": {"contact_orcid", "contact_name"},
		"ws": {"source_mat_id"},
	}
	var tables []*core.Table
	for _, alias := range []string{"wm", "wo", "ws"} {
		tbl, err := core.NewTable(alias, core.Schema{}, headers[alias])
		if err != nil {
			t.Fatal(err)
		}
		tables = append(tables, tbl)
	}
	if err := tables[1].Append(0, []string{"0000-0002-1825-0097", "Wrong Name"}); err != nil {
		t.Fatal(err)
	}
	m, err := core.NewDataModel(core.HabitatWater, tables...)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func orcidRules(srv *httptest.Server) rules.RuleSet {
	return rules.RuleSet{rules.ORCIDName{
		ORCIDColumn: "contact_orcid",
		NameColumn:  "contact_name",
		Aliases:     []string{"wo"},
		Resolver:    authority.NewORCID(srv.URL, srv.Client()),
	}}
}

func writePerson(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"person":{"name":{"given-names":{"value":"Jane"},"family-name":{"value":"Doe"}}}}`)
}

func TestEngine_RunCancelled(t *testing.T) {
	t.Run("live context reports the mismatch", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { writePerson(w) }))
		defer srv.Close()

		res, err := New(filepath.Join(t.TempDir(), "dqc.csv")).Run(context.Background(), orcidRules(srv), contactModel(t))
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if len(res.Violations) != 1 {
			t.Errorf("violations = %d, want 1", len(res.Violations))
		}
	})

	t.Run("cancelled before the pass", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { writePerson(w) }))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		path := filepath.Join(t.TempDir(), "dqc.csv")
		if _, err := New(path).Run(ctx, orcidRules(srv), contactModel(t)); !errors.Is(err, context.Canceled) {
			t.Fatalf("Run() error = %v, want context.Canceled", err)
		}
		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("report exists after cancelled pass (stat error %v)", err)
		}
	})

	t.Run("cancelled during a lookup", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cancel()
			<-r.Context().Done()
		}))
		defer srv.Close()

		path := filepath.Join(t.TempDir(), "dqc.csv")
		sink := &recordingSink{}
		if _, err := New(path, sink).Run(ctx, orcidRules(srv), contactModel(t)); !errors.Is(err, context.Canceled) {
			t.Fatalf("Run() error = %v, want context.Canceled", err)
		}
		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("report exists after cancelled pass (stat error %v)", err)
		}
		if sink.runID != "" {
			t.Error("sink written after cancelled pass")
		}
	})

	t.Run("empty rule set still honours cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		path := filepath.Join(t.TempDir(), "dqc.csv")
		if _, err := New(path).Run(ctx, nil, testModel(t)); !errors.Is(err, context.Canceled) {
			t.Fatalf("Run() error = %v, want context.Canceled", err)
		}
	})
}
