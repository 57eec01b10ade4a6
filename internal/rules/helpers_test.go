package rules

import (
	"context"
	"strings"
	"testing"

	"github.com/emo-bon/dqc/internal/authority"
	"github.com/emo-bon/dqc/internal/core"
)

// newModel builds a data model from inline CSV logsheets keyed by alias.
// Logsheets not given get a placeholder table without rows.
func newModel(t *testing.T, h core.Habitat, sheets map[string]string, schemas map[string]core.Schema) *core.DataModel {
	t.Helper()
	infos, err := core.Logsheets(h)
	if err != nil {
		t.Fatal(err)
	}

	var tables []*core.Table
	for _, info := range infos {
		data, ok := sheets[info.Alias]
		if !ok {
			data = "placeholder\n"
		}
		tbl, _, err := core.ReadTable(strings.NewReader(data), info.Alias, schemas[info.Alias])
		if err != nil {
			t.Fatalf("ReadTable(%s) error = %v", info.Alias, err)
		}
		tables = append(tables, tbl)
	}

	m, err := core.NewDataModel(h, tables...)
	if err != nil {
		t.Fatalf("NewDataModel() error = %v", err)
	}
	return m
}

func newEnv(m *core.DataModel) Env {
	return Env{Model: m, Authority: authority.NewCache()}
}

// check runs a single rule and fails the test on error.
func check(t *testing.T, r Rule, env Env) []Violation {
	t.Helper()
	got, err := r.Check(context.Background(), env)
	if err != nil {
		t.Fatalf("%s.Check() error = %v", r.Name(), err)
	}
	return got
}

// stubResolver answers from a fixed table and counts calls per identifier.
type stubResolver struct {
	name  string
	names map[string]string
	calls map[string]int
}

func newStub(name string, names map[string]string) *stubResolver {
	return &stubResolver{name: name, names: names, calls: make(map[string]int)}
}

func (s *stubResolver) Name() string { return s.name }

func (s *stubResolver) Resolve(_ context.Context, id string) (string, error) {
	s.calls[id]++
	n, ok := s.names[id]
	if !ok {
		return "", authority.ErrUnresolved
	}
	return n, nil
}
