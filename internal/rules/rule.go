// Package rules holds the logsheet quality control rules and the builder that
// assembles them into a rule set for a habitat scope.
//
// A rule is a named, pure check over a read-only [core.DataModel]. It returns
// the data-quality findings it made as [Violation] values; an error means a
// precondition of the rule did not hold (a table or column is missing) and
// the whole pass must stop.
//
// Rules are plain configuration values: [Pattern], [Ordering] and
// [Membership] are generic factories parameterized by column names and table
// aliases, while [Depth], [SourceMatID], [Taxonomy], [ORCIDName] and [EDMO]
// cross-reference columns or external identity services.
package rules

import (
	"context"
	"errors"
	"fmt"

	"github.com/emo-bon/dqc/internal/authority"
	"github.com/emo-bon/dqc/internal/core"
)

// ErrPrecondition is returned by rules whose input is structurally unusable,
// e.g. an observatory table without rows.
var ErrPrecondition = errors.New("precondition failed")

// Violation is one data-quality finding, addressed by table alias, column
// and 1-based source row number.
type Violation struct {
	Diagnosis         string
	Table             string
	Column            string
	Row               int
	Value             string
	ExtendedDiagnosis string
	Repair            string // "" when no automatic repair is known
}

// HasRepair reports whether the violation carries a repair value.
func (v Violation) HasRepair() bool { return v.Repair != "" }

// Env is what a rule sees during a pass.
type Env struct {
	Model     *core.DataModel
	Authority *authority.Cache
}

// Rule is a named check over the data model.
type Rule interface {
	Name() string
	Check(ctx context.Context, env Env) ([]Violation, error)
}

// RuleSet is an ordered list of rules. The order fixes the report order.
type RuleSet []Rule

// Names returns the rule names in execution order.
func (rs RuleSet) Names() []string {
	names := make([]string, len(rs))
	for i, r := range rs {
		names[i] = r.Name()
	}
	return names
}

// tableWith returns the table under alias after checking it has every column.
func tableWith(env Env, alias string, columns ...string) (*core.Table, error) {
	t, err := env.Model.Get(alias)
	if err != nil {
		return nil, err
	}
	if err := requireColumns(t, columns...); err != nil {
		return nil, err
	}
	return t, nil
}

func requireColumns(t *core.Table, columns ...string) error {
	for _, c := range columns {
		if !t.HasColumn(c) {
			return fmt.Errorf("table %s: %w: %s", t.Alias, core.ErrColumnNotFound, c)
		}
	}
	return nil
}

// cell reads a cell of a column already checked by tableWith.
func cell(t *core.Table, i int, column string) string {
	v, _ := t.Cell(i, column)
	return v
}

// at starts a violation for the i-th kept row of t.
func at(t *core.Table, i int, column, value string) Violation {
	return Violation{
		Table:  t.Alias,
		Column: column,
		Row:    t.RowNumber(i),
		Value:  value,
	}
}

// pairs zips observatory and sampling aliases by position.
func pairs(observatory, sampling []string) ([][2]string, error) {
	if len(observatory) != len(sampling) {
		return nil, fmt.Errorf("%w: %d observatory aliases for %d sampling aliases",
			ErrPrecondition, len(observatory), len(sampling))
	}
	out := make([][2]string, len(observatory))
	for i := range observatory {
		out[i] = [2]string{observatory[i], sampling[i]}
	}
	return out, nil
}

// firstRow returns the observatory table under alias, which must have a row.
func firstRow(env Env, alias string, columns ...string) (*core.Table, error) {
	t, err := tableWith(env, alias, columns...)
	if err != nil {
		return nil, err
	}
	if t.Len() == 0 {
		return nil, fmt.Errorf("%w: observatory table %s has no rows", ErrPrecondition, alias)
	}
	return t, nil
}
