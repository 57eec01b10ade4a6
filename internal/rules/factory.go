package rules

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/emo-bon/dqc/internal/core"
)

// Pattern requires every non-missing value of Column to fully match Expr.
type Pattern struct {
	Column  string
	Expr    string
	Aliases []string
}

func (p Pattern) Name() string { return p.Column }

func (p Pattern) Check(_ context.Context, env Env) ([]Violation, error) {
	anchored := "^(?:" + p.Expr + ")$"
	re, err := regexp.Compile(anchored)
	if err != nil {
		return nil, fmt.Errorf("%w: pattern for %s: %v", ErrPrecondition, p.Column, err)
	}

	var out []Violation
	for _, alias := range p.Aliases {
		t, err := tableWith(env, alias, p.Column)
		if err != nil {
			return nil, err
		}
		for i := range t.Len() {
			v := cell(t, i, p.Column)
			if env.Model.IsNA(v) || re.MatchString(v) {
				continue
			}
			viol := at(t, i, p.Column, v)
			viol.Diagnosis = "pattern error"
			viol.ExtendedDiagnosis = fmt.Sprintf("%s should match %s", p.Column, p.Expr)
			out = append(out, viol)
		}
	}
	return out, nil
}

// Ordering requires the date in X to be on or after the date in Y of the
// same row. Rows where either value is missing or unparseable are skipped.
type Ordering struct {
	X, Y    string
	Aliases []string
}

func (o Ordering) Name() string { return o.X + "_after_" + o.Y }

func (o Ordering) Check(_ context.Context, env Env) ([]Violation, error) {
	var out []Violation
	for _, alias := range o.Aliases {
		t, err := tableWith(env, alias, o.X, o.Y)
		if err != nil {
			return nil, err
		}
		for i := range t.Len() {
			x, y := cell(t, i, o.X), cell(t, i, o.Y)
			if env.Model.IsNA(x) || env.Model.IsNA(y) {
				continue
			}
			xt, errX := core.ParseTimestamp(x)
			yt, errY := core.ParseTimestamp(y)
			if errX != nil || errY != nil {
				continue
			}
			if xt.Before(yt) {
				viol := at(t, i, o.X, x)
				viol.Diagnosis = "date order error"
				viol.ExtendedDiagnosis = fmt.Sprintf("%s must not be earlier than %s (%s)", o.X, o.Y, y)
				out = append(out, viol)
			}
		}
	}
	return out, nil
}

// Membership requires every non-missing value of Column to be one of Allowed.
type Membership struct {
	Column  string
	Allowed []string
	Aliases []string
}

func (m Membership) Name() string { return m.Column }

func (m Membership) Check(_ context.Context, env Env) ([]Violation, error) {
	var out []Violation
	for _, alias := range m.Aliases {
		t, err := tableWith(env, alias, m.Column)
		if err != nil {
			return nil, err
		}
		for i := range t.Len() {
			v := cell(t, i, m.Column)
			if env.Model.IsNA(v) || slices.Contains(m.Allowed, v) {
				continue
			}
			viol := at(t, i, m.Column, v)
			viol.Diagnosis = "membership error"
			viol.ExtendedDiagnosis = fmt.Sprintf("%s should be one of %s", m.Column, strings.Join(m.Allowed, ", "))
			out = append(out, viol)
		}
	}
	return out, nil
}

// SchemaCheck validates every table against its declared schema: mandatory
// columns must have a value and present values must match the column type.
type SchemaCheck struct {
	Aliases []string
}

func (s SchemaCheck) Name() string { return "schema" }

func (s SchemaCheck) Check(_ context.Context, env Env) ([]Violation, error) {
	var out []Violation
	for _, alias := range s.Aliases {
		t, err := env.Model.Get(alias)
		if err != nil {
			return nil, err
		}
		if err := requireColumns(t, t.Schema.Names()...); err != nil {
			return nil, err
		}
		for i := range t.Len() {
			for _, col := range t.Schema.Columns {
				v := cell(t, i, col.Name)
				switch {
				case env.Model.IsNA(v):
					if !col.Nullable {
						viol := at(t, i, col.Name, v)
						viol.Diagnosis = "missing value"
						viol.ExtendedDiagnosis = fmt.Sprintf("%s is mandatory", col.Name)
						out = append(out, viol)
					}
				case !col.Type.Match(v):
					viol := at(t, i, col.Name, v)
					viol.Diagnosis = "invalid data type"
					viol.ExtendedDiagnosis = fmt.Sprintf("value should be of type %s", col.Type)
					out = append(out, viol)
				}
			}
		}
	}
	return out, nil
}
