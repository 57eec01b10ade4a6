package rules

import (
	"context"
	"fmt"

	"github.com/emo-bon/dqc/internal/authority"
)

// Taxonomy cross-checks scientific_name against the name the taxonomy
// authority holds for tax_id. The two columns come as a pair: both missing
// is fine, exactly one missing is a violation.
type Taxonomy struct {
	Aliases  []string
	Resolver authority.Resolver
}

func (tx Taxonomy) Name() string { return "tax_id_versus_scientific_name" }

func (tx Taxonomy) Check(ctx context.Context, env Env) ([]Violation, error) {
	var out []Violation
	for _, alias := range tx.Aliases {
		t, err := tableWith(env, alias, "tax_id", "scientific_name")
		if err != nil {
			return nil, err
		}
		for i := range t.Len() {
			id, name := cell(t, i, "tax_id"), cell(t, i, "scientific_name")
			noID, noName := env.Model.IsNA(id), env.Model.IsNA(name)

			switch {
			case noID && noName:
				continue
			case noName:
				viol := at(t, i, "scientific_name", name)
				viol.Diagnosis = "scientific name error"
				viol.ExtendedDiagnosis = fmt.Sprintf("no scientific_name was provided for tax_id %s", id)
				out = append(out, viol)
			case noID:
				viol := at(t, i, "tax_id", id)
				viol.Diagnosis = "scientific name error"
				viol.ExtendedDiagnosis = fmt.Sprintf("no tax_id was provided for scientific_name %s", name)
				out = append(out, viol)
			default:
				want, ok, err := env.Authority.Lookup(ctx, tx.Resolver, id)
				if err != nil {
					return nil, err
				}
				if !ok || want == name {
					continue
				}
				viol := at(t, i, "scientific_name", name)
				viol.Diagnosis = "scientific name error"
				viol.ExtendedDiagnosis = fmt.Sprintf("scientific_name should be %s", want)
				out = append(out, viol)
			}
		}
	}
	return out, nil
}

// ORCIDName cross-checks a person name against the name registered for the
// ORCID iD next to it. A name without an ORCID is not checked.
type ORCIDName struct {
	ORCIDColumn string
	NameColumn  string
	Aliases     []string
	Resolver    authority.Resolver
}

func (o ORCIDName) Name() string { return o.ORCIDColumn }

func (o ORCIDName) Check(ctx context.Context, env Env) ([]Violation, error) {
	var out []Violation
	for _, alias := range o.Aliases {
		t, err := tableWith(env, alias, o.ORCIDColumn, o.NameColumn)
		if err != nil {
			return nil, err
		}
		for i := range t.Len() {
			id, name := cell(t, i, o.ORCIDColumn), cell(t, i, o.NameColumn)
			if env.Model.IsNA(id) {
				continue
			}
			if env.Model.IsNA(name) {
				viol := at(t, i, o.ORCIDColumn, id)
				viol.Diagnosis = "orcid error"
				viol.ExtendedDiagnosis = "no person name was provided for this orcid"
				out = append(out, viol)
				continue
			}

			want, ok, err := env.Authority.Lookup(ctx, o.Resolver, id)
			if err != nil {
				return nil, err
			}
			if !ok || want == name {
				continue
			}
			viol := at(t, i, o.NameColumn, name)
			viol.Diagnosis = "orcid error"
			viol.ExtendedDiagnosis = fmt.Sprintf("orcid %s corresponds to person name %s", id, want)
			out = append(out, viol)
		}
	}
	return out, nil
}
