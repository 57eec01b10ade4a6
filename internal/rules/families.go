package rules

import (
	"fmt"
	"slices"

	"github.com/emo-bon/dqc/internal/authority"
	"github.com/emo-bon/dqc/internal/core"
)

// Options supplies the external resolvers identity rules use.
type Options struct {
	ORCID    authority.Resolver
	Taxonomy authority.Resolver
}

// CommonRules returns the rules shared by every habitat, scoped to s.
func CommonRules(s core.Scope, opts Options) RuleSet {
	all := slices.Concat(s.Measured, s.Observatory, s.Sampling)

	return RuleSet{
		SchemaCheck{Aliases: all},

		Pattern{Column: "biomass", Expr: `(.+\s+\d+\.?\d*E?[-|+]?\d*;?\s*)+`, Aliases: s.Measured},
		Pattern{Column: "chem_administration", Expr: `(CHEBI:\d{5}\s+\d{4}-\d{2}-\d{2};?\s*)+`, Aliases: s.Measured},

		Ordering{X: "ship_date", Y: "samp_store_date", Aliases: s.Sampling},
		Ordering{X: "ship_date_seq", Y: "ship_date", Aliases: s.Sampling},
		Ordering{X: "arr_date_hq", Y: "ship_date", Aliases: s.Sampling},
		Ordering{X: "arr_date_seq", Y: "arr_date_hq", Aliases: s.Sampling},
		Ordering{X: "arr_date_seq", Y: "ship_date_seq", Aliases: s.Sampling},

		Depth{Observatory: s.Observatory, Sampling: s.Sampling},
		SourceMatID{Observatory: s.Observatory, Sampling: s.Sampling},

		Taxonomy{Aliases: s.Sampling, Resolver: opts.Taxonomy},
		ORCIDName{ORCIDColumn: "contact_orcid", NameColumn: "contact_name", Aliases: s.Observatory, Resolver: opts.ORCID},
		ORCIDName{ORCIDColumn: "other_person_orcid", NameColumn: "other_person", Aliases: s.Sampling, Resolver: opts.ORCID},
		ORCIDName{ORCIDColumn: "sampl_person_orcid", NameColumn: "sampl_person", Aliases: s.Sampling, Resolver: opts.ORCID},
		ORCIDName{ORCIDColumn: "store_person_orcid", NameColumn: "store_person", Aliases: s.Sampling, Resolver: opts.ORCID},

		EDMO{Column: "organization_edmoid", Aliases: s.Observatory},
	}
}

// SedimentRules returns the rules exclusive to sediment logsheets.
func SedimentRules(s core.Scope) RuleSet {
	return RuleSet{
		Membership{Column: "comm_samp", Allowed: []string{"micro", "meio", "macro", "blank"}, Aliases: s.Sampling},
	}
}

// WaterRules returns the rules exclusive to water logsheets. There are none
// yet.
func WaterRules(s core.Scope) RuleSet {
	return nil
}

// Build assembles the rule set of a habitat scope: the common rules over
// every table of the scope, followed by the exclusive rules of each habitat
// the scope covers.
func Build(h core.Habitat, opts Options) (RuleSet, error) {
	scope, err := core.ScopeFor(h)
	if err != nil {
		return nil, fmt.Errorf("build rules: %w", err)
	}
	if opts.ORCID == nil || opts.Taxonomy == nil {
		return nil, fmt.Errorf("build rules: %w: identity resolvers are required", ErrPrecondition)
	}

	rs := CommonRules(scope, opts)
	for _, habitat := range h.Habitats() {
		hs, err := core.ScopeFor(habitat)
		if err != nil {
			return nil, fmt.Errorf("build rules: %w", err)
		}
		switch habitat {
		case core.HabitatSediment:
			rs = append(rs, SedimentRules(hs)...)
		case core.HabitatWater:
			rs = append(rs, WaterRules(hs)...)
		}
	}
	return rs, nil
}
