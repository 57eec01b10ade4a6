package rules

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/emo-bon/dqc/internal/core"
	"github.com/emo-bon/dqc/internal/logging"
)

// Depth bounds the sampling depth by the total water column depth of the
// observatory. Observatory and sampling aliases are paired by position and the
// bound is read from the first observatory row.
type Depth struct {
	Observatory []string
	Sampling    []string
}

func (d Depth) Name() string { return "depth" }

func (d Depth) Check(ctx context.Context, env Env) ([]Violation, error) {
	ps, err := pairs(d.Observatory, d.Sampling)
	if err != nil {
		return nil, err
	}
	logger := logging.WithFields(ctx, "rule", d.Name())

	var out []Violation
	for _, p := range ps {
		obs, err := firstRow(env, p[0], "tot_depth_water_col")
		if err != nil {
			return nil, err
		}
		samp, err := tableWith(env, p[1], "depth")
		if err != nil {
			return nil, err
		}

		rawBound := cell(obs, 0, "tot_depth_water_col")
		if env.Model.IsNA(rawBound) {
			logger.Warn("no tot_depth_water_col, depth not checked", "table", p[0])
			continue
		}
		bound, err := strconv.ParseFloat(rawBound, 64)
		if err != nil {
			logger.Warn("non-numeric tot_depth_water_col, depth not checked", "table", p[0], "value", rawBound)
			continue
		}

		for i := range samp.Len() {
			raw := cell(samp, i, "depth")
			if env.Model.IsNA(raw) {
				continue
			}
			depth, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				logger.Warn("non-numeric depth skipped", "table", p[1], "row", samp.RowNumber(i), "value", raw)
				continue
			}
			if depth > bound {
				viol := at(samp, i, "depth", raw)
				viol.Diagnosis = "illegal depth"
				viol.ExtendedDiagnosis = fmt.Sprintf("depth must be less than or equal to tot_depth_water_col (%s)", rawBound)
				out = append(out, viol)
			}
		}
	}
	return out, nil
}

// SourceMatID checks the composite sample identifier of every sampling row:
//
//	sediment  EMOBON_{so_id}_{yymmdd}_{comm_samp}_{replicate}
//	water     EMOBON_{wa_id}_{yymmdd}_{size_frac_up}um_{replicate}
//
// The site id comes from the first row of the paired observatory table and
// the date from collection_date.
type SourceMatID struct {
	Observatory []string
	Sampling    []string
}

func (s SourceMatID) Name() string { return "source_mat_id" }

func (s SourceMatID) Check(_ context.Context, env Env) ([]Violation, error) {
	ps, err := pairs(s.Observatory, s.Sampling)
	if err != nil {
		return nil, err
	}

	var out []Violation
	for _, p := range ps {
		info, ok := core.LookupLogsheet(p[1])
		if !ok {
			return nil, fmt.Errorf("%w: unknown sampling alias %s", ErrPrecondition, p[1])
		}
		g := grammarFor(info.Habitat)

		obs, err := firstRow(env, p[0], g.siteColumn)
		if err != nil {
			return nil, err
		}
		samp, err := tableWith(env, p[1], append([]string{"source_mat_id", "collection_date"}, g.components...)...)
		if err != nil {
			return nil, err
		}
		site := strings.ReplaceAll(cell(obs, 0, g.siteColumn), " ", "_")

		for i := range samp.Len() {
			parts := make([]string, 0, len(g.components)+3)
			parts = append(parts, "EMOBON", site, dateToken(cell(samp, i, "collection_date")))
			for _, c := range g.components {
				parts = append(parts, cell(samp, i, c))
			}
			pattern := g.pattern(parts)

			v := cell(samp, i, "source_mat_id")
			if !env.Model.IsNA(v) {
				matched, err := regexp.MatchString(pattern, v)
				if err != nil {
					return nil, fmt.Errorf("source_mat_id pattern %q: %w", pattern, err)
				}
				if matched {
					continue
				}
			}
			viol := at(samp, i, "source_mat_id", v)
			viol.Diagnosis = "source_mat_id error"
			viol.ExtendedDiagnosis = "source_mat_id should match " + pattern
			out = append(out, viol)
		}
	}
	return out, nil
}

// idGrammar describes the composite identifier of one habitat.
type idGrammar struct {
	siteColumn string
	components []string
	pattern    func(parts []string) string
}

func grammarFor(h core.Habitat) idGrammar {
	if h == core.HabitatWater {
		return idGrammar{
			siteColumn: "wa_id",
			components: []string{"size_frac_up", "replicate"},
			pattern: func(parts []string) string {
				// EMOBON, site, date, size_frac_up, replicate
				size := strings.TrimSuffix(parts[3], ".0")
				return "^" + quoteJoin(parts[:3]) + "_" + regexp.QuoteMeta(size) + "um_" + regexp.QuoteMeta(parts[4]) + "$"
			},
		}
	}
	return idGrammar{
		siteColumn: "so_id",
		components: []string{"comm_samp", "replicate"},
		pattern: func(parts []string) string {
			return "^" + quoteJoin(parts) + "$"
		},
	}
}

func quoteJoin(parts []string) string {
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = regexp.QuoteMeta(p)
	}
	return strings.Join(quoted, "_")
}

// dateToken turns "2020-05-13" into "200513".
func dateToken(date string) string {
	if len(date) <= 2 {
		return ""
	}
	end := min(len(date), 10)
	return strings.ReplaceAll(date[2:end], "-", "")
}
