package rules

import (
	"context"
	"strconv"
	"strings"
)

// EDMOPrefix is the canonical URI prefix of European Directory of Marine
// Organisations entries.
const EDMOPrefix = "https://edmo.seadatanet.org/report/"

// EDMO normalizes a semicolon separated list of EDMO codes into a list of
// EDMO URIs. Values already in canonical form produce no violation, so the
// repair is idempotent.
type EDMO struct {
	Column  string
	Aliases []string
}

func (e EDMO) Name() string { return e.Column }

func (e EDMO) Check(_ context.Context, env Env) ([]Violation, error) {
	var out []Violation
	for _, alias := range e.Aliases {
		t, err := tableWith(env, alias, e.Column)
		if err != nil {
			return nil, err
		}
		for i := range t.Len() {
			v := cell(t, i, e.Column)
			if env.Model.IsNA(v) {
				continue
			}
			repair, ok := canonicalEDMO(v)
			if ok && repair == v {
				continue
			}
			viol := at(t, i, e.Column, v)
			viol.Diagnosis = "organization edmoid error"
			viol.ExtendedDiagnosis = "organization edmoid should be a list of URIs"
			if ok {
				viol.Repair = repair
			}
			out = append(out, viol)
		}
	}
	return out, nil
}

// canonicalEDMO rewrites every list element to EDMOPrefix followed by its
// code. Elements may be bare codes or already prefixed. ok is false when an
// element is not a non-negative integer code.
func canonicalEDMO(value string) (string, bool) {
	elems := strings.Split(value, ";")
	for i, el := range elems {
		code := strings.TrimPrefix(strings.TrimSpace(el), EDMOPrefix)
		n, err := strconv.Atoi(code)
		if err != nil || n < 0 {
			return "", false
		}
		elems[i] = EDMOPrefix + strconv.Itoa(n)
	}
	return strings.Join(elems, ";"), true
}
