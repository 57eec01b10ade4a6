package rules

import (
	"errors"
	"slices"
	"testing"

	"github.com/emo-bon/dqc/internal/core"
)

func testOptions() Options {
	return Options{
		ORCID:    newStub("orcid", nil),
		Taxonomy: newStub("ncbi-taxonomy", nil),
	}
}

func TestBuild(t *testing.T) {
	common := CommonRules(core.Scope{}, testOptions()).Names()

	tests := []struct {
		habitat core.Habitat
		extra   []string
	}{
		{habitat: core.HabitatSediment, extra: []string{"comm_samp"}},
		{habitat: core.HabitatWater, extra: nil},
		{habitat: core.HabitatAll, extra: []string{"comm_samp"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.habitat), func(t *testing.T) {
			rs, err := Build(tt.habitat, testOptions())
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			want := slices.Concat(common, tt.extra)
			if got := rs.Names(); !slices.Equal(got, want) {
				t.Errorf("Names() = %v, want %v", got, want)
			}
		})
	}
}

func TestBuild_ScopesRulesToHabitat(t *testing.T) {
	rs, err := Build(core.HabitatAll, testOptions())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	for _, r := range rs {
		switch r := r.(type) {
		case Membership:
			if !slices.Equal(r.Aliases, []string{"ss"}) {
				t.Errorf("comm_samp aliases = %v, want [ss]", r.Aliases)
			}
		case Depth:
			if !slices.Equal(r.Observatory, []string{"so", "wo"}) || !slices.Equal(r.Sampling, []string{"ss", "ws"}) {
				t.Errorf("depth scope = %v/%v", r.Observatory, r.Sampling)
			}
		case Pattern:
			if !slices.Equal(r.Aliases, []string{"sm", "wm"}) {
				t.Errorf("%s aliases = %v, want [sm wm]", r.Name(), r.Aliases)
			}
		case SchemaCheck:
			if len(r.Aliases) != 6 {
				t.Errorf("schema aliases = %v, want all six", r.Aliases)
			}
		}
	}

	water, err := Build(core.HabitatWater, testOptions())
	if err != nil {
		t.Fatalf("Build(water) error = %v", err)
	}
	for _, r := range water {
		if ord, ok := r.(Ordering); ok && !slices.Equal(ord.Aliases, []string{"ws"}) {
			t.Errorf("%s aliases = %v, want [ws]", ord.Name(), ord.Aliases)
		}
	}
}

func TestBuild_Errors(t *testing.T) {
	if _, err := Build("arms", testOptions()); err == nil {
		t.Error("Build(arms) expected error")
	}
	if _, err := Build(core.HabitatWater, Options{}); !errors.Is(err, ErrPrecondition) {
		t.Errorf("Build() without resolvers error = %v, want ErrPrecondition", err)
	}
}
