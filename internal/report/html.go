package report

import (
	"context"
	"fmt"
	"os"
	"slices"
	"time"
)

//go:generate templ generate

// Summary is the data shown by the HTML report.
type Summary struct {
	RunID      string
	Habitat    string
	Threshold  string
	Generated  time.Time
	Total      int // all violations, repaired or not
	Repairable int
	Entries    []Entry
}

type count struct {
	Key string
	N   int
}

// countBy tallies entries by key, most frequent first.
func countBy(entries []Entry, key func(Entry) string) []count {
	idx := map[string]int{}
	var counts []count
	for _, e := range entries {
		k := key(e)
		i, ok := idx[k]
		if !ok {
			i = len(counts)
			idx[k] = i
			counts = append(counts, count{Key: k})
		}
		counts[i].N++
	}
	slices.SortStableFunc(counts, func(a, b count) int { return b.N - a.N })
	return counts
}

func byDiagnosis(e Entry) string { return e.Diagnosis }

func byLogsheet(e Entry) string { return e.LogsheetType + " " + e.LogsheetTab }

// WriteHTML renders the summary page to path.
func WriteHTML(ctx context.Context, path string, s Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create html report: %w", err)
	}
	if err := HTML(s).Render(ctx, f); err != nil {
		f.Close()
		return fmt.Errorf("render html report: %w", err)
	}
	return f.Close()
}
