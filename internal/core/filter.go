package core

// filter.go restricts a run to samples collected before the threshold date.
//
// Filtering blanks rows instead of deleting them so the filtered files keep
// the row positions of the raw files. The loader later drops the blank rows
// but keeps the positions, so report row numbers still point at the right
// line of the logsheet.

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/emo-bon/dqc/internal/logging"
)

// FilterStats counts the rows blanked by FilterLogsheets.
type FilterStats struct {
	SamplingBlanked int
	MeasuredBlanked int
}

// FilterLogsheets copies the raw logsheets of one habitat to filteredDir.
//
// Sampling rows collected on or after threshold are blanked. Measured rows
// whose source_mat_id no longer appears among the sampling rows are blanked
// too. The observatory sheet is copied unchanged.
func FilterLogsheets(ctx context.Context, rawDir, filteredDir string, h Habitat, threshold time.Time) (FilterStats, error) {
	var stats FilterStats
	if h != HabitatSediment && h != HabitatWater {
		return stats, fmt.Errorf("filter habitat %q: want sediment or water", h)
	}
	if err := os.MkdirAll(filteredDir, 0o755); err != nil {
		return stats, fmt.Errorf("create filtered dir: %w", err)
	}

	name := func(sheet Sheet) string { return fmt.Sprintf("%s_%s.csv", h, sheet) }

	sampling, err := readRecords(filepath.Join(rawDir, name(SheetSampling)))
	if err != nil {
		return stats, err
	}
	dateCol, err := headerPosition(sampling, "collection_date")
	if err != nil {
		return stats, fmt.Errorf("%s: %w", name(SheetSampling), err)
	}
	for i := 1; i < len(sampling); i++ {
		raw := strings.TrimSpace(sampling[i][dateCol])
		if raw == "" {
			continue
		}
		collected, err := ParseTimestamp(raw)
		if err != nil {
			return stats, fmt.Errorf("%s row %d: %w", name(SheetSampling), i, err)
		}
		if !collected.Before(threshold) {
			blank(sampling[i])
			stats.SamplingBlanked++
		}
	}

	measured, err := readRecords(filepath.Join(rawDir, name(SheetMeasured)))
	if err != nil {
		return stats, err
	}
	sampleCol, err := headerPosition(sampling, "source_mat_id")
	if err != nil {
		return stats, fmt.Errorf("%s: %w", name(SheetSampling), err)
	}
	measuredCol, err := headerPosition(measured, "source_mat_id")
	if err != nil {
		return stats, fmt.Errorf("%s: %w", name(SheetMeasured), err)
	}
	kept := make(map[string]bool, len(sampling))
	for _, record := range sampling[1:] {
		kept[record[sampleCol]] = true
	}
	for i := 1; i < len(measured); i++ {
		if !kept[measured[i][measuredCol]] {
			blank(measured[i])
			stats.MeasuredBlanked++
		}
	}

	observatory, err := readRecords(filepath.Join(rawDir, name(SheetObservatory)))
	if err != nil {
		return stats, err
	}

	for sheet, records := range map[Sheet][][]string{
		SheetSampling:    sampling,
		SheetMeasured:    measured,
		SheetObservatory: observatory,
	} {
		if err := writeRecords(filepath.Join(filteredDir, name(sheet)), records); err != nil {
			return stats, err
		}
	}

	logging.FromContext(ctx).Info("logsheets filtered",
		"habitat", h,
		"threshold", threshold.Format(time.DateOnly),
		"sampling_blanked", stats.SamplingBlanked,
		"measured_blanked", stats.MeasuredBlanked,
	)
	return stats, nil
}

func readRecords(path string) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read logsheet: %w", err)
	}
	cr := csv.NewReader(bytes.NewReader(sanitizeCSV(data)))
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("parse %s: empty file", filepath.Base(path))
	}
	return records, nil
}

func writeRecords(path string, records [][]string) error {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func headerPosition(records [][]string, name string) (int, error) {
	for i, h := range records[0] {
		if h == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
}

func blank(record []string) {
	for i := range record {
		record[i] = ""
	}
}
