package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFilterLogsheets(t *testing.T) {
	raw := t.TempDir()
	filtered := filepath.Join(t.TempDir(), "filtered")

	writeLogsheets(t, raw, HabitatWater,
		"source_mat_id,ph\nA,8.1\nB,8.2\nC,8.3\n",
		"obs_id,tot_depth_water_col\nVB,12\n",
		"source_mat_id,collection_date\nA,2021-06-01\nB, 2022-01-01 \nC,2021-12-31\n",
	)

	threshold := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	stats, err := FilterLogsheets(context.Background(), raw, filtered, HabitatWater, threshold)
	if err != nil {
		t.Fatalf("FilterLogsheets() error = %v", err)
	}
	if stats.SamplingBlanked != 1 || stats.MeasuredBlanked != 1 {
		t.Errorf("stats = %+v, want 1 sampling and 1 measured blanked", stats)
	}

	read := func(name string) string {
		data, err := os.ReadFile(filepath.Join(filtered, name))
		if err != nil {
			t.Fatal(err)
		}
		return string(data)
	}

	if got, want := read("water_sampling.csv"), "source_mat_id,collection_date\nA,2021-06-01\n,\nC,2021-12-31\n"; got != want {
		t.Errorf("water_sampling.csv = %q, want %q", got, want)
	}
	if got, want := read("water_measured.csv"), "source_mat_id,ph\nA,8.1\n,\nC,8.3\n"; got != want {
		t.Errorf("water_measured.csv = %q, want %q", got, want)
	}
	if got, want := read("water_observatory.csv"), "obs_id,tot_depth_water_col\nVB,12\n"; got != want {
		t.Errorf("water_observatory.csv = %q, want %q", got, want)
	}

	// Blanked rows keep their position after loading.
	tbl, err := LoadTable(context.Background(), filepath.Join(filtered, "water_measured.csv"), "wm", Schema{})
	if err != nil {
		t.Fatalf("LoadTable() error = %v", err)
	}
	if tbl.Len() != 2 || tbl.RowNumber(1) != 3 {
		t.Errorf("Len() = %d, RowNumber(1) = %d; want 2 and 3", tbl.Len(), tbl.RowNumber(1))
	}
}

func TestFilterLogsheets_Errors(t *testing.T) {
	threshold := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("bad date", func(t *testing.T) {
		raw := t.TempDir()
		writeLogsheets(t, raw, HabitatSediment,
			"source_mat_id\nA\n",
			"obs_id\nX\n",
			"source_mat_id,collection_date\nA,13/05/2020\n",
		)
		if _, err := FilterLogsheets(context.Background(), raw, t.TempDir(), HabitatSediment, threshold); err == nil {
			t.Error("FilterLogsheets() expected error for unparseable date")
		}
	})

	t.Run("missing column", func(t *testing.T) {
		raw := t.TempDir()
		writeLogsheets(t, raw, HabitatSediment,
			"source_mat_id\nA\n",
			"obs_id\nX\n",
			"source_mat_id\nA\n",
		)
		if _, err := FilterLogsheets(context.Background(), raw, t.TempDir(), HabitatSediment, threshold); err == nil {
			t.Error("FilterLogsheets() expected error for missing collection_date")
		}
	})

	t.Run("all habitats", func(t *testing.T) {
		if _, err := FilterLogsheets(context.Background(), t.TempDir(), t.TempDir(), HabitatAll, threshold); err == nil {
			t.Error("FilterLogsheets(all) expected error")
		}
	})
}
