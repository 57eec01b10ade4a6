package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// writeLogsheets writes the three logsheets of a habitat into dir.
func writeLogsheets(t *testing.T, dir string, h Habitat, measured, observatory, sampling string) {
	t.Helper()
	files := map[Sheet]string{
		SheetMeasured:    measured,
		SheetObservatory: observatory,
		SheetSampling:    sampling,
	}
	for sheet, data := range files {
		path := filepath.Join(dir, string(h)+"_"+string(sheet)+".csv")
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestLoadDataModel(t *testing.T) {
	dir := t.TempDir()
	writeLogsheets(t, dir, HabitatSediment,
		"source_mat_id,ph\nEMOBON_OSD74_200513_micro_1,8.1\n",
		"obs_id,tot_depth_water_col\nOSD74,20\n",
		"source_mat_id,collection_date,comm_samp\nEMOBON_OSD74_200513_micro_1,2020-05-13,micro\n,,\n",
	)

	m, err := LoadDataModel(context.Background(), dir, HabitatSediment, mustParseSchema(t))
	if err != nil {
		t.Fatalf("LoadDataModel() error = %v", err)
	}

	ss, err := m.Get("ss")
	if err != nil {
		t.Fatalf("Get(ss) error = %v", err)
	}
	if ss.Len() != 1 {
		t.Errorf("ss.Len() = %d, want 1", ss.Len())
	}
	if ss.Path != filepath.Join(dir, "sediment_sampling.csv") {
		t.Errorf("ss.Path = %s", ss.Path)
	}
	if _, ok := ss.Schema.Column("comm_samp"); !ok {
		t.Error("ss schema lacks comm_samp")
	}

	so, _ := m.Get("so")
	if !so.HasColumn("contact_orcid") {
		t.Error("declared column contact_orcid was not added to so")
	}
}

func TestLoadDataModel_MissingFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadDataModel(context.Background(), dir, HabitatWater, nil); err == nil {
		t.Error("LoadDataModel() expected error for missing logsheets")
	}
}
