// Package report renders the violation report for the people maintaining the
// logsheets: a flat CSV listing every finding that needs a manual fix, and an
// HTML summary of the same.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/emo-bon/dqc/internal/core"
	"github.com/emo-bon/dqc/internal/rules"
)

const (
	null       = "NULL"
	emptyValue = "<empty>"
	noDetail   = `\`
)

// Header is the column order of the human report.
var Header = []string{
	"Diagnosis", "LogsheetType", "LogsheetTab", "Column", "Row", "Value",
	"ExtendedDiagnosis", "FilePath", "DataType", "Requirement",
}

// Entry is one line of the human report.
type Entry struct {
	Diagnosis         string
	LogsheetType      string
	LogsheetTab       string
	Column            string
	Row               int
	Value             string
	ExtendedDiagnosis string
	FilePath          string
	DataType          string
	Requirement       string
}

// Entries turns the violations that have no automatic repair into report
// entries. Logsheet, file and column details are looked up in m.
func Entries(violations []rules.Violation, m *core.DataModel) []Entry {
	entries := []Entry{}
	for _, v := range violations {
		if v.HasRepair() {
			continue
		}

		e := Entry{
			Diagnosis:         v.Diagnosis,
			LogsheetType:      logsheetType(v.Table),
			LogsheetTab:       logsheetTab(v.Table),
			Column:            v.Column,
			Row:               v.Row,
			Value:             v.Value,
			ExtendedDiagnosis: v.ExtendedDiagnosis,
			DataType:          null,
			Requirement:       null,
		}
		if e.Value == "" {
			e.Value = emptyValue
		}
		if e.ExtendedDiagnosis == "" {
			e.ExtendedDiagnosis = noDetail
		}

		if t, err := m.Get(v.Table); err == nil {
			e.FilePath = t.Path
			if col, ok := t.Schema.Column(v.Column); ok {
				e.DataType = col.Type.String()
				e.Requirement = "mandatory"
				if col.Nullable {
					e.Requirement = "optional"
				}
			}
		}
		entries = append(entries, e)
	}
	return entries
}

// logsheetType maps the first alias letter to its habitat.
func logsheetType(alias string) string {
	if alias == "" {
		return null
	}
	switch alias[0] {
	case 's':
		return string(core.HabitatSediment)
	case 'w':
		return string(core.HabitatWater)
	}
	return null
}

// logsheetTab maps the second alias letter to its sheet.
func logsheetTab(alias string) string {
	if len(alias) < 2 {
		return null
	}
	switch alias[1] {
	case 'm':
		return string(core.SheetMeasured)
	case 'o':
		return string(core.SheetObservatory)
	case 's':
		return string(core.SheetSampling)
	}
	return null
}

// cells returns the entry in Header order.
func (e Entry) cells() []string {
	return []string{
		e.Diagnosis, e.LogsheetType, e.LogsheetTab, e.Column, strconv.Itoa(e.Row),
		e.Value, e.ExtendedDiagnosis, e.FilePath, e.DataType, e.Requirement,
	}
}

// WriteCSV writes entries with Header.
func WriteCSV(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write report header: %w", err)
	}
	for _, e := range entries {
		if err := cw.Write(e.cells()); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the CSV report to path.
func WriteFile(path string, entries []Entry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := WriteCSV(f, entries); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
