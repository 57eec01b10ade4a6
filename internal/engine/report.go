package engine

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/emo-bon/dqc/internal/rules"
)

// ReportHeader is the fixed column order of the violation report.
var ReportHeader = []string{"diagnosis", "table", "column", "row", "value", "extended_diagnosis", "repair"}

// WriteReport writes violations as CSV with ReportHeader.
func WriteReport(w io.Writer, violations []rules.Violation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ReportHeader); err != nil {
		return fmt.Errorf("write report header: %w", err)
	}
	for _, v := range violations {
		record := []string{
			v.Diagnosis,
			v.Table,
			v.Column,
			strconv.Itoa(v.Row),
			v.Value,
			v.ExtendedDiagnosis,
			v.Repair,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteReportFile writes the report to path atomically: readers see either
// the previous report or the complete new one.
func WriteReportFile(path string, violations []rules.Violation) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".dqc-*.csv")
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err := WriteReport(tmp, violations); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close report: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace report: %w", err)
	}
	return nil
}

// ReadReport parses a report written by WriteReport.
func ReadReport(r io.Reader) ([]rules.Violation, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("read report: empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("read report header: %w", err)
	}
	if !slices.Equal(header, ReportHeader) {
		return nil, fmt.Errorf("read report: unexpected header %v", header)
	}

	var violations []rules.Violation
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read report: %w", err)
		}
		row, err := strconv.Atoi(record[3])
		if err != nil {
			return nil, fmt.Errorf("read report line %d: invalid row %q", line, record[3])
		}
		violations = append(violations, rules.Violation{
			Diagnosis:         record[0],
			Table:             record[1],
			Column:            record[2],
			Row:               row,
			Value:             record[4],
			ExtendedDiagnosis: record[5],
			Repair:            record[6],
		})
	}
	return violations, nil
}

// ReadReportFile reads the report at path.
func ReadReportFile(path string) ([]rules.Violation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open report: %w", err)
	}
	defer f.Close()
	return ReadReport(f)
}
