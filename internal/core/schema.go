package core

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// SchemaEntry is one row of the extended logsheet schema CSV.
type SchemaEntry struct {
	LogsheetType string // habitats the column belongs to, e.g. "water, sediment"
	LogsheetTab  string // sheets the column belongs to, e.g. "sampling"
	ColumnTitle  string
	DataTypeOut  string
	Requirement  string // "mandatory" or "optional"
	BaseURI      string
}

// schemaColumns are the header names ParseSchemaConfig requires.
var schemaColumns = []string{
	"LogsheetType", "LogsheetTab", "LogsheetColumnTitle", "DataTypeOut", "Requirement", "BaseURI",
}

// ParseSchemaConfig reads the extended logsheet schema CSV.
func ParseSchemaConfig(r io.Reader) ([]SchemaEntry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}

	cr := csv.NewReader(bytes.NewReader(sanitizeCSV(data)))
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read schema header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	var missing []string
	for _, name := range schemaColumns {
		if _, ok := idx[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("schema: missing columns: %s", strings.Join(missing, ", "))
	}

	cell := func(record []string, name string) string {
		pos := idx[name]
		if pos >= len(record) {
			return ""
		}
		v := strings.TrimSpace(record[pos])
		if strings.EqualFold(v, "nan") {
			return ""
		}
		return v
	}

	var entries []SchemaEntry
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read schema: %w", err)
		}
		entries = append(entries, SchemaEntry{
			LogsheetType: cell(record, "LogsheetType"),
			LogsheetTab:  cell(record, "LogsheetTab"),
			ColumnTitle:  cell(record, "LogsheetColumnTitle"),
			DataTypeOut:  cell(record, "DataTypeOut"),
			Requirement:  cell(record, "Requirement"),
			BaseURI:      cell(record, "BaseURI"),
		})
	}
	return entries, nil
}

// FetchSchemaConfig loads the schema CSV from an http(s) URL or a local path.
func FetchSchemaConfig(ctx context.Context, client *http.Client, source string) ([]SchemaEntry, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("open schema: %w", err)
		}
		defer f.Close()
		return ParseSchemaConfig(f)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("schema request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch schema: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch schema %s: unexpected status %s", source, resp.Status)
	}
	return ParseSchemaConfig(resp.Body)
}

// SchemaFor builds the schema of one habitat sheet from the schema entries.
//
// An entry applies when its LogsheetType mentions the habitat and its
// LogsheetTab mentions the sheet. The pH of water measurements is optional
// regardless of what the schema says.
func SchemaFor(h Habitat, sheet Sheet, entries []SchemaEntry) (Schema, error) {
	if h != HabitatSediment && h != HabitatWater {
		return Schema{}, fmt.Errorf("schema for habitat %q: want sediment or water", h)
	}

	var schema Schema
	for _, e := range entries {
		if !strings.Contains(strings.ToLower(e.LogsheetType), string(h)) ||
			!strings.Contains(strings.ToLower(e.LogsheetTab), string(sheet)) {
			continue
		}

		dt, err := ParseDataType(e.DataTypeOut, e.BaseURI)
		if err != nil {
			return Schema{}, fmt.Errorf("column %s: %w", e.ColumnTitle, err)
		}

		requirement := strings.ToLower(e.Requirement)
		if h == HabitatWater && sheet == SheetMeasured && e.ColumnTitle == "ph" {
			requirement = "optional"
		}

		schema.Columns = append(schema.Columns, Column{
			Name:     e.ColumnTitle,
			Type:     dt,
			Nullable: requirement == "optional",
		})
	}
	return schema, nil
}
