package core

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/emo-bon/dqc/internal/logging"
)

// ReadTable parses a logsheet CSV into a table.
//
// Cells are normalized with NormalizeCell and rows empty in every column are
// dropped; kept rows remember their source position. Declared schema columns
// absent from the file are added as empty columns; their names are returned.
func ReadTable(r io.Reader, alias string, schema Schema) (*Table, []string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", alias, err)
	}

	cr := csv.NewReader(bytes.NewReader(sanitizeCSV(data)))
	cr.FieldsPerRecord = 0

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("read %s: empty file", alias)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read %s header: %w", alias, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	t, err := NewTable(alias, schema, header)
	if err != nil {
		return nil, nil, err
	}

	for source := 0; ; source++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", alias, err)
		}

		empty := true
		for i := range record {
			record[i] = NormalizeCell(record[i])
			if record[i] != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		if err := t.Append(source, record); err != nil {
			return nil, nil, err
		}
	}

	var added []string
	for _, col := range schema.Columns {
		if !t.HasColumn(col.Name) {
			t.addColumn(col.Name)
			added = append(added, col.Name)
		}
	}

	return t, added, nil
}

// LoadTable reads the logsheet CSV at path.
func LoadTable(ctx context.Context, path, alias string, schema Schema) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open logsheet %s: %w", alias, err)
	}
	defer f.Close()

	t, added, err := ReadTable(f, alias, schema)
	if err != nil {
		return nil, err
	}
	t.Path = path

	if len(added) > 0 {
		logging.FromContext(ctx).Warn("declared columns missing from logsheet",
			"table", alias,
			"path", path,
			"columns", strings.Join(added, ","),
		)
	}
	return t, nil
}

// LoadTables reads every logsheet of h from dir, keyed by alias.
// Each table gets the schema generated for its habitat and sheet.
func LoadTables(ctx context.Context, dir string, h Habitat, entries []SchemaEntry) (map[string]*Table, error) {
	infos, err := Logsheets(h)
	if err != nil {
		return nil, err
	}

	tables := make(map[string]*Table, len(infos))
	for _, info := range infos {
		schema, err := SchemaFor(info.Habitat, info.Sheet, entries)
		if err != nil {
			return nil, fmt.Errorf("schema for %s: %w", info.Alias, err)
		}

		path := filepath.Join(dir, info.BaseName+".csv")
		t, err := LoadTable(ctx, path, info.Alias, schema)
		if err != nil {
			return nil, err
		}
		tables[info.Alias] = t
	}
	return tables, nil
}

// LoadDataModel reads every logsheet of h from dir into a data model.
func LoadDataModel(ctx context.Context, dir string, h Habitat, entries []SchemaEntry) (*DataModel, error) {
	tables, err := LoadTables(ctx, dir, h, entries)
	if err != nil {
		return nil, err
	}

	list := make([]*Table, 0, len(tables))
	for _, t := range tables {
		list = append(list, t)
	}
	m, err := NewDataModel(h, list...)
	if err != nil {
		return nil, err
	}

	for _, alias := range m.Aliases() {
		t := tables[alias]
		logging.FromContext(ctx).Info("logsheet loaded", "table", alias, "rows", t.Len(), "path", t.Path)
	}
	return m, nil
}
