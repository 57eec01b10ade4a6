package core

import (
	"fmt"
	"slices"
	"strings"
)

// DataModel is the read-only set of tables one rule engine pass works on.
// Rules only read from it; repairs are applied to separately loaded tables.
type DataModel struct {
	habitat Habitat
	aliases []string
	tables  map[string]*Table
}

// NewDataModel groups tables for a habitat scope.
// The table aliases must be exactly the aliases of the scope.
func NewDataModel(h Habitat, tables ...*Table) (*DataModel, error) {
	infos, err := Logsheets(h)
	if err != nil {
		return nil, err
	}

	m := &DataModel{
		habitat: h,
		tables:  make(map[string]*Table, len(tables)),
	}
	for _, t := range tables {
		if _, dup := m.tables[t.Alias]; dup {
			return nil, fmt.Errorf("data model: duplicate table %s", t.Alias)
		}
		m.tables[t.Alias] = t
	}

	var missing []string
	for _, info := range infos {
		if _, ok := m.tables[info.Alias]; !ok {
			missing = append(missing, info.Alias)
		}
		m.aliases = append(m.aliases, info.Alias)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("data model %s: missing tables: %s", h, strings.Join(missing, ", "))
	}
	if len(m.tables) != len(m.aliases) {
		var extra []string
		for alias := range m.tables {
			if !slices.Contains(m.aliases, alias) {
				extra = append(extra, alias)
			}
		}
		slices.Sort(extra)
		return nil, fmt.Errorf("data model %s: unexpected tables: %s", h, strings.Join(extra, ", "))
	}

	return m, nil
}

// Get returns the table registered under alias.
func (m *DataModel) Get(alias string) (*Table, error) {
	t, ok := m.tables[alias]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, alias)
	}
	return t, nil
}

// IsNA reports whether a cell value is missing. See the package-level IsNA.
func (m *DataModel) IsNA(value string) bool {
	return IsNA(value)
}

// Habitat returns the habitat scope of the model.
func (m *DataModel) Habitat() Habitat { return m.habitat }

// Aliases returns the table aliases in fixed logsheet order.
func (m *DataModel) Aliases() []string { return slices.Clone(m.aliases) }
