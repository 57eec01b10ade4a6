package core

import (
	"errors"
	"fmt"
)

// ErrTableNotFound is returned when a data model has no table for an alias.
var ErrTableNotFound = errors.New("table not found")

// ErrColumnNotFound is returned when a table has no column with a given name.
var ErrColumnNotFound = errors.New("column not found")

// ErrRowOutOfRange is returned when a row number does not address a kept row.
var ErrRowOutOfRange = errors.New("row out of range")

// Habitat is the top-level dataset partition a run validates.
type Habitat string

const (
	HabitatSediment Habitat = "sediment"
	HabitatWater    Habitat = "water"
	HabitatAll      Habitat = "all"
)

// Sheet is the logsheet tab within a habitat.
type Sheet string

const (
	SheetMeasured    Sheet = "measured"
	SheetObservatory Sheet = "observatory"
	SheetSampling    Sheet = "sampling"
)

// LogsheetInfo describes one of the six logical tables.
type LogsheetInfo struct {
	Alias    string  // "ss"
	Habitat  Habitat // HabitatSediment or HabitatWater
	Sheet    Sheet   // SheetSampling
	BaseName string  // "sediment_sampling", file name without .csv
}

// logsheets lists every known logsheet in report order.
var logsheets = []LogsheetInfo{
	{Alias: "sm", Habitat: HabitatSediment, Sheet: SheetMeasured, BaseName: "sediment_measured"},
	{Alias: "so", Habitat: HabitatSediment, Sheet: SheetObservatory, BaseName: "sediment_observatory"},
	{Alias: "ss", Habitat: HabitatSediment, Sheet: SheetSampling, BaseName: "sediment_sampling"},
	{Alias: "wm", Habitat: HabitatWater, Sheet: SheetMeasured, BaseName: "water_measured"},
	{Alias: "wo", Habitat: HabitatWater, Sheet: SheetObservatory, BaseName: "water_observatory"},
	{Alias: "ws", Habitat: HabitatWater, Sheet: SheetSampling, BaseName: "water_sampling"},
}

// Logsheets returns the logsheets of a habitat scope in fixed order.
func Logsheets(h Habitat) ([]LogsheetInfo, error) {
	if !h.Valid() {
		return nil, fmt.Errorf("unknown habitat %q", h)
	}

	var result []LogsheetInfo
	for _, info := range logsheets {
		if h == HabitatAll || info.Habitat == h {
			result = append(result, info)
		}
	}
	return result, nil
}

// LookupLogsheet returns the logsheet registered under alias.
func LookupLogsheet(alias string) (LogsheetInfo, bool) {
	for _, info := range logsheets {
		if info.Alias == alias {
			return info, true
		}
	}
	return LogsheetInfo{}, false
}

// Valid reports whether h is one of the known habitat scopes.
func (h Habitat) Valid() bool {
	switch h {
	case HabitatSediment, HabitatWater, HabitatAll:
		return true
	}
	return false
}

// Habitats returns the concrete habitats covered by h.
func (h Habitat) Habitats() []Habitat {
	if h == HabitatAll {
		return []Habitat{HabitatSediment, HabitatWater}
	}
	return []Habitat{h}
}

// ResolveHabitat picks the habitat scope from the enabled logsheets.
func ResolveHabitat(sediment, water bool) (Habitat, error) {
	switch {
	case sediment && water:
		return HabitatAll, nil
	case sediment:
		return HabitatSediment, nil
	case water:
		return HabitatWater, nil
	default:
		return "", errors.New("invalid workflow properties: neither sediment nor water logsheets are enabled")
	}
}

// Scope lists the aliases of each sheet kind a rule family operates on.
// Observatory and sampling aliases are paired by position.
type Scope struct {
	Measured    []string
	Observatory []string
	Sampling    []string
}

// ScopeFor returns the scope covering every logsheet of h.
func ScopeFor(h Habitat) (Scope, error) {
	infos, err := Logsheets(h)
	if err != nil {
		return Scope{}, err
	}

	var s Scope
	for _, info := range infos {
		switch info.Sheet {
		case SheetMeasured:
			s.Measured = append(s.Measured, info.Alias)
		case SheetObservatory:
			s.Observatory = append(s.Observatory, info.Alias)
		case SheetSampling:
			s.Sampling = append(s.Sampling, info.Alias)
		}
	}
	return s, nil
}
