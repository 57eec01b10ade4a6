package core

// validation.go defines the closed set of column data types and their matchers.
//
// Every non-missing cell of a column must satisfy the matcher of the column's
// DataType. The matchers only answer yes/no; the schema rules turn a "no"
// into a violation.

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Kind enumerates the column data types used by the logsheet schema.
type Kind int

const (
	KindString Kind = iota
	KindFloat
	KindInt
	KindDate
	KindDateTime
	KindBoolean
	KindRange
	KindList
	KindURI
)

// DataType is a column type. BaseURI only applies to KindURI.
type DataType struct {
	Kind    Kind
	BaseURI string
}

// Column declares one schema column.
type Column struct {
	Name     string
	Type     DataType
	Nullable bool
}

// Schema is the ordered list of declared columns of a table.
type Schema struct {
	Columns []Column
}

// Column returns the declared column with the given name.
func (s Schema) Column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Names returns the declared column names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Date layouts accepted by the date and datetime types.
var (
	dateLayout      = time.DateOnly
	dateTimeLayouts = []string{
		"2006-01-02T15:04",
		"2006-01-02T15:04-0700",
		"2006-01-02T15:04Z07:00",
	}
)

// Match reports whether a non-missing value satisfies the data type.
func (d DataType) Match(value string) bool {
	switch d.Kind {
	case KindString:
		return true
	case KindFloat:
		_, err := strconv.ParseFloat(value, 64)
		return err == nil
	case KindInt:
		_, err := strconv.ParseInt(value, 10, 64)
		return err == nil
	case KindDate:
		_, err := time.Parse(dateLayout, value)
		return err == nil
	case KindDateTime:
		_, err := parseDateTime(value)
		return err == nil
	case KindBoolean:
		switch strings.ToLower(value) {
		case "true", "false", "1", "0":
			return true
		}
		return false
	case KindRange:
		return matchRange(value)
	case KindList:
		return !strings.Contains(value, ",")
	case KindURI:
		return matchURI(value, d.BaseURI)
	default:
		return false
	}
}

// String returns the schema name of the data type, as shown in reports.
func (d DataType) String() string {
	switch d.Kind {
	case KindString:
		return "xsd:string"
	case KindFloat:
		return "xsd:float"
	case KindInt:
		return "xsd:integer"
	case KindDate:
		return "xsd:date"
	case KindDateTime:
		return "xsd:datetime"
	case KindBoolean:
		return "xsd:boolean"
	case KindRange:
		return "range"
	case KindList:
		return "xsd:list"
	case KindURI:
		return "xsd:anyURI"
	default:
		return "unknown"
	}
}

// ParseDataType maps a schema DataTypeOut value to a DataType.
// The "xd:float" spelling found in older schema revisions is accepted.
func ParseDataType(name, baseURI string) (DataType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "xsd:string":
		return DataType{Kind: KindString}, nil
	case "xsd:float", "xd:float":
		return DataType{Kind: KindFloat}, nil
	case "xsd:integer":
		return DataType{Kind: KindInt}, nil
	case "xsd:date":
		return DataType{Kind: KindDate}, nil
	case "xsd:datetime":
		return DataType{Kind: KindDateTime}, nil
	case "xsd:boolean":
		return DataType{Kind: KindBoolean}, nil
	case "range":
		return DataType{Kind: KindRange}, nil
	case "xsd:list":
		return DataType{Kind: KindList}, nil
	case "xsd:anyuri":
		return DataType{Kind: KindURI, BaseURI: strings.ToLower(strings.TrimSpace(baseURI))}, nil
	default:
		return DataType{}, fmt.Errorf("unknown data type %q", name)
	}
}

// matchRange accepts "low - high" where both bounds are numbers and low < high.
func matchRange(value string) bool {
	parts := strings.Split(value, "-")
	if len(parts) != 2 {
		return false
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return false
	}
	hi, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return false
	}
	return lo < hi
}

// matchURI accepts absolute URIs, starting with baseURI when one is declared.
func matchURI(value, baseURI string) bool {
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false
	}
	if baseURI != "" && !strings.HasPrefix(strings.ToLower(value), baseURI) {
		return false
	}
	return true
}

func parseDateTime(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateTimeLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// ParseTimestamp parses a date or datetime cell.
// It accepts the schema layouts plus seconds and a space separator, which
// show up in hand-edited sheets.
func ParseTimestamp(value string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t, nil
	}
	if t, err := parseDateTime(value); err == nil {
		return t, nil
	}
	for _, layout := range []string{time.DateTime, "2006-01-02T15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", value)
}
