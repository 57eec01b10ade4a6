package core

// convert.go normalizes raw logsheet cells.
//
// Logsheets are filled in by hand across many institutes. Besides stray
// whitespace they contain every imaginable way of writing "not available":
// nan exported from pandas, N/A, n.a., and NA typed with Greek or Cyrillic
// capitals that look identical to Latin ones. NormalizeCell collapses all of
// them to the empty string; only the literal "NA" is kept, as the designated
// NA marker that IsNA understands.

import (
	"bytes"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NALiteral is the designated "not available" marker kept in tables.
const NALiteral = "NA"

// utf8BOM is prepended to CSV files by spreadsheet exports on Windows.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// naSpellings are the folded spellings collapsed to the empty value.
var naSpellings = map[string]bool{
	"nan":  true,
	"na":   true,
	"n/a":  true,
	"n.a.": true,
	"n.a":  true,
}

// confusables maps letters that render like the Latin letters of "n/a" onto them.
// Fullwidth forms are handled by NFKC before this table is consulted.
var confusables = strings.NewReplacer(
	"Ν", "N", // Greek capital nu
	"Α", "A", // Greek capital alpha
	"α", "a", // Greek small alpha
	"А", "A", // Cyrillic capital a
	"а", "a", // Cyrillic small a
	"⁄", "/", // fraction slash
	"∕", "/", // division slash
)

// IsNA reports whether a cell value is missing.
// It is the only definition of "missing" rules may use.
func IsNA(value string) bool {
	return value == "" || value == NALiteral
}

// NormalizeCell trims a raw cell and collapses NA variants to "".
// The literal NA marker is preserved.
func NormalizeCell(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" || s == NALiteral {
		return s
	}

	folded := strings.ToLower(confusables.Replace(norm.NFKC.String(s)))
	if naSpellings[folded] {
		return ""
	}
	return s
}

// sanitizeCSV strips a UTF-8 BOM and replaces invalid UTF-8 sequences.
func sanitizeCSV(data []byte) []byte {
	data = bytes.TrimPrefix(data, utf8BOM)
	return bytes.ToValidUTF8(data, []byte("\uFFFD"))
}
