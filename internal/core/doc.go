// Package core provides the tabular data model that quality control rules
// read from.
//
// This package has no knowledge of individual rules. It loads logsheet CSV
// files into schema-typed [Table] values and groups them per habitat in a
// [DataModel], which is the read-only view a rule engine pass works on.
//
// # Logsheets
//
// Each habitat has three logsheets, addressed by a two-letter alias:
//
//	sm  sediment_measured     wm  water_measured
//	so  sediment_observatory  wo  water_observatory
//	ss  sediment_sampling     ws  water_sampling
//
// The first letter is the habitat, the second the sheet. [Logsheets] returns
// the aliases of a [Habitat] in this fixed order.
//
// # Missing Values
//
// A cell is missing when [IsNA] reports true: the cell is empty or holds the
// NA literal. Loading already collapses the other spellings people use for
// "not available" (nan, N/A, look-alike Unicode letters) to the empty string,
// so rules never need to know about them.
//
// # Row Numbers
//
// Rows that are empty in every column are dropped while loading, but each
// kept row remembers its position in the source file. [Table.RowNumber]
// returns that position 1-based, which is what reports show and what repairs
// target.
//
// # Data Types
//
// Column types form a closed set ([Kind]); [DataType.Match] dispatches on the
// kind with one matcher per type. The schema of every logsheet is generated
// from the extended logsheet schema CSV with [ParseSchemaConfig] and
// [SchemaFor].
package core
