// Package querysql builds parameterized SQLite queries from a small
// predicate tree.
//
// The store describes note lookups as a Select over a table with a
// Predicate; Compile renders it to SQL text plus positional parameters.
// Values are never interpolated into the SQL text, and identifiers are
// checked against a strict pattern, so filter input supplied by callers
// cannot change the shape of a statement.
//
// Predicate is a sealed interface: only the types in this package
// implement it, which keeps the compiler's type switch exhaustive.
package querysql

// Predicate is a filter condition in a WHERE clause.
type Predicate interface {
	predicateNode()
}

// Op is a comparison operator.
type Op string

const (
	OpGE Op = ">="
	OpLE Op = "<="
	OpGT Op = ">"
	OpLT Op = "<"
)

// Equals matches rows where Field = Value.
type Equals struct {
	Field string
	Value any
}

// ColumnEquals matches rows where Left = Right, both columns. Used to
// correlate an Exists subquery with its outer row.
type ColumnEquals struct {
	Left  string
	Right string
}

// In matches rows where Field is one of Values. Values must be non-empty.
type In struct {
	Field  string
	Values []any
}

// Compare matches rows where Field Op Value.
type Compare struct {
	Field string
	Op    Op
	Value any
}

// Contains matches rows where Field contains Substring literally. LIKE
// wildcards in Substring match themselves.
type Contains struct {
	Field     string
	Substring string
}

// Exists matches rows for which Sub returns at least one row.
type Exists struct {
	Sub Select
}

// And matches rows satisfying every predicate. An empty And is true.
type And struct {
	Predicates []Predicate
}

func (Equals) predicateNode()       {}
func (ColumnEquals) predicateNode() {}
func (In) predicateNode()           {}
func (Compare) predicateNode()      {}
func (Contains) predicateNode()     {}
func (Exists) predicateNode()       {}
func (And) predicateNode()          {}

// Order is one ORDER BY term.
type Order struct {
	Field string
	Desc  bool
}

// Select is a single-table query.
//
//	SELECT <Columns> FROM <From> [AS <Alias>] WHERE <Where> ORDER BY <OrderBy> LIMIT ?
//
// A top-level Select must be ordered so results are deterministic. Limit
// zero means no LIMIT clause.
type Select struct {
	Columns []string
	From    string
	Alias   string
	Where   Predicate
	OrderBy []Order
	Limit   int
}
