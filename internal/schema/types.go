package schema

import "strings"

// Type families group Oracle data types by how generated DDL and
// client code should treat their values.
const (
	FamilyString   = "string"
	FamilyNumber   = "number"
	FamilyDatetime = "datetime"
	FamilyBinary   = "binary"
	FamilyOther    = "other"
)

// Schema is an immutable snapshot of one owner's objects. Warnings
// collects tables that vanished mid-introspection; they are skipped,
// never fatal.
type Schema struct {
	Name       string
	Tables     []*Table
	Views      []View
	Sequences  []Sequence
	Procedures []Procedure
	Warnings   []string
}

type Table struct {
	Name        string
	Owner       string
	Columns     []Column
	Indexes     []Index
	Constraints []Constraint
	RowCount    *int64
	SizeBytes   *int64
}

// Column describes one table column. Length, Precision and Scale are
// nil when the catalog reports no value for the type.
type Column struct {
	Name      string
	DataType  string
	Family    string
	Length    *int
	Precision *int
	Scale     *int
	Nullable  bool
	Default   string
}

type Index struct {
	Name    string
	Unique  bool
	Columns []string
}

// Constraint kinds, following the ALL_CONSTRAINTS type codes.
const (
	PrimaryKey = "PK"
	ForeignKey = "FK"
	Unique     = "UNIQUE"
	Check      = "CHECK"
)

type Constraint struct {
	Name       string
	Kind       string
	Columns    []string
	Definition string
	RefTable   string
	RefColumns []string
}

type View struct {
	Name       string
	Definition string
}

type Sequence struct {
	Name        string
	MinValue    int64
	MaxValue    int64
	IncrementBy int64
	Cycle       bool
	CacheSize   int64
	LastNumber  int64
}

type Procedure struct {
	Name string
	Kind string
}

// familyOf maps an Oracle data type name to its family tag.
func familyOf(dataType string) string {
	dt := strings.ToUpper(dataType)
	switch {
	case strings.HasPrefix(dt, "TIMESTAMP"), dt == "DATE", strings.HasPrefix(dt, "INTERVAL"):
		return FamilyDatetime
	case dt == "NUMBER", dt == "FLOAT", dt == "INTEGER", dt == "BINARY_FLOAT", dt == "BINARY_DOUBLE":
		return FamilyNumber
	case dt == "VARCHAR2", dt == "NVARCHAR2", dt == "CHAR", dt == "NCHAR",
		dt == "CLOB", dt == "NCLOB", dt == "LONG":
		return FamilyString
	case dt == "BLOB", dt == "RAW", dt == "LONG RAW", dt == "BFILE":
		return FamilyBinary
	default:
		return FamilyOther
	}
}
