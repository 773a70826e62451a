// Package ddl renders schema descriptors back into executable Oracle
// DDL. Generation is deterministic: the same descriptor always yields
// the same script, with columns in their declared order.
package ddl

import (
	"fmt"
	"strings"

	"github.com/orakit-io/orakit/internal/schema"
)

// GenerateCreateTable renders one CREATE TABLE statement. Columns keep
// their dictionary order and table-level constraints follow the column
// list.
func GenerateCreateTable(t *schema.Table) string {
	var lines []string
	for _, col := range t.Columns {
		lines = append(lines, "    "+columnClause(col))
	}
	for _, c := range t.Constraints {
		if clause := constraintClause(c); clause != "" {
			lines = append(lines, "    "+clause)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", quoteIdent(t.Name))
	b.WriteString(strings.Join(lines, ",\n"))
	b.WriteString("\n)")
	return b.String()
}

// GenerateIndexes renders CREATE INDEX statements for the table's
// secondary indexes. Indexes that back a PK or UNIQUE constraint are
// omitted; the constraint clause already implies them.
func GenerateIndexes(t *schema.Table) []string {
	backing := make(map[string]bool, len(t.Constraints))
	for _, c := range t.Constraints {
		if c.Kind == schema.PrimaryKey || c.Kind == schema.Unique {
			backing[c.Name] = true
		}
	}

	var stmts []string
	for _, idx := range t.Indexes {
		if backing[idx.Name] {
			continue
		}
		unique := ""
		if idx.Unique {
			unique = "UNIQUE "
		}
		stmts = append(stmts, fmt.Sprintf("CREATE %sINDEX %s ON %s (%s)",
			unique, quoteIdent(idx.Name), quoteIdent(t.Name), identList(idx.Columns)))
	}
	return stmts
}

func columnClause(col schema.Column) string {
	var b strings.Builder
	b.WriteString(quoteIdent(col.Name))
	b.WriteString(" ")
	b.WriteString(renderType(col))
	if col.Default != "" {
		b.WriteString(" DEFAULT ")
		b.WriteString(col.Default)
	}
	if !col.Nullable {
		b.WriteString(" NOT NULL")
	}
	return b.String()
}

// renderType rebuilds the type declaration from the family and the
// catalog's length, precision and scale.
func renderType(col schema.Column) string {
	dt := strings.ToUpper(col.DataType)
	switch col.Family {
	case schema.FamilyNumber:
		if dt != "NUMBER" && dt != "FLOAT" {
			return dt
		}
		if col.Precision == nil {
			return dt
		}
		if col.Scale != nil && *col.Scale != 0 {
			return fmt.Sprintf("%s(%d,%d)", dt, *col.Precision, *col.Scale)
		}
		return fmt.Sprintf("%s(%d)", dt, *col.Precision)
	case schema.FamilyString:
		switch dt {
		case "VARCHAR2", "NVARCHAR2", "CHAR", "NCHAR":
			if col.Length != nil {
				return fmt.Sprintf("%s(%d)", dt, *col.Length)
			}
		}
		return dt
	default:
		return dt
	}
}

func constraintClause(c schema.Constraint) string {
	switch c.Kind {
	case schema.PrimaryKey:
		return fmt.Sprintf("CONSTRAINT %s PRIMARY KEY (%s)",
			quoteIdent(c.Name), identList(c.Columns))
	case schema.Unique:
		return fmt.Sprintf("CONSTRAINT %s UNIQUE (%s)",
			quoteIdent(c.Name), identList(c.Columns))
	case schema.ForeignKey:
		if c.RefTable == "" {
			return ""
		}
		return fmt.Sprintf("CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
			quoteIdent(c.Name), identList(c.Columns),
			quoteIdent(c.RefTable), identList(c.RefColumns))
	case schema.Check:
		if c.Definition == "" {
			return ""
		}
		return fmt.Sprintf("CONSTRAINT %s CHECK (%s)", quoteIdent(c.Name), c.Definition)
	default:
		return ""
	}
}

func identList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}

// quoteIdent leaves plain uppercase identifiers bare and wraps
// everything else (reserved words, lowercase, spaces) in double
// quotes the way the dictionary stores exact names.
func quoteIdent(name string) string {
	if plainUpper(name) && !reservedWords[name] {
		return name
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func plainUpper(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r >= 'A' && r <= 'Z':
		case r == '_', r == '$', r == '#':
			if i == 0 {
				return false
			}
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// Frequently collided subset of the Oracle reserved keyword list.
var reservedWords = map[string]bool{
	"ACCESS": true, "ADD": true, "ALL": true, "ALTER": true, "AND": true,
	"ANY": true, "AS": true, "ASC": true, "AUDIT": true, "BETWEEN": true,
	"BY": true, "CHAR": true, "CHECK": true, "CLUSTER": true, "COLUMN": true,
	"COMMENT": true, "COMPRESS": true, "CONNECT": true, "CREATE": true,
	"CURRENT": true, "DATE": true, "DECIMAL": true, "DEFAULT": true,
	"DELETE": true, "DESC": true, "DISTINCT": true, "DROP": true, "ELSE": true,
	"EXCLUSIVE": true, "EXISTS": true, "FILE": true, "FLOAT": true, "FOR": true,
	"FROM": true, "GRANT": true, "GROUP": true, "HAVING": true, "IDENTIFIED": true,
	"IMMEDIATE": true, "IN": true, "INCREMENT": true, "INDEX": true,
	"INITIAL": true, "INSERT": true, "INTEGER": true, "INTERSECT": true,
	"INTO": true, "IS": true, "LEVEL": true, "LIKE": true, "LOCK": true,
	"LONG": true, "MAXEXTENTS": true, "MINUS": true, "MLSLABEL": true,
	"MODE": true, "MODIFY": true, "NOAUDIT": true, "NOCOMPRESS": true,
	"NOT": true, "NOWAIT": true, "NULL": true, "NUMBER": true, "OF": true,
	"OFFLINE": true, "ON": true, "ONLINE": true, "OPTION": true, "OR": true,
	"ORDER": true, "PCTFREE": true, "PRIOR": true, "PUBLIC": true, "RAW": true,
	"RENAME": true, "RESOURCE": true, "REVOKE": true, "ROW": true, "ROWID": true,
	"ROWNUM": true, "ROWS": true, "SELECT": true, "SESSION": true, "SET": true,
	"SHARE": true, "SIZE": true, "SMALLINT": true, "START": true,
	"SUCCESSFUL": true, "SYNONYM": true, "SYSDATE": true, "TABLE": true,
	"THEN": true, "TO": true, "TRIGGER": true, "UID": true, "UNION": true,
	"UNIQUE": true, "UPDATE": true, "USER": true, "VALIDATE": true,
	"VALUES": true, "VARCHAR": true, "VARCHAR2": true, "VIEW": true,
	"WHENEVER": true, "WHERE": true, "WITH": true,
}
