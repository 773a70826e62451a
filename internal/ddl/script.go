package ddl

import (
	"fmt"
	"strings"

	"github.com/orakit-io/orakit/internal/errs"
	"github.com/orakit-io/orakit/internal/schema"
)

// GenerateSchemaScript renders the full DDL script for a schema:
// tables in foreign-key dependency order (referenced before
// referencing), then secondary indexes, then views and sequences.
// A cycle in the FK graph yields a Data category error rather than a
// silently broken script.
func GenerateSchemaScript(sc *schema.Schema) (string, error) {
	ordered, err := orderByDependency(sc.Tables)
	if err != nil {
		return "", err
	}

	var stmts []string
	for _, t := range ordered {
		stmts = append(stmts, GenerateCreateTable(t))
	}
	for _, t := range ordered {
		stmts = append(stmts, GenerateIndexes(t)...)
	}
	for _, v := range sc.Views {
		stmts = append(stmts, fmt.Sprintf("CREATE OR REPLACE VIEW %s AS\n%s",
			quoteIdent(v.Name), v.Definition))
	}
	for _, seq := range sc.Sequences {
		stmts = append(stmts, sequenceClause(seq))
	}

	if len(stmts) == 0 {
		return "", nil
	}
	return strings.Join(stmts, ";\n\n") + ";\n", nil
}

// orderByDependency topologically sorts tables over the FK graph.
// Ties keep the input enumeration order so output is stable.
func orderByDependency(tables []*schema.Table) ([]*schema.Table, error) {
	byName := make(map[string]*schema.Table, len(tables))
	for _, t := range tables {
		byName[t.Name] = t
	}

	// indegree counts unemitted referenced tables per table.
	indegree := make(map[string]int, len(tables))
	dependents := make(map[string][]string, len(tables))
	for _, t := range tables {
		indegree[t.Name] = 0
	}
	for _, t := range tables {
		for _, c := range t.Constraints {
			if c.Kind != schema.ForeignKey || c.RefTable == t.Name {
				continue
			}
			if _, known := byName[c.RefTable]; !known {
				continue
			}
			indegree[t.Name]++
			dependents[c.RefTable] = append(dependents[c.RefTable], t.Name)
		}
	}

	var ordered []*schema.Table
	emitted := make(map[string]bool, len(tables))
	for len(ordered) < len(tables) {
		progressed := false
		for _, t := range tables {
			if emitted[t.Name] || indegree[t.Name] > 0 {
				continue
			}
			ordered = append(ordered, t)
			emitted[t.Name] = true
			progressed = true
			for _, dep := range dependents[t.Name] {
				indegree[dep]--
			}
		}
		if !progressed {
			var stuck []string
			for _, t := range tables {
				if !emitted[t.Name] {
					stuck = append(stuck, t.Name)
				}
			}
			return nil, errs.New(errs.Data, fmt.Sprintf(
				"foreign key cycle involving tables %s, cannot order schema script",
				strings.Join(stuck, ", ")))
		}
	}
	return ordered, nil
}

func sequenceClause(seq schema.Sequence) string {
	var b strings.Builder
	start := seq.LastNumber
	if start < seq.MinValue {
		start = seq.MinValue
	}
	fmt.Fprintf(&b, "CREATE SEQUENCE %s", quoteIdent(seq.Name))
	fmt.Fprintf(&b, " START WITH %d", start)
	fmt.Fprintf(&b, " INCREMENT BY %d", seq.IncrementBy)
	fmt.Fprintf(&b, " MINVALUE %d MAXVALUE %d", seq.MinValue, seq.MaxValue)
	if seq.CacheSize > 1 {
		fmt.Fprintf(&b, " CACHE %d", seq.CacheSize)
	} else {
		b.WriteString(" NOCACHE")
	}
	if seq.Cycle {
		b.WriteString(" CYCLE")
	} else {
		b.WriteString(" NOCYCLE")
	}
	return b.String()
}
