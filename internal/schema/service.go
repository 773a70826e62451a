package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/orakit-io/orakit/internal/database"
	"github.com/orakit-io/orakit/internal/errs"
	"github.com/orakit-io/orakit/internal/logger"
)

// Querier is the slice of the query executor the metadata service
// needs.
type Querier interface {
	Query(ctx context.Context, stmt string, args ...any) (*database.QueryResult, error)
}

// Service introspects the data dictionary and builds descriptor
// snapshots.
type Service struct {
	exec Querier
	log  *logger.Logger
}

func New(exec Querier, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{exec: exec, log: log.With().Str("component", "schema").Logger()}
}

// ListSchemas returns the names of all visible schemas.
func (s *Service) ListSchemas(ctx context.Context) ([]string, error) {
	res, err := s.exec.Query(ctx, qListSchemas)
	if err != nil {
		return nil, err
	}
	return column(res, "USERNAME"), nil
}

// ListTables returns the table names owned by owner.
func (s *Service) ListTables(ctx context.Context, owner string) ([]string, error) {
	res, err := s.exec.Query(ctx, qListTables, sql.Named("owner", ident(owner)))
	if err != nil {
		return nil, err
	}
	return column(res, "TABLE_NAME"), nil
}

// GetColumns returns the columns of one table in declared (COLUMN_ID)
// order.
func (s *Service) GetColumns(ctx context.Context, owner, table string) ([]Column, error) {
	owner, table = ident(owner), ident(table)
	res, err := s.exec.Query(ctx, qColumns,
		sql.Named("owner", owner), sql.Named("table_name", table))
	if err != nil {
		return nil, err
	}
	if res.Count == 0 {
		return nil, errs.New(errs.Data,
			fmt.Sprintf("table %s.%s does not exist", owner, table))
	}

	cols := make([]Column, 0, res.Count)
	for _, row := range res.Rows {
		dataType := str(row["DATA_TYPE"])
		cols = append(cols, Column{
			Name:      str(row["COLUMN_NAME"]),
			DataType:  dataType,
			Family:    familyOf(dataType),
			Length:    intPtr(row["CHAR_LENGTH"]),
			Precision: intPtr(row["DATA_PRECISION"]),
			Scale:     intPtr(row["DATA_SCALE"]),
			Nullable:  str(row["NULLABLE"]) != "N",
			Default:   strings.TrimSpace(str(row["DATA_DEFAULT"])),
		})
	}
	return cols, nil
}

// GetTable builds the full descriptor for one table. A missing table
// yields a Data category error.
func (s *Service) GetTable(ctx context.Context, owner, table string) (*Table, error) {
	owner, table = ident(owner), ident(table)

	cols, err := s.GetColumns(ctx, owner, table)
	if err != nil {
		return nil, err
	}

	t := &Table{Name: table, Owner: owner, Columns: cols}

	if res, err := s.exec.Query(ctx, qTableRowCount,
		sql.Named("owner", owner), sql.Named("table_name", table)); err != nil {
		return nil, err
	} else if res.Count > 0 {
		t.RowCount = int64Ptr(res.Rows[0]["NUM_ROWS"])
	}

	// Segment sizing needs USER_SEGMENTS visibility; absence is not an
	// introspection failure.
	if res, err := s.exec.Query(ctx, qTableSize,
		sql.Named("table_name", table)); err != nil {
		s.log.WarnErr("table size lookup failed", err)
	} else if res.Count > 0 {
		t.SizeBytes = int64Ptr(res.Rows[0]["BYTES"])
	}

	if t.Indexes, err = s.indexes(ctx, owner, table); err != nil {
		return nil, err
	}
	if t.Constraints, err = s.constraints(ctx, owner, table); err != nil {
		return nil, err
	}
	return t, nil
}

// GetSchema introspects every object owned by owner. Tables that
// vanish between enumeration and detail are skipped and recorded in
// Warnings.
func (s *Service) GetSchema(ctx context.Context, owner string) (*Schema, error) {
	owner = ident(owner)

	names, err := s.ListTables(ctx, owner)
	if err != nil {
		return nil, err
	}

	sc := &Schema{Name: owner}
	for _, name := range names {
		t, err := s.GetTable(ctx, owner, name)
		if err != nil {
			if errs.IsData(err) {
				s.log.With().Str("table", name).Logger().
					Warn("table vanished during introspection, skipping")
				sc.Warnings = append(sc.Warnings,
					fmt.Sprintf("table %s.%s skipped: %v", owner, name, err))
				continue
			}
			return nil, err
		}
		sc.Tables = append(sc.Tables, t)
	}

	if sc.Views, err = s.views(ctx, owner); err != nil {
		return nil, err
	}
	if sc.Sequences, err = s.sequences(ctx, owner); err != nil {
		return nil, err
	}
	if sc.Procedures, err = s.procedures(ctx, owner); err != nil {
		return nil, err
	}

	s.log.With().Str("owner", owner).Int("tables", len(sc.Tables)).Logger().
		Debug("schema introspected")
	return sc, nil
}

func (s *Service) indexes(ctx context.Context, owner, table string) ([]Index, error) {
	res, err := s.exec.Query(ctx, qIndexes,
		sql.Named("owner", owner), sql.Named("table_name", table))
	if err != nil {
		return nil, err
	}

	indexes := make([]Index, 0, res.Count)
	for _, row := range res.Rows {
		idx := Index{
			Name:   str(row["INDEX_NAME"]),
			Unique: str(row["UNIQUENESS"]) == "UNIQUE",
		}
		colRes, err := s.exec.Query(ctx, qIndexColumns,
			sql.Named("owner", owner), sql.Named("index_name", idx.Name))
		if err != nil {
			return nil, err
		}
		idx.Columns = column(colRes, "COLUMN_NAME")
		indexes = append(indexes, idx)
	}
	return indexes, nil
}

func (s *Service) constraints(ctx context.Context, owner, table string) ([]Constraint, error) {
	res, err := s.exec.Query(ctx, qConstraints,
		sql.Named("owner", owner), sql.Named("table_name", table))
	if err != nil {
		return nil, err
	}

	constraints := make([]Constraint, 0, res.Count)
	for _, row := range res.Rows {
		c := Constraint{
			Name:       str(row["CONSTRAINT_NAME"]),
			Kind:       constraintKind(str(row["CONSTRAINT_TYPE"])),
			Definition: strings.TrimSpace(str(row["SEARCH_CONDITION"])),
		}
		if c.Kind == "" {
			continue
		}

		if c.Kind != Check {
			colRes, err := s.exec.Query(ctx, qConstraintColumns,
				sql.Named("owner", owner), sql.Named("constraint_name", c.Name))
			if err != nil {
				return nil, err
			}
			c.Columns = column(colRes, "COLUMN_NAME")
		}

		if c.Kind == ForeignKey {
			refOwner := str(row["R_OWNER"])
			refName := str(row["R_CONSTRAINT_NAME"])
			if err := s.resolveReference(ctx, refOwner, refName, &c); err != nil {
				return nil, err
			}
		}
		constraints = append(constraints, c)
	}
	return constraints, nil
}

// resolveReference fills RefTable and RefColumns from the referenced
// (usually primary key) constraint of a foreign key.
func (s *Service) resolveReference(ctx context.Context, refOwner, refName string, c *Constraint) error {
	res, err := s.exec.Query(ctx, qConstraintTable,
		sql.Named("owner", refOwner), sql.Named("constraint_name", refName))
	if err != nil {
		return err
	}
	if res.Count == 0 {
		return nil
	}
	c.RefTable = str(res.Rows[0]["TABLE_NAME"])

	colRes, err := s.exec.Query(ctx, qConstraintColumns,
		sql.Named("owner", refOwner), sql.Named("constraint_name", refName))
	if err != nil {
		return err
	}
	c.RefColumns = column(colRes, "COLUMN_NAME")
	return nil
}

func (s *Service) views(ctx context.Context, owner string) ([]View, error) {
	res, err := s.exec.Query(ctx, qViews, sql.Named("owner", owner))
	if err != nil {
		return nil, err
	}
	views := make([]View, 0, res.Count)
	for _, row := range res.Rows {
		views = append(views, View{
			Name:       str(row["VIEW_NAME"]),
			Definition: strings.TrimSpace(str(row["TEXT"])),
		})
	}
	return views, nil
}

func (s *Service) sequences(ctx context.Context, owner string) ([]Sequence, error) {
	res, err := s.exec.Query(ctx, qSequences, sql.Named("owner", owner))
	if err != nil {
		return nil, err
	}
	seqs := make([]Sequence, 0, res.Count)
	for _, row := range res.Rows {
		seqs = append(seqs, Sequence{
			Name:        str(row["SEQUENCE_NAME"]),
			MinValue:    i64(row["MIN_VALUE"]),
			MaxValue:    i64(row["MAX_VALUE"]),
			IncrementBy: i64(row["INCREMENT_BY"]),
			Cycle:       str(row["CYCLE_FLAG"]) == "Y",
			CacheSize:   i64(row["CACHE_SIZE"]),
			LastNumber:  i64(row["LAST_NUMBER"]),
		})
	}
	return seqs, nil
}

func (s *Service) procedures(ctx context.Context, owner string) ([]Procedure, error) {
	res, err := s.exec.Query(ctx, qProcedures, sql.Named("owner", owner))
	if err != nil {
		return nil, err
	}
	procs := make([]Procedure, 0, res.Count)
	for _, row := range res.Rows {
		procs = append(procs, Procedure{
			Name: str(row["OBJECT_NAME"]),
			Kind: str(row["OBJECT_TYPE"]),
		})
	}
	return procs, nil
}

func constraintKind(typeCode string) string {
	switch typeCode {
	case "P":
		return PrimaryKey
	case "R":
		return ForeignKey
	case "U":
		return Unique
	case "C":
		return Check
	default:
		return ""
	}
}

// ident normalizes an identifier the way the dictionary stores it.
func ident(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// column extracts one string column from every row, in row order.
func column(res *database.QueryResult, name string) []string {
	out := make([]string, 0, res.Count)
	for _, row := range res.Rows {
		out = append(out, str(row[name]))
	}
	return out
}

func str(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

func i64(v any) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case int:
		return int64(x)
	case float64:
		return int64(x)
	default:
		return 0
	}
}

func int64Ptr(v any) *int64 {
	if v == nil {
		return nil
	}
	n := i64(v)
	return &n
}

func intPtr(v any) *int {
	if v == nil {
		return nil
	}
	n := int(i64(v))
	return &n
}
