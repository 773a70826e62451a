package ddl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orakit-io/orakit/internal/schema"
)

func iptr(v int) *int { return &v }

func employeesTable() *schema.Table {
	return &schema.Table{
		Name:  "EMPLOYEES",
		Owner: "HR",
		Columns: []schema.Column{
			{Name: "ID", DataType: "NUMBER", Family: schema.FamilyNumber,
				Precision: iptr(10), Scale: iptr(0)},
			{Name: "NAME", DataType: "VARCHAR2", Family: schema.FamilyString,
				Length: iptr(100)},
			{Name: "SALARY", DataType: "NUMBER", Family: schema.FamilyNumber,
				Precision: iptr(8), Scale: iptr(2), Nullable: true},
			{Name: "HIRED_AT", DataType: "DATE", Family: schema.FamilyDatetime,
				Nullable: true, Default: "SYSDATE"},
			{Name: "DEPT_ID", DataType: "NUMBER", Family: schema.FamilyNumber,
				Precision: iptr(10), Nullable: true},
		},
		Indexes: []schema.Index{
			{Name: "EMP_NAME_IX", Columns: []string{"NAME"}},
			{Name: "EMP_PK", Unique: true, Columns: []string{"ID"}},
		},
		Constraints: []schema.Constraint{
			{Name: "EMP_PK", Kind: schema.PrimaryKey, Columns: []string{"ID"}},
			{Name: "EMP_DEPT_FK", Kind: schema.ForeignKey, Columns: []string{"DEPT_ID"},
				RefTable: "DEPARTMENTS", RefColumns: []string{"ID"}},
			{Name: "EMP_SALARY_CK", Kind: schema.Check, Definition: "SALARY > 0"},
		},
	}
}

func TestGenerateCreateTable(t *testing.T) {
	got := GenerateCreateTable(employeesTable())

	want := `CREATE TABLE EMPLOYEES (
    ID NUMBER(10) NOT NULL,
    NAME VARCHAR2(100) NOT NULL,
    SALARY NUMBER(8,2),
    HIRED_AT DATE DEFAULT SYSDATE,
    DEPT_ID NUMBER(10),
    CONSTRAINT EMP_PK PRIMARY KEY (ID),
    CONSTRAINT EMP_DEPT_FK FOREIGN KEY (DEPT_ID) REFERENCES DEPARTMENTS (ID),
    CONSTRAINT EMP_SALARY_CK CHECK (SALARY > 0)
)`
	assert.Equal(t, want, got)
}

func TestGenerateCreateTable_IsDeterministic(t *testing.T) {
	table := employeesTable()
	first := GenerateCreateTable(table)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, GenerateCreateTable(table))
	}
}

func TestGenerateCreateTable_QuotesAwkwardIdentifiers(t *testing.T) {
	table := &schema.Table{
		Name: "ORDER", // reserved word
		Columns: []schema.Column{
			{Name: "SELECT", DataType: "NUMBER", Family: schema.FamilyNumber, Nullable: true},
			{Name: "MixedCase", DataType: "VARCHAR2", Family: schema.FamilyString,
				Length: iptr(10), Nullable: true},
		},
	}
	got := GenerateCreateTable(table)

	assert.Contains(t, got, `CREATE TABLE "ORDER"`)
	assert.Contains(t, got, `"SELECT" NUMBER`)
	assert.Contains(t, got, `"MixedCase" VARCHAR2(10)`)
	assert.NotContains(t, got, "\nORDER")
}

func TestGenerateIndexes_SkipsConstraintBackedIndexes(t *testing.T) {
	stmts := GenerateIndexes(employeesTable())

	require.Len(t, stmts, 1)
	assert.Equal(t, "CREATE INDEX EMP_NAME_IX ON EMPLOYEES (NAME)", stmts[0])
}

func TestGenerateIndexes_Unique(t *testing.T) {
	table := &schema.Table{
		Name: "T",
		Indexes: []schema.Index{
			{Name: "T_EMAIL_UX", Unique: true, Columns: []string{"EMAIL"}},
		},
	}
	stmts := GenerateIndexes(table)
	require.Len(t, stmts, 1)
	assert.Equal(t, "CREATE UNIQUE INDEX T_EMAIL_UX ON T (EMAIL)", stmts[0])
}

func TestGenerateSchemaScript_ReferencedTablesFirst(t *testing.T) {
	// Enumeration lists EMPLOYEES (referencing) before DEPARTMENTS
	// (referenced); the script must invert that.
	sc := &schema.Schema{
		Name: "HR",
		Tables: []*schema.Table{
			employeesTable(),
			{
				Name: "DEPARTMENTS",
				Columns: []schema.Column{
					{Name: "ID", DataType: "NUMBER", Family: schema.FamilyNumber, Precision: iptr(10)},
				},
				Constraints: []schema.Constraint{
					{Name: "DEPT_PK", Kind: schema.PrimaryKey, Columns: []string{"ID"}},
				},
			},
		},
	}

	script, err := GenerateSchemaScript(sc)
	require.NoError(t, err)

	dept := strings.Index(script, "CREATE TABLE DEPARTMENTS")
	emp := strings.Index(script, "CREATE TABLE EMPLOYEES")
	require.GreaterOrEqual(t, dept, 0)
	require.GreaterOrEqual(t, emp, 0)
	assert.Less(t, dept, emp, "referenced table must be created first")

	// Indexes come after every table.
	assert.Greater(t, strings.Index(script, "CREATE INDEX EMP_NAME_IX"), emp)
}

func TestGenerateSchemaScript_CycleIsAnError(t *testing.T) {
	fk := func(name, from, to string) schema.Constraint {
		return schema.Constraint{Name: name, Kind: schema.ForeignKey,
			Columns: []string{from + "_ID"}, RefTable: to, RefColumns: []string{"ID"}}
	}
	sc := &schema.Schema{
		Name: "APP",
		Tables: []*schema.Table{
			{Name: "A", Columns: []schema.Column{{Name: "ID", DataType: "NUMBER", Family: schema.FamilyNumber}},
				Constraints: []schema.Constraint{fk("A_B_FK", "B", "B")}},
			{Name: "B", Columns: []schema.Column{{Name: "ID", DataType: "NUMBER", Family: schema.FamilyNumber}},
				Constraints: []schema.Constraint{fk("B_A_FK", "A", "A")}},
		},
	}

	_, err := GenerateSchemaScript(sc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "foreign key cycle")
	assert.Contains(t, err.Error(), "A")
	assert.Contains(t, err.Error(), "B")
}

func TestGenerateSchemaScript_SelfReferenceAllowed(t *testing.T) {
	sc := &schema.Schema{
		Tables: []*schema.Table{{
			Name: "EMP",
			Columns: []schema.Column{
				{Name: "ID", DataType: "NUMBER", Family: schema.FamilyNumber},
				{Name: "MGR_ID", DataType: "NUMBER", Family: schema.FamilyNumber, Nullable: true},
			},
			Constraints: []schema.Constraint{
				{Name: "EMP_MGR_FK", Kind: schema.ForeignKey, Columns: []string{"MGR_ID"},
					RefTable: "EMP", RefColumns: []string{"ID"}},
			},
		}},
	}

	script, err := GenerateSchemaScript(sc)
	require.NoError(t, err)
	assert.Contains(t, script, "CREATE TABLE EMP")
}

func TestGenerateSchemaScript_ViewsAndSequences(t *testing.T) {
	sc := &schema.Schema{
		Views: []schema.View{
			{Name: "EMP_V", Definition: "SELECT id FROM employees"},
		},
		Sequences: []schema.Sequence{
			{Name: "EMP_SEQ", MinValue: 1, MaxValue: 9999, IncrementBy: 1,
				CacheSize: 20, LastNumber: 207},
			{Name: "AUDIT_SEQ", MinValue: 1, MaxValue: 9999, IncrementBy: 1, Cycle: true},
		},
	}

	script, err := GenerateSchemaScript(sc)
	require.NoError(t, err)

	assert.Contains(t, script, "CREATE OR REPLACE VIEW EMP_V AS\nSELECT id FROM employees")
	assert.Contains(t, script,
		"CREATE SEQUENCE EMP_SEQ START WITH 207 INCREMENT BY 1 MINVALUE 1 MAXVALUE 9999 CACHE 20 NOCYCLE")
	assert.Contains(t, script,
		"CREATE SEQUENCE AUDIT_SEQ START WITH 1 INCREMENT BY 1 MINVALUE 1 MAXVALUE 9999 NOCACHE CYCLE")
	assert.True(t, strings.HasSuffix(script, ";\n"))
}

func TestRenderType(t *testing.T) {
	tests := []struct {
		name string
		col  schema.Column
		want string
	}{
		{"number scaled", schema.Column{DataType: "NUMBER", Family: schema.FamilyNumber,
			Precision: iptr(8), Scale: iptr(2)}, "NUMBER(8,2)"},
		{"number integer", schema.Column{DataType: "NUMBER", Family: schema.FamilyNumber,
			Precision: iptr(10), Scale: iptr(0)}, "NUMBER(10)"},
		{"number bare", schema.Column{DataType: "NUMBER", Family: schema.FamilyNumber}, "NUMBER"},
		{"binary double", schema.Column{DataType: "BINARY_DOUBLE", Family: schema.FamilyNumber,
			Precision: iptr(5)}, "BINARY_DOUBLE"},
		{"varchar2", schema.Column{DataType: "VARCHAR2", Family: schema.FamilyString,
			Length: iptr(255)}, "VARCHAR2(255)"},
		{"clob", schema.Column{DataType: "CLOB", Family: schema.FamilyString}, "CLOB"},
		{"date", schema.Column{DataType: "DATE", Family: schema.FamilyDatetime}, "DATE"},
		{"timestamp", schema.Column{DataType: "TIMESTAMP(6)", Family: schema.FamilyDatetime}, "TIMESTAMP(6)"},
		{"blob", schema.Column{DataType: "BLOB", Family: schema.FamilyBinary}, "BLOB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, renderType(tt.col))
		})
	}
}
