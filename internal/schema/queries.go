package schema

// Catalog queries against the ALL_* data dictionary views. Column
// order is COLUMN_ID and index column order is COLUMN_POSITION; the
// dictionary ordinals are authoritative, never alphabetical sorting.
const (
	qListSchemas = `SELECT username
FROM all_users
ORDER BY username`

	qListTables = `SELECT table_name
FROM all_tables
WHERE owner = :owner
ORDER BY table_name`

	qTableRowCount = `SELECT num_rows
FROM all_tables
WHERE owner = :owner AND table_name = :table_name`

	qTableSize = `SELECT SUM(bytes) AS bytes
FROM user_segments
WHERE segment_name = :table_name AND segment_type LIKE 'TABLE%'`

	qColumns = `SELECT column_name, data_type, char_length, data_precision, data_scale, nullable, data_default
FROM all_tab_columns
WHERE owner = :owner AND table_name = :table_name
ORDER BY column_id`

	qIndexes = `SELECT index_name, uniqueness
FROM all_indexes
WHERE owner = :owner AND table_name = :table_name
ORDER BY index_name`

	qIndexColumns = `SELECT column_name
FROM all_ind_columns
WHERE index_owner = :owner AND index_name = :index_name
ORDER BY column_position`

	qConstraints = `SELECT constraint_name, constraint_type, search_condition, r_owner, r_constraint_name
FROM all_constraints
WHERE owner = :owner AND table_name = :table_name
  AND constraint_type IN ('P', 'R', 'U', 'C')
ORDER BY constraint_name`

	qConstraintColumns = `SELECT column_name
FROM all_cons_columns
WHERE owner = :owner AND constraint_name = :constraint_name
ORDER BY position`

	qConstraintTable = `SELECT table_name
FROM all_constraints
WHERE owner = :owner AND constraint_name = :constraint_name`

	qViews = `SELECT view_name, text
FROM all_views
WHERE owner = :owner
ORDER BY view_name`

	qSequences = `SELECT sequence_name, min_value, max_value, increment_by, cycle_flag, cache_size, last_number
FROM all_sequences
WHERE sequence_owner = :owner
ORDER BY sequence_name`

	qProcedures = `SELECT object_name, object_type
FROM all_procedures
WHERE owner = :owner AND object_type IN ('PROCEDURE', 'FUNCTION')
ORDER BY object_name`
)
