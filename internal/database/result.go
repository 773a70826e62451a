package database

import (
	"time"

	"github.com/orakit-io/orakit/internal/errs"
)

// QueryResult is the canonical, fully materialized result of one query.
// Once built it is immutable and owned solely by the caller, no
// synchronization is required to share it.
type QueryResult struct {
	// Columns preserves the select-list order of the result set.
	Columns []string

	// Rows maps column name to the Go-native value, one map per row,
	// in iteration order.
	Rows []map[string]any

	// Count is len(Rows), kept for callers that discard Rows.
	Count int

	// Elapsed is the wall-clock time the execution took, including
	// row materialization.
	Elapsed time.Duration
}

// Collect drains rows into a QueryResult. It always closes rows, even on
// error, so callers never need their own Close.
func Collect(rows Rows) (*QueryResult, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errs.Wrap(errs.Data, "failed to read column names", err)
	}

	result := &QueryResult{
		Columns: columns,
		Rows:    make([]map[string]any, 0),
	}

	for rows.Next() {
		// Scan targets are *any so the driver can write any type.
		dest := make([]any, len(columns))
		destPtrs := make([]any, len(columns))
		for i := range dest {
			destPtrs[i] = &dest[i]
		}

		if err := rows.Scan(destPtrs...); err != nil {
			return nil, errs.Wrap(errs.Data, "failed to scan row", err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = dest[i]
		}
		result.Rows = append(result.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.Data, "error during row iteration", err)
	}

	result.Count = len(result.Rows)
	return result, nil
}
