package metadata

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rebeliceyang/pglens/internal/db/connection"
	"github.com/rebeliceyang/pglens/internal/db/query"
)

var (
	ErrInvalidPage     = errors.New("page must not be negative")
	ErrInvalidPageSize = errors.New("page size must be positive")
	ErrNoTable         = errors.New("no table given")
)

// TableData represents one page of table data
type TableData struct {
	Columns []string
	Rows    [][]string
}

// PageOffset returns the row offset of a zero-based page
func PageOffset(page, pageSize int) int64 {
	return int64(page) * int64(pageSize)
}

// TablePageSQL returns the statement for one page of schema.table with both
// identifiers quoted. Limit and offset are bound as $1 and $2.
func TablePageSQL(schema, table string) string {
	return fmt.Sprintf("SELECT * FROM %s LIMIT $1 OFFSET $2", pgx.Identifier{schema, table}.Sanitize())
}

// QueryTablePage fetches one page of a table. A page past the end yields
// no rows; the columns are still reported.
func QueryTablePage(ctx context.Context, q connection.Querier, m *pgtype.Map, schema, table string, page, pageSize int) (*TableData, error) {
	switch {
	case table == "":
		return nil, ErrNoTable
	case page < 0:
		return nil, ErrInvalidPage
	case pageSize <= 0:
		return nil, ErrInvalidPageSize
	}

	rows, err := q.Query(ctx, TablePageSQL(schema, table), int64(pageSize), PageOffset(page, pageSize))
	if err != nil {
		return nil, fmt.Errorf("failed to query table data: %w", err)
	}

	result, err := query.Collect(rows, m)
	if err != nil {
		return nil, fmt.Errorf("failed to query table data: %w", err)
	}

	return &TableData{
		Columns: result.Columns,
		Rows:    result.Rows,
	}, nil
}
