package metadata

import (
	"context"
	"fmt"

	"github.com/rebeliceyang/pglens/internal/db/connection"
)

// listTablesQuery resolves the schema through regnamespace so that an
// unknown schema fails with SQLSTATE 3F000 instead of returning no rows.
// Names are ordered bytewise for a deterministic order across collations.
const listTablesQuery = `
	SELECT t.tablename::text
	FROM pg_catalog.pg_tables t
	JOIN pg_catalog.pg_namespace n ON n.nspname = t.schemaname
	WHERE n.oid = quote_ident($1::text)::regnamespace
	ORDER BY t.tablename COLLATE "C"
`

const listColumnsQuery = `
	SELECT table_name::text, column_name::text
	FROM information_schema.columns
	WHERE table_schema = $1
	ORDER BY table_name, ordinal_position
`

// ListTables returns the names of all tables in a schema in ascending order
func ListTables(ctx context.Context, q connection.Querier, schema string) ([]string, error) {
	rows, err := q.Query(ctx, listTablesQuery, schema)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	return tables, nil
}

// ListColumns returns the column names of every table in a schema, keyed
// by table name, in ordinal order
func ListColumns(ctx context.Context, q connection.Querier, schema string) (map[string][]string, error) {
	rows, err := q.Query(ctx, listColumnsQuery, schema)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns: %w", err)
	}
	defer rows.Close()

	columns := make(map[string][]string)
	for rows.Next() {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		columns[table] = append(columns[table], column)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list columns: %w", err)
	}

	return columns, nil
}
