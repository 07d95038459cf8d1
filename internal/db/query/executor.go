package query

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rebeliceyang/pglens/internal/db/connection"
)

// Result is the outcome of a statement. A statement whose row description
// has no fields is a command: IsCommand is set and RowsAffected comes from
// the command tag. Otherwise Columns and Rows hold the result set.
type Result struct {
	Columns      []string
	Rows         [][]string
	RowsAffected int64
	IsCommand    bool
	Duration     time.Duration
}

// Info describes the result for the status line
func (r Result) Info() string {
	if r.IsCommand {
		return fmt.Sprintf("OK. %d rows affected.", r.RowsAffected)
	}
	return "Query OK"
}

// Execute runs sql exactly once and classifies the outcome by its shape.
// Database errors are returned unwrapped so the server message reaches the user.
func Execute(ctx context.Context, q connection.Querier, m *pgtype.Map, sql string) (Result, error) {
	start := time.Now()

	rows, err := q.Query(ctx, sql)
	if err != nil {
		return Result{}, err
	}

	result, err := Collect(rows, m)
	if err != nil {
		return Result{}, err
	}
	result.Duration = time.Since(start)
	return result, nil
}

// Collect reads and closes rows, decoding every cell independently so one
// bad value never fails the row
func Collect(rows pgx.Rows, m *pgtype.Map) (Result, error) {
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	columns := make([]string, len(fieldDescs))
	for i, fd := range fieldDescs {
		columns[i] = fd.Name
	}

	data := [][]string{}
	for rows.Next() {
		raw := rows.RawValues()
		row := make([]string, len(fieldDescs))
		for i, fd := range fieldDescs {
			var cell []byte
			if i < len(raw) {
				cell = raw[i]
			}
			row[i] = DecodeCell(m, fd, cell)
		}
		data = append(data, row)
	}

	// Close before reading the error and command tag; both are final only then
	rows.Close()
	if err := rows.Err(); err != nil {
		return Result{}, err
	}

	if len(fieldDescs) == 0 {
		return Result{
			Columns:      columns,
			Rows:         data,
			RowsAffected: rows.CommandTag().RowsAffected(),
			IsCommand:    true,
		}, nil
	}

	return Result{
		Columns:      columns,
		Rows:         data,
		RowsAffected: int64(len(data)),
	}, nil
}
