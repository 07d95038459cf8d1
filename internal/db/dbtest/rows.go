// Package dbtest provides in-memory doubles for pgx rows and queriers.
package dbtest

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// Column returns a text-format field description
func Column(name string, oid uint32) pgconn.FieldDescription {
	return pgconn.FieldDescription{
		Name:        name,
		DataTypeOID: oid,
		Format:      pgtype.TextFormatCode,
	}
}

// Rows is a pgx.Rows over fixed raw values. A nil cell is SQL NULL.
type Rows struct {
	Fields []pgconn.FieldDescription
	Data   [][][]byte
	Tag    pgconn.CommandTag
	Fail   error

	pos    int
	closed bool
}

// TextRows builds rows from strings; a nil entry is NULL
func TextRows(fields []pgconn.FieldDescription, values ...[]*string) *Rows {
	r := &Rows{Fields: fields}
	for _, row := range values {
		raw := make([][]byte, len(row))
		for i, cell := range row {
			if cell != nil {
				raw[i] = []byte(*cell)
			}
		}
		r.Data = append(r.Data, raw)
	}
	return r
}

// Strings is shorthand for a row with no NULLs
func Strings(cells ...string) []*string {
	out := make([]*string, len(cells))
	for i := range cells {
		out[i] = &cells[i]
	}
	return out
}

// CommandRows returns rows for a statement without a result set
func CommandRows(tag string) *Rows {
	return &Rows{Tag: pgconn.NewCommandTag(tag)}
}

// Closed reports whether Close was called
func (r *Rows) Closed() bool { return r.closed }

func (r *Rows) Close() { r.closed = true }

func (r *Rows) Err() error { return r.Fail }

func (r *Rows) CommandTag() pgconn.CommandTag { return r.Tag }

func (r *Rows) FieldDescriptions() []pgconn.FieldDescription { return r.Fields }

func (r *Rows) Next() bool {
	if r.closed || r.pos >= len(r.Data) {
		r.closed = true
		return false
	}
	r.pos++
	return true
}

func (r *Rows) Scan(dest ...any) error {
	raw := r.RawValues()
	if len(dest) != len(raw) {
		return fmt.Errorf("expected %d destinations, got %d", len(raw), len(dest))
	}
	for i, d := range dest {
		p, ok := d.(*string)
		if !ok {
			return fmt.Errorf("unsupported scan destination %T", d)
		}
		*p = string(raw[i])
	}
	return nil
}

func (r *Rows) Values() ([]any, error) {
	raw := r.RawValues()
	values := make([]any, len(raw))
	for i, cell := range raw {
		if cell != nil {
			values[i] = string(cell)
		}
	}
	return values, nil
}

func (r *Rows) RawValues() [][]byte {
	if r.pos == 0 || r.pos > len(r.Data) {
		return nil
	}
	return r.Data[r.pos-1]
}

func (r *Rows) Conn() *pgx.Conn { return nil }

// Call records one Query invocation
type Call struct {
	SQL  string
	Args []any
}

// Response is what Querier returns for one call
type Response struct {
	Rows *Rows
	Err  error
}

// Querier replays responses in order and records every call
type Querier struct {
	Responses []Response
	Calls     []Call
}

func (q *Querier) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.Calls = append(q.Calls, Call{SQL: strings.TrimSpace(sql), Args: args})
	if len(q.Responses) == 0 {
		return nil, fmt.Errorf("unexpected query: %s", sql)
	}
	resp := q.Responses[0]
	q.Responses = q.Responses[1:]
	if resp.Err != nil {
		return nil, resp.Err
	}
	return resp.Rows, nil
}
