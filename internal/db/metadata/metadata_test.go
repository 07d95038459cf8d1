package metadata

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rebeliceyang/pglens/internal/db/dbtest"
)

func TestPageOffset(t *testing.T) {
	tests := []struct {
		page, size int
		want       int64
	}{
		{0, 200, 0},
		{1, 200, 200},
		{3, 50, 150},
	}
	for _, tt := range tests {
		if got := PageOffset(tt.page, tt.size); got != tt.want {
			t.Errorf("PageOffset(%d, %d): expected %d, got %d", tt.page, tt.size, tt.want, got)
		}
	}
}

func TestTablePageSQLQuotesIdentifiers(t *testing.T) {
	got := TablePageSQL("Sales", `odd"name`)
	want := `SELECT * FROM "Sales"."odd""name" LIMIT $1 OFFSET $2`
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestQueryTablePage(t *testing.T) {
	rows := dbtest.TextRows(
		[]pgconn.FieldDescription{dbtest.Column("id", pgtype.Int8OID)},
		dbtest.Strings("201"),
	)
	q := &dbtest.Querier{Responses: []dbtest.Response{{Rows: rows}}}

	data, err := QueryTablePage(context.Background(), q, pgtype.NewMap(), "public", "users", 1, 200)
	if err != nil {
		t.Fatalf("QueryTablePage failed: %v", err)
	}

	if len(data.Rows) != 1 || data.Rows[0][0] != "201" {
		t.Errorf("unexpected rows: %v", data.Rows)
	}

	call := q.Calls[0]
	if len(call.Args) != 2 || call.Args[0] != int64(200) || call.Args[1] != int64(200) {
		t.Errorf("expected limit 200 offset 200, got %v", call.Args)
	}
}

func TestQueryTablePagePastEnd(t *testing.T) {
	rows := dbtest.TextRows([]pgconn.FieldDescription{
		dbtest.Column("id", pgtype.Int8OID),
		dbtest.Column("name", pgtype.TextOID),
	})
	q := &dbtest.Querier{Responses: []dbtest.Response{{Rows: rows}}}

	data, err := QueryTablePage(context.Background(), q, pgtype.NewMap(), "public", "users", 99, 200)
	if err != nil {
		t.Fatalf("expected past-the-end page to succeed, got %v", err)
	}
	if len(data.Rows) != 0 {
		t.Errorf("expected no rows, got %d", len(data.Rows))
	}
	if len(data.Columns) != 2 {
		t.Errorf("expected columns to be reported, got %v", data.Columns)
	}
}

func TestQueryTablePageRejectsBadInput(t *testing.T) {
	q := &dbtest.Querier{}
	ctx := context.Background()

	if _, err := QueryTablePage(ctx, q, pgtype.NewMap(), "public", "users", -1, 200); !errors.Is(err, ErrInvalidPage) {
		t.Errorf("expected ErrInvalidPage, got %v", err)
	}
	if _, err := QueryTablePage(ctx, q, pgtype.NewMap(), "public", "users", 0, 0); !errors.Is(err, ErrInvalidPageSize) {
		t.Errorf("expected ErrInvalidPageSize, got %v", err)
	}
	if len(q.Calls) != 0 {
		t.Errorf("expected no queries, got %d", len(q.Calls))
	}
}

func TestListTables(t *testing.T) {
	rows := dbtest.TextRows(
		[]pgconn.FieldDescription{dbtest.Column("tablename", pgtype.TextOID)},
		dbtest.Strings("accounts"),
		dbtest.Strings("users"),
	)
	q := &dbtest.Querier{Responses: []dbtest.Response{{Rows: rows}}}

	tables, err := ListTables(context.Background(), q, "public")
	if err != nil {
		t.Fatalf("ListTables failed: %v", err)
	}
	if len(tables) != 2 || tables[0] != "accounts" || tables[1] != "users" {
		t.Errorf("unexpected tables: %v", tables)
	}
	if !strings.Contains(q.Calls[0].SQL, "regnamespace") {
		t.Error("expected the schema to be resolved through regnamespace")
	}
	if q.Calls[0].Args[0] != "public" {
		t.Errorf("expected schema argument, got %v", q.Calls[0].Args)
	}
}

func TestListTablesUnknownSchema(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "3F000", Message: `schema "nope" does not exist`}
	q := &dbtest.Querier{Responses: []dbtest.Response{{Err: pgErr}}}

	_, err := ListTables(context.Background(), q, "nope")

	var got *pgconn.PgError
	if !errors.As(err, &got) || got.Code != "3F000" {
		t.Fatalf("expected wrapped 3F000 error, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "failed to list tables:") {
		t.Errorf("expected wrapped message, got %s", err.Error())
	}
}

func TestListColumns(t *testing.T) {
	rows := dbtest.TextRows(
		[]pgconn.FieldDescription{
			dbtest.Column("table_name", pgtype.TextOID),
			dbtest.Column("column_name", pgtype.TextOID),
		},
		dbtest.Strings("users", "id"),
		dbtest.Strings("users", "name"),
		dbtest.Strings("orders", "id"),
	)
	q := &dbtest.Querier{Responses: []dbtest.Response{{Rows: rows}}}

	columns, err := ListColumns(context.Background(), q, "public")
	if err != nil {
		t.Fatalf("ListColumns failed: %v", err)
	}
	if len(columns["users"]) != 2 || columns["users"][1] != "name" {
		t.Errorf("unexpected users columns: %v", columns["users"])
	}
	if len(columns["orders"]) != 1 {
		t.Errorf("unexpected orders columns: %v", columns["orders"])
	}
}
