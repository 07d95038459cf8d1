package worker

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rebeliceyang/pglens/internal/db/connection"
	"github.com/rebeliceyang/pglens/internal/db/metadata"
	"github.com/rebeliceyang/pglens/internal/db/query"
)

// Gateway is the set of database operations the worker needs. It is used
// from the worker goroutine only.
type Gateway interface {
	ListTables(ctx context.Context, schema string) ([]string, error)
	LoadPage(ctx context.Context, schema, table string, page, pageSize int) (columns []string, rows [][]string, err error)
	ExecuteSQL(ctx context.Context, sql string) (query.Result, error)
	ListColumns(ctx context.Context, schema string) (map[string][]string, error)
	Close()
}

// Connector opens a gateway. It must honor ctx cancellation.
type Connector func(ctx context.Context, url string) (Gateway, error)

// PgGateway is the PostgreSQL gateway backed by a connection pool
type PgGateway struct {
	pool  *connection.Pool
	types *pgtype.Map
}

// PgConnector returns a Connector that opens pools of at most maxConns connections
func PgConnector(maxConns int) Connector {
	return func(ctx context.Context, url string) (Gateway, error) {
		pool, err := connection.NewPool(ctx, url, maxConns)
		if err != nil {
			return nil, err
		}
		return &PgGateway{pool: pool, types: pgtype.NewMap()}, nil
	}
}

func (g *PgGateway) ListTables(ctx context.Context, schema string) ([]string, error) {
	return metadata.ListTables(ctx, g.pool, schema)
}

func (g *PgGateway) LoadPage(ctx context.Context, schema, table string, page, pageSize int) ([]string, [][]string, error) {
	data, err := metadata.QueryTablePage(ctx, g.pool, g.types, schema, table, page, pageSize)
	if err != nil {
		return nil, nil, err
	}
	return data.Columns, data.Rows, nil
}

func (g *PgGateway) ExecuteSQL(ctx context.Context, sql string) (query.Result, error) {
	return query.Execute(ctx, g.pool, g.types, sql)
}

func (g *PgGateway) ListColumns(ctx context.Context, schema string) (map[string][]string, error) {
	return metadata.ListColumns(ctx, g.pool, schema)
}

func (g *PgGateway) Close() {
	g.pool.Close()
}
