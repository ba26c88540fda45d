package vecdb

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"regexp"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pgvector/pgvector-go"

	"github.com/chatta-ai/chatta/internal/document"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// HNSW search candidate list size, applied per query transaction.
const efSearch = 40

// identPattern restricts filter fields to plain identifiers since the field
// name is interpolated into the query text.
var identPattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// Compile-time check that Postgres implements Store.
var _ Store = (*Postgres)(nil)

// Postgres stores nodes in a pgvector-backed table with an HNSW cosine
// index. The metadata filter is fixed at construction and applied to every
// query.
type Postgres struct {
	pool      *pgxpool.Pool
	filter    Filter
	filterSQL string
}

// OpenPostgres connects to the database, applies pending migrations and
// returns a ready store. The filter's field must be a plain identifier.
func OpenPostgres(ctx context.Context, url string, filter Filter) (*Postgres, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if !identPattern.MatchString(filter.Field) {
		return nil, fmt.Errorf("filter field %q is not a plain identifier", filter.Field)
	}

	if err := migrateUp(url); err != nil {
		return nil, fmt.Errorf("applying migrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &Postgres{
		pool:      pool,
		filter:    filter,
		filterSQL: filterSQL(filter),
	}, nil
}

// migrateUp applies embedded migrations through a short-lived stdlib
// connection; the pgx pool is opened afterwards.
func migrateUp(url string) error {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return fmt.Errorf("opening migration connection: %w", err)
	}
	defer db.Close()

	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		return fmt.Errorf("creating migrate driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("creating migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("creating migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// filterSQL renders the construction-time filter as a jsonb predicate.
// IS [NOT] DISTINCT FROM keeps rows without the field on the "!=" side,
// matching how a missing key compares to any value.
func filterSQL(f Filter) string {
	op := "IS NOT DISTINCT FROM"
	if f.Op == OpNotEqual {
		op = "IS DISTINCT FROM"
	}
	return fmt.Sprintf("metadata->>'%s' %s $2", f.Field, op)
}

// Add bulk-inserts nodes. Each node gets a fresh uuid, so adding the same
// node twice stores two rows.
func (p *Postgres) Add(ctx context.Context, nodes []document.Node) error {
	if len(nodes) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, n := range nodes {
		id := n.ID
		if id == "" {
			id = uuid.NewString()
		}
		batch.Queue(
			`INSERT INTO rag_data (id, text, metadata, embedding) VALUES ($1, $2, $3, $4)`,
			id, n.Text, n.Metadata, pgvector.NewVector(n.Embedding),
		)
	}

	results := p.pool.SendBatch(ctx, batch)
	defer results.Close()
	for i := range nodes {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("inserting node %d: %w", i, err)
		}
	}
	return nil
}

// Query returns the topK nodes nearest to vector under cosine distance,
// restricted by the construction-time filter.
func (p *Postgres) Query(ctx context.Context, vector []float32, topK int) ([]document.Node, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning query transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// SET LOCAL scopes the search width to this transaction.
	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL hnsw.ef_search = %d", efSearch)); err != nil {
		return nil, fmt.Errorf("setting ef_search: %w", err)
	}

	query := `SELECT id, text, metadata FROM rag_data WHERE ` + p.filterSQL + `
		ORDER BY embedding <=> $1 LIMIT $3`
	rows, err := tx.Query(ctx, query, pgvector.NewVector(vector), p.filter.Value, topK)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var nodes []document.Node
	for rows.Next() {
		var n document.Node
		if err := rows.Scan(&n.ID, &n.Text, &n.Metadata); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing query transaction: %w", err)
	}
	return nodes, nil
}

// Count returns the number of stored nodes, ignoring the filter.
func (p *Postgres) Count(ctx context.Context) (int, error) {
	var count int
	err := p.pool.QueryRow(ctx, "SELECT COUNT(*) FROM rag_data").Scan(&count)
	return count, err
}

// Close releases the connection pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
