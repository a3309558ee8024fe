package vectorstore

import (
	"context"
	"embed"
	stdsql "database/sql"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver used by runMigrations

	"github.com/aegis-sec/aegis/pkg/coreerr"
)

//go:embed migrations
var migrationsFS embed.FS

func init() {
	Register("sql", func(ctx context.Context, embedder Embedder, opts map[string]string) (Store, error) {
		if embedder == nil {
			return nil, fmt.Errorf("vectorstore: sql backend requires an embedder")
		}
		dsn := opts["dsn"]
		if dsn == "" {
			return nil, fmt.Errorf("vectorstore: sql backend requires a dsn")
		}
		return NewSQLStore(ctx, dsn, embedder)
	})
}

// SQLStore is the relational-with-vector-column variant (spec §4.3):
// embeddings live in a plain Postgres column on the host application's own
// schema rather than a dedicated vector-search service. Grounded on
// `pkg/database/client.go` for the connect-then-migrate startup sequence
// and `pkg/database/migrations.go`'s use of golang-migrate with embedded
// migration files — reimplemented over `jackc/pgx/v5` directly since the
// teacher's version threads the connection through `entgo.io/ent`, which
// this repo does not carry (see DESIGN.md "Dropped teacher dependencies").
type SQLStore struct {
	pool     *pgxpool.Pool
	embedder Embedder
}

// NewSQLStore connects to Postgres, applies embedded migrations, and
// returns a ready-to-use Store.
func NewSQLStore(ctx context.Context, dsn string, embedder Embedder) (*SQLStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("vectorstore: pinging postgres: %w", err)
	}
	if err := runMigrations(dsn); err != nil {
		pool.Close()
		return nil, err
	}
	return &SQLStore{pool: pool, embedder: embedder}, nil
}

func runMigrations(dsn string) error {
	db, err := stdsql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("vectorstore: opening migration connection: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("vectorstore: creating postgres migration driver: %w", err)
	}
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("vectorstore: creating migration source: %w", err)
	}
	defer sourceDriver.Close()

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "vectorstore", driver)
	if err != nil {
		return fmt.Errorf("vectorstore: creating migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("vectorstore: applying migrations: %w", err)
	}
	return nil
}

func (s *SQLStore) Add(ctx context.Context, id, text string, metadata map[string]string) error {
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("vectorstore: embedding %q: %w", id, err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO vector_entries (id, text, vector, metadata)
		VALUES ($1, $2, $3, $4::jsonb)
		ON CONFLICT (id) DO UPDATE SET text = $2, vector = $3, metadata = $4::jsonb`,
		id, text, vec, metadataToJSON(metadata))
	if err != nil {
		return coreerr.Wrap(coreerr.ErrBackendUnavailable, "VECTORSTORE_ADD", "", err)
	}
	return nil
}

func (s *SQLStore) FindSimilar(ctx context.Context, query string, k int, threshold float64) ([]Match, error) {
	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: embedding query: %w", err)
	}

	// Cosine distance is computed in Go rather than via a pgvector operator
	// so this variant has no extension dependency beyond plain Postgres —
	// the tradeoff named in spec §4.3's "relational-with-vector-column"
	// description, which only promises a vector column, not an ANN index.
	rows, err := s.pool.Query(ctx, `SELECT id, text, vector FROM vector_entries`)
	if err != nil {
		return nil, coreerr.Wrap(coreerr.ErrBackendUnavailable, "VECTORSTORE_SEARCH", "", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var id, text string
		var vec []float32
		if err := rows.Scan(&id, &text, &vec); err != nil {
			return nil, fmt.Errorf("vectorstore: scanning row: %w", err)
		}
		if score := cosineSimilarity(queryVec, vec); score >= threshold {
			matches = append(matches, Match{ID: id, Text: text, Score: score})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vectorstore: iterating rows: %w", err)
	}

	sortMatches(matches)
	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func (s *SQLStore) Remove(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM vector_entries WHERE id = $1`, id)
	if err != nil {
		return coreerr.Wrap(coreerr.ErrBackendUnavailable, "VECTORSTORE_REMOVE", "", err)
	}
	return nil
}

func (s *SQLStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM vector_entries`).Scan(&count); err != nil {
		return 0, coreerr.Wrap(coreerr.ErrBackendUnavailable, "VECTORSTORE_COUNT", "", err)
	}
	return count, nil
}

// Close releases the underlying connection pool.
func (s *SQLStore) Close() { s.pool.Close() }
