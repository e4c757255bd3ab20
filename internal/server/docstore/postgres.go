package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mkarpovs/crewtally/internal/server/migrations"
)

// PostgresStore keeps each document as one jsonb row in the documents table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens the database via the pgx stdlib driver and runs the
// embedded migrations.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	s := &PostgresStore{db: db}

	if err := s.RunMigrations(context.Background()); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return s, nil
}

// NewPostgresStoreWithDB wraps an existing connection without running
// migrations. Used by tests.
func NewPostgresStoreWithDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	return goose.UpContext(ctx, s.db, ".")
}

func (s *PostgresStore) Conn() *sql.DB {
	return s.db
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Get(ctx context.Context, key string, v any) (bool, error) {
	query := `SELECT value FROM documents WHERE key = $1`

	var b []byte
	err := s.db.QueryRowContext(ctx, query, key).Scan(&b)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("error performing sql request: %w", err)
	}

	// Corrupted documents are treated as absent.
	if err := json.Unmarshal(b, v); err != nil {
		return false, nil
	}
	return true, nil
}

func (s *PostgresStore) Put(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	query := `INSERT INTO documents (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = now()`

	if _, err := s.db.ExecContext(ctx, query, key, b); err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM documents WHERE key = $1`

	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, prefix string) ([]string, error) {
	query := `SELECT key FROM documents WHERE key LIKE $1 || '%' ORDER BY key`

	rows, err := s.db.QueryContext(ctx, query, prefix)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
