package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/duckdb/duckdb-go/v2"
	"go.uber.org/zap"

	"github.com/qaharness/api-test-framework/internal/store/migrations"
	"github.com/qaharness/api-test-framework/pkg/secret"
)

// NewDB opens the DuckDB file at path, creating its directory when needed.
// ":memory:" opens an in-memory database.
func NewDB(path string) (*sql.DB, error) {
	dsn := path
	if path == ":memory:" {
		dsn = ""
	} else if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store dir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, err
	}
	// in-memory databases live as long as their connection
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Store provides access to all storage repositories.
type Store struct {
	db         *sql.DB
	savedQuery *SavedQueryStore
}

func NewStore(db *sql.DB, cipher *secret.Cipher) *Store {
	qi := NewQueryInterceptor(db)
	return &Store{
		db:         db,
		savedQuery: NewSavedQueryStore(qi, cipher),
	}
}

func (s *Store) Migrate(ctx context.Context) error {
	if err := migrations.Run(ctx, s.db); err != nil {
		return fmt.Errorf("failed to migrate store: %w", err)
	}
	return nil
}

func (s *Store) SavedQuery() *SavedQueryStore {
	return s.savedQuery
}

func (s *Store) Close() error {
	zap.S().Named("store").Debug("closing store")
	return s.db.Close()
}
