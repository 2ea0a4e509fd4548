package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"portfolio-backend-go/internal/config"
	"portfolio-backend-go/internal/docstore"
	"portfolio-backend-go/internal/migrations"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

func Open(dialect, dsn string) (*sqlx.DB, error) {
	switch dialect {
	case docstore.DialectPostgres:
		db, err := sqlx.Open("pgx", dsn)
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
		if err := db.Ping(); err != nil {
			return nil, err
		}
		return db, nil
	case docstore.DialectSQLite:
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
		db, err := sqlx.Open("sqlite", dsn+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
		if err != nil {
			return nil, err
		}
		// one connection keeps read-modify-write transactions serialized
		db.SetMaxOpenConns(1)
		if err := db.Ping(); err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported sql dialect %q", dialect)
	}
}

// OpenDocstore opens the configured backend and, for SQL backends, applies
// pending migrations.
func OpenDocstore(ctx context.Context, cfg config.Docstore) (docstore.Store, error) {
	switch cfg.Driver {
	case "memory":
		return docstore.NewMemoryStore(), nil
	case "mongo":
		return docstore.OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case docstore.DialectPostgres, docstore.DialectSQLite:
		dsn := cfg.DatabaseURL
		if cfg.Driver == docstore.DialectSQLite {
			dsn = cfg.SQLitePath
		}
		database, err := Open(cfg.Driver, dsn)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
		}
		if err := migrations.Apply(database, cfg.Driver); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		return docstore.NewSQLStore(database, cfg.Driver), nil
	default:
		return nil, fmt.Errorf("unsupported docstore driver %q", cfg.Driver)
	}
}
