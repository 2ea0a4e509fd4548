package migrations

import (
	"embed"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
)

//go:embed sql/postgres/*.sql sql/sqlite/*.sql
var embedded embed.FS

// Apply brings the documents schema up to date for the given dialect
// ("postgres" or "sqlite").
func Apply(db *sqlx.DB, dialect string) error {
	gooseDialect, dir, err := resolve(dialect)
	if err != nil {
		return err
	}
	goose.SetBaseFS(embedded)
	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.Up(db.DB, dir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func resolve(dialect string) (string, string, error) {
	switch dialect {
	case "postgres":
		return "postgres", "sql/postgres", nil
	case "sqlite":
		return "sqlite3", "sql/sqlite", nil
	default:
		return "", "", fmt.Errorf("unsupported dialect %q", dialect)
	}
}
