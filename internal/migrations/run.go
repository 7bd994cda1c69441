// Package migrations накатывает схему хранилища клиентов.
// Миграции встроены в бинарник, поэтому собранное приложение
// не зависит от каталога, из которого его запустили.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	pgxv5 "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed sqlite/*.sql postgres/*.sql
var files embed.FS

// Run применяет все миграции для драйвера ("sqlite" или "pgx").
// Повторный запуск ничего не меняет.
func Run(db *sql.DB, driver string) error {
	const op = "migrations.Run"

	var (
		dbDriver database.Driver
		dir      string
		err      error
	)
	switch driver {
	case "sqlite":
		dir = "sqlite"
		dbDriver, err = sqlite.WithInstance(db, &sqlite.Config{})
	case "pgx":
		dir = "postgres"
		dbDriver, err = pgxv5.WithInstance(db, &pgxv5.Config{})
	default:
		return fmt.Errorf("%s: unknown driver %q", op, driver)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	src, err := iofs.New(files, dir)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	m, err := migrate.NewWithInstance("iofs", src, driver, dbDriver)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
