package pgx

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/citegraph/pkg/logger"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrate brings the database at databaseURL up to the latest schema. When
// path is empty the embedded migrations are used, otherwise path is read as
// a directory (or a file:// source URL).
func Migrate(databaseURL, path string) error {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	var m *migrate.Migrate
	if path == "" {
		src, err := iofs.New(migrationFiles, "migrations")
		if err != nil {
			return fmt.Errorf("load embedded migrations: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", src, "postgres", driver)
		if err != nil {
			return fmt.Errorf("create migrator: %w", err)
		}
	} else {
		if !strings.Contains(path, "://") {
			path = "file://" + path
		}
		m, err = migrate.NewWithDatabaseInstance(path, "postgres", driver)
		if err != nil {
			return fmt.Errorf("create migrator: %w", err)
		}
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Debug("[Store] schema up to date")
			return nil
		}
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	logger.Info("[Store] applied migrations", "version", version, "dirty", dirty)
	return nil
}
