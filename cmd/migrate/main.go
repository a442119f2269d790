// Command migrate applies the appointments schema to the configured
// database.
//
// Usage:
//
//	migrate            apply all pending migrations
//	migrate down [n]   roll back n migrations (default 1)
//	migrate force v    override the recorded schema version
package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"

	appmigrations "github.com/atendezap/atende-ai-platform/migrations"
)

func main() {
	logger := log.New(os.Stderr, "migrate: ", 0)

	dsn := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dsn == "" {
		logger.Fatal("DATABASE_URL is required")
	}

	m, err := newMigrator(dsn)
	if err != nil {
		logger.Fatal(err)
	}
	defer func() { _, _ = m.Close() }()

	if err := run(m, os.Args[1:]); err != nil {
		logger.Fatal(err)
	}
}

func newMigrator(dsn string) (*migrate.Migrate, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("postgres driver: %w", err)
	}
	src, err := iofs.New(appmigrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("embedded migrations: %w", err)
	}
	return migrate.NewWithInstance("iofs", src, "postgres", dbDriver)
}

func run(m *migrate.Migrate, args []string) error {
	if len(args) == 0 {
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("up: %w", err)
		}
		version, dirty, _ := m.Version()
		fmt.Printf("appointments schema at version %d (dirty=%v)\n", version, dirty)
		return nil
	}

	switch args[0] {
	case "down":
		steps := 1
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				return fmt.Errorf("invalid step count %q", args[1])
			}
			steps = n
		}
		if err := m.Steps(-steps); err != nil {
			return fmt.Errorf("down %d: %w", steps, err)
		}
		fmt.Printf("rolled back %d migration(s)\n", steps)
		return nil
	case "force":
		if len(args) < 2 {
			return errors.New("force needs a version")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version %q", args[1])
		}
		if err := m.Force(v); err != nil {
			return fmt.Errorf("force %d: %w", v, err)
		}
		fmt.Printf("schema version forced to %d\n", v)
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}
