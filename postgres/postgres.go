// Package postgres registers the postgresql backend with two pure Go
// drivers: lib/pq (the default) and pgx through its database/sql adapter.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	_ "github.com/lib/pq"              // registers the "postgres" database/sql driver

	"github.com/dbkit-go/dbprovision/base"
	"github.com/dbkit-go/dbprovision/dburl"
	"github.com/dbkit-go/dbprovision/dialect"
	"github.com/dbkit-go/dbprovision/provision"
)

const Name = "postgresql"

// MaintenanceDB is the database used for CREATE/DROP DATABASE statements,
// which postgres does not allow on the database the connection targets.
const MaintenanceDB = "postgres"

func init() {
	dialect.Register(dialect.Registration{
		Registration: base.Registration{
			Name: Name, Title: "PostgreSQL",
		},
		Default: "pq",
		Drivers: []dialect.Driver{
			{Name: "pq", SQLDriver: "postgres", DSN: dsn},
			{Name: "pgx", SQLDriver: "pgx", DSN: dsn},
		},
		Provision: Provision,
	})
}

// dsn rebuilds the URL with the plain "postgres" scheme, which both drivers
// accept as a connection string. Query parameters pass through.
func dsn(u *dburl.URL) (string, error) {
	c := u.Clone()
	c.Backend, c.Driver = "postgres", ""
	return c.String(), nil
}

// Provision installs the postgresql provisioning hooks.
func Provision() {
	provision.Override(Name, provision.Hooks{
		CreateDB: createDB,
		DropDB:   dropDB,
		TempTableKeywordArgs: func(cfg *provision.Config) ([]string, error) {
			return []string{"TEMPORARY"}, nil
		},
	})
}

// maintenanceConn opens a single-connection engine against the maintenance
// database of the server eng points at.
func maintenanceConn(eng *provision.Engine) (*provision.Engine, *sql.DB, error) {
	adm, err := provision.NewEngine(eng.URL.WithDatabase(MaintenanceDB), provision.Options{MaxOpenConns: 1})
	if err != nil {
		return nil, nil, err
	}
	db, err := adm.DB()
	if err != nil {
		return nil, nil, err
	}
	return adm, db, nil
}

func createDB(ctx context.Context, cfg *provision.Config, eng *provision.Engine, ident string) error {
	if err := provision.CheckIdent(ident); err != nil {
		return err
	}
	adm, db, err := maintenanceConn(eng)
	if err != nil {
		return err
	}
	defer adm.Dispose()

	if _, err := db.ExecContext(ctx, `CREATE DATABASE `+ident); err != nil {
		// likely left over from an aborted run: drop and retry once
		if derr := dropIfExists(ctx, db, ident); derr != nil {
			return fmt.Errorf("create database %s: %w", ident, err)
		}
		if _, err := db.ExecContext(ctx, `CREATE DATABASE `+ident); err != nil {
			return fmt.Errorf("create database %s: %w", ident, err)
		}
	}
	return nil
}

func dropDB(ctx context.Context, cfg *provision.Config, eng *provision.Engine, ident string) error {
	if err := provision.CheckIdent(ident); err != nil {
		return err
	}
	adm, db, err := maintenanceConn(eng)
	if err != nil {
		return err
	}
	defer adm.Dispose()
	return dropIfExists(ctx, db, ident)
}

func dropIfExists(ctx context.Context, db *sql.DB, ident string) error {
	// stray connections block DROP DATABASE
	_, _ = db.ExecContext(ctx,
		`SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname = $1 AND pid <> pg_backend_pid()`,
		ident)
	_, err := db.ExecContext(ctx, `DROP DATABASE IF EXISTS `+ident)
	return err
}
