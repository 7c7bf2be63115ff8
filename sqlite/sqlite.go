// Package sqlite registers the sqlite backend. Follower databases are plain
// files next to the main database file, so no server round-trips are needed:
// creation happens on first connect and dropping removes the file.
package sqlite

import (
	"context"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver

	"github.com/dbkit-go/dbprovision/base"
	"github.com/dbkit-go/dbprovision/dburl"
	"github.com/dbkit-go/dbprovision/dialect"
	"github.com/dbkit-go/dbprovision/provision"
)

const Name = "sqlite"

func init() {
	dialect.Register(dialect.Registration{
		Registration: base.Registration{
			Name: Name, Title: "SQLite",
		},
		Default: "sqlite",
		Drivers: []dialect.Driver{{
			Name:      "sqlite",
			SQLDriver: "sqlite",
			DSN: func(u *dburl.URL) (string, error) {
				if u.Database == "" {
					return ":memory:", nil
				}
				return u.Database, nil
			},
		}},
		Provision: Provision,
	})
}

// Provision installs the sqlite provisioning hooks.
func Provision() {
	provision.Override(Name, provision.Hooks{
		CreateDB:            createDB,
		DropDB:              dropDB,
		FollowerURLFromMain: followerURL,
		UpdateDBOpts: func(u *dburl.URL, opts *provision.Options) {
			// sqlite allows a single writer only
			opts.MaxOpenConns = 1
		},
		TempTableKeywordArgs: func(cfg *provision.Config) ([]string, error) {
			return []string{"TEMPORARY"}, nil
		},
	})
}

// followerURL maps the database to an ident-named file in the same directory
// as the main database. Memory databases have nothing to isolate and stay
// memory databases.
func followerURL(u *dburl.URL, ident string) *dburl.URL {
	if u.Database == "" {
		return u.Clone()
	}
	return u.WithDatabase(filepath.Join(filepath.Dir(u.Database), ident+".db"))
}

func createDB(ctx context.Context, cfg *provision.Config, eng *provision.Engine, ident string) error {
	if err := provision.CheckIdent(ident); err != nil {
		return err
	}
	// the file is created on first connect; just make sure no stale one is
	// left over from a previous run
	return dropDB(ctx, cfg, eng, ident)
}

func dropDB(ctx context.Context, cfg *provision.Config, eng *provision.Engine, ident string) error {
	if err := provision.CheckIdent(ident); err != nil {
		return err
	}
	u := followerURL(eng.URL, ident)
	if u.Database == "" {
		return nil
	}
	if err := os.Remove(u.Database); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
