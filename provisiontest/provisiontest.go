// Package provisiontest provides a shared follower-database lifecycle suite
// that backend packages run against a live server.
package provisiontest

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dbkit-go/dbprovision/base"
	"github.com/dbkit-go/dbprovision/dialect"
	"github.com/dbkit-go/dbprovision/provision"
)

// Database bootstraps a live server for one backend and returns the base
// connection URL to run the suite against.
type Database struct {
	Run func(tb testing.TB) string
}

var registry = make(map[string]Database)

// Register globally registers a test database factory for a backend.
func Register(name string, db Database) {
	if name == "" {
		panic("name cannot be empty")
	} else if dialect.ByName(name) == nil {
		panic("name is not registered")
	} else if _, ok := registry[name]; ok {
		panic(base.ErrRegistered{Name: name})
	}
	registry[name] = db
}

func allNames() []string {
	var names []string
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Test runs the lifecycle suite against the given backends, or against all
// registered ones when no names are given.
func Test(t *testing.T, names ...string) {
	for _, name := range names {
		if _, ok := registry[name]; !ok {
			panic("not registered: " + name)
		}
	}
	if len(names) == 0 {
		names = allNames()
	}
	for _, name := range names {
		name := name
		t.Run(name, func(t *testing.T) {
			TestProvision(t, name, registry[name])
		})
	}
}

// TestProvision runs one full follower-database lifecycle: set up the main
// config, create a follower database, connect to it, round-trip a table,
// drop the follower and reap the idents file.
func TestProvision(t *testing.T, name string, gen Database) {
	baseURL := gen.Run(t)
	ctx := context.Background()

	main := provision.NewSession(nil)
	_, err := main.SetupConfig(ctx, baseURL, provision.Options{}, nil, "")
	require.NoError(t, err)

	ident := provision.NewFollowerIdent()
	require.NoError(t, main.CreateFollowerDB(ctx, ident))

	follower := provision.NewSession(nil)
	cfg, err := follower.SetupConfig(ctx, baseURL, provision.Options{}, nil, ident)
	require.NoError(t, err)
	require.Equal(t, ident, cfg.Ident)

	db, err := cfg.Engine.DB()
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `CREATE TABLE probe (id INTEGER)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO probe (id) VALUES (1)`)
	require.NoError(t, err)
	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM probe`).Scan(&n))
	require.Equal(t, 1, n)

	kw, err := follower.Registry().TempTableKeywordArgs(cfg)
	require.NoError(t, err)
	tname, err := follower.Registry().GetTempTableName(cfg, "probe_tmp")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `CREATE `+strings.Join(kw, " ")+` TABLE `+tname+` (id INTEGER)`)
	require.NoError(t, err)

	idents := filepath.Join(t.TempDir(), "idents")
	lg, err := provision.OpenIdentsLog(idents)
	require.NoError(t, err)
	require.NoError(t, lg.Append(ident, cfg.URL))
	require.NoError(t, lg.Close())

	require.NoError(t, cfg.Engine.Dispose())
	require.NoError(t, main.DropFollowerDB(ctx, ident))

	reaper := provision.NewSession(nil)
	require.NoError(t, reaper.ReapDBs(ctx, idents))
}
