package provision

import (
	"testing"

	_ "modernc.org/sqlite" // connectable driver for the fake test dialects

	"github.com/dbkit-go/dbprovision/base"
	"github.com/dbkit-go/dbprovision/dburl"
	"github.com/dbkit-go/dbprovision/dialect"
)

// The fake dialects piggyback on the sqlite driver with a memory DSN, so
// setup flows can make real throwaway connections regardless of the host
// named in the URL.
func init() {
	memDSN := func(u *dburl.URL) (string, error) {
		return ":memory:", nil
	}
	dialect.Register(dialect.Registration{
		Registration: base.Registration{Name: "crabql", Title: "CrabQL"},
		Default:      "crab",
		Drivers: []dialect.Driver{
			{Name: "crab", SQLDriver: "sqlite", DSN: memDSN},
			{Name: "crabfast", SQLDriver: "sqlite", DSN: memDSN},
		},
	})
	dialect.Register(dialect.Registration{
		Registration: base.Registration{Name: "gullql", Title: "GullQL"},
		Drivers: []dialect.Driver{
			{Name: "gull", SQLDriver: "sqlite", DSN: memDSN},
		},
	})
	dialect.Register(dialect.Registration{
		Registration: base.Registration{Name: "deadql", Title: "DeadQL"},
		Drivers: []dialect.Driver{
			{Name: "dead", SQLDriver: "sqlite", DSN: func(u *dburl.URL) (string, error) {
				// a file in a directory that cannot exist
				return "/nonexistent-deadql-dir/dead.db", nil
			}},
		},
	})
}

func mustParse(t testing.TB, s string) *dburl.URL {
	t.Helper()
	u, err := dburl.Parse(s)
	if err != nil {
		t.Fatal(err)
	}
	return u
}
