// Package sqlitetest wires a file-based sqlite database into the
// provisioning test suite. No external server is needed.
package sqlitetest

import (
	"path/filepath"
	"testing"

	"github.com/dbkit-go/dbprovision/provisiontest"
	"github.com/dbkit-go/dbprovision/sqlite"
)

func init() {
	provisiontest.Register(sqlite.Name, provisiontest.Database{Run: Run})
}

func Run(t testing.TB) string {
	return "sqlite:///" + filepath.Join(t.TempDir(), "main.db")
}
