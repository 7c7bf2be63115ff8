package provision

import (
	"strings"

	"github.com/pborman/uuid"

	"github.com/dbkit-go/dbprovision/dburl"
)

// Config is a handle for one configured test database: the live engine, the
// URL it was built from, the effective options and the follower ident it was
// set up for (empty for the main database). One Config exists per
// (test session, backend, worker).
type Config struct {
	Engine *Engine
	URL    *dburl.URL
	Opts   Options
	File   *FileConfig
	Ident  string
}

// NewFollowerIdent generates a unique follower identifier usable as a
// database name, for harnesses that do not get worker identifiers from the
// test runner.
func NewFollowerIdent() string {
	return "test_" + strings.ReplaceAll(uuid.New(), "-", "")[:12]
}
