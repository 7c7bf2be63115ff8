package provision

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dbkit-go/dbprovision/dburl"
	"github.com/dbkit-go/dbprovision/dialect"
)

// Options carries pool tuning for a test engine. The zero value keeps the
// database/sql defaults.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Engine wraps a lazily-opened database/sql pool together with the URL it
// was built from. Dispose closes the pool; the next use reopens it.
type Engine struct {
	URL  *dburl.URL
	Opts Options

	sqlDriver string
	dsn       string
	db        *sql.DB
}

// NewEngine builds an engine for the URL. The dialect must resolve; no
// connection is made until the engine is first used.
func NewEngine(u *dburl.URL, opts Options) (*Engine, error) {
	_, drv, err := dialect.Resolve(u)
	if err != nil {
		return nil, err
	}
	dsn, err := drv.DSN(u)
	if err != nil {
		return nil, fmt.Errorf("provision: cannot build DSN for %s: %w", u, err)
	}
	return &Engine{URL: u, Opts: opts, sqlDriver: drv.SQLDriver, dsn: dsn}, nil
}

// DB returns the underlying pool, opening it if needed.
func (e *Engine) DB() (*sql.DB, error) {
	if e.db != nil {
		return e.db, nil
	}
	db, err := sql.Open(e.sqlDriver, e.dsn)
	if err != nil {
		return nil, fmt.Errorf("provision: cannot open %s: %w", e.URL, err)
	}
	if e.Opts.MaxOpenConns != 0 {
		db.SetMaxOpenConns(e.Opts.MaxOpenConns)
	}
	if e.Opts.MaxIdleConns != 0 {
		db.SetMaxIdleConns(e.Opts.MaxIdleConns)
	}
	if e.Opts.ConnMaxLifetime != 0 {
		db.SetConnMaxLifetime(e.Opts.ConnMaxLifetime)
	}
	e.db = db
	return db, nil
}

// Connect returns a single live connection, verifying that the URL works.
func (e *Engine) Connect(ctx context.Context) (*sql.Conn, error) {
	db, err := e.DB()
	if err != nil {
		return nil, err
	}
	return db.Conn(ctx)
}

// Dispose releases all connections held by the engine. It is idempotent, and
// the engine remains usable: the pool reopens on the next use.
func (e *Engine) Dispose() error {
	if e.db == nil {
		return nil
	}
	err := e.db.Close()
	e.db = nil
	return err
}
