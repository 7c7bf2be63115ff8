// Package provision implements follower-database provisioning for test
// harnesses: a hook registry with per-backend overrides, a lifecycle session
// that creates and drops per-worker databases, a URL expander for building
// test matrices out of configured URLs, and a post-run reaper.
package provision

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/dbkit-go/dbprovision/dburl"
	"github.com/dbkit-go/dbprovision/dialect"
)

var log = logrus.WithField("component", "provision")

// Wildcard is the backend name that overrides the registry defaults.
const Wildcard = "*"

// Hooks is the set of named extension points a backend may override.
// Any nil field keeps the registry default for that operation.
type Hooks struct {
	// CreateDB creates a database named ident on the server eng points at.
	// Default: fail, not implemented.
	CreateDB func(ctx context.Context, cfg *Config, eng *Engine, ident string) error
	// DropDB drops a database previously created by CreateDB.
	// Default: fail, not implemented.
	DropDB func(ctx context.Context, cfg *Config, eng *Engine, ident string) error
	// UpdateDBOpts adjusts engine options before the engine is built.
	// Default: no-op.
	UpdateDBOpts func(u *dburl.URL, opts *Options)
	// PostConfigureEngine runs extra steps after the engine is built and
	// before the first connection. Default: no-op.
	PostConfigureEngine func(ctx context.Context, u *dburl.URL, eng *Engine, ident string) error
	// FollowerURLFromMain derives the follower-specific URL from the main
	// one. Default: same URL with the database name replaced by ident.
	FollowerURLFromMain func(u *dburl.URL, ident string) *dburl.URL
	// ConfigureFollower applies backend-specific session setup for a
	// follower config. Default: no-op.
	ConfigureFollower func(ctx context.Context, cfg *Config, ident string) error
	// RunReapDBs removes databases recorded in the idents file, after the
	// test processes have exited. Default: no-op.
	RunReapDBs func(ctx context.Context, u *dburl.URL, idents []string) error
	// GenerateDriverURL builds a driver variant of a URL, or returns nil if
	// the driver is unsupported for this backend configuration. Default:
	// rewrite the scheme to backend+driver, merge the query fragment and
	// validate by dialect resolution.
	GenerateDriverURL func(u *dburl.URL, driver, query string) *dburl.URL
	// TempTableKeywordArgs returns the CREATE TABLE prefix keywords for a
	// temporary table. Default: fail, not implemented.
	TempTableKeywordArgs func(cfg *Config) ([]string, error)
	// GetTempTableName returns the name to use for a temporary table.
	// Default: the base name unchanged.
	GetTempTableName func(cfg *Config, baseName string) (string, error)
}

// merge returns dst with all non-nil fields of src applied on top.
func merge(dst, src Hooks) Hooks {
	if src.CreateDB != nil {
		dst.CreateDB = src.CreateDB
	}
	if src.DropDB != nil {
		dst.DropDB = src.DropDB
	}
	if src.UpdateDBOpts != nil {
		dst.UpdateDBOpts = src.UpdateDBOpts
	}
	if src.PostConfigureEngine != nil {
		dst.PostConfigureEngine = src.PostConfigureEngine
	}
	if src.FollowerURLFromMain != nil {
		dst.FollowerURLFromMain = src.FollowerURLFromMain
	}
	if src.ConfigureFollower != nil {
		dst.ConfigureFollower = src.ConfigureFollower
	}
	if src.RunReapDBs != nil {
		dst.RunReapDBs = src.RunReapDBs
	}
	if src.GenerateDriverURL != nil {
		dst.GenerateDriverURL = src.GenerateDriverURL
	}
	if src.TempTableKeywordArgs != nil {
		dst.TempTableKeywordArgs = src.TempTableKeywordArgs
	}
	if src.GetTempTableName != nil {
		dst.GetTempTableName = src.GetTempTableName
	}
	return dst
}

// Registry dispatches provisioning hooks by the backend tag of a URL.
// A backend-specific override always wins over the wildcard default, and the
// defaults are complete by construction, so exactly one implementation
// resolves for every call.
type Registry struct {
	defaults Hooks
	backends map[string]Hooks
}

// NewRegistry returns a registry with the full set of wildcard defaults
// installed.
func NewRegistry() *Registry {
	return &Registry{
		defaults: defaultHooks(),
		backends: make(map[string]Hooks),
	}
}

// Override additively installs backend-specific hooks: only the non-nil
// fields of h replace the previous entry for that backend. Passing Wildcard
// as the backend replaces the registry defaults instead.
func (r *Registry) Override(backend string, h Hooks) {
	if backend == Wildcard {
		r.defaults = merge(r.defaults, h)
		return
	}
	r.backends[backend] = merge(r.backends[backend], h)
}

func (r *Registry) hooksFor(backend string) Hooks {
	h := r.defaults
	if o, ok := r.backends[backend]; ok {
		h = merge(h, o)
	}
	return h
}

func (r *Registry) CreateDB(ctx context.Context, cfg *Config, eng *Engine, ident string) error {
	return r.hooksFor(eng.URL.Backend).CreateDB(ctx, cfg, eng, ident)
}

func (r *Registry) DropDB(ctx context.Context, cfg *Config, eng *Engine, ident string) error {
	return r.hooksFor(eng.URL.Backend).DropDB(ctx, cfg, eng, ident)
}

func (r *Registry) UpdateDBOpts(u *dburl.URL, opts *Options) {
	r.hooksFor(u.Backend).UpdateDBOpts(u, opts)
}

func (r *Registry) PostConfigureEngine(ctx context.Context, u *dburl.URL, eng *Engine, ident string) error {
	return r.hooksFor(u.Backend).PostConfigureEngine(ctx, u, eng, ident)
}

func (r *Registry) FollowerURLFromMain(u *dburl.URL, ident string) *dburl.URL {
	return r.hooksFor(u.Backend).FollowerURLFromMain(u, ident)
}

func (r *Registry) ConfigureFollower(ctx context.Context, cfg *Config, ident string) error {
	return r.hooksFor(cfg.URL.Backend).ConfigureFollower(ctx, cfg, ident)
}

func (r *Registry) RunReapDBs(ctx context.Context, u *dburl.URL, idents []string) error {
	return r.hooksFor(u.Backend).RunReapDBs(ctx, u, idents)
}

func (r *Registry) GenerateDriverURL(u *dburl.URL, driver, query string) *dburl.URL {
	return r.hooksFor(u.Backend).GenerateDriverURL(u, driver, query)
}

func (r *Registry) TempTableKeywordArgs(cfg *Config) ([]string, error) {
	return r.hooksFor(cfg.URL.Backend).TempTableKeywordArgs(cfg)
}

func (r *Registry) GetTempTableName(cfg *Config, baseName string) (string, error) {
	return r.hooksFor(cfg.URL.Backend).GetTempTableName(cfg, baseName)
}

func defaultHooks() Hooks {
	return Hooks{
		CreateDB: func(ctx context.Context, cfg *Config, eng *Engine, ident string) error {
			return &NotImplementedError{Op: "database create", URL: eng.URL}
		},
		DropDB: func(ctx context.Context, cfg *Config, eng *Engine, ident string) error {
			return &NotImplementedError{Op: "database drop", URL: eng.URL}
		},
		UpdateDBOpts: func(u *dburl.URL, opts *Options) {},
		PostConfigureEngine: func(ctx context.Context, u *dburl.URL, eng *Engine, ident string) error {
			return nil
		},
		FollowerURLFromMain: func(u *dburl.URL, ident string) *dburl.URL {
			return u.WithDatabase(ident)
		},
		ConfigureFollower: func(ctx context.Context, cfg *Config, ident string) error {
			return nil
		},
		RunReapDBs: func(ctx context.Context, u *dburl.URL, idents []string) error {
			return nil
		},
		GenerateDriverURL: func(u *dburl.URL, driver, query string) *dburl.URL {
			nu := u.WithDriverName(u.Backend + "+" + driver)
			nu, err := nu.WithQueryString(query)
			if err != nil {
				return nil
			}
			if _, _, err := dialect.Resolve(nu); err != nil {
				// driver unsupported for this backend configuration
				return nil
			}
			return nu
		},
		TempTableKeywordArgs: func(cfg *Config) ([]string, error) {
			return nil, &NotImplementedError{Op: "temp table keyword args", URL: cfg.URL}
		},
		GetTempTableName: func(cfg *Config, baseName string) (string, error) {
			return baseName, nil
		},
	}
}

// DefaultRegistry is the registry backend packages install their hooks into.
var DefaultRegistry = NewRegistry()

// Override installs backend-specific hooks into the default registry.
func Override(backend string, h Hooks) {
	DefaultRegistry.Override(backend, h)
}
