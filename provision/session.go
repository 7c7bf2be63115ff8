package provision

import (
	"context"
	"fmt"

	"github.com/dbkit-go/dbprovision/dburl"
	"github.com/dbkit-go/dbprovision/dialect"
)

// Session is the process-scoped state of one test worker: the registry of
// live configs and the memo of backends whose provisioning hooks were
// installed. A worker process owns exactly one session; no locking is done.
type Session struct {
	reg     *Registry
	configs []*Config
	loaded  map[string]bool
}

// NewSession returns a session dispatching through reg, or through
// DefaultRegistry when reg is nil.
func NewSession(reg *Registry) *Session {
	if reg == nil {
		reg = DefaultRegistry
	}
	return &Session{reg: reg, loaded: make(map[string]bool)}
}

// Registry returns the hook registry the session dispatches through.
func (s *Session) Registry() *Registry {
	return s.reg
}

// Configs enumerates all live configs registered with the session.
func (s *Session) Configs() []*Config {
	return append([]*Config{}, s.configs...)
}

// loadProvisioning installs the backend's provisioning hooks, at most once
// per session.
func (s *Session) loadProvisioning(backend string) {
	if s.loaded[backend] {
		return
	}
	s.loaded[backend] = true
	if r := dialect.ByName(backend); r != nil && r.Provision != nil {
		r.Provision()
	}
}

// SetupConfig builds and registers a test database config for the URL.
//
// The URL's backend gets its provisioning hooks installed first, so that the
// hooks below dispatch to backend overrides. With a follower ident the URL is
// rewritten to the follower-specific database. The engine is verified with
// one throwaway connection; a connection failure surfaces immediately and is
// not retried.
func (s *Session) SetupConfig(ctx context.Context, dbURL string, opts Options, file *FileConfig, ident string) (*Config, error) {
	u, err := dburl.Parse(file.ResolveURL(dbURL))
	if err != nil {
		return nil, err
	}
	if _, _, err := dialect.Resolve(u); err != nil {
		return nil, err
	}
	s.loadProvisioning(u.Backend)

	if ident != "" {
		u = s.reg.FollowerURLFromMain(u, ident)
	}
	s.reg.UpdateDBOpts(u, &opts)

	eng, err := NewEngine(u, opts)
	if err != nil {
		return nil, err
	}
	if err := s.reg.PostConfigureEngine(ctx, u, eng, ident); err != nil {
		return nil, err
	}
	conn, err := eng.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("provision: cannot connect to %s: %w", u, err)
	}
	conn.Close()

	cfg := &Config{Engine: eng, URL: u, Opts: opts, File: file, Ident: ident}
	s.configs = append(s.configs, cfg)
	if ident != "" {
		if err := s.reg.ConfigureFollower(ctx, cfg, ident); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// CreateFollowerDB creates the per-worker database named ident on every
// distinct server the live configs point at.
func (s *Session) CreateFollowerDB(ctx context.Context, ident string) error {
	defer s.disposeAll()
	for _, cfg := range s.configsForDBOperation() {
		log.Infof("CREATE database %s, URI %s", ident, cfg.URL)
		if err := s.reg.CreateDB(ctx, cfg, cfg.Engine, ident); err != nil {
			return err
		}
	}
	return nil
}

// DropFollowerDB drops the per-worker database named ident on every distinct
// server the live configs point at.
func (s *Session) DropFollowerDB(ctx context.Context, ident string) error {
	defer s.disposeAll()
	for _, cfg := range s.configsForDBOperation() {
		log.Infof("DROP database %s, URI %s", ident, cfg.URL)
		if err := s.reg.DropDB(ctx, cfg, cfg.Engine, ident); err != nil {
			return err
		}
	}
	return nil
}

type hostKey struct {
	backend, user, host, database string
}

// configsForDBOperation releases all held connections and returns the live
// configs deduplicated by (backend, user, host, database), so a shared
// physical server is only asked once. Releasing connections first is a
// correctness requirement: some backends refuse to create or drop databases
// while any connection targeting the same server exists.
func (s *Session) configsForDBOperation() []*Config {
	s.disposeAll()
	seen := make(map[hostKey]bool)
	var out []*Config
	for _, cfg := range s.configs {
		k := hostKey{cfg.URL.Backend, cfg.URL.User, cfg.URL.Host, cfg.URL.Database}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, cfg)
	}
	return out
}

func (s *Session) disposeAll() {
	for _, cfg := range s.configs {
		if err := cfg.Engine.Dispose(); err != nil {
			log.Warnf("dispose %s: %v", cfg.URL, err)
		}
	}
}
