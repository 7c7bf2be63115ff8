package provision

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/dbkit-go/dbprovision/dburl"
	"github.com/dbkit-go/dbprovision/dialect"
)

type reapKey struct {
	backend, host string
}

// ReapDBs reads an idents file written during a test run and invokes each
// backend's reap hook once per (backend, host) group, on the theory that all
// databases on the same physical server can be reaped together. It is meant
// to run as a separate step after all test worker processes have exited.
func (s *Session) ReapDBs(ctx context.Context, path string) error {
	log.Info("Reaping databases...")

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	urls := make(map[reapKey]*dburl.URL)
	idents := make(map[reapKey]map[string]bool)
	var order []reapKey

	sc := bufio.NewScanner(f)
	for n := 1; sc.Scan(); n++ {
		fields := strings.Fields(sc.Text())
		if len(fields) != 2 {
			return fmt.Errorf("provision: %s:%d: malformed idents line %q", path, n, sc.Text())
		}
		ident, rawURL := fields[0], fields[1]
		u, err := dburl.Parse(rawURL)
		if err != nil {
			return fmt.Errorf("provision: %s:%d: %w", path, n, err)
		}
		if !s.loaded[u.Backend] {
			if _, _, err := dialect.Resolve(u); err != nil {
				return fmt.Errorf("provision: %s:%d: %w", path, n, err)
			}
			s.loadProvisioning(u.Backend)
		}
		k := reapKey{u.Backend, u.Host}
		if _, ok := urls[k]; !ok {
			urls[k] = u
			idents[k] = make(map[string]bool)
			order = append(order, k)
		}
		idents[k][ident] = true
	}
	if err := sc.Err(); err != nil {
		return err
	}

	for _, k := range order {
		ids := make([]string, 0, len(idents[k]))
		for id := range idents[k] {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		log.Infof("Reaping %d databases for %s on %q", len(ids), k.backend, k.host)
		if err := s.reg.RunReapDBs(ctx, urls[k], ids); err != nil {
			return err
		}
	}
	return nil
}

// IdentsLog is the writer side of the idents file: an append-only log of
// (ident, URL) pairs, one pair per whitespace-separated line.
type IdentsLog struct {
	f *os.File
}

// OpenIdentsLog opens the idents file for appending, creating it if needed.
func OpenIdentsLog(path string) (*IdentsLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &IdentsLog{f: f}, nil
}

// Append records one created follower database. The file format has no
// escaping scheme, so idents and URLs with embedded whitespace are rejected.
func (l *IdentsLog) Append(ident string, u *dburl.URL) error {
	us := u.String()
	if strings.ContainsAny(ident, " \t\n") || strings.ContainsAny(us, " \t\n") {
		return fmt.Errorf("provision: cannot log ident %q with URL %q: embedded whitespace", ident, us)
	}
	_, err := fmt.Fprintf(l.f, "%s %s\n", ident, us)
	return err
}

func (l *IdentsLog) Close() error {
	return l.f.Close()
}
