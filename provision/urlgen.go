package provision

import (
	"fmt"
	"strings"

	"github.com/dbkit-go/dbprovision/dburl"
	"github.com/dbkit-go/dbprovision/dialect"
)

// GenerateDBURLs expands the configured URLs with extra driver names into the
// deduplicated set of URLs to exercise in a test matrix.
//
// The driver already configured in a URL is kept and made explicit for that
// URL. An extra driver (given as "driver" or "driver?query") is granted to
// the first URL of its backend that can host it, so multiple URLs of the same
// backend partition the extra-driver pool instead of each receiving every
// extra. A candidate whose URL fails dialect resolution is not an error: the
// driver is unsupported there and stays available for a later URL.
func (s *Session) GenerateDBURLs(dbURLs []string, extraDrivers []string) ([]string, error) {
	type input struct {
		u       *dburl.URL
		backend string
		driver  string
	}
	var inputs []input
	have := make(map[string]map[string]bool) // backend -> drivers present in base URLs
	for _, raw := range dbURLs {
		u, err := dburl.Parse(raw)
		if err != nil {
			return nil, err
		}
		reg, drv, err := dialect.Resolve(u)
		if err != nil {
			return nil, fmt.Errorf("provision: cannot resolve %s: %w", u, err)
		}
		inputs = append(inputs, input{u: u, backend: reg.Name, driver: drv.Name})
		if have[reg.Name] == nil {
			have[reg.Name] = make(map[string]bool)
		}
		have[reg.Name][drv.Name] = true
	}

	need := make(map[string][]string) // backend -> extra drivers still unassigned
	seenBackend := make(map[string]bool)
	seen := make(map[string]bool)
	var out []string

	for _, in := range inputs {
		s.loadProvisioning(in.backend)
		if !seenBackend[in.backend] {
			seenBackend[in.backend] = true
			for _, cand := range extraDrivers {
				if !have[in.backend][driverName(cand)] {
					need[in.backend] = append(need[in.backend], cand)
				}
			}
		}
		urls, rem := s.driverURLs(in.u, in.driver, need[in.backend])
		need[in.backend] = rem
		for _, du := range urls {
			if seen[du] {
				continue
			}
			seen[du] = true
			out = append(out, du)
		}
	}
	return out, nil
}

// driverName strips an optional "?query" fragment from an extra-driver spec.
func driverName(cand string) string {
	if i := strings.Index(cand, "?"); i >= 0 {
		return cand[:i]
	}
	return cand
}

// driverURLs emits the variants for one base URL: the main-driver variant
// first, then one variant per extra driver the URL can host. It returns the
// extras left unassigned.
func (s *Session) driverURLs(u *dburl.URL, mainDriver string, extras []string) ([]string, []string) {
	var out []string
	if mu := s.reg.GenerateDriverURL(u, mainDriver, ""); mu != nil {
		u = mu
	}
	out = append(out, u.String())

	var rem []string
	for _, cand := range extras {
		name, query := cand, ""
		if i := strings.Index(cand, "?"); i >= 0 {
			name, query = cand[:i], cand[i+1:]
		}
		if name == mainDriver {
			// already covered by the main variant
			continue
		}
		if nu := s.reg.GenerateDriverURL(u, name, query); nu != nil {
			out = append(out, nu.String())
		} else {
			rem = append(rem, cand)
		}
	}
	return out, rem
}
