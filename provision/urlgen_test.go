package provision

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dbkit-go/dbprovision/dburl"
)

func TestGenerateDBURLs(t *testing.T) {
	sess := NewSession(nil)

	urls, err := sess.GenerateDBURLs(
		[]string{"crabql://h1/db", "crabql://h2/db"},
		[]string{"crab", "crabfast"},
	)
	require.NoError(t, err)
	// the main driver is kept per URL; crabfast goes to the first URL only
	require.Equal(t, []string{
		"crabql+crab://h1/db",
		"crabql+crabfast://h1/db",
		"crabql+crab://h2/db",
	}, urls)
}

func TestGenerateDBURLsNoDuplicates(t *testing.T) {
	sess := NewSession(nil)

	urls, err := sess.GenerateDBURLs(
		[]string{"crabql://h1/db", "crabql://h1/db", "crabql+crab://h1/db"},
		[]string{"crabfast"},
	)
	require.NoError(t, err)
	seen := make(map[string]bool)
	for _, u := range urls {
		require.False(t, seen[u], "duplicate URL %q", u)
		seen[u] = true
	}
	require.Equal(t, []string{
		"crabql+crab://h1/db",
		"crabql+crabfast://h1/db",
	}, urls)
}

func TestGenerateDBURLsQueryFragment(t *testing.T) {
	sess := NewSession(nil)

	urls, err := sess.GenerateDBURLs(
		[]string{"crabql://h1/db"},
		[]string{"crabfast?mode=turbo"},
	)
	require.NoError(t, err)
	require.Equal(t, []string{
		"crabql+crab://h1/db",
		"crabql+crabfast://h1/db?mode=turbo",
	}, urls)
}

// An extra driver that fails dialect resolution yields no URLs and no error.
func TestGenerateDBURLsUnsupportedDriver(t *testing.T) {
	sess := NewSession(nil)

	urls, err := sess.GenerateDBURLs(
		[]string{"crabql://h1/db"},
		[]string{"nosuchdrv"},
	)
	require.NoError(t, err)
	require.Equal(t, []string{"crabql+crab://h1/db"}, urls)
}

// Extras are partitioned per backend: each backend group gets its own pool.
func TestGenerateDBURLsMultiBackend(t *testing.T) {
	sess := NewSession(nil)

	urls, err := sess.GenerateDBURLs(
		[]string{"crabql://h1/db", "gullql://h2/db"},
		[]string{"crabfast"},
	)
	require.NoError(t, err)
	require.Equal(t, []string{
		"crabql+crab://h1/db",
		"crabql+crabfast://h1/db",
		"gullql+gull://h2/db",
	}, urls)
}

// A candidate rejected by one URL stays available for a later URL of the
// same backend.
func TestGenerateDBURLsCandidateDeferred(t *testing.T) {
	r := NewRegistry()
	def := defaultHooks().GenerateDriverURL
	r.Override("crabql", Hooks{
		GenerateDriverURL: func(u *dburl.URL, driver, query string) *dburl.URL {
			if u.Host == "h1" && driver == "crabfast" {
				return nil
			}
			return def(u, driver, query)
		},
	})

	sess := NewSession(r)
	urls, err := sess.GenerateDBURLs(
		[]string{"crabql://h1/db", "crabql://h2/db"},
		[]string{"crabfast"},
	)
	require.NoError(t, err)
	require.Equal(t, []string{
		"crabql+crab://h1/db",
		"crabql+crab://h2/db",
		"crabql+crabfast://h2/db",
	}, urls)
}

func TestGenerateDBURLsBadInput(t *testing.T) {
	sess := NewSession(nil)

	_, err := sess.GenerateDBURLs([]string{"martianql://h1/db"}, nil)
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "martianql"))
}
