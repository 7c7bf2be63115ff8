package provision

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dbkit-go/dbprovision/dburl"
)

type reapCall struct {
	url    string
	idents []string
}

func writeIdents(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "idents")
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))
	return path
}

// Lines sharing a (backend, host) are reaped in one call, with their idents
// grouped, deduplicated and sorted.
func TestReapGrouping(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()

	var calls []reapCall
	r.Override(Wildcard, Hooks{
		RunReapDBs: func(ctx context.Context, u *dburl.URL, idents []string) error {
			calls = append(calls, reapCall{url: u.String(), idents: idents})
			return nil
		},
	})

	path := writeIdents(t, ""+
		"w2 crabql://hostA/db\n"+
		"w1 crabql://hostA/other\n"+
		"w1 crabql://hostA/db\n"+
		"w3 crabql://hostB/db\n"+
		"w4 gullql://hostA/db\n")

	sess := NewSession(r)
	require.NoError(t, sess.ReapDBs(ctx, path))
	require.Equal(t, []reapCall{
		{url: "crabql://hostA/db", idents: []string{"w1", "w2"}},
		{url: "crabql://hostB/db", idents: []string{"w3"}},
		{url: "gullql://hostA/db", idents: []string{"w4"}},
	}, calls)
}

func TestReapMalformedLine(t *testing.T) {
	ctx := context.Background()
	sess := NewSession(NewRegistry())

	path := writeIdents(t, "w1 crabql://hostA/db\njust-an-ident\n")
	err := sess.ReapDBs(ctx, path)
	require.Error(t, err)
	require.Contains(t, err.Error(), ":2:")
}

func TestReapUnknownBackend(t *testing.T) {
	ctx := context.Background()
	sess := NewSession(NewRegistry())

	path := writeIdents(t, "w1 martianql://hostA/db\n")
	require.Error(t, sess.ReapDBs(ctx, path))
}

func TestIdentsLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idents")
	lg, err := OpenIdentsLog(path)
	require.NoError(t, err)

	u := mustParse(t, "crabql://hostA/db")
	require.NoError(t, lg.Append("w1", u))
	require.NoError(t, lg.Append("w2", u))
	require.Error(t, lg.Append("bad ident", u))
	require.NoError(t, lg.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "w1 crabql://hostA/db\nw2 crabql://hostA/db\n", string(data))
}

// The writer and the reaper agree on the file format.
func TestIdentsRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "idents")

	lg, err := OpenIdentsLog(path)
	require.NoError(t, err)
	require.NoError(t, lg.Append("w1", mustParse(t, "crabql://hostA/db")))
	require.NoError(t, lg.Append("w2", mustParse(t, "crabql://hostA/db")))
	require.NoError(t, lg.Close())

	r := NewRegistry()
	var got []string
	r.Override("crabql", Hooks{
		RunReapDBs: func(ctx context.Context, u *dburl.URL, idents []string) error {
			got = append(got, idents...)
			return nil
		},
	})
	sess := NewSession(r)
	require.NoError(t, sess.ReapDBs(ctx, path))
	require.Equal(t, []string{"w1", "w2"}, got)
}
