package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dbkit-go/dbprovision/provision"
	"github.com/dbkit-go/dbprovision/provisiontest"
	"github.com/dbkit-go/dbprovision/sqlite"
	_ "github.com/dbkit-go/dbprovision/sqlite/test"
)

func TestSQLite(t *testing.T) {
	provisiontest.Test(t, sqlite.Name)
}

func TestFollowerLifecycle(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	mainURL := "sqlite:///" + filepath.Join(dir, "main.db")

	sess := provision.NewSession(nil)
	cfg, err := sess.SetupConfig(ctx, mainURL, provision.Options{}, nil, "")
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(dir, "main.db"))
	// the sqlite UpdateDBOpts hook pins the pool to a single connection
	require.Equal(t, 1, cfg.Opts.MaxOpenConns)

	const ident = "worker1"
	require.NoError(t, sess.CreateFollowerDB(ctx, ident))

	follower := provision.NewSession(nil)
	fcfg, err := follower.SetupConfig(ctx, mainURL, provision.Options{}, nil, ident)
	require.NoError(t, err)
	followerPath := filepath.Join(dir, "worker1.db")
	require.Equal(t, followerPath, fcfg.URL.Database)
	require.FileExists(t, followerPath)

	db, err := fcfg.Engine.DB()
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `CREATE TABLE probe (id INTEGER)`)
	require.NoError(t, err)
	require.NoError(t, fcfg.Engine.Dispose())

	require.NoError(t, sess.DropFollowerDB(ctx, ident))
	require.NoFileExists(t, followerPath)
	// the main database is untouched
	require.FileExists(t, filepath.Join(dir, "main.db"))
}

func TestMemoryFollower(t *testing.T) {
	ctx := context.Background()

	sess := provision.NewSession(nil)
	cfg, err := sess.SetupConfig(ctx, "sqlite://", provision.Options{}, nil, "worker1")
	require.NoError(t, err)
	// memory databases have nothing to isolate
	require.Equal(t, "", cfg.URL.Database)
	require.NoError(t, sess.CreateFollowerDB(ctx, "worker1"))
	require.NoError(t, sess.DropFollowerDB(ctx, "worker1"))
}

func TestBadIdent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	sess := provision.NewSession(nil)
	_, err := sess.SetupConfig(ctx, "sqlite:///"+filepath.Join(dir, "main.db"), provision.Options{}, nil, "")
	require.NoError(t, err)
	require.Error(t, sess.CreateFollowerDB(ctx, "../escape"))
}
