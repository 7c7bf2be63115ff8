package provision

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEngineLazyReopen(t *testing.T) {
	ctx := context.Background()
	eng, err := NewEngine(mustParse(t, "crabql://localhost/test"), Options{})
	require.NoError(t, err)

	conn, err := eng.Connect(ctx)
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	require.NoError(t, eng.Dispose())
	require.NoError(t, eng.Dispose()) // idempotent

	conn, err = eng.Connect(ctx)
	require.NoError(t, err)
	require.NoError(t, conn.Close())
	require.NoError(t, eng.Dispose())
}

func TestNewEngineUnknownBackend(t *testing.T) {
	_, err := NewEngine(mustParse(t, "martianql://localhost/test"), Options{})
	require.Error(t, err)
}
