// Package postgrestest wires a dockerized postgres server into the
// provisioning test suite.
package postgrestest

import (
	"context"
	"testing"

	"github.com/ory/dockertest"

	"github.com/dbkit-go/dbprovision/dburl"
	"github.com/dbkit-go/dbprovision/postgres"
	"github.com/dbkit-go/dbprovision/provision"
	"github.com/dbkit-go/dbprovision/provisiontest"
)

const version = "13"

func init() {
	provisiontest.Register(postgres.Name, provisiontest.Database{Run: Run})
}

func Run(t testing.TB) string {
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker is not available: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker is not available: %v", err)
	}

	cont, err := pool.Run("postgres", version, []string{
		"POSTGRES_PASSWORD=postgres",
		"POSTGRES_DB=test",
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = cont.Close()
	})

	urlStr := "postgresql://postgres:postgres@" + cont.GetHostPort("5432/tcp") + "/test?sslmode=disable"
	err = pool.Retry(func() error {
		u, err := dburl.Parse(urlStr)
		if err != nil {
			return err
		}
		eng, err := provision.NewEngine(u, provision.Options{})
		if err != nil {
			return err
		}
		defer eng.Dispose()
		conn, err := eng.Connect(context.Background())
		if err != nil {
			return err
		}
		return conn.Close()
	})
	if err != nil {
		t.Fatal(err)
	}
	return urlStr
}
