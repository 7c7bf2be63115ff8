// Package mysqltest wires a dockerized mysql server into the provisioning
// test suite.
package mysqltest

import (
	"context"
	"testing"

	"github.com/ory/dockertest"

	"github.com/dbkit-go/dbprovision/dburl"
	"github.com/dbkit-go/dbprovision/mysql"
	"github.com/dbkit-go/dbprovision/provision"
	"github.com/dbkit-go/dbprovision/provisiontest"
)

const version = "8.0"

func init() {
	provisiontest.Register(mysql.Name, provisiontest.Database{Run: Run})
}

func Run(t testing.TB) string {
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker is not available: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker is not available: %v", err)
	}

	cont, err := pool.Run("mysql", version, []string{
		"MYSQL_ROOT_PASSWORD=root",
		"MYSQL_DATABASE=test",
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = cont.Close()
	})

	urlStr := "mysql://root:root@" + cont.GetHostPort("3306/tcp") + "/test"
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
