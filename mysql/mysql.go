// Package mysql registers the mysql backend using go-sql-driver.
package mysql

import (
	"context"
	"strings"

	_ "github.com/go-sql-driver/mysql" // registers the "mysql" database/sql driver

	"github.com/dbkit-go/dbprovision/base"
	"github.com/dbkit-go/dbprovision/dburl"
	"github.com/dbkit-go/dbprovision/dialect"
	"github.com/dbkit-go/dbprovision/provision"
)

const Name = "mysql"

func init() {
	dialect.Register(dialect.Registration{
		Registration: base.Registration{
			Name: Name, Title: "MySQL",
		},
		Default: "mysql",
		Drivers: []dialect.Driver{
			{Name: "mysql", SQLDriver: "mysql", DSN: dsn},
		},
		Provision: Provision,
	})
}

// dsn builds a go-sql-driver DSN: user:pass@tcp(host:port)/db?params.
func dsn(u *dburl.URL) (string, error) {
	var b strings.Builder
	if u.User != "" {
		b.WriteString(u.User)
		if u.Password != "" {
			b.WriteByte(':')
			b.WriteString(u.Password)
		}
		b.WriteByte('@')
	}
	if u.Host != "" {
		addr := u.Host
		if u.Port != "" {
			addr += ":" + u.Port
		}
		b.WriteString("tcp(" + addr + ")")
	}
	b.WriteByte('/')
	b.WriteString(u.Database)
	if len(u.Query) != 0 {
		b.WriteByte('?')
		b.WriteString(u.Query.Encode())
	}
	return b.String(), nil
}

// Provision installs the mysql provisioning hooks.
func Provision() {
	provision.Override(Name, provision.Hooks{
		CreateDB: createDB,
		DropDB:   dropDB,
		TempTableKeywordArgs: func(cfg *provision.Config) ([]string, error) {
			return []string{"TEMPORARY"}, nil
		},
	})
}

func createDB(ctx context.Context, cfg *provision.Config, eng *provision.Engine, ident string) error {
	if err := provision.CheckIdent(ident); err != nil {
		return err
	}
	adm, err := provision.NewEngine(eng.URL.WithDatabase(""), provision.Options{MaxOpenConns: 1})
	if err != nil {
		return err
	}
	defer adm.Dispose()
	db, err := adm.DB()
	if err != nil {
		return err
	}
	_, _ = db.ExecContext(ctx, `DROP DATABASE IF EXISTS `+ident)
	_, err = db.ExecContext(ctx, `CREATE DATABASE `+ident+` CHARACTER SET utf8mb4`)
	return err
}

func dropDB(ctx context.Context, cfg *provision.Config, eng *provision.Engine, ident string) error {
	if err := provision.CheckIdent(ident); err != nil {
		return err
	}
	adm, err := provision.NewEngine(eng.URL.WithDatabase(""), provision.Options{MaxOpenConns: 1})
	if err != nil {
		return err
	}
	defer adm.Dispose()
	db, err := adm.DB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `DROP DATABASE IF EXISTS `+ident)
	return err
}
