// Command dbreap removes follower databases recorded in an idents file.
//
// It is meant to run as a separate step after all test worker processes have
// exited: some backends hold server-side locks for the lifetime of a process,
// so cleanup cannot happen from within the test process itself.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	_ "github.com/dbkit-go/dbprovision/mysql"
	_ "github.com/dbkit-go/dbprovision/postgres"
	"github.com/dbkit-go/dbprovision/provision"
	_ "github.com/dbkit-go/dbprovision/sqlite"
)

func main() {
	file := flag.String("file", "", "idents file written during the test run")
	flag.Parse()
	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	// credentials for the URLs in the idents file may live in a .env file
	_ = godotenv.Load()

	sess := provision.NewSession(nil)
	if err := sess.ReapDBs(context.Background(), *file); err != nil {
		logrus.WithError(err).Fatal("reaping failed")
	}
}
