package mysql_test

import (
	"testing"

	"github.com/dbkit-go/dbprovision/mysql"
	_ "github.com/dbkit-go/dbprovision/mysql/test"
	"github.com/dbkit-go/dbprovision/provisiontest"
)

func TestMySQL(t *testing.T) {
	provisiontest.Test(t, mysql.Name)
}
