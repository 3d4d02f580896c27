package dbclient

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

// `key` is reserved in MySQL.
var mysqlDialect = dialect{
	create: "CREATE TABLE IF NOT EXISTS %s (`key` VARCHAR(255) PRIMARY KEY, value TEXT NOT NULL)",
	get:    "SELECT value FROM %s WHERE `key` = ?",
	upsert: "INSERT INTO %s (`key`, value) VALUES (?, ?) ON DUPLICATE KEY UPDATE value = VALUES(value)",
	del:    "DELETE FROM %s WHERE `key` = ?",
}

// buildMySQLDSN constructs a MySQL DSN from Options.
func buildMySQLDSN(o Options) string {
	if o.DSN != "" {
		return o.DSN
	}
	port := o.Port
	if port == 0 {
		port = 3306
	}
	// Format: user:password@tcp(host:port)/dbname?parseTime=true
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		o.Username, o.Password, o.Host, port, o.Database,
	)
	if o.SSLMode == "require" {
		dsn += "&tls=true"
	}
	return dsn
}
