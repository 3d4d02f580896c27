package dbclient

import (
	"fmt"

	_ "github.com/lib/pq"
)

var postgresDialect = dialect{
	create: `CREATE TABLE IF NOT EXISTS %s (key TEXT PRIMARY KEY, value TEXT NOT NULL DEFAULT '')`,
	get:    `SELECT value FROM %s WHERE key = $1`,
	upsert: `INSERT INTO %s (key, value) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
	del:    `DELETE FROM %s WHERE key = $1`,
}

// buildPostgresDSN constructs a Postgres connection string from Options.
func buildPostgresDSN(o Options) string {
	if o.DSN != "" {
		return o.DSN
	}
	port := o.Port
	if port == 0 {
		port = 5432
	}
	sslMode := o.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		o.Host, port, o.Username, o.Password, o.Database, sslMode,
	)
}
