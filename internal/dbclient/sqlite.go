package dbclient

import (
	_ "modernc.org/sqlite"
)

var sqliteDialect = dialect{
	create: `CREATE TABLE IF NOT EXISTS %s (key TEXT PRIMARY KEY, value TEXT NOT NULL DEFAULT '')`,
	get:    `SELECT value FROM %s WHERE key = ?`,
	upsert: `INSERT INTO %s (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
	del:    `DELETE FROM %s WHERE key = ?`,
}

// buildSQLiteDSN opens an external SQLite file in WAL mode with a busy
// timeout, since the editor and a second process may share it.
func buildSQLiteDSN(o Options) string {
	path := o.DSN
	if path == "" {
		path = o.Host
	}
	return path + "?_journal_mode=WAL&_busy_timeout=5000"
}
