// Package dbclient connects the durable key/value state (the revision
// counter and host settings) to an external database server.
package dbclient

import (
	"context"
	"errors"
	"fmt"

	"flowboard/internal/domain"
)

// Driver names accepted in the [store] section of the config file.
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverMongoDB  = "mongodb"
)

const defaultTable = "flowboard_settings"

var ErrUnsupportedDriver = errors.New("unsupported driver")

// Options describes where the key/value state lives. DSN wins over the
// individual fields when set.
type Options struct {
	Driver   string
	DSN      string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string
	Table    string // table or collection name
}

func (o Options) table() string {
	if o.Table == "" {
		return defaultTable
	}
	return o.Table
}

// KV is a domain.KVStore backed by a remote connection.
type KV interface {
	domain.KVStore

	// TestConnection verifies connectivity.
	TestConnection(ctx context.Context) error

	Close() error
}

// Open connects to the configured backend and makes sure the settings
// table exists.
func Open(ctx context.Context, opts Options) (KV, error) {
	switch opts.Driver {
	case DriverSQLite:
		return openSQLKV(ctx, "sqlite", buildSQLiteDSN(opts), sqliteDialect, opts.table())
	case DriverMySQL:
		return openSQLKV(ctx, "mysql", buildMySQLDSN(opts), mysqlDialect, opts.table())
	case DriverPostgres:
		return openSQLKV(ctx, "postgres", buildPostgresDSN(opts), postgresDialect, opts.table())
	case DriverMongoDB:
		return openMongoKV(ctx, opts)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, opts.Driver)
	}
}
