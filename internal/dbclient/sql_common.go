package dbclient

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// dialect holds the statements that differ between SQL servers. %s is the
// table name.
type dialect struct {
	create string
	get    string
	upsert string
	del    string
}

// sqlKV is the shared KV implementation for MySQL, Postgres and SQLite.
type sqlKV struct {
	driverName string
	db         *sql.DB
	d          dialect
	table      string
}

func openSQLKV(ctx context.Context, driverName, dsn string, d dialect, table string) (*sqlKV, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driverName, err)
	}
	// A handful of small writes per minute at most
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(10 * time.Minute)

	kv := &sqlKV{driverName: driverName, db: db, d: d, table: table}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, kv.stmt(d.create)); err != nil {
		db.Close()
		return nil, fmt.Errorf("create %s table: %w", driverName, err)
	}
	return kv, nil
}

func (c *sqlKV) stmt(format string) string { return fmt.Sprintf(format, c.table) }

func (c *sqlKV) TestConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return c.db.PingContext(ctx)
}

func (c *sqlKV) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := c.db.QueryRowContext(ctx, c.stmt(c.d.get), key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%s get %s: %w", c.driverName, key, err)
	}
	return v, true, nil
}

func (c *sqlKV) Set(ctx context.Context, key, value string) error {
	if _, err := c.db.ExecContext(ctx, c.stmt(c.d.upsert), key, value); err != nil {
		return fmt.Errorf("%s set %s: %w", c.driverName, key, err)
	}
	return nil
}

func (c *sqlKV) Delete(ctx context.Context, key string) error {
	if _, err := c.db.ExecContext(ctx, c.stmt(c.d.del), key); err != nil {
		return fmt.Errorf("%s delete %s: %w", c.driverName, key, err)
	}
	return nil
}

func (c *sqlKV) Close() error {
	return c.db.Close()
}
