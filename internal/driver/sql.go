package driver

import (
	"context"
	"database/sql"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// sqlDriver runs queries through database/sql. The concrete drivers only
// differ in the registered driver name.
type sqlDriver struct {
	name       string
	driverName string
	dsn        string

	mu sync.Mutex
	db *sql.DB
}

// NewMySQLDriver creates a driver for a go-sql-driver/mysql DSN.
func NewMySQLDriver(dsn string) Driver {
	return &sqlDriver{name: "mysql", driverName: "mysql", dsn: dsn}
}

// NewPostgresDriver creates a driver for a lib/pq connection string.
func NewPostgresDriver(dsn string) Driver {
	return &sqlDriver{name: "postgres", driverName: "postgres", dsn: dsn}
}

// NewSQLiteDriver creates a driver for a modernc.org/sqlite file path or URI.
func NewSQLiteDriver(dsn string) Driver {
	return &sqlDriver{name: "sqlite", driverName: "sqlite", dsn: dsn}
}

func (d *sqlDriver) Name() string {
	return d.name
}

// conn lazily opens the pool.
func (d *sqlDriver) conn() (*sql.DB, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.db == nil {
		db, err := sql.Open(d.driverName, d.dsn)
		if err != nil {
			return nil, err
		}
		d.db = db
	}
	return d.db, nil
}

func (d *sqlDriver) Ping(ctx context.Context) error {
	db, err := d.conn()
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

func (d *sqlDriver) Query(ctx context.Context, query string) (RowStreamer, error) {
	db, err := d.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Exec runs a statement that returns no rows. Used to prepare fixtures.
func (d *sqlDriver) Exec(ctx context.Context, stmt string, args ...any) error {
	db, err := d.conn()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, stmt, args...)
	return err
}

func (d *sqlDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.db != nil {
		err := d.db.Close()
		d.db = nil
		return err
	}
	return nil
}
