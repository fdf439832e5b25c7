package driver

import (
	"context"
	"fmt"
)

// Driver abstracts a row source.
type Driver interface {
	// Name returns the driver name (e.g., "mysql", "postgres").
	Name() string

	// Ping verifies the connection to the source.
	Ping(ctx context.Context) error

	// Query executes a query and returns a RowStreamer to iterate over results.
	Query(ctx context.Context, query string) (RowStreamer, error)

	// Close closes the connection.
	Close() error
}

// RowStreamer iterates over query results.
// It is designed to be memory-efficient and stream-oriented; *sql.Rows satisfies it.
type RowStreamer interface {
	// Columns returns the column names. Safe to call after Query returns.
	Columns() ([]string, error)

	// Next advances to the next row. Returns false when there are no more rows or an error occurs.
	Next() bool

	// Scan copies the columns in the current row into the values pointed at by dest.
	// The number of values must be the same as the number of columns.
	Scan(dest ...interface{}) error

	// Err returns the error, if any, that was encountered during iteration.
	Err() error

	// Close closes the streamer and frees resources.
	Close() error
}

// Open returns an unconnected driver for kind. Connections are made lazily
// by Ping or Query.
func Open(kind, dsn string) (Driver, error) {
	switch kind {
	case "mysql":
		return NewMySQLDriver(dsn), nil
	case "postgres", "postgresql":
		return NewPostgresDriver(dsn), nil
	case "sqlite", "sqlite3":
		return NewSQLiteDriver(dsn), nil
	case "mongo", "mongodb":
		return NewMongoDriver(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported source %q", kind)
	}
}
