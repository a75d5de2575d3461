package db

import (
	"context"
	"database/sql"
)

// Database is a store whose connection lifecycle is owned by the process.
type Database interface {
	Connect(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// SQLDatabase is a Database reachable through database/sql.
type SQLDatabase interface {
	Database
	DB() *sql.DB
}
