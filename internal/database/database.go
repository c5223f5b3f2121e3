package database

import (
	"context"
	"errors"
	"fmt"
)

// Errors returned by the SurrealDB client. Match them with errors.Is.
var (
	ErrNotFound   = errors.New("record not found")
	ErrConnection = errors.New("database connection error")
	ErrQuery      = errors.New("query error")
)

// Database is the connection the guild repository runs its statements on
type Database interface {
	Connect(ctx context.Context) error
	Close() error

	// Query runs one or more statements and returns a {status, result} map per statement
	Query(ctx context.Context, query string, vars map[string]any) ([]any, error)

	// Execute runs statements whose results are not needed
	Execute(ctx context.Context, query string, vars map[string]any) error
}

// Config holds SurrealDB connection settings. User may be empty for an
// unauthenticated server.
type Config struct {
	Host      string
	Port      string
	User      string
	Password  string
	Namespace string
	Database  string
}

// Endpoint returns the websocket URL of the server
func (c Config) Endpoint() string {
	return fmt.Sprintf("ws://%s:%s", c.Host, c.Port)
}
