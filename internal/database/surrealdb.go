package database

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"
)

// SurrealDB is the Database backed by a SurrealDB websocket connection
type SurrealDB struct {
	db     *surrealdb.DB
	config Config
}

// NewSurrealDB creates an unconnected client
func NewSurrealDB(cfg Config) *SurrealDB {
	return &SurrealDB{config: cfg}
}

// Connect opens the connection, signs in when a user is configured and
// selects the guild namespace and database.
func (s *SurrealDB) Connect(ctx context.Context) error {
	db, err := surrealdb.FromEndpointURLString(ctx, s.config.Endpoint())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}

	if s.config.User != "" {
		if _, err := db.SignIn(ctx, &surrealdb.Auth{
			Username: s.config.User,
			Password: s.config.Password,
		}); err != nil {
			_ = db.Close(ctx)
			return fmt.Errorf("%w: sign in as %s: %v", ErrConnection, s.config.User, err)
		}
	}

	if err := db.Use(ctx, s.config.Namespace, s.config.Database); err != nil {
		_ = db.Close(ctx)
		return fmt.Errorf("%w: use %s/%s: %v", ErrConnection, s.config.Namespace, s.config.Database, err)
	}

	s.db = db
	return nil
}

// Close releases the connection. Closing an unconnected client is a no-op.
func (s *SurrealDB) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close(context.Background())
}

// Query fails on the first statement whose status is not OK, reporting its
// position so a failed guild batch points at the statement that broke it.
func (s *SurrealDB) Query(ctx context.Context, query string, vars map[string]any) ([]any, error) {
	if s.db == nil {
		return nil, ErrConnection
	}

	results, err := surrealdb.Query[any](ctx, s.db, query, vars)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	if results == nil {
		return nil, nil
	}

	out := make([]any, 0, len(*results))
	for i, r := range *results {
		if r.Status != "OK" {
			msg := r.Status
			if r.Error != nil {
				msg = r.Error.Message
			}
			return nil, fmt.Errorf("%w: statement %d: %s", ErrQuery, i, msg)
		}
		out = append(out, map[string]any{
			"status": r.Status,
			"result": r.Result,
		})
	}
	return out, nil
}

// Execute runs query and discards the statement results
func (s *SurrealDB) Execute(ctx context.Context, query string, vars map[string]any) error {
	_, err := s.Query(ctx, query, vars)
	return err
}
