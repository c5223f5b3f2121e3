package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Endpoint(t *testing.T) {
	cfg := Config{Host: "db.internal", Port: "8000"}
	assert.Equal(t, "ws://db.internal:8000", cfg.Endpoint())
}

func TestSurrealDB_QueryBeforeConnect(t *testing.T) {
	db := NewSurrealDB(Config{Host: "localhost", Port: "8000"})

	_, err := db.Query(context.Background(), "SELECT * FROM guild", nil)
	assert.ErrorIs(t, err, ErrConnection)
	assert.NoError(t, db.Close())
}
