package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/slotbook-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5433, User: "app", Password: "pw", Name: "slotbook", SSLMode: "require"})
	assert.Equal(t, "host=db port=5433 user=app password=pw dbname=slotbook sslmode=require timezone=UTC", dsn)
}
