package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/slotbook-api/internal/models"
)

func TestHostRepositoryUpsertKeepsExistingID(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewHostRepository(db)
	created := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`INSERT INTO hosts`).
		WithArgs(sqlmock.AnyArg(), "demo", "Demo Host", "demo@example.com", "Asia/Kolkata", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("host-1", created))

	host := &models.Host{Username: "demo", Name: "Demo Host", Email: "demo@example.com", Timezone: "Asia/Kolkata"}
	require.NoError(t, repo.Upsert(context.Background(), host))
	assert.Equal(t, "host-1", host.ID)
	assert.Equal(t, created, host.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHostRepositoryFindByUsername(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewHostRepository(db)
	now := time.Now()

	mock.ExpectQuery(`FROM hosts WHERE username = \$1`).
		WithArgs("demo").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "name", "email", "timezone", "created_at", "updated_at"}).
			AddRow("host-1", "demo", "Demo Host", "demo@example.com", "UTC", now, now))

	host, err := repo.FindByUsername(context.Background(), "demo")
	require.NoError(t, err)
	assert.Equal(t, "Demo Host", host.Public().Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}
