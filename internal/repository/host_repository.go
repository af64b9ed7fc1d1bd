package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/slotbook-api/internal/models"
)

// HostRepository reads and seeds host profiles.
type HostRepository struct {
	db *sqlx.DB
}

// NewHostRepository creates a new host repository.
func NewHostRepository(db *sqlx.DB) *HostRepository {
	return &HostRepository{db: db}
}

// FindByID loads a host by id.
func (r *HostRepository) FindByID(ctx context.Context, id string) (*models.Host, error) {
	const query = `SELECT id, username, name, email, timezone, created_at, updated_at FROM hosts WHERE id = $1`
	var host models.Host
	if err := r.db.GetContext(ctx, &host, query, id); err != nil {
		return nil, err
	}
	return &host, nil
}

// FindByUsername loads a host by its public username.
func (r *HostRepository) FindByUsername(ctx context.Context, username string) (*models.Host, error) {
	const query = `SELECT id, username, name, email, timezone, created_at, updated_at FROM hosts WHERE username = $1`
	var host models.Host
	if err := r.db.GetContext(ctx, &host, query, username); err != nil {
		return nil, err
	}
	return &host, nil
}

// Upsert creates the host or refreshes its profile when the username exists.
func (r *HostRepository) Upsert(ctx context.Context, host *models.Host) error {
	if host.ID == "" {
		host.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if host.CreatedAt.IsZero() {
		host.CreatedAt = now
	}
	host.UpdatedAt = now

	const query = `INSERT INTO hosts (id, username, name, email, timezone, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (username) DO UPDATE
SET name = EXCLUDED.name, email = EXCLUDED.email, timezone = EXCLUDED.timezone, updated_at = EXCLUDED.updated_at
RETURNING id, created_at`
	row := r.db.QueryRowxContext(ctx, query, host.ID, host.Username, host.Name, host.Email, host.Timezone, host.CreatedAt, host.UpdatedAt)
	if err := row.Scan(&host.ID, &host.CreatedAt); err != nil {
		return fmt.Errorf("upsert host: %w", err)
	}
	return nil
}
