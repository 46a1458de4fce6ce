package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// SettingRepository provides data access methods for the system_setting table,
// a small key/value store for runtime configuration such as the encrypted
// quote provider API key.
type SettingRepository struct {
	db *sql.DB
}

// NewSettingRepository creates a new SettingRepository with the provided database connection.
func NewSettingRepository(db *sql.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// Get retrieves a setting value. Returns sql.ErrNoRows when the key is unset.
func (r *SettingRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM system_setting WHERE "key" = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", err
	}
	if err != nil {
		return "", fmt.Errorf("failed to query system_setting table: %w", err)
	}

	return value, nil
}

// Set creates or replaces a setting value.
func (r *SettingRepository) Set(ctx context.Context, key, value string) error {
	query := `
        INSERT INTO system_setting (id, "key", value, updated_at)
        VALUES (?, ?, ?, CURRENT_TIMESTAMP)
        ON CONFLICT("key") DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
    `

	if _, err := r.db.ExecContext(ctx, query, uuid.New().String(), key, value); err != nil {
		return fmt.Errorf("failed to upsert system_setting %s: %w", key, err)
	}

	return nil
}
