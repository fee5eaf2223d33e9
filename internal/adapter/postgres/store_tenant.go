package postgres

import (
	"context"
	"time"

	"github.com/sensorlog/sensorlog/internal/domain/tenant"
)

func (s *Store) CreateTenant(ctx context.Context, t *tenant.Tenant) (*tenant.Tenant, error) {
	t.CreatedAt = time.Now().UTC()
	err := s.pool.QueryRow(ctx, `
		INSERT INTO tenants (first_name, last_name, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		t.FirstName, t.LastName, t.Email, t.PasswordHash, t.CreatedAt,
	).Scan(&t.ID)
	if err != nil {
		return nil, conflictWrap(err, "create tenant")
	}
	return t, nil
}

func (s *Store) GetTenant(ctx context.Context, id int64) (*tenant.Tenant, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, email, password_hash, created_at
		FROM tenants WHERE id = $1`, id)
	return scanTenant(row, "get tenant %d", id)
}

func (s *Store) GetTenantByEmail(ctx context.Context, email string) (*tenant.Tenant, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, email, password_hash, created_at
		FROM tenants WHERE email = $1`, email)
	return scanTenant(row, "get tenant by email")
}

// DeleteTenant removes a tenant; api keys, groups, sensors, readings, and
// blueprints cascade at the schema level.
func (s *Store) DeleteTenant(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete tenant %d", id)
}

func scanTenant(row scannable, format string, args ...any) (*tenant.Tenant, error) {
	var t tenant.Tenant
	err := row.Scan(&t.ID, &t.FirstName, &t.LastName, &t.Email, &t.PasswordHash, &t.CreatedAt)
	if err != nil {
		return nil, notFoundWrap(err, format, args...)
	}
	return &t, nil
}
