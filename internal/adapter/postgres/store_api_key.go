package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/sensorlog/sensorlog/internal/domain/tenant"
)

func (s *Store) CreateAPIKey(ctx context.Context, k *tenant.APIKey) (*tenant.APIKey, error) {
	k.CreatedAt = time.Now().UTC()
	err := s.pool.QueryRow(ctx, `
		INSERT INTO api_keys (tenant_id, name, host, token, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		k.TenantID, k.Name, k.Host, k.Token, k.CreatedAt,
	).Scan(&k.ID)
	if err != nil {
		return nil, fmt.Errorf("create api key: %w", err)
	}
	return k, nil
}

func (s *Store) GetAPIKeyByToken(ctx context.Context, token string) (*tenant.APIKey, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, tenant_id, name, host, token, created_at
		FROM api_keys WHERE token = $1`, token)

	var k tenant.APIKey
	err := row.Scan(&k.ID, &k.TenantID, &k.Name, &k.Host, &k.Token, &k.CreatedAt)
	if err != nil {
		return nil, notFoundWrap(err, "get api key")
	}
	return &k, nil
}

func (s *Store) ListAPIKeys(ctx context.Context, tenantID int64) ([]tenant.APIKey, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, tenant_id, name, host, token, created_at
		FROM api_keys WHERE tenant_id = $1 ORDER BY created_at`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	var keys []tenant.APIKey
	for rows.Next() {
		var k tenant.APIKey
		if err := rows.Scan(&k.ID, &k.TenantID, &k.Name, &k.Host, &k.Token, &k.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, k)
	}
	return orEmpty(keys), rows.Err()
}

func (s *Store) DeleteAPIKey(ctx context.Context, id, tenantID int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM api_keys WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	return execExpectOne(tag, err, "delete api key %d", id)
}
