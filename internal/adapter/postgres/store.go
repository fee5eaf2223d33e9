package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sensorlog/sensorlog/internal/keycode"
	"github.com/sensorlog/sensorlog/internal/port/database"
)

// Store implements the database.Store port backed by PostgreSQL.
// It owns the key codecs because public keys are derived from row
// identifiers inside the insert transaction.
type Store struct {
	pool       *pgxpool.Pool
	sensorKeys *keycode.Codec
	groupKeys  *keycode.Codec
}

var _ database.Store = (*Store)(nil)

// NewStore creates a Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool, sensorKeys, groupKeys *keycode.Codec) *Store {
	return &Store{pool: pool, sensorKeys: sensorKeys, groupKeys: groupKeys}
}
