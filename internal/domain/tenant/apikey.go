package tenant

import (
	"errors"
	"time"
)

// APIKey is an opaque bearer credential identifying a tenant on the data API.
// The token is a random UUID stored verbatim and looked up directly; it is
// listed back to its owner, so there is no hash-at-rest indirection.
type APIKey struct {
	ID        int64     `json:"id"`
	TenantID  int64     `json:"-"`
	Name      string    `json:"name"`
	Host      string    `json:"host"`
	Token     string    `json:"key"`
	CreatedAt time.Time `json:"date_added"`
}

// CreateAPIKeyRequest is the input for minting a new API key.
type CreateAPIKeyRequest struct {
	Name string `json:"name"`
	Host string `json:"host"`
}

// Validate checks that the CreateAPIKeyRequest has all required fields.
func (r *CreateAPIKeyRequest) Validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	return nil
}
