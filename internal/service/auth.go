package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/sensorlog/sensorlog/internal/config"
	"github.com/sensorlog/sensorlog/internal/domain"
	"github.com/sensorlog/sensorlog/internal/domain/tenant"
	"github.com/sensorlog/sensorlog/internal/port/database"
)

// AuthService handles tenant registration, JWT tokens, and API keys.
type AuthService struct {
	store  database.Store
	cfg    *config.Auth
	secret []byte
}

// NewAuthService creates a new authentication service.
func NewAuthService(store database.Store, cfg *config.Auth) *AuthService {
	return &AuthService{
		store:  store,
		cfg:    cfg,
		secret: []byte(cfg.JWTSecret),
	}
}

// Register creates a new tenant with a bcrypt-hashed password.
func (s *AuthService) Register(ctx context.Context, req *tenant.RegisterRequest) (*tenant.Tenant, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	t := &tenant.Tenant{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: string(hash),
	}

	t, err = s.store.CreateTenant(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("create tenant: %w", err)
	}
	return t, nil
}

// Login authenticates a tenant and returns a signed access token.
func (s *AuthService) Login(ctx context.Context, req tenant.LoginRequest) (*tenant.LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	t, err := s.store.GetTenantByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
		}
		return nil, fmt.Errorf("get tenant: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(t.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	}

	accessToken, err := s.signJWT(t)
	if err != nil {
		return nil, fmt.Errorf("sign jwt: %w", err)
	}

	return &tenant.LoginResponse{
		AccessToken: accessToken,
		ExpiresIn:   int(s.cfg.TokenExpiry.Seconds()),
		Tenant:      *t,
	}, nil
}

// GetTenant returns a tenant by ID.
func (s *AuthService) GetTenant(ctx context.Context, id int64) (*tenant.Tenant, error) {
	return s.store.GetTenant(ctx, id)
}

// DeleteTenant removes a tenant and, by cascade, every resource it owns.
func (s *AuthService) DeleteTenant(ctx context.Context, id int64) error {
	return s.store.DeleteTenant(ctx, id)
}

// ValidateAccessToken verifies a JWT and returns the claims.
func (s *AuthService) ValidateAccessToken(tokenStr string) (*tenant.TokenClaims, error) {
	return s.verifyJWT(tokenStr)
}

// CreateAPIKey mints a new data API credential for a tenant. The token is a
// random UUID stored verbatim so the tenant can list it back later.
func (s *AuthService) CreateAPIKey(ctx context.Context, tenantID int64, req tenant.CreateAPIKeyRequest) (*tenant.APIKey, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	key := &tenant.APIKey{
		TenantID: tenantID,
		Name:     req.Name,
		Host:     req.Host,
		Token:    uuid.NewString(),
	}

	key, err := s.store.CreateAPIKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("create api key: %w", err)
	}
	return key, nil
}

// ListAPIKeys returns all API keys for a tenant.
func (s *AuthService) ListAPIKeys(ctx context.Context, tenantID int64) ([]tenant.APIKey, error) {
	return s.store.ListAPIKeys(ctx, tenantID)
}

// DeleteAPIKey removes an API key owned by the tenant.
func (s *AuthService) DeleteAPIKey(ctx context.Context, id, tenantID int64) error {
	return s.store.DeleteAPIKey(ctx, id, tenantID)
}

// --- JWT implementation (HS256 with stdlib) ---

// jwtHeader is the fixed base64url-encoded header for HS256.
var jwtHeader = base64URLEncode([]byte(`{"alg":"HS256","typ":"JWT"}`))

func (s *AuthService) signJWT(t *tenant.Tenant) (string, error) {
	now := time.Now()
	claims := tenant.TokenClaims{
		TenantID: t.ID,
		Email:    t.Email,
		IssuedAt: now.Unix(),
		Expiry:   now.Add(s.cfg.TokenExpiry).Unix(),
		Audience: "sensorlog",
		Issuer:   "sensorlog",
	}

	payload, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("marshal claims: %w", err)
	}

	payloadB64 := base64URLEncode(payload)
	signingInput := jwtHeader + "." + payloadB64

	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(signingInput))
	sig := base64URLEncode(mac.Sum(nil))

	return signingInput + "." + sig, nil
}

func (s *AuthService) verifyJWT(tokenStr string) (*tenant.TokenClaims, error) {
	parts := strings.SplitN(tokenStr, ".", 3)
	if len(parts) != 3 {
		return nil, errors.New("malformed token")
	}

	signingInput := parts[0] + "." + parts[1]
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(signingInput))
	expectedSig := base64URLEncode(mac.Sum(nil))

	if !hmac.Equal([]byte(parts[2]), []byte(expectedSig)) {
		return nil, errors.New("invalid signature")
	}

	payload, err := base64URLDecode(parts[1])
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	var claims tenant.TokenClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("unmarshal claims: %w", err)
	}

	if time.Now().Unix() > claims.Expiry {
		return nil, errors.New("token expired")
	}

	if claims.Audience != "sensorlog" {
		return nil, errors.New("invalid token audience")
	}
	if claims.Issuer != "sensorlog" {
		return nil, errors.New("invalid token issuer")
	}

	return &claims, nil
}

// --- Helpers ---

func base64URLEncode(data []byte) string {
	return strings.TrimRight(base64.URLEncoding.EncodeToString(data), "=")
}

func base64URLDecode(s string) ([]byte, error) {
	// Add padding back
	switch len(s) % 4 {
	case 2:
		s += "=="
	case 3:
		s += "="
	}
	return base64.URLEncoding.DecodeString(s)
}
