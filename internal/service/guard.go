package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sensorlog/sensorlog/internal/domain"
	"github.com/sensorlog/sensorlog/internal/domain/sensor"
	"github.com/sensorlog/sensorlog/internal/port/database"
)

// ResourceKind selects which public key a guarded request carries.
type ResourceKind int

const (
	// KindNone guards a request that names no resource, only a credential.
	KindNone ResourceKind = iota
	// KindSensor guards a request addressing a sensor by public key.
	KindSensor
	// KindGroup guards a request addressing a group by public key.
	KindGroup
)

// Decision is the outcome class of an authorization check.
type Decision int

const (
	// Allowed means the credential owns the resource; proceed.
	Allowed Decision = iota
	// ResourceError is a caller-visible structured failure: bad or missing
	// resource key. Transported as a 200 envelope with success=false.
	ResourceError
	// Unauthorized is a credential failure. Transported as a bare 401.
	Unauthorized
)

// Outcome is the result of authorizing one data API request. Sensor or
// Group is populated only when the decision is Allowed and the kind matches.
type Outcome struct {
	Decision Decision
	Message  string
	TenantID int64
	Sensor   *sensor.Sensor
	Group    *sensor.Group
}

// Guard authorizes data API requests: resource key validity first, then
// credential, then ownership.
type Guard struct {
	store database.Store
	log   *slog.Logger
}

// NewGuard creates a Guard over the given store.
func NewGuard(store database.Store, log *slog.Logger) *Guard {
	return &Guard{store: store, log: log}
}

// Authorize runs the three-step check. The resource lookup is evaluated
// before the credential lookup, and a resource failure takes precedence
// when both fail. A tenant mismatch reports the same message as a missing
// resource so cross-tenant probing cannot distinguish the two.
func (g *Guard) Authorize(ctx context.Context, apiKeyToken string, kind ResourceKind, resourceKey string) (Outcome, error) {
	var (
		sn *sensor.Sensor
		gr *sensor.Group

		resourceMsg      string
		resourceTenantID int64
	)

	switch kind {
	case KindSensor:
		if resourceKey == "" {
			resourceMsg = "Missing sensor key"
			break
		}
		found, err := g.store.GetSensorByKey(ctx, resourceKey)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				return Outcome{}, fmt.Errorf("lookup sensor: %w", err)
			}
			resourceMsg = "Invalid sensor key"
			break
		}
		sn = found
		resourceTenantID = found.TenantID
	case KindGroup:
		if resourceKey == "" {
			resourceMsg = "Missing group key"
			break
		}
		found, err := g.store.GetGroupByKey(ctx, resourceKey)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				return Outcome{}, fmt.Errorf("lookup group: %w", err)
			}
			resourceMsg = "Invalid group key"
			break
		}
		gr = found
		resourceTenantID = found.TenantID
	case KindNone:
		// Credential-only request.
	}

	if resourceMsg != "" {
		return Outcome{Decision: ResourceError, Message: resourceMsg}, nil
	}

	if apiKeyToken == "" {
		return Outcome{Decision: Unauthorized}, nil
	}
	cred, err := g.store.GetAPIKeyByToken(ctx, apiKeyToken)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			g.log.DebugContext(ctx, "unknown api key rejected")
			return Outcome{Decision: Unauthorized}, nil
		}
		return Outcome{}, fmt.Errorf("lookup api key: %w", err)
	}

	if kind != KindNone && resourceTenantID != cred.TenantID {
		msg := "Invalid sensor key"
		if kind == KindGroup {
			msg = "Invalid group key"
		}
		g.log.InfoContext(ctx, "cross-tenant key rejected", "tenant_id", cred.TenantID)
		return Outcome{Decision: ResourceError, Message: msg}, nil
	}

	return Outcome{
		Decision: Allowed,
		TenantID: cred.TenantID,
		Sensor:   sn,
		Group:    gr,
	}, nil
}
