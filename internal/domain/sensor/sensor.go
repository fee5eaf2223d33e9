// Package sensor defines the sensor, group, and reading domain models along
// with the read-time value coercion rules.
package sensor

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sensor is a named, typed time-series source owned by a tenant and
// optionally belonging to a group.
type Sensor struct {
	ID        int64     `json:"id"`
	TenantID  int64     `json:"-"`
	GroupID   int64     `json:"group_id,omitempty"` // 0 = ungrouped
	GroupName string    `json:"group"`
	Name      string    `json:"name"`
	DataType  DataType  `json:"data_type"`
	Key       string    `json:"key"`
	CreatedAt time.Time `json:"date_added"`
}

// Group is a named collection of a tenant's sensors, queried and ingested
// collectively.
type Group struct {
	ID        int64     `json:"id"`
	TenantID  int64     `json:"-"`
	Name      string    `json:"name"`
	Key       string    `json:"key"`
	CreatedAt time.Time `json:"date_added"`
}

// GroupRef is the public listing shape for a group: name and key only.
type GroupRef struct {
	Name string `json:"name"`
	Key  string `json:"key"`
}

// CreateSensorRequest holds the fields required to create a sensor.
type CreateSensorRequest struct {
	Name     string `json:"name"`
	DataType string `json:"data_type"`
	GroupID  int64  `json:"group_id,omitempty"`
}

// Validate checks required fields and normalizes the declared type.
func (r *CreateSensorRequest) Validate() (DataType, error) {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return "", errors.New("name is required")
	}
	dt, err := ParseDataType(r.DataType)
	if err != nil {
		return "", fmt.Errorf("data_type: %w", err)
	}
	return dt, nil
}

// CreateGroupRequest holds the fields required to create a group.
type CreateGroupRequest struct {
	Name string `json:"name"`
}

// Validate checks that the CreateGroupRequest has all required fields.
func (r *CreateGroupRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return errors.New("name is required")
	}
	return nil
}
