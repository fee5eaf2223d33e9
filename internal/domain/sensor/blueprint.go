package sensor

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Blueprint is a group template: a named set of sensor templates used to
// stamp out a live group with pre-named sensors. Blueprints carry no public
// keys and hold no readings.
type Blueprint struct {
	ID        int64             `json:"id"`
	TenantID  int64             `json:"-"`
	Name      string            `json:"name"`
	CreatedAt time.Time         `json:"date_added"`
	Sensors   []BlueprintSensor `json:"sensors"`
}

// BlueprintSensor is one sensor template inside a blueprint.
type BlueprintSensor struct {
	ID          int64    `json:"id"`
	BlueprintID int64    `json:"-"`
	Name        string   `json:"name"`
	DataType    DataType `json:"data_type"`
}

// CreateBlueprintRequest holds the fields required to create a blueprint.
type CreateBlueprintRequest struct {
	Name    string `json:"name"`
	Sensors []struct {
		Name     string `json:"name"`
		DataType string `json:"data_type"`
	} `json:"sensors"`
}

// Validate checks names and normalizes each template's declared type.
func (r *CreateBlueprintRequest) Validate() ([]BlueprintSensor, error) {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return nil, errors.New("name is required")
	}

	templates := make([]BlueprintSensor, 0, len(r.Sensors))
	for i, s := range r.Sensors {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			return nil, fmt.Errorf("sensor %d: name is required", i)
		}
		dt, err := ParseDataType(s.DataType)
		if err != nil {
			return nil, fmt.Errorf("sensor %d: %w", i, err)
		}
		templates = append(templates, BlueprintSensor{Name: name, DataType: dt})
	}
	return templates, nil
}

// InstantiateRequest names the live group stamped out from a blueprint.
// An empty name defaults to the blueprint's own name.
type InstantiateRequest struct {
	Name string `json:"name"`
}
