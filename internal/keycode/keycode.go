// Package keycode derives short public keys from internal row identifiers.
// Each resource kind uses its own salt, so a sensor key never decodes as a
// group key.
package keycode

import (
	"fmt"

	"github.com/speps/go-hashids/v2"
)

// Codec encodes int64 identifiers into opaque alphanumeric keys.
type Codec struct {
	h *hashids.HashID
}

// New builds a Codec over the given salt. minLength pads short encodings;
// keys for the same salt and id are stable across restarts.
func New(salt string, minLength int) (*Codec, error) {
	data := hashids.NewData()
	data.Salt = salt
	data.MinLength = minLength

	h, err := hashids.NewWithData(data)
	if err != nil {
		return nil, fmt.Errorf("keycode: %w", err)
	}
	return &Codec{h: h}, nil
}

// Encode derives the public key for id.
func (c *Codec) Encode(id int64) (string, error) {
	key, err := c.h.EncodeInt64([]int64{id})
	if err != nil {
		return "", fmt.Errorf("keycode: encode %d: %w", id, err)
	}
	return key, nil
}
