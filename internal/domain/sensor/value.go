package sensor

import (
	"fmt"
	"strconv"
	"strings"
)

// DataType is the declared value type of a sensor. Readings are stored as
// raw text and coerced to the declared type at read time, so a sensor's type
// may change without rewriting history.
type DataType string

// Supported sensor data types.
const (
	TypeInteger DataType = "integer"
	TypeFloat   DataType = "float"
	TypeBoolean DataType = "boolean"
	TypeString  DataType = "string"
)

// ParseDataType normalizes a declared type string. The short form "int" and
// "bool" are accepted for compatibility with older clients.
func ParseDataType(s string) (DataType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "int", "integer":
		return TypeInteger, nil
	case "float":
		return TypeFloat, nil
	case "bool", "boolean":
		return TypeBoolean, nil
	case "", "string":
		return TypeString, nil
	default:
		return "", fmt.Errorf("unknown data type %q", s)
	}
}

var (
	trueTokens  = map[string]bool{"true": true, "on": true, "1": true, "yes": true, "y": true}
	falseTokens = map[string]bool{"false": true, "off": true, "0": true, "no": true, "n": true}
)

// Coerce converts a raw stored value to the declared type. It never panics;
// a value that does not parse yields an error and the caller reports it
// alongside the readings that did parse.
func Coerce(raw string, dt DataType) (any, error) {
	switch dt {
	case TypeInteger:
		return coerceInteger(raw)
	case TypeFloat:
		return coerceFloat(raw)
	case TypeBoolean:
		return coerceBoolean(raw)
	case TypeString:
		return raw, nil
	default:
		// Unknown declared types behave as string, matching the storage form.
		return raw, nil
	}
}

// coerceInteger parses raw as an integer, falling back to parsing as a float
// and truncating toward zero.
func coerceInteger(raw string) (int64, error) {
	if n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("not an integer: %q", raw)
	}
	return int64(f), nil
}

func coerceFloat(raw string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("not a float: %q", raw)
	}
	return f, nil
}

func coerceBoolean(raw string) (bool, error) {
	token := strings.ToLower(strings.TrimSpace(raw))
	if trueTokens[token] {
		return true, nil
	}
	if falseTokens[token] {
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", raw)
}
