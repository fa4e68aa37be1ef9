package calculator

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// Number converts an untyped value decoded from JSON, TOML or similar into a
// float64. Strings, booleans, nil and containers are rejected as
// InvalidType; nothing is coerced.
func Number(field string, v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int8:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, newTypeError(field, "%s must be a number, got %q", field, n.String())
		}
		return f, nil
	case nil:
		return 0, newTypeError(field, "%s is required and must be a number", field)
	default:
		return 0, newTypeError(field, "%s must be a number, got %T", field, v)
	}
}

// Quantity converts an untyped value into an int. Only integer kinds are
// accepted: a float such as 2.0 is an InvalidType even though it is whole.
func Quantity(field string, v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int8:
		return int(n), nil
	case int16:
		return int(n), nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case uint8:
		return int(n), nil
	case uint16:
		return int(n), nil
	case uint32:
		return int(n), nil
	case json.Number:
		s := n.String()
		if strings.ContainsAny(s, ".eE") {
			return 0, newTypeError(field, "%s must be an integer, got %s", field, s)
		}
		i, err := strconv.Atoi(s)
		if errors.Is(err, strconv.ErrRange) {
			return 0, newRangeError(field, "%s %s is out of range", field, s)
		}
		if err != nil {
			return 0, newTypeError(field, "%s must be an integer, got %q", field, s)
		}
		return i, nil
	case nil:
		return 0, newTypeError(field, "%s is required and must be an integer", field)
	default:
		return 0, newTypeError(field, "%s must be an integer, got %T", field, v)
	}
}

// OptionalQuantity behaves like Quantity but returns 1 when the value was
// not supplied. A supplied null is an InvalidType.
func OptionalQuantity(field string, v interface{}, present bool) (int, error) {
	if !present {
		return 1, nil
	}
	if v == nil {
		return 0, newTypeError(field, "%s must be an integer, got null", field)
	}
	return Quantity(field, v)
}

// OptionalNumber behaves like Number but returns def when the value was not
// supplied. A supplied null is an InvalidType.
func OptionalNumber(field string, v interface{}, present bool, def float64) (float64, error) {
	if !present {
		return def, nil
	}
	if v == nil {
		return 0, newTypeError(field, "%s must be a number, got null", field)
	}
	return Number(field, v)
}

// Name checks that v is a string. Emptiness is a range check done by
// AddItem, not here.
func Name(field string, v interface{}) (string, error) {
	s, ok := v.(string)
	if !ok {
		if v == nil {
			return "", newTypeError(field, "%s is required and must be a string", field)
		}
		return "", newTypeError(field, "%s must be a string, got %T", field, v)
	}
	return s, nil
}

// ParseNumberArg parses a command-line argument as a number.
func ParseNumberArg(field, s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, newTypeError(field, "%s must be a number, got %q", field, s)
	}
	return f, nil
}

// ParseQuantityArg parses a command-line argument as an integer quantity.
func ParseQuantityArg(field, s string) (int, error) {
	return Quantity(field, json.Number(strings.TrimSpace(s)))
}
