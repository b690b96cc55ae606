package programs

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind tags the content of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
)

// Value is a single dataset cell. Values are comparable and can key maps.
type Value struct {
	Kind Kind
	Bool bool
	Int  int64
}

// Null is the explicit absent value.
var Null = Value{}

func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

func IntValue(i int64) Value { return Value{Kind: KindInt, Int: i} }

func (v Value) IsNull() bool { return v.Kind == KindNull }

func (v Value) String() string {
	switch v.Kind {
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	default:
		return "null"
	}
}

// BoolPtr returns nil for null cells and for cells of another kind.
func (v Value) BoolPtr() *bool {
	if v.Kind != KindBool {
		return nil
	}
	b := v.Bool
	return &b
}

// IntPtr returns nil for null cells and for cells of another kind.
func (v Value) IntPtr() *int {
	if v.Kind != KindInt {
		return nil
	}
	i := int(v.Int)
	return &i
}

func (v Value) MarshalJSON() ([]byte, error) {
	return []byte(v.String()), nil
}

func isNullToken(s string) bool {
	switch s {
	case "", "null", "na", "n/a", "nan", "none", "<na>":
		return true
	}
	return false
}

func parseBool(raw string) (Value, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if isNullToken(s) {
		return Null, nil
	}
	switch s {
	case "true", "yes", "y", "t", "1", "1.0":
		return BoolValue(true), nil
	case "false", "no", "n", "f", "0", "0.0":
		return BoolValue(false), nil
	}
	return Null, fmt.Errorf("%q is not a boolean", raw)
}

func parseInt(raw string) (Value, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if isNullToken(s) {
		return Null, nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return IntValue(i), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return Null, fmt.Errorf("%q is not an integer", raw)
	}
	return IntValue(int64(f)), nil
}

// parseAny is used for columns outside the known schema.
func parseAny(raw string) (Value, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if isNullToken(s) {
		return Null, nil
	}
	switch s {
	case "true", "yes", "y", "t", "false", "no", "n", "f":
		return parseBool(s)
	}
	if v, err := parseInt(s); err == nil {
		return v, nil
	}
	return Null, fmt.Errorf("%q is neither a boolean nor an integer", raw)
}
