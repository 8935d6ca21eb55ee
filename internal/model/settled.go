package model

import (
	"fmt"
	"strconv"
	"strings"
)

var settledTokens = map[string]bool{
	"true": true,
	"1":    true,
	"yes":  true,
	"y":    true,
	"t":    true,
}

// NormalizeSettled coerces a loosely typed settled flag into a bool.
// nil is false; the case-insensitive tokens true, 1, yes, y and t are true;
// everything else is false. It never fails.
func NormalizeSettled(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case *bool:
		return val != nil && *val
	case string:
		return settledTokens[strings.ToLower(strings.TrimSpace(val))]
	case *string:
		return val != nil && NormalizeSettled(*val)
	case int:
		return val == 1
	case int64:
		return val == 1
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64) == "1"
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32) == "1"
	default:
		return settledTokens[strings.ToLower(strings.TrimSpace(fmt.Sprint(val)))]
	}
}
