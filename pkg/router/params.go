package router

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

// Params maps parameter names to their string values.
type Params map[string]string

// Get returns the value for a parameter, or "" if absent.
func (p Params) Get(name string) string {
	return p[name]
}

// Clone returns a copy of the params. A nil receiver returns an empty map.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Equal reports whether both maps hold the same keys and values.
// A nil map equals an empty one.
func (p Params) Equal(other Params) bool {
	if len(p) != len(other) {
		return false
	}
	for k, v := range p {
		if ov, ok := other[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Keys returns the parameter names in sorted order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// uuidRegex matches valid UUIDs.
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// knownParamTypes are the constraints a :name:type segment may carry.
var knownParamTypes = map[string]bool{
	"string": true,
	"int":    true,
	"uint":   true,
	"uuid":   true,
}

// ValidateParam validates a parameter value against its declared type.
func ValidateParam(value, paramType string) error {
	if value == "" {
		return fmt.Errorf("empty value")
	}
	switch paramType {
	case "int":
		if _, err := strconv.ParseInt(value, 10, 64); err != nil {
			return fmt.Errorf("invalid integer: %s", value)
		}
	case "uint":
		if _, err := strconv.ParseUint(value, 10, 64); err != nil {
			return fmt.Errorf("invalid unsigned integer: %s", value)
		}
	case "uuid":
		if !uuidRegex.MatchString(value) {
			return fmt.Errorf("invalid UUID: %s", value)
		}
	}
	return nil
}
