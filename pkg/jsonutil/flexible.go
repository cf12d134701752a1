package jsonutil

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// FlexibleStringValue converts a json.RawMessage to a string, handling payloads
// that carry numbers or booleans where a string is expected. Returns empty
// string for null/empty.
func FlexibleStringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	// Try string first
	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	// Try number
	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		if numVal == float64(int64(numVal)) {
			return fmt.Sprintf("%d", int64(numVal))
		}
		return fmt.Sprintf("%g", numVal)
	}

	// Try boolean
	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return fmt.Sprintf("%t", boolVal)
	}

	// Fallback: return raw string representation
	return string(raw)
}

// FlexibleInt64Value converts a json.RawMessage to an int64, handling numbers
// and numeric strings. Returns 0 and false when the value is absent, null,
// or not numeric.
func FlexibleInt64Value(raw json.RawMessage) (int64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		return int64(numVal), true
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		if n, err := strconv.ParseFloat(strVal, 64); err == nil {
			return int64(n), true
		}
	}

	return 0, false
}

// FlexID is a string identifier that tolerates JSON numbers. Client snapshots
// mix numeric and string ids for the same entities, so every id that crosses
// the wire is decoded through this type.
type FlexID string

// UnmarshalJSON accepts strings, numbers, and booleans and normalizes them to
// their string form. Null decodes to the empty id.
func (f *FlexID) UnmarshalJSON(data []byte) error {
	*f = FlexID(FlexibleStringValue(data))
	return nil
}

// CoerceEpochMillis normalizes a timestamp-like JSON value to its numeric
// form. Numeric strings become JSON numbers; absent, null, empty-string, and
// already-numeric values are returned unchanged. Values that cannot be
// interpreted as a number are also returned unchanged rather than dropped.
func CoerceEpochMillis(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return raw
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err != nil {
		// Not a string: numbers pass through as-is.
		return raw
	}
	if strVal == "" {
		return raw
	}

	// Only strings that are themselves valid JSON numbers are unquoted.
	// strconv would also accept "NaN", "Infinity", "+5", ".5", or "1_000",
	// none of which can legally appear in the marshaled snapshot.
	var numVal json.Number
	if err := json.Unmarshal([]byte(strVal), &numVal); err != nil {
		return raw
	}
	return json.RawMessage(numVal)
}

// SplitKnown unmarshals data into v and returns the top-level fields that are
// not covered by the known key set. Returns nil when nothing is left over.
func SplitKnown(data []byte, v any, known ...string) (map[string]json.RawMessage, error) {
	if err := json.Unmarshal(data, v); err != nil {
		return nil, err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// MergeFields marshals v and folds the extra top-level fields into the
// resulting object. Fields emitted by v win over extras with the same name.
func MergeFields(v any, extra map[string]json.RawMessage) ([]byte, error) {
	base, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(extra) == 0 {
		return base, nil
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(base, &all); err != nil {
		return nil, err
	}
	for k, val := range extra {
		if _, exists := all[k]; !exists {
			all[k] = val
		}
	}
	return json.Marshal(all)
}
