package core

import "strings"

const RedactedValue = "[REDACTED]"

// Substrings that mark a key as secret, matched case-insensitively.
var secretKeyMarkers = []string{
	"password",
	"secret",
	"token",
	"authorization",
	"api_key",
	"apikey",
	"cookie",
	"credential",
	"signature",
}

// Keys that name the destination or route a request. They stay readable in
// logs even when they contain a marker.
var traceKeys = map[string]struct{}{
	"destination":                      {},
	"destination_name":                 {},
	"authentication":                   {},
	"proxy_type":                       {},
	"cloud_connector_location_id":      {},
	"sap-connectivity-scc-location_id": {},
	"upstream_stage":                   {},
	"trace_id":                         {},
	"request_id":                       {},
}

// RedactSensitiveMap returns a deep copy of metadata with secret-looking
// values replaced by RedactedValue. Nested maps and slices are walked;
// map[string]string values come back as map[string]any.
func RedactSensitiveMap(metadata map[string]any) map[string]any {
	out := make(map[string]any, len(metadata))
	for key, value := range metadata {
		out[key] = redactEntry(key, value)
	}
	return out
}

func redactEntry(key string, value any) any {
	if shouldRedactKey(key) {
		return RedactedValue
	}
	return redactSensitiveValue(value)
}

func redactSensitiveValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return RedactSensitiveMap(typed)
	case map[string]string:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[key] = redactEntry(key, item)
		}
		return out
	case []any:
		out := make([]any, 0, len(typed))
		for _, item := range typed {
			out = append(out, redactSensitiveValue(item))
		}
		return out
	}
	return value
}

func shouldRedactKey(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return false
	}
	if _, ok := traceKeys[key]; ok {
		return false
	}
	for _, marker := range secretKeyMarkers {
		if strings.Contains(key, marker) {
			return true
		}
	}
	return false
}
