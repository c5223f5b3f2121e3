package repository

import (
	"time"

	"github.com/surrealdb/surrealdb.go/pkg/models"
)

// statementResults extracts the rows returned by the n-th statement of a query
func statementResults(result []interface{}, n int) []map[string]interface{} {
	if n >= len(result) {
		return nil
	}
	resp, ok := result[n].(map[string]interface{})
	if !ok {
		return nil
	}
	rows, ok := resp["result"].([]interface{})
	if !ok {
		return nil
	}
	out := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		if m, ok := row.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
}

// getString extracts a string value from a map
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// getInt64 extracts an integer value from a map. CBOR decodes non-negative
// integers as uint64 and negative ones as int64.
func getInt64(m map[string]interface{}, key string) int64 {
	switch v := m[key].(type) {
	case uint64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case float32:
		return int64(v)
	}
	return 0
}

// getInt extracts an int value from a map
func getInt(m map[string]interface{}, key string) int {
	return int(getInt64(m, key))
}

// getTime extracts a time value from a map
func getTime(m map[string]interface{}, key string) time.Time {
	return parseTime(m[key])
}

// parseTime parses time from various formats
func parseTime(v interface{}) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed
		}
	case models.CustomDateTime:
		return t.Time
	case *models.CustomDateTime:
		if t != nil {
			return t.Time
		}
	}
	return time.Time{}
}

// getStringSlice extracts a string slice from a map
func getStringSlice(m map[string]interface{}, key string) []string {
	v, ok := m[key].([]interface{})
	if !ok {
		return nil
	}
	result := make([]string, 0, len(v))
	for _, item := range v {
		if s, ok := item.(string); ok {
			result = append(result, s)
		}
	}
	return result
}
