package tasks

import (
	"encoding/json"
	"fmt"
	"strings"
)

// The submit response shape is not firmly specified upstream: the task
// identifier has been observed at the top level and nested one level under a
// container key. Both key lists are data (overridable via the policy
// profile), not code.
var (
	defaultExtractKeys   = []string{"task_id", "taskId", "id", "job_task_id"}
	defaultContainerKeys = []string{"data", "result", "task", "submitted"}
)

// extractTaskID scans top-level keys in priority order, then each container
// key one level deep with the same priority. The first string- or
// integer-valued match wins, coerced to a trimmed string.
func extractTaskID(payload json.RawMessage, keys []string, containers []string) (string, bool) {
	var root map[string]any
	if err := json.Unmarshal(payload, &root); err != nil {
		return "", false
	}

	if id := scanKeys(root, keys); id != "" {
		return id, true
	}

	for _, container := range containers {
		nested := mapField(root, container)
		if nested == nil {
			continue
		}
		if id := scanKeys(nested, keys); id != "" {
			return id, true
		}
	}

	return "", false
}

func scanKeys(node map[string]any, keys []string) string {
	for _, key := range keys {
		if id := identifierField(node, key); id != "" {
			return id
		}
	}
	return ""
}

func mapField(root map[string]any, key string) map[string]any {
	if root == nil {
		return nil
	}
	raw, ok := root[key]
	if !ok || raw == nil {
		return nil
	}
	out, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	return out
}

// identifierField accepts strings and integer numbers; anything else (bool,
// object, fractional number) is not a plausible identifier.
func identifierField(root map[string]any, key string) string {
	if root == nil {
		return ""
	}
	raw, ok := root[key]
	if !ok || raw == nil {
		return ""
	}
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return ""
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return fmt.Sprintf("%d", n)
		}
		return ""
	default:
		return ""
	}
}

// statusField reads the reported status from a detail payload, accepting it
// at the top level or nested under the same container keys as the task id.
func statusField(payload json.RawMessage, containers []string) string {
	var root map[string]any
	if err := json.Unmarshal(payload, &root); err != nil {
		return ""
	}

	if status := stringField(root, "status"); status != "" {
		return status
	}

	for _, container := range containers {
		if status := stringField(mapField(root, container), "status"); status != "" {
			return status
		}
	}
	return ""
}

func stringField(root map[string]any, key string) string {
	if root == nil {
		return ""
	}
	raw, ok := root[key]
	if !ok || raw == nil {
		return ""
	}
	value, ok := raw.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}
