package a3interface

import (
	"encoding/json"
	"fmt"
	"strings"
)

// sqfString quotes s the way the host's parser expects: embedded double
// quotes are doubled rather than backslash-escaped.
func sqfString(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// formatDispatchResponse renders a handler result as ["ok", value] or
// ["error", message]. Strings are passed as host strings, anything else as JSON.
func formatDispatchResponse(result any, err error) string {
	if err != nil {
		return fmt.Sprintf(`["error", %s]`, sqfString(err.Error()))
	}
	if result == nil {
		return `["ok"]`
	}
	if s, ok := result.(string); ok {
		return fmt.Sprintf(`["ok", %s]`, sqfString(s))
	}
	b, jerr := json.Marshal(result)
	if jerr != nil {
		return fmt.Sprintf(`["error", %s]`, sqfString(jerr.Error()))
	}
	return fmt.Sprintf(`["ok", %s]`, b)
}

// EncodeArgs renders callback arguments as a JSON array.
func EncodeArgs(args ...any) (string, error) {
	if len(args) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("failed to encode callback args: %w", err)
	}
	return string(b), nil
}

// splitCommand splits the plain callExtension form "cmd|a|b" into the
// command and its arguments.
func splitCommand(input string) (string, []string) {
	parts := strings.Split(input, "|")
	if len(parts) == 1 {
		return parts[0], nil
	}
	return parts[0], parts[1:]
}
