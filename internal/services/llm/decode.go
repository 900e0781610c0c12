package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// DecodeJSON unmarshals a model reply into target. Replies wrapped in a
// markdown code fence or surrounded by prose are unwrapped to the outermost
// JSON object or array.
func DecodeJSON(content string, target any) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return errors.New("decode reply: empty payload")
	}
	firstErr := json.Unmarshal([]byte(content), target)
	if firstErr == nil {
		return nil
	}
	inner := extractJSON(content)
	if inner == "" || inner == content {
		return fmt.Errorf("decode reply: %w (payload: %s)", firstErr, snippet(content))
	}
	if err := json.Unmarshal([]byte(inner), target); err != nil {
		return fmt.Errorf("decode reply: %w (payload: %s)", err, snippet(inner))
	}
	return nil
}

func extractJSON(content string) string {
	body := strings.TrimSpace(content)
	if rest, ok := strings.CutPrefix(body, "```"); ok {
		rest = strings.TrimLeft(rest, " \t\r\n")
		if len(rest) >= 4 && strings.EqualFold(rest[:4], "json") {
			rest = rest[4:]
		}
		if end := strings.LastIndex(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		body = strings.TrimSpace(rest)
	}
	if body == "" || body[0] == '{' || body[0] == '[' {
		return body
	}
	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}} {
		start := strings.Index(body, pair[0])
		end := strings.LastIndex(body, pair[1])
		if start >= 0 && end > start {
			return strings.TrimSpace(body[start : end+1])
		}
	}
	return body
}
