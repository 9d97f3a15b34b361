// Package jsonx extracts JSON objects from imperfect model output.
// Workers wrap answers in markdown fences, leave trailing commas, or
// prepend prose; requests must survive all of it.
package jsonx

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	fenceRe         = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	lineCommentRe   = regexp.MustCompile(`(?m)^\s*//.*$`)
	blockCommentRe  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
)

// Extract parses the first JSON object found in raw model output.
// It strips code fences and comments, removes trailing commas, and on a
// failed parse falls back to the first balanced {...} span.
func Extract(raw string) (map[string]any, error) {
	cleaned := normalize(raw)

	var out map[string]any
	if err := json.Unmarshal([]byte(cleaned), &out); err == nil {
		return out, nil
	}

	span, ok := firstObject(cleaned)
	if !ok {
		return nil, fmt.Errorf("no JSON object in output")
	}
	if err := json.Unmarshal([]byte(span), &out); err != nil {
		return nil, fmt.Errorf("parse extracted object: %w", err)
	}
	return out, nil
}

// ExtractInto decodes the first JSON object in raw into target.
func ExtractInto(raw string, target any) error {
	cleaned := normalize(raw)
	if err := json.Unmarshal([]byte(cleaned), target); err == nil {
		return nil
	}
	span, ok := firstObject(cleaned)
	if !ok {
		return fmt.Errorf("no JSON object in output")
	}
	if err := json.Unmarshal([]byte(span), target); err != nil {
		return fmt.Errorf("parse extracted object: %w", err)
	}
	return nil
}

func normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}
	s = lineCommentRe.ReplaceAllString(s, "")
	s = blockCommentRe.ReplaceAllString(s, "")
	s = trailingCommaRe.ReplaceAllString(s, "$1")
	return strings.TrimSpace(s)
}

// firstObject returns the first balanced top-level {...} span, skipping
// braces inside string literals.
func firstObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
