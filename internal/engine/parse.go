package engine

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fencedJSONRe = regexp.MustCompile("```(?:json)?\\s*\\n([\\s\\S]*?)\\n```")

// parsePlan extracts an analysis plan from a model reply in stages: the whole
// reply as JSON, then a fenced code block, then the first balanced JSON
// object embedded in prose. ok is false when no stage yields anything that
// looks like a plan; the caller then treats the reply as a plain text answer.
func parsePlan(reply string) (*Plan, bool) {
	trimmed := strings.TrimSpace(reply)

	// Stage 1: the reply is the JSON object.
	if strings.HasPrefix(trimmed, "{") {
		if p := decodePlan(trimmed); p != nil {
			return p, true
		}
	}

	// Stage 2: a fenced ```json block.
	for _, m := range fencedJSONRe.FindAllStringSubmatch(reply, -1) {
		if p := decodePlan(strings.TrimSpace(m[1])); p != nil {
			return p, true
		}
	}

	// Stage 3: the first balanced {...} anywhere in the reply.
	if obj := firstBalancedObject(reply); obj != "" {
		if p := decodePlan(obj); p != nil {
			return p, true
		}
	}

	return nil, false
}

func decodePlan(s string) *Plan {
	var p Plan
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return nil
	}
	if !p.looksLikePlan() {
		return nil
	}
	return &p
}

// firstBalancedObject scans for the first '{' and returns the substring up to
// its matching '}', respecting JSON string literals and escapes.
func firstBalancedObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
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
				return s[start : i+1]
			}
		}
	}
	return ""
}
