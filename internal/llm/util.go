package llm

import "strings"

// CleanJSONBlock removes markdown code fences and any conversational text
// around the first JSON object in a model response.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		// language identifier on the fence line
		if idx := strings.Index(text, "\n"); idx >= 0 {
			first := text[:idx]
			if len(first) < 20 && !strings.ContainsAny(first, " {[") {
				text = text[idx+1:]
			}
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	if strings.HasPrefix(text, "{") {
		if obj := ExtractJSONObject(text); obj != "" {
			return obj
		}
		return text
	}
	if idx := strings.Index(text, "{"); idx > 0 {
		if obj := ExtractJSONObject(text[idx:]); obj != "" {
			return obj
		}
	}
	return text
}

// ExtractJSONObject returns the balanced object at the start of s, or "" when
// s does not start with one. Braces inside strings are ignored.
func ExtractJSONObject(s string) string {
	if !strings.HasPrefix(s, "{") {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}
	return ""
}
