package gemini

import "strings"

const (
	maxInlineRunes   = 400
	maxQuestionRunes = 300
)

// extractJSON strips markdown fences and any prose around the first JSON
// object in raw.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start != -1 && end > start {
		raw = raw[start : end+1]
	}

	return strings.TrimSpace(raw)
}

// cleanQuestion reduces a model reply to a single question line.
func cleanQuestion(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```text")
	raw = strings.Trim(raw, "`")

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, prefix := range []string{"Question:", "question:", "Q:"} {
			line = strings.TrimSpace(strings.TrimPrefix(line, prefix))
		}
		line = strings.Trim(line, "\"'*“”")
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}

// sanitizeInline makes user-provided text safe to embed in a prompt: a single
// line, bracket markers neutralised, bounded length.
func sanitizeInline(s string) string {
	replacer := strings.NewReplacer("[", "(", "]", ")", "{{", "(", "}}", ")")
	s = replacer.Replace(s)
	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxInlineRunes {
		s = string(runes[:maxInlineRunes])
	}
	return s
}
