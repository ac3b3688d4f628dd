package formatting

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ErrParseFailed is returned when content cannot be parsed as JSON,
// either directly, from a markdown code fence, or from an embedded object.
var ErrParseFailed = errors.New("failed to parse response")

var jsonBlockRegex = regexp.MustCompile(`(?s)` + "```" + `(?:json)?\s*\n?(.*?)\n?` + "```")

// maxEcho bounds how much of an unparseable response is echoed into the error.
const maxEcho = 240

// Parse attempts to unmarshal model output as JSON into T.
//
// Candidates are tried in order: the trimmed content, the body of the first
// markdown code fence, and the outermost {...} span of the content. The
// first candidate that decodes wins. Returns ErrParseFailed if none do.
func Parse[T any](content string) (T, error) {
	var result T
	content = strings.TrimSpace(content)

	for _, candidate := range candidates(content) {
		var v T
		if err := json.Unmarshal([]byte(candidate), &v); err == nil {
			return v, nil
		}
	}

	return result, fmt.Errorf("%w: %s", ErrParseFailed, truncate(content, maxEcho))
}

func candidates(content string) []string {
	out := []string{content}

	if matches := jsonBlockRegex.FindStringSubmatch(content); len(matches) >= 2 {
		out = append(out, strings.TrimSpace(matches[1]))
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		out = append(out, content[start:end+1])
	}

	return out
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
