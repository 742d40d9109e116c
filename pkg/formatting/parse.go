package formatting

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrParseFailed is returned when model output holds no decodable JSON.
var ErrParseFailed = errors.New("failed to parse response")

const excerptRunes = 200

var fencePattern = regexp.MustCompile("(?s)```[A-Za-z]*[ \\t]*\\n?(.*?)```")

// Parse decodes model output into T. Candidates are tried in order: the
// trimmed content, the body of the first markdown fence, and the outermost
// object or array embedded in surrounding prose.
func Parse[T any](content string) (T, error) {
	var zero T

	for _, candidate := range candidates(content) {
		var result T
		if err := json.Unmarshal([]byte(candidate), &result); err == nil {
			return result, nil
		}
	}

	return zero, fmt.Errorf("%w: %s", ErrParseFailed, excerpt(strings.TrimSpace(content)))
}

func candidates(content string) []string {
	content = strings.TrimSpace(content)
	out := []string{content}

	if m := fencePattern.FindStringSubmatch(content); m != nil {
		out = append(out, strings.TrimSpace(m[1]))
	}
	if span, ok := jsonSpan(content); ok {
		out = append(out, span)
	}
	return out
}

func jsonSpan(s string) (string, bool) {
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return "", false
	}

	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}

	end := strings.LastIndexByte(s, closer)
	if end <= start {
		return "", false
	}
	return s[start : end+1], true
}

func excerpt(s string) string {
	r := []rune(s)
	if len(r) <= excerptRunes {
		return s
	}
	return string(r[:excerptRunes]) + "..."
}
