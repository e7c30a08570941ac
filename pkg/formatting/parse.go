package formatting

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrParseFailed reports content that holds no decodable JSON.
var ErrParseFailed = errors.New("failed to parse response")

const fence = "```"

// Parse decodes content as JSON into T. Models often wrap their answer in a
// markdown code fence, so the first fenced block is tried when the content
// itself does not decode.
func Parse[T any](content string) (T, error) {
	content = strings.TrimSpace(content)

	var out T
	err := json.Unmarshal([]byte(content), &out)
	if err == nil {
		return out, nil
	}

	if body, ok := fenced(content); ok {
		var inner T
		if err = json.Unmarshal([]byte(body), &inner); err == nil {
			return inner, nil
		}
	}

	var zero T
	return zero, fmt.Errorf("%w: %w", ErrParseFailed, err)
}

// fenced returns the body of the first fenced block, without its info string.
func fenced(s string) (string, bool) {
	_, rest, ok := strings.Cut(s, fence)
	if !ok {
		return "", false
	}
	body, _, ok := strings.Cut(rest, fence)
	if !ok {
		return "", false
	}

	if info, after, found := strings.Cut(body, "\n"); found && !strings.ContainsAny(info, "{[\"") {
		body = after
	}
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(body), "json")), true
}
