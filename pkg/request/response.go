package request

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// JSON is the decoded body, nil when the body is not JSON.
	JSON      any
	RequestID string
	Duration  time.Duration
}

func (r *Response) Text() string {
	return string(r.Body)
}

func (r *Response) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Lookup resolves a dotted path such as "data.items.0.id" in the JSON body.
func (r *Response) Lookup(path string) (any, bool) {
	if r == nil || r.JSON == nil {
		return nil, false
	}
	return Lookup(r.JSON, path)
}

// Lookup walks doc following dotted path segments. Numeric segments index
// into arrays. An empty path returns doc.
func Lookup(doc any, path string) (any, bool) {
	if path == "" {
		return doc, true
	}

	current := doc
	for _, seg := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			current = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			current = node[i]
		default:
			return nil, false
		}
	}

	return current, true
}
