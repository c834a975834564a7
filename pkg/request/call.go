package request

import (
	"encoding/json"
	"net/url"

	srvErrors "github.com/qaharness/api-test-framework/pkg/errors"
)

type call struct {
	query   url.Values
	json    any
	hasJSON bool
	form    url.Values
	headers map[string]string
}

type CallOption func(*call)

func WithQuery(q map[string]string) CallOption {
	return func(c *call) {
		if c.query == nil {
			c.query = url.Values{}
		}
		for k, v := range q {
			c.query.Set(k, v)
		}
	}
}

// WithJSON sends v encoded as JSON.
func WithJSON(v any) CallOption {
	return func(c *call) {
		c.json = v
		c.hasJSON = true
	}
}

// WithForm sends f url-encoded.
func WithForm(f map[string]string) CallOption {
	return func(c *call) {
		if c.form == nil {
			c.form = url.Values{}
		}
		for k, v := range f {
			c.form.Set(k, v)
		}
	}
}

// WithHeaders adds headers to this call only.
func WithHeaders(h map[string]string) CallOption {
	return func(c *call) {
		if c.headers == nil {
			c.headers = map[string]string{}
		}
		for k, v := range h {
			c.headers[k] = v
		}
	}
}

func (c *call) encode() ([]byte, string, error) {
	switch {
	case c.hasJSON && c.form != nil:
		return nil, "", srvErrors.NewValidationError("body", "json and form bodies are mutually exclusive")
	case c.hasJSON:
		data, err := json.Marshal(c.json)
		if err != nil {
			return nil, "", srvErrors.NewValidationError("body", "cannot encode json: %v", err)
		}
		return data, contentTypeJSON, nil
	case c.form != nil:
		return []byte(c.form.Encode()), contentTypeForm, nil
	}
	return nil, "", nil
}
