package shopify

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// RemoteServiceError is any failure talking to the Admin API: transport, non-2xx status,
// GraphQL errors or userErrors. Message is safe to show to a merchant.
type RemoteServiceError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *RemoteServiceError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("shopify %s: http %d: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("shopify %s: %s", e.Op, e.Message)
}

func (e *RemoteServiceError) Unwrap() error { return e.Err }

// upstreamMessage flattens Shopify's {"errors": ...} shapes into one line.
//
//	{"errors":"Not Found"}
//	{"errors":{"name":["has already been taken"]}}
//	{"errors":["a","b"]}
func upstreamMessage(raw []byte, status int) string {
	var body struct {
		Errors any `json:"errors"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Errors != nil {
		if msg := flattenErrors(body.Errors); msg != "" {
			return msg
		}
	}
	if t := http.StatusText(status); t != "" {
		return t
	}
	return "unexpected response"
}

func flattenErrors(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, x := range t {
			if s := flattenErrors(x); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			s := flattenErrors(t[k])
			if s == "" {
				continue
			}
			if k == "base" {
				parts = append(parts, s)
			} else {
				parts = append(parts, k+" "+s)
			}
		}
		return strings.Join(parts, "; ")
	default:
		return ""
	}
}
