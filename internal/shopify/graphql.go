package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

type GraphQLError struct {
	Message    string `json:"message"`
	Path       []any  `json:"path,omitempty"`
	Extensions struct {
		Code string `json:"code,omitempty"`
	} `json:"extensions,omitempty"`
}

type GraphQLResponse[T any] struct {
	Data   T              `json:"data"`
	Errors []GraphQLError `json:"errors"`
}

type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

// postGraphQL runs one Admin GraphQL operation. Transport failures, non-2xx statuses and
// top-level GraphQL errors all come back as *RemoteServiceError.
func postGraphQL[T any](ctx context.Context, c *Client, op, query string, variables any) (*GraphQLResponse[T], error) {
	if err := c.wait(ctx, op); err != nil {
		return nil, err
	}

	b, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("graphql.json"), bytes.NewReader(b))
	if err != nil {
		return nil, &RemoteServiceError{Op: op, Message: "invalid request", Err: err}
	}
	req.Header.Set("content-type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, &RemoteServiceError{Op: op, Message: "shopify request failed", Err: err}
	}
	defer res.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &RemoteServiceError{Op: op, Status: res.StatusCode, Message: upstreamMessage(raw, res.StatusCode)}
	}

	var out GraphQLResponse[T]
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &RemoteServiceError{Op: op, Status: res.StatusCode, Message: "invalid response body", Err: err}
	}
	if len(out.Errors) > 0 {
		msgs := make([]string, 0, len(out.Errors))
		for _, e := range out.Errors {
			if e.Extensions.Code != "" {
				msgs = append(msgs, e.Message+" ("+e.Extensions.Code+")")
			} else {
				msgs = append(msgs, e.Message)
			}
		}
		return nil, &RemoteServiceError{Op: op, Status: res.StatusCode, Message: strings.Join(msgs, "; ")}
	}
	return &out, nil
}

func userErrorsMessage(ues []UserError) string {
	msgs := make([]string, 0, len(ues))
	for _, ue := range ues {
		if len(ue.Field) > 0 {
			msgs = append(msgs, strings.Join(ue.Field, ".")+": "+ue.Message)
		} else {
			msgs = append(msgs, ue.Message)
		}
	}
	return strings.Join(msgs, "; ")
}
