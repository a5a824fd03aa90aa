package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/chandanbangre/hikeonAssessment/internal/carrier"
	"github.com/chandanbangre/hikeonAssessment/internal/guard"
	"github.com/chandanbangre/hikeonAssessment/internal/session"
	"github.com/chandanbangre/hikeonAssessment/internal/shopify"
)

func jsonResp(status int, v any) (events.APIGatewayV2HTTPResponse, error) {
	b, _ := json.Marshal(v)
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers: map[string]string{
			"content-type":                "application/json",
			"access-control-allow-origin": "*",
		},
		Body: string(b),
	}, nil
}

func errResp(status int, msg string) (events.APIGatewayV2HTTPResponse, error) {
	return jsonResp(status, map[string]any{
		"error": msg,
	})
}

func htmlResp(status int, body, shop string) (events.APIGatewayV2HTTPResponse, error) {
	headers := map[string]string{
		"content-type": "text/html; charset=utf-8",
	}
	if shop != "" {
		headers["content-security-policy"] = "frame-ancestors https://" + shop + " https://admin.shopify.com;"
	}
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    headers,
		Body:       body,
	}, nil
}

func redirect(location string) (events.APIGatewayV2HTTPResponse, error) {
	return events.APIGatewayV2HTTPResponse{
		StatusCode: http.StatusFound,
		Headers: map[string]string{
			"location": location,
		},
	}, nil
}

// header reads a request header. API Gateway v2 lowercases names but local
// adapters may not.
func header(req events.APIGatewayV2HTTPRequest, name string) string {
	if v, ok := req.Headers[strings.ToLower(name)]; ok {
		return v
	}
	return req.Headers[http.CanonicalHeaderKey(name)]
}

func requestBody(req events.APIGatewayV2HTTPRequest) ([]byte, error) {
	if req.IsBase64Encoded {
		return base64.StdEncoding.DecodeString(req.Body)
	}
	return []byte(req.Body), nil
}

func formValues(req events.APIGatewayV2HTTPRequest) (url.Values, error) {
	b, err := requestBody(req)
	if err != nil {
		return nil, err
	}
	return url.ParseQuery(string(b))
}

func method(req events.APIGatewayV2HTTPRequest) string {
	return req.RequestContext.HTTP.Method
}

// userMessage is the text shown to the merchant for err.
func userMessage(err error) string {
	var ce *carrier.CreateError
	if errors.As(err, &ce) {
		return ce.Error()
	}
	var rse *shopify.RemoteServiceError
	if errors.As(err, &rse) && rse.Message != "" {
		return rse.Message
	}
	var dup *carrier.DuplicateNameError
	if errors.As(err, &dup) {
		return carrier.DuplicateMessage
	}
	if errors.Is(err, guard.ErrInFlight) {
		return "A request for this shop is already in progress"
	}
	return err.Error()
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var ue *session.UnauthenticatedError
	var dup *carrier.DuplicateNameError
	var ve *carrier.ValidationError
	var ce *carrier.CreateError
	var rse *shopify.RemoteServiceError
	switch {
	case errors.As(err, &ue):
		return http.StatusUnauthorized
	case errors.As(err, &dup):
		return http.StatusConflict
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, guard.ErrInFlight):
		return http.StatusTooManyRequests
	case errors.As(err, &ce), errors.As(err, &rse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
