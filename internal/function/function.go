// Package function defines the request/response contract shared by the
// stateless handler cores. Each core is a pure function of an incoming
// event and the database; transports (HTTP gateway, FaaS runtime) only
// adapt to and from these types.
package function

import (
	"context"
	"encoding/json"
	"strings"
)

// Event is the transport-agnostic request shape.
type Event struct {
	HTTPMethod            string            `json:"httpMethod"`
	Headers               map[string]string `json:"headers"`
	Body                  string            `json:"body"`
	QueryStringParameters map[string]string `json:"queryStringParameters"`
}

// Header returns a header value, tolerating either canonical or lowercase
// keys.
func (e Event) Header(key string) string {
	if v, ok := e.Headers[key]; ok {
		return v
	}
	for k, v := range e.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

// Query returns a query string parameter.
func (e Event) Query(key string) string {
	return e.QueryStringParameters[key]
}

// Response is the transport-agnostic response shape.
type Response struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
}

// Handler is a stateless request handler core.
type Handler interface {
	Handle(ctx context.Context, ev Event) Response
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, ev Event) Response

func (f HandlerFunc) Handle(ctx context.Context, ev Event) Response {
	return f(ctx, ev)
}

func baseHeaders() map[string]string {
	return map[string]string{
		"Content-Type":                "application/json",
		"Access-Control-Allow-Origin": "*",
	}
}

// Preflight answers a CORS OPTIONS request.
func Preflight() Response {
	return Response{
		StatusCode: 200,
		Headers: map[string]string{
			"Access-Control-Allow-Origin":  "*",
			"Access-Control-Allow-Methods": "GET, POST, OPTIONS",
			"Access-Control-Allow-Headers": "Content-Type, Authorization",
			"Access-Control-Max-Age":       "86400",
		},
		Body: "",
	}
}

// OK serializes data as a 200 response.
func OK(data any) Response {
	body, err := json.Marshal(data)
	if err != nil {
		return Response{
			StatusCode: 500,
			Headers:    baseHeaders(),
			Body:       `{"error":"Internal server error"}`,
		}
	}
	return Response{StatusCode: 200, Headers: baseHeaders(), Body: string(body)}
}

// Error builds an error response with the given status code.
func Error(message string, statusCode int) Response {
	body, _ := json.Marshal(map[string]string{"error": message})
	return Response{StatusCode: statusCode, Headers: baseHeaders(), Body: string(body)}
}

// InternalError builds a 500 response carrying a correlation id instead of
// the failure detail.
func InternalError(requestID string) Response {
	body, _ := json.Marshal(map[string]string{
		"error":      "Internal server error",
		"request_id": requestID,
	})
	return Response{StatusCode: 500, Headers: baseHeaders(), Body: string(body)}
}
