package function

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPreflightHeaders(t *testing.T) {
	resp := Preflight()

	require.Equal(t, 200, resp.StatusCode)
	require.Empty(t, resp.Body)
	require.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
	require.Equal(t, "GET, POST, OPTIONS", resp.Headers["Access-Control-Allow-Methods"])
	require.Equal(t, "Content-Type, Authorization", resp.Headers["Access-Control-Allow-Headers"])
	require.Equal(t, "86400", resp.Headers["Access-Control-Max-Age"])
}

func TestOKSerializesPayload(t *testing.T) {
	resp := OK(map[string]any{"status": "sent"})

	require.Equal(t, 200, resp.StatusCode)
	require.Equal(t, "application/json", resp.Headers["Content-Type"])
	require.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
	require.JSONEq(t, `{"status":"sent"}`, resp.Body)
}

func TestErrorBody(t *testing.T) {
	resp := Error("Invalid action", 400)

	require.Equal(t, 400, resp.StatusCode)
	require.JSONEq(t, `{"error":"Invalid action"}`, resp.Body)
}

func TestInternalErrorCarriesRequestID(t *testing.T) {
	resp := InternalError("req-123")

	require.Equal(t, 500, resp.StatusCode)
	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &payload))
	require.Equal(t, "Internal server error", payload["error"])
	require.Equal(t, "req-123", payload["request_id"])
}

func TestHeaderLookupIsCaseInsensitive(t *testing.T) {
	ev := Event{Headers: map[string]string{"authorization": "Bearer abc"}}

	require.Equal(t, "Bearer abc", ev.Header("Authorization"))
	require.Equal(t, "Bearer abc", ev.Header("authorization"))
	require.Empty(t, ev.Header("Content-Type"))
}

func TestHandlerFunc(t *testing.T) {
	h := HandlerFunc(func(_ context.Context, ev Event) Response {
		return Response{StatusCode: 204}
	})

	resp := h.Handle(context.Background(), Event{})
	require.Equal(t, 204, resp.StatusCode)
}
