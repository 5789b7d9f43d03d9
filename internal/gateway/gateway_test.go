package gateway

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"him-messenger/internal/auth"
	"him-messenger/internal/function"
	"him-messenger/internal/middleware"
	"him-messenger/internal/mocks"
	"him-messenger/internal/ws"
)

func echoHandler(captured *function.Event) function.Handler {
	return function.HandlerFunc(func(_ context.Context, ev function.Event) function.Response {
		*captured = ev
		return function.OK(map[string]string{"status": "ok"})
	})
}

func TestInvokeBindsEvent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID())

	var captured function.Event
	r.Any("/fn", Invoke(echoHandler(&captured)))

	body := bytes.NewBufferString(`{"action":"send"}`)
	req := httptest.NewRequest(http.MethodPost, "/fn?chat_id=5&limit=10", body)
	req.Header.Set("Authorization", "Bearer abc")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, http.MethodPost, captured.HTTPMethod)
	require.Equal(t, `{"action":"send"}`, captured.Body)
	require.Equal(t, "5", captured.QueryStringParameters["chat_id"])
	require.Equal(t, "10", captured.QueryStringParameters["limit"])
	require.Equal(t, "Bearer abc", captured.Header("Authorization"))
	require.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func TestInvokeWritesResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	handler := function.HandlerFunc(func(_ context.Context, _ function.Event) function.Response {
		return function.Response{
			StatusCode: http.StatusConflict,
			Headers:    map[string]string{"Content-Type": "application/json", "X-Custom": "yes"},
			Body:       `{"error":"taken"}`,
		}
	})
	r.Any("/fn", Invoke(handler))

	req := httptest.NewRequest(http.MethodPost, "/fn", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "yes", rec.Header().Get("X-Custom"))
	require.JSONEq(t, `{"error":"taken"}`, rec.Body.String())
}

func TestInvokeReusesCallerRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID())
	r.Any("/fn", Invoke(function.HandlerFunc(func(_ context.Context, _ function.Event) function.Response {
		return function.OK(map[string]string{"status": "ok"})
	})))

	req := httptest.NewRequest(http.MethodGet, "/fn", nil)
	req.Header.Set(middleware.RequestIDHeader, "caller-id")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, "caller-id", rec.Header().Get(middleware.RequestIDHeader))
}

func TestRouterHealthz(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	tokens := auth.NewTokenManager("secret", time.Hour)
	hub := ws.NewHub(logger)
	chatWS := ws.NewChatWebSocketHandler(hub, new(mocks.ChatRepositoryMock), tokens, logger)

	noop := function.HandlerFunc(func(_ context.Context, _ function.Event) function.Response {
		return function.OK(map[string]string{"status": "ok"})
	})
	router := NewRouter(noop, noop, chatWS, logger)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
