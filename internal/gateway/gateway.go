// Package gateway adapts HTTP traffic to the transport-agnostic function
// contract. It owns routing, middleware and the Event/Response translation;
// all request semantics stay inside the handler cores.
package gateway

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"him-messenger/internal/function"
	"him-messenger/internal/handlers"
	"him-messenger/internal/middleware"
	"him-messenger/internal/observability"
	"him-messenger/internal/ws"
)

// BindEvent converts an incoming HTTP request into a function event.
func BindEvent(c *gin.Context) function.Event {
	headers := make(map[string]string, len(c.Request.Header))
	for key, values := range c.Request.Header {
		if len(values) > 0 {
			headers[key] = values[0]
		}
	}

	params := map[string]string{}
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}

	var body string
	if c.Request.Body != nil {
		raw, err := io.ReadAll(c.Request.Body)
		if err == nil {
			body = string(raw)
		}
	}

	return function.Event{
		HTTPMethod:            c.Request.Method,
		Headers:               headers,
		Body:                  body,
		QueryStringParameters: params,
	}
}

// WriteResponse renders a function response onto the HTTP connection.
func WriteResponse(c *gin.Context, resp function.Response) {
	for key, value := range resp.Headers {
		c.Writer.Header().Set(key, value)
	}
	c.Status(resp.StatusCode)
	if resp.Body != "" {
		_, _ = c.Writer.WriteString(resp.Body)
	}
}

// Invoke wraps a function handler as a gin handler.
func Invoke(handler function.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := handlers.WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
		WriteResponse(c, handler.Handle(ctx, BindEvent(c)))
	}
}

// NewRouter assembles the gin engine with the middleware chain and all
// routes.
func NewRouter(
	authFn function.Handler,
	messagesFn function.Handler,
	chatWS *ws.ChatWebSocketHandler,
	logger *zap.Logger,
) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.AccessLog(logger),
		observability.HTTPMetricsMiddleware(),
		otelgin.Middleware("him-messenger"),
	)

	router.Any("/auth", Invoke(authFn))
	router.Any("/messages", Invoke(messagesFn))
	router.GET("/ws/chats/:chat_id", chatWS.Handle)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router
}
