package handlers

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"him-messenger/internal/apperrors"
	"him-messenger/internal/function"
)

type contextKey string

const requestIDContextKey contextKey = "request_id"

// WithRequestID attaches a correlation id to the context. The gateway sets
// it for every request; cores fall back to a fresh id so 500 bodies always
// carry one.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, requestID)
}

func requestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDContextKey).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

// orEmptyObject substitutes an empty JSON object for a blank body.
func orEmptyObject(body string) string {
	if strings.TrimSpace(body) == "" {
		return "{}"
	}
	return body
}

// errorResponse translates an operation error into the boundary response.
// Internal causes are logged with the correlation id and never serialized.
func errorResponse(ctx context.Context, logger *zap.Logger, err error) function.Response {
	if apperrors.IsInternal(err) {
		requestID := requestIDFromContext(ctx)
		logger.Error("request failed",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return function.InternalError(requestID)
	}
	return function.Error(apperrors.ClientMessage(err), apperrors.StatusCode(err))
}

func outcomeLabel(err error) string {
	switch apperrors.StatusCode(err) {
	case 400:
		return "validation_error"
	case 401:
		return "auth_error"
	case 403:
		return "forbidden"
	case 404:
		return "not_found"
	case 405:
		return "method_not_allowed"
	case 409:
		return "conflict"
	default:
		return "error"
	}
}
