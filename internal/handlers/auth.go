package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"him-messenger/internal/apperrors"
	"him-messenger/internal/auth"
	"him-messenger/internal/function"
	"him-messenger/internal/models"
	"him-messenger/internal/observability"
	"him-messenger/internal/repositories"
	"him-messenger/internal/telemetry"
)

// AuthFunction is the stateless handler core for registration, login and
// token verification.
type AuthFunction struct {
	users  repositories.UserRepository
	tokens *auth.TokenManager
	audit  *telemetry.AuditEmitter
	logger *zap.Logger
}

// NewAuthFunction builds an AuthFunction.
func NewAuthFunction(users repositories.UserRepository, tokens *auth.TokenManager, audit *telemetry.AuditEmitter, logger *zap.Logger) *AuthFunction {
	return &AuthFunction{users: users, tokens: tokens, audit: audit, logger: logger}
}

type authRequest struct {
	Action   string `json:"action"`
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type authResponse struct {
	Token   string      `json:"token"`
	User    models.User `json:"user"`
	Message string      `json:"message"`
}

// Handle dispatches on method and action per the auth contract.
func (f *AuthFunction) Handle(ctx context.Context, ev function.Event) function.Response {
	switch ev.HTTPMethod {
	case http.MethodOptions:
		return function.Preflight()
	case http.MethodPost:
		var req authRequest
		if err := json.Unmarshal([]byte(orEmptyObject(ev.Body)), &req); err != nil {
			return function.Error("Invalid request body", http.StatusBadRequest)
		}
		req.Username = strings.TrimSpace(req.Username)
		req.Email = strings.TrimSpace(req.Email)

		switch req.Action {
		case "register":
			data, err := f.register(ctx, req)
			return f.respond(ctx, "register", data, err)
		case "login":
			data, err := f.login(ctx, req)
			return f.respond(ctx, "login", data, err)
		default:
			return function.Error("Invalid action", http.StatusBadRequest)
		}
	case http.MethodGet:
		data, err := f.verify(ctx, ev)
		return f.respond(ctx, "verify", data, err)
	default:
		return function.Error("Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (f *AuthFunction) register(ctx context.Context, req authRequest) (any, error) {
	if len(req.Username) < 3 {
		return nil, apperrors.Validation("Username must be at least 3 characters")
	}
	if len(req.Password) < 6 {
		return nil, apperrors.Validation("Password must be at least 6 characters")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	user, err := f.users.CreateUser(ctx, req.Username, req.Email, hash)
	if errors.Is(err, repositories.ErrUserExists) {
		return nil, apperrors.Conflict("Username or email already exists")
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	token, err := f.tokens.Issue(user)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	f.emitAudit(ctx, "INFO", "user registered", &user.ID)
	return authResponse{Token: token, User: user, Message: "Registration successful"}, nil
}

func (f *AuthFunction) login(ctx context.Context, req authRequest) (any, error) {
	// Unknown user and wrong password answer identically so usernames
	// cannot be enumerated.
	user, err := f.users.GetByUsername(ctx, req.Username)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return nil, apperrors.Auth("Invalid username or password")
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		f.emitAudit(ctx, "WARN", "failed login attempt", &user.ID)
		return nil, apperrors.Auth("Invalid username or password")
	}

	token, err := f.tokens.Issue(user)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	f.emitAudit(ctx, "INFO", "user logged in", &user.ID)
	return authResponse{Token: token, User: user, Message: "Login successful"}, nil
}

// verify validates the bearer token and answers with the current user row,
// so flags and balances reflect the latest state rather than a token-time
// snapshot. Every failure cause collapses into the same 401.
func (f *AuthFunction) verify(ctx context.Context, ev function.Event) (any, error) {
	raw, err := auth.FromBearerHeader(ev.Header("Authorization"))
	if err != nil {
		return nil, apperrors.Auth("Invalid token")
	}
	claims, err := f.tokens.Verify(raw)
	if err != nil {
		return nil, apperrors.Auth("Invalid token")
	}
	userID, err := claims.Subject()
	if err != nil {
		return nil, apperrors.Auth("Invalid token")
	}

	user, err := f.users.GetByID(ctx, userID)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return nil, apperrors.Auth("Invalid token")
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return map[string]any{"user": user, "valid": true}, nil
}

func (f *AuthFunction) respond(ctx context.Context, operation string, data any, opErr error) function.Response {
	if opErr != nil {
		observability.IncFunctionOp("auth", operation, outcomeLabel(opErr))
		return errorResponse(ctx, f.logger, opErr)
	}
	observability.IncFunctionOp("auth", operation, "success")
	return function.OK(data)
}

func (f *AuthFunction) emitAudit(ctx context.Context, level, text string, userID *int) {
	f.audit.Emit(ctx, level, text, requestIDFromContext(ctx), userID)
}
