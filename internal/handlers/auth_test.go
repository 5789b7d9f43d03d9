package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"him-messenger/internal/auth"
	"him-messenger/internal/function"
	"him-messenger/internal/mocks"
	"him-messenger/internal/models"
	"him-messenger/internal/repositories"
	"him-messenger/internal/telemetry"
)

const testSecret = "test-secret"

func newAuthFunction(users *mocks.UserRepositoryMock) *AuthFunction {
	logger := zap.NewNop()
	tokens := auth.NewTokenManager(testSecret, 7*24*time.Hour)
	audit := telemetry.NewAuditEmitter(nil, "audit.test", "him-messenger", "test", logger)
	return NewAuthFunction(users, tokens, audit, logger)
}

func postEvent(body string) function.Event {
	return function.Event{
		HTTPMethod: http.MethodPost,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}
}

func decodeBody(t *testing.T, resp function.Response) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &payload))
	return payload
}

func TestAuthPreflight(t *testing.T) {
	fn := newAuthFunction(new(mocks.UserRepositoryMock))

	resp := fn.Handle(context.Background(), function.Event{HTTPMethod: http.MethodOptions})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Empty(t, resp.Body)
	require.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
	require.Equal(t, "GET, POST, OPTIONS", resp.Headers["Access-Control-Allow-Methods"])
	require.Equal(t, "Content-Type, Authorization", resp.Headers["Access-Control-Allow-Headers"])
	require.Equal(t, "86400", resp.Headers["Access-Control-Max-Age"])
}

func TestRegisterShortUsername(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	fn := newAuthFunction(users)

	resp := fn.Handle(context.Background(), postEvent(`{"action":"register","username":"ab","password":"secret1"}`))

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	users.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRegisterShortPassword(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	fn := newAuthFunction(users)

	resp := fn.Handle(context.Background(), postEvent(`{"action":"register","username":"alice","password":"short"}`))

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	users.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRegisterSuccess(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	fn := newAuthFunction(users)

	stored := models.User{
		ID:       1,
		Username: "alice",
		CustomID: "USER123456",
		HimCoins: 100,
	}
	users.On("CreateUser", mock.Anything, "alice", "alice@example.com", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) {
			hash := args.String(3)
			require.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("secret1")))
		}).
		Return(stored, nil).Once()

	resp := fn.Handle(context.Background(), postEvent(`{"action":"register","username":"alice","password":"secret1","email":"alice@example.com"}`))

	require.Equal(t, http.StatusOK, resp.StatusCode)
	payload := decodeBody(t, resp)
	require.Equal(t, "Registration successful", payload["message"])

	user := payload["user"].(map[string]any)
	require.Equal(t, "alice", user["username"])
	require.Equal(t, float64(100), user["him_coins"])
	require.NotContains(t, user, "password_hash")
	require.Regexp(t, regexp.MustCompile(`^USER\d{6}$`), user["custom_id"])

	tokens := auth.NewTokenManager(testSecret, time.Hour)
	claims, err := tokens.Verify(payload["token"].(string))
	require.NoError(t, err)
	require.Equal(t, "1", claims.UserID)
	require.Equal(t, "alice", claims.Username)

	users.AssertExpectations(t)
}

func TestRegisterConflict(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	fn := newAuthFunction(users)

	users.On("CreateUser", mock.Anything, "alice", "", mock.AnythingOfType("string")).
		Return(models.User{}, repositories.ErrUserExists).Once()

	resp := fn.Handle(context.Background(), postEvent(`{"action":"register","username":"alice","password":"secret1"}`))

	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, "Username or email already exists", decodeBody(t, resp)["error"])
	users.AssertExpectations(t)
}

func TestLoginSuccess(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	fn := newAuthFunction(users)

	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)
	users.On("GetByUsername", mock.Anything, "alice").
		Return(models.User{ID: 7, Username: "alice", PasswordHash: string(hash)}, nil).Once()

	resp := fn.Handle(context.Background(), postEvent(`{"action":"login","username":"alice","password":"secret1"}`))

	require.Equal(t, http.StatusOK, resp.StatusCode)
	payload := decodeBody(t, resp)
	require.Equal(t, "Login successful", payload["message"])
	require.NotContains(t, payload["user"].(map[string]any), "password_hash")

	tokens := auth.NewTokenManager(testSecret, time.Hour)
	claims, err := tokens.Verify(payload["token"].(string))
	require.NoError(t, err)
	require.Equal(t, "7", claims.UserID)
	users.AssertExpectations(t)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	fn := newAuthFunction(users)

	users.On("GetByUsername", mock.Anything, "ghost").
		Return(models.User{}, repositories.ErrUserNotFound).Once()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)
	users.On("GetByUsername", mock.Anything, "alice").
		Return(models.User{ID: 7, Username: "alice", PasswordHash: string(hash)}, nil).Once()

	unknownUser := fn.Handle(context.Background(), postEvent(`{"action":"login","username":"ghost","password":"whatever"}`))
	wrongPassword := fn.Handle(context.Background(), postEvent(`{"action":"login","username":"alice","password":"nope"}`))

	require.Equal(t, http.StatusUnauthorized, unknownUser.StatusCode)
	require.Equal(t, http.StatusUnauthorized, wrongPassword.StatusCode)
	require.Equal(t, decodeBody(t, unknownUser)["error"], decodeBody(t, wrongPassword)["error"])
	users.AssertExpectations(t)
}

func TestVerifyValidToken(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	fn := newAuthFunction(users)

	tokens := auth.NewTokenManager(testSecret, time.Hour)
	token, err := tokens.Issue(models.User{ID: 7, Username: "alice"})
	require.NoError(t, err)

	current := models.User{ID: 7, Username: "alice", HimCoins: 250, IsPremium: true}
	users.On("GetByID", mock.Anything, 7).Return(current, nil).Once()

	resp := fn.Handle(context.Background(), function.Event{
		HTTPMethod: http.MethodGet,
		Headers:    map[string]string{"Authorization": "Bearer " + token},
	})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	payload := decodeBody(t, resp)
	require.Equal(t, true, payload["valid"])
	user := payload["user"].(map[string]any)
	require.Equal(t, float64(250), user["him_coins"])
	require.Equal(t, true, user["is_premium"])
	users.AssertExpectations(t)
}

func TestVerifyFailures(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	fn := newAuthFunction(users)

	expired := auth.NewTokenManager(testSecret, -time.Hour)
	expiredToken, err := expired.Issue(models.User{ID: 7, Username: "alice"})
	require.NoError(t, err)

	tokens := auth.NewTokenManager(testSecret, time.Hour)
	validToken, err := tokens.Issue(models.User{ID: 7, Username: "alice"})
	require.NoError(t, err)

	users.On("GetByID", mock.Anything, 7).Return(models.User{}, repositories.ErrUserNotFound).Once()

	cases := map[string]map[string]string{
		"missing header":  {},
		"not bearer":      {"Authorization": "Basic abc"},
		"malformed token": {"Authorization": "Bearer not.a.token"},
		"expired token":   {"Authorization": "Bearer " + expiredToken},
		"tampered token":  {"Authorization": "Bearer " + validToken + "x"},
		"user gone":       {"Authorization": "Bearer " + validToken},
	}

	for name, headers := range cases {
		resp := fn.Handle(context.Background(), function.Event{HTTPMethod: http.MethodGet, Headers: headers})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode, name)
		require.Equal(t, "Invalid token", decodeBody(t, resp)["error"], name)
	}
	users.AssertExpectations(t)
}

func TestAuthInvalidAction(t *testing.T) {
	fn := newAuthFunction(new(mocks.UserRepositoryMock))

	resp := fn.Handle(context.Background(), postEvent(`{"action":"destroy"}`))

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "Invalid action", decodeBody(t, resp)["error"])
}

func TestAuthMethodNotAllowed(t *testing.T) {
	fn := newAuthFunction(new(mocks.UserRepositoryMock))

	resp := fn.Handle(context.Background(), function.Event{HTTPMethod: http.MethodDelete})

	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestAuthMalformedBody(t *testing.T) {
	fn := newAuthFunction(new(mocks.UserRepositoryMock))

	resp := fn.Handle(context.Background(), postEvent(`{"action":`))

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
