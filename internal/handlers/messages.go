package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
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

const listMessagesLimit = 100

// MessageBroadcaster fans a stored message out to connected websocket
// clients.
type MessageBroadcaster interface {
	BroadcastMessage(chatID int, msg models.MessageWithSender)
}

// MessagesFunction is the stateless handler core for listing messages,
// sending messages and creating chats.
type MessagesFunction struct {
	chats     repositories.ChatRepository
	messages  repositories.MessageRepository
	users     repositories.UserRepository
	tokens    *auth.TokenManager
	hub       MessageBroadcaster
	publisher telemetry.Publisher
	logger    *zap.Logger
}

// NewMessagesFunction builds a MessagesFunction.
func NewMessagesFunction(
	chats repositories.ChatRepository,
	messages repositories.MessageRepository,
	users repositories.UserRepository,
	tokens *auth.TokenManager,
	hub MessageBroadcaster,
	publisher telemetry.Publisher,
	logger *zap.Logger,
) *MessagesFunction {
	return &MessagesFunction{
		chats:     chats,
		messages:  messages,
		users:     users,
		tokens:    tokens,
		hub:       hub,
		publisher: publisher,
		logger:    logger,
	}
}

type messagesRequest struct {
	Action    string `json:"action"`
	ChatID    int    `json:"chat_id"`
	SenderID  int    `json:"sender_id"`
	Content   string `json:"content"`
	CreatedBy int    `json:"created_by"`
	Name      string `json:"name"`
	IsGroup   bool   `json:"is_group"`
	Members   []int  `json:"participants"`
}

// Handle dispatches on method and action per the messaging contract.
func (f *MessagesFunction) Handle(ctx context.Context, ev function.Event) function.Response {
	switch ev.HTTPMethod {
	case http.MethodOptions:
		return function.Preflight()
	case http.MethodGet:
		data, err := f.list(ctx, ev)
		return f.respond(ctx, "list", data, err)
	case http.MethodPost:
		var req messagesRequest
		if err := json.Unmarshal([]byte(orEmptyObject(ev.Body)), &req); err != nil {
			return function.Error("Invalid request body", http.StatusBadRequest)
		}
		if req.Action == "" {
			req.Action = "send"
		}

		switch req.Action {
		case "send":
			data, err := f.send(ctx, ev, req)
			return f.respond(ctx, "send", data, err)
		case "create_chat":
			data, err := f.createChat(ctx, ev, req)
			return f.respond(ctx, "create_chat", data, err)
		default:
			return function.Error("Invalid action", http.StatusBadRequest)
		}
	default:
		return function.Error("Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (f *MessagesFunction) list(ctx context.Context, ev function.Event) (any, error) {
	rawChatID := ev.Query("chat_id")
	if rawChatID == "" {
		return nil, apperrors.Validation("chat_id parameter required")
	}
	chatID, err := strconv.Atoi(rawChatID)
	if err != nil {
		return nil, apperrors.Validation("chat_id must be a number")
	}

	msgs, err := f.messages.ListByChat(ctx, chatID, listMessagesLimit)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if msgs == nil {
		msgs = []models.MessageWithSender{}
	}

	return map[string]any{"messages": msgs, "chat_id": chatID}, nil
}

func (f *MessagesFunction) send(ctx context.Context, ev function.Event, req messagesRequest) (any, error) {
	content := strings.TrimSpace(req.Content)
	if req.ChatID == 0 || req.SenderID == 0 || content == "" {
		return nil, apperrors.Validation("chat_id, sender_id, and content are required")
	}

	if err := f.authorize(ev, req.SenderID); err != nil {
		return nil, err
	}

	member, err := f.chats.IsParticipant(ctx, req.ChatID, req.SenderID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if !member {
		return nil, apperrors.Forbidden("Sender is not a participant of this chat")
	}

	msg, err := f.messages.Create(ctx, req.ChatID, req.SenderID, content)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	enriched := models.MessageWithSender{Message: msg}
	profile, err := f.users.GetProfile(ctx, req.SenderID)
	if err != nil && !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, apperrors.Internal(err)
	}
	if err == nil {
		enriched.Username = profile.Username
		enriched.CustomID = profile.CustomID
		enriched.IsPremium = profile.IsPremium
		enriched.IsVerified = profile.IsVerified
	}

	if f.hub != nil {
		f.hub.BroadcastMessage(msg.ChatID, enriched)
	}
	f.publish(ctx, "messages.sent", enriched)

	return map[string]any{"message": enriched, "status": "sent"}, nil
}

func (f *MessagesFunction) createChat(ctx context.Context, ev function.Event, req messagesRequest) (any, error) {
	if req.CreatedBy == 0 {
		return nil, apperrors.Validation("created_by is required")
	}

	if err := f.authorize(ev, req.CreatedBy); err != nil {
		return nil, err
	}

	// Direct chats are deduplicated: at most one non-group chat per pair of
	// participants.
	if !req.IsGroup && len(req.Members) == 2 {
		existing, err := f.chats.FindDirectChat(ctx, req.Members[0], req.Members[1])
		if err == nil {
			return map[string]any{"chat_id": existing.ID, "status": "existing_chat"}, nil
		}
		if !errors.Is(err, repositories.ErrChatNotFound) {
			return nil, apperrors.Internal(err)
		}
	}

	chat, err := f.chats.CreateChat(ctx, req.Name, req.IsGroup, req.CreatedBy, req.Members)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	f.publish(ctx, "chats.created", chat)
	return map[string]any{"chat": chat, "status": "created"}, nil
}

// authorize requires a valid bearer token belonging to the acting user.
// Field presence alone is not authorization.
func (f *MessagesFunction) authorize(ev function.Event, actorID int) error {
	raw, err := auth.FromBearerHeader(ev.Header("Authorization"))
	if err != nil {
		return apperrors.Auth("Invalid token")
	}
	claims, err := f.tokens.Verify(raw)
	if err != nil {
		return apperrors.Auth("Invalid token")
	}
	tokenUserID, err := claims.Subject()
	if err != nil {
		return apperrors.Auth("Invalid token")
	}
	if tokenUserID != actorID {
		return apperrors.Forbidden("Token does not match the acting user")
	}
	return nil
}

func (f *MessagesFunction) publish(ctx context.Context, routingKey string, event any) {
	if f.publisher == nil {
		return
	}
	if err := f.publisher.Publish(ctx, routingKey, event); err != nil {
		f.logger.Warn("event publish failed", zap.String("routing_key", routingKey), zap.Error(err))
	}
}

func (f *MessagesFunction) respond(ctx context.Context, operation string, data any, opErr error) function.Response {
	if opErr != nil {
		observability.IncFunctionOp("messages", operation, outcomeLabel(opErr))
		return errorResponse(ctx, f.logger, opErr)
	}
	observability.IncFunctionOp("messages", operation, "success")
	return function.OK(data)
}
