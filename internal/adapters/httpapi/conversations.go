package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/recallo/recallo-cli/internal/domain"
)

const conversationsPath = "/api/conversations"

func (c *Client) CreateConversation(ctx context.Context, owner domain.OwnerID) (domain.Conversation, error) {
	if owner.IsZero() {
		return domain.Conversation{}, domain.ErrUnauthenticated
	}

	req, err := jsonRequest("create conversation", http.MethodPost, conversationsPath, createConversationRequest{
		UserID: string(owner),
		Title:  domain.DefaultConversationTitle,
	})
	if err != nil {
		return domain.Conversation{}, err
	}

	var payload conversationPayload
	if err := c.do(ctx, req, &payload); err != nil {
		return domain.Conversation{}, err
	}

	conversation := payload.toDomain()
	if conversation.ID.IsZero() {
		return domain.Conversation{}, &domain.RemoteError{Op: req.op, Err: errors.New("response is missing conversation_id")}
	}
	return conversation, nil
}

func (c *Client) ListConversations(ctx context.Context, owner domain.OwnerID) ([]domain.Conversation, error) {
	if owner.IsZero() {
		return nil, domain.ErrUnauthenticated
	}

	req := request{
		op:     "list conversations",
		method: http.MethodGet,
		path:   conversationsPath,
		query:  url.Values{"user_id": {string(owner)}},
	}

	var payload []conversationPayload
	if err := c.do(ctx, req, &payload); err != nil {
		return nil, err
	}

	conversations := make([]domain.Conversation, 0, len(payload))
	for _, entry := range payload {
		conversations = append(conversations, entry.toDomain())
	}
	return conversations, nil
}

func (c *Client) GetLogs(ctx context.Context, id domain.ConversationID) ([]domain.Turn, error) {
	req := request{
		op:       "get conversation logs",
		method:   http.MethodGet,
		path:     conversationPath(id) + "/logs",
		notFound: domain.ErrConversationNotFound,
	}

	var payload []turnPayload
	if err := c.do(ctx, req, &payload); err != nil {
		return nil, err
	}

	turns := make([]domain.Turn, 0, len(payload))
	for _, entry := range payload {
		turns = append(turns, domain.Turn{
			ID:              domain.TurnID(entry.ID),
			UserMessage:     entry.UserMessage,
			ResponseMessage: entry.ResponseMessage,
			CreatedAt:       entry.CreatedAt.Time(),
		})
	}
	return turns, nil
}

func (c *Client) RenameConversation(ctx context.Context, id domain.ConversationID, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.ErrEmptyTitle
	}

	req, err := jsonRequest("rename conversation", http.MethodPut, conversationPath(id), renameConversationRequest{Title: title})
	if err != nil {
		return err
	}
	req.notFound = domain.ErrConversationNotFound

	return c.do(ctx, req, nil)
}

func (c *Client) DeleteConversation(ctx context.Context, id domain.ConversationID) error {
	return c.do(ctx, request{
		op:       "delete conversation",
		method:   http.MethodDelete,
		path:     conversationPath(id),
		notFound: domain.ErrConversationNotFound,
	}, nil)
}

func conversationPath(id domain.ConversationID) string {
	return fmt.Sprintf("%s/%s", conversationsPath, url.PathEscape(string(id)))
}
