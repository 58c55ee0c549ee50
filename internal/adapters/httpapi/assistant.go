package httpapi

import (
	"context"
	"net/http"

	"github.com/recallo/recallo-cli/internal/domain"
	"github.com/recallo/recallo-cli/internal/ports"
)

const (
	chatPath = "/chat"
	askPath  = "/ask"
)

// Ask posts to /chat for open conversation and to /ask for questions grounded
// in the uploaded document.
func (c *Client) Ask(ctx context.Context, ask ports.AskRequest) (ports.AskResponse, error) {
	if ask.Owner.IsZero() {
		return ports.AskResponse{}, domain.ErrUnauthenticated
	}

	path, op := chatPath, "chat"
	payload := chatRequest{
		Message:        ask.Question,
		UserID:         string(ask.Owner),
		ConversationID: string(ask.ConversationID),
	}
	if ask.Mode == ports.AskModeDocument {
		path, op = askPath, "ask document"
		if ask.Document != nil {
			payload.FileUUID = ask.Document.RemoteID
		}
	}

	req, err := jsonRequest(op, http.MethodPost, path, payload)
	if err != nil {
		return ports.AskResponse{}, err
	}

	var response chatResponse
	if err := c.do(ctx, req, &response); err != nil {
		return ports.AskResponse{}, err
	}

	conversationID := domain.ConversationID(response.ConversationID)
	if conversationID.IsZero() {
		conversationID = ask.ConversationID
	}
	return ports.AskResponse{Text: response.Response, ConversationID: conversationID}, nil
}
