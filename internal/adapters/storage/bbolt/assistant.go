package bbolt

import (
	"context"
	"fmt"
	"strings"

	"github.com/recallo/recallo-cli/internal/domain"
	"github.com/recallo/recallo-cli/internal/ports"
)

// Assistant answers offline. It echoes the question, quoting the uploaded
// document in document mode, and records the turn like the backend does.
type Assistant struct {
	store *Store
}

var _ ports.AssistantAPI = (*Assistant)(nil)

func NewAssistant(store *Store) *Assistant {
	return &Assistant{store: store}
}

func (a *Assistant) Ask(ctx context.Context, req ports.AskRequest) (ports.AskResponse, error) {
	if req.Owner.IsZero() {
		return ports.AskResponse{}, domain.ErrUnauthenticated
	}

	conversationID := req.ConversationID
	if conversationID.IsZero() {
		conversation, err := a.store.CreateConversation(ctx, req.Owner)
		if err != nil {
			return ports.AskResponse{}, err
		}
		conversationID = conversation.ID
	}

	answer, err := a.answer(req)
	if err != nil {
		return ports.AskResponse{}, err
	}

	if _, err := a.store.AppendTurn(ctx, conversationID, req.Question, answer); err != nil {
		return ports.AskResponse{}, err
	}

	return ports.AskResponse{Text: answer, ConversationID: conversationID}, nil
}

func (a *Assistant) answer(req ports.AskRequest) (string, error) {
	question := strings.TrimSpace(req.Question)
	if req.Mode != ports.AskModeDocument {
		return fmt.Sprintf("_Offline mode._ You asked: **%s**", question), nil
	}
	if req.Document == nil {
		return "_Offline mode._ Upload a document before asking about it.", nil
	}

	document, ok, err := a.store.document(req.Owner, *req.Document)
	if err != nil {
		return "", fmt.Errorf("load document: %w", err)
	}
	if !ok {
		return fmt.Sprintf("_Offline mode._ %s is not stored on this device.", req.Document.Name), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "_Offline mode._ You asked about **%s**: %s", document.Name, question)
	if document.Excerpt != "" {
		b.WriteString("\n\n")
		for _, line := range strings.Split(document.Excerpt, "\n") {
			b.WriteString("> ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
