package ports

import (
	"context"

	"github.com/recallo/recallo-cli/internal/domain"
)

type AskMode string

const (
	AskModeChat     AskMode = "chat"
	AskModeDocument AskMode = "document"
)

type AskRequest struct {
	Question       string
	Owner          domain.OwnerID
	ConversationID domain.ConversationID
	Mode           AskMode
	Document       *domain.FileRef
}

type AskResponse struct {
	Text           string
	ConversationID domain.ConversationID
}

// AssistantAPI is the opaque remote responder. Cancelling ctx asks the
// implementation to abort; callers must not rely on it actually stopping.
type AssistantAPI interface {
	Ask(ctx context.Context, req AskRequest) (AskResponse, error)
}
