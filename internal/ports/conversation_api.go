package ports

import (
	"context"

	"github.com/recallo/recallo-cli/internal/domain"
)

// ConversationAPI is the remote conversation store. Logs are returned oldest
// first; a missing conversation is reported as domain.ErrConversationNotFound.
type ConversationAPI interface {
	CreateConversation(ctx context.Context, owner domain.OwnerID) (domain.Conversation, error)
	ListConversations(ctx context.Context, owner domain.OwnerID) ([]domain.Conversation, error)
	GetLogs(ctx context.Context, id domain.ConversationID) ([]domain.Turn, error)
	RenameConversation(ctx context.Context, id domain.ConversationID, title string) error
	DeleteConversation(ctx context.Context, id domain.ConversationID) error
}
