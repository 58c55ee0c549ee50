package application

import "github.com/recallo/recallo-cli/internal/domain"

// View is the render-ready state of a session. Slices are copies.
type View struct {
	Messages             []domain.Message
	ActiveConversationID domain.ConversationID
	Conversations        []domain.Conversation
	IsPending            bool
	PendingToken         RequestToken
	DocumentMode         bool
	Composer             string
	LastUpload           *domain.FileRef
	Notice               string
}

func (v View) ActiveConversation() (domain.Conversation, bool) {
	if v.ActiveConversationID.IsZero() {
		return domain.Conversation{}, false
	}
	for _, conversation := range v.Conversations {
		if conversation.ID == v.ActiveConversationID {
			return conversation, true
		}
	}
	return domain.Conversation{}, false
}

// LastUserMessage returns the most recent editable message, used by views
// that offer "edit previous".
func (v View) LastUserMessage() (domain.Message, bool) {
	for i := len(v.Messages) - 1; i >= 0; i-- {
		if v.Messages[i].Editable() {
			return v.Messages[i], true
		}
	}
	return domain.Message{}, false
}
