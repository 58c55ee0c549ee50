package domain

import (
	"strings"
	"time"
)

type MessageID string
type Role string
type MessageStatus string
type MessageKind string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"

	MessageStatusPending  MessageStatus = "pending"
	MessageStatusComplete MessageStatus = "complete"
	MessageStatusError    MessageStatus = "error"

	// MessageKindText is a regular chat turn.
	MessageKindText MessageKind = "text"
	// MessageKindStopped marks an assistant entry left behind by a user cancel.
	MessageKindStopped MessageKind = "stopped"
	// MessageKindUpload is the informational entry appended after a file pick.
	MessageKindUpload MessageKind = "upload"
)

type Message struct {
	ID        MessageID
	Role      Role
	Kind      MessageKind
	Text      string
	Status    MessageStatus
	CreatedAt time.Time
}

func (m Message) IsPending() bool {
	return m.Status == MessageStatusPending
}

func (m Message) Editable() bool {
	return m.Role == RoleUser && m.Kind != MessageKindUpload
}

func IsBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}
