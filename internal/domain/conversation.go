package domain

import (
	"sort"
	"strings"
	"time"
)

type ConversationID string
type OwnerID string
type TurnID string

const DefaultConversationTitle = "New Chat"

type Conversation struct {
	ID        ConversationID
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Turn is one persisted log entry: a user message and the reply stored with it.
type Turn struct {
	ID              TurnID
	UserMessage     string
	ResponseMessage string
	CreatedAt       time.Time
}

func (id ConversationID) IsZero() bool {
	return strings.TrimSpace(string(id)) == ""
}

func (id OwnerID) IsZero() bool {
	return strings.TrimSpace(string(id)) == ""
}

// SortByRecency orders conversations most recently updated first; ties keep
// their input order.
func SortByRecency(conversations []Conversation) {
	sort.SliceStable(conversations, func(i, j int) bool {
		return recency(conversations[i]).After(recency(conversations[j]))
	})
}

func recency(c Conversation) time.Time {
	if c.UpdatedAt.IsZero() {
		return c.CreatedAt
	}
	return c.UpdatedAt
}
