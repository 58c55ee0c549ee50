package transcript

import (
	"testing"
	"time"

	"github.com/recallo/recallo-cli/internal/application"
	"github.com/recallo/recallo-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderConversationTranscript(t *testing.T) {
	view := application.View{
		ActiveConversationID: "conv-1",
		Conversations:        []domain.Conversation{{ID: "conv-1", Title: "Biology revision"}},
		Messages: []domain.Message{
			{ID: "m1", Role: domain.RoleUser, Kind: domain.MessageKindText, Text: "What is osmosis?", Status: domain.MessageStatusComplete},
			{ID: "m2", Role: domain.RoleAssistant, Kind: domain.MessageKindText, Text: "Water moving across a membrane.", Status: domain.MessageStatusComplete},
			{ID: "m3", Role: domain.RoleUser, Kind: domain.MessageKindText, Text: "And diffusion?", Status: domain.MessageStatusComplete},
			{ID: "pending-1", Role: domain.RoleAssistant, Kind: domain.MessageKindText, Status: domain.MessageStatusPending},
		},
		IsPending: true,
	}

	output, err := Render(view, RenderOptions{Width: 60})

	require.NoError(t, err)
	assert.Contains(t, output, "Biology revision")
	assert.Contains(t, output, "You")
	assert.Contains(t, output, "What is osmosis?")
	assert.Contains(t, output, "Assistant")
	assert.Contains(t, output, "Water moving across a membrane.")
	assert.Contains(t, output, "thinking...")
	assert.NotContains(t, output, "No messages yet.")
}

func TestRenderStoppedFailedAndUploadEntries(t *testing.T) {
	view := application.View{
		DocumentMode: true,
		LastUpload:   &domain.FileRef{Name: "notes.pdf", RemoteID: "doc-1"},
		Messages: []domain.Message{
			{ID: "u1", Role: domain.RoleUser, Kind: domain.MessageKindUpload, Text: "uploaded: notes.pdf", Status: domain.MessageStatusComplete},
			{ID: "a1", Role: domain.RoleAssistant, Kind: domain.MessageKindStopped, Text: "Stopped by user.", Status: domain.MessageStatusComplete},
			{ID: "a2", Role: domain.RoleAssistant, Kind: domain.MessageKindText, Text: "Something went wrong. Please try again.", Status: domain.MessageStatusError},
		},
		Notice: "File is too large. Max size is 5MB.",
	}

	output, err := Render(view, RenderOptions{PendingLabel: "waiting"})

	require.NoError(t, err)
	assert.Contains(t, output, domain.DefaultConversationTitle)
	assert.Contains(t, output, "document mode: notes.pdf")
	assert.Contains(t, output, "uploaded: notes.pdf")
	assert.Contains(t, output, "Stopped by user.")
	assert.Contains(t, output, "Something went wrong. Please try again.")
	assert.Contains(t, output, "File is too large. Max size is 5MB.")
	assert.NotContains(t, output, "waiting")
}

func TestRenderUsesPendingLabel(t *testing.T) {
	view := application.View{
		Messages: []domain.Message{
			{ID: "pending-1", Role: domain.RoleAssistant, Status: domain.MessageStatusPending},
		},
	}

	output, err := Format(view, RenderOptions{PendingLabel: "waiting"})

	require.NoError(t, err)
	assert.Contains(t, output, "waiting")
	assert.NotContains(t, output, "thinking...")
}

func TestRenderEmptyTranscript(t *testing.T) {
	output, err := Render(application.View{DocumentMode: true}, RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "document mode: no document")
	assert.Contains(t, output, "No messages yet.")
}

func TestFormatRendersMarkdownReplies(t *testing.T) {
	view := application.View{
		Messages: []domain.Message{
			{ID: "a1", Role: domain.RoleAssistant, Kind: domain.MessageKindText, Text: "# Leitner\n\n- box one\n- box two", Status: domain.MessageStatusComplete},
		},
	}

	output, err := Format(view, RenderOptions{Markdown: true, Style: "notty", Width: 60})

	require.NoError(t, err)
	assert.Contains(t, output, "Leitner")
	assert.Contains(t, output, "box one")
	assert.Contains(t, output, "box two")
}

func TestFormatConversations(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	output := FormatConversations([]domain.Conversation{
		{ID: "conv-2", Title: "Chemistry", UpdatedAt: now.Add(-5 * time.Minute)},
		{ID: "conv-1", Title: "Biology", CreatedAt: now.Add(-3 * time.Hour)},
		{ID: "conv-0", Title: "History", UpdatedAt: now.Add(-72 * time.Hour)},
	}, "conv-1", now)

	assert.Contains(t, output, "conversations: 3")
	assert.Contains(t, output, "Chemistry")
	assert.Contains(t, output, "5 min ago")
	assert.Contains(t, output, "(conv-1, 3 h ago)")
	assert.Contains(t, output, "2026-02-26")
}

func TestFormatConversationsEmpty(t *testing.T) {
	output := FormatConversations(nil, "", time.Time{})

	assert.Contains(t, output, "conversations: 0")
	assert.Contains(t, output, "No conversations yet.")
}
