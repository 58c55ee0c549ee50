package transcript

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/recallo/recallo-cli/internal/application"
	"github.com/recallo/recallo-cli/internal/domain"
)

type RenderOptions struct {
	Width int
	// Markdown renders assistant replies through glamour.
	Markdown bool
	// Style is a glamour standard style name; empty picks one from the terminal.
	Style string
	// PendingLabel replaces the default placeholder text, e.g. with a spinner frame.
	PendingLabel string
}

const (
	defaultWidth        = 80
	defaultPendingLabel = "thinking..."
)

// Format renders the messages and status line of view.
func Format(view application.View, opts RenderOptions) (string, error) {
	s := newStyles()
	md, err := newMarkdown(opts)
	if err != nil {
		return "", err
	}

	lines := []string{s.title.Render(conversationTitle(view))}
	if view.DocumentMode {
		document := "no document"
		if view.LastUpload != nil {
			document = view.LastUpload.Name
		}
		lines = append(lines, s.header.Render("document mode: "+document))
	}

	if len(view.Messages) == 0 {
		lines = append(lines, s.empty.Render("No messages yet."))
	}
	for _, message := range view.Messages {
		block, err := renderMessage(message, opts, md, s)
		if err != nil {
			return "", err
		}
		lines = append(lines, s.section.Render(block))
	}

	if view.Notice != "" {
		lines = append(lines, s.section.Render(s.notice.Render(view.Notice)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...), nil
}

// FormatConversations renders the conversation list, marking the active one.
func FormatConversations(conversations []domain.Conversation, active domain.ConversationID, now time.Time) string {
	s := newStyles()
	lines := []string{
		s.title.Render("Conversations"),
		s.header.Render(fmt.Sprintf("conversations: %d", len(conversations))),
	}
	if len(conversations) == 0 {
		lines = append(lines, s.empty.Render("No conversations yet."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, conversation := range conversations {
		marker := "  "
		title := s.body.Render(conversation.Title)
		if conversation.ID == active {
			marker = "* "
			title = s.active.Render(conversation.Title)
		}
		line := lipgloss.JoinHorizontal(lipgloss.Top,
			marker,
			title,
			" ",
			s.meta.Render(fmt.Sprintf("(%s, %s)", conversation.ID, relative(conversation, now))),
		)
		lines = append(lines, line)
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderMessage(message domain.Message, opts RenderOptions, md *glamour.TermRenderer, s styles) (string, error) {
	if message.Role == domain.RoleUser {
		if message.Kind == domain.MessageKindUpload {
			return s.upload.Render("📎 " + message.Text), nil
		}
		return lipgloss.JoinVertical(lipgloss.Left, s.user.Render("You"), s.body.Render(wrap(message.Text, opts))), nil
	}

	label := s.assistant.Render("Assistant")
	switch {
	case message.IsPending():
		pending := opts.PendingLabel
		if pending == "" {
			pending = defaultPendingLabel
		}
		return lipgloss.JoinVertical(lipgloss.Left, label, s.pending.Render(pending)), nil
	case message.Kind == domain.MessageKindStopped:
		return lipgloss.JoinVertical(lipgloss.Left, label, s.stopped.Render(message.Text)), nil
	case message.Status == domain.MessageStatusError:
		return lipgloss.JoinVertical(lipgloss.Left, label, s.failed.Render(message.Text)), nil
	}

	if md == nil {
		return lipgloss.JoinVertical(lipgloss.Left, label, s.body.Render(wrap(message.Text, opts))), nil
	}
	rendered, err := md.Render(message.Text)
	if err != nil {
		return "", fmt.Errorf("render markdown reply: %w", err)
	}
	return lipgloss.JoinVertical(lipgloss.Left, label, strings.Trim(rendered, "\n")), nil
}

func newMarkdown(opts RenderOptions) (*glamour.TermRenderer, error) {
	if !opts.Markdown {
		return nil, nil
	}

	style := glamour.WithAutoStyle()
	if opts.Style != "" {
		style = glamour.WithStandardStyle(opts.Style)
	}
	renderer, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width(opts)-4))
	if err != nil {
		return nil, fmt.Errorf("create markdown renderer: %w", err)
	}
	return renderer, nil
}

func conversationTitle(view application.View) string {
	if conversation, ok := view.ActiveConversation(); ok {
		return conversation.Title
	}
	if !view.ActiveConversationID.IsZero() {
		return string(view.ActiveConversationID)
	}
	return domain.DefaultConversationTitle
}

func wrap(text string, opts RenderOptions) string {
	return lipgloss.NewStyle().Width(width(opts)).Render(text)
}

func width(opts RenderOptions) int {
	if opts.Width <= 0 {
		return defaultWidth
	}
	return opts.Width
}

func relative(conversation domain.Conversation, now time.Time) string {
	at := conversation.UpdatedAt
	if at.IsZero() {
		at = conversation.CreatedAt
	}
	if at.IsZero() || now.IsZero() {
		return "unknown"
	}

	elapsed := now.Sub(at)
	switch {
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		return fmt.Sprintf("%d min ago", int(elapsed.Minutes()))
	case elapsed < 24*time.Hour:
		return fmt.Sprintf("%d h ago", int(elapsed.Hours()))
	default:
		return at.Format("2006-01-02")
	}
}
