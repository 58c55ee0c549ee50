package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/recallo/recallo-cli/internal/adapters/render/transcript"
	"github.com/recallo/recallo-cli/internal/application"
	"github.com/recallo/recallo-cli/internal/domain"
	"github.com/spf13/cobra"
)

const chatHelp = "enter send · esc stop · ↑ edit last · ctrl+d document mode · /help"

const slashHelp = `/new                start a new conversation
/list               list conversations
/switch <id>        open a conversation
/rename <title>     rename the active conversation
/delete [id]        delete a conversation (default: active)
/upload <path>      upload a document
/doc                toggle document mode
/stop               stop the pending reply
/quit               leave`

func newChatCmd(app *app) *cobra.Command {
	var conversationID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Open an interactive chat session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := app.wire(ctx); err != nil {
				return err
			}

			if _, err := app.engine.RefreshConversations(ctx); err != nil {
				return app.explain(err)
			}
			if conversationID != "" {
				if err := app.engine.SwitchConversation(ctx, domain.ConversationID(conversationID)); err != nil {
					return app.explain(err)
				}
			}

			p := tea.NewProgram(
				newChatModel(ctx, app),
				tea.WithAltScreen(),
				tea.WithContext(ctx),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			)
			_, err := p.Run()
			if errors.Is(err, tea.ErrProgramKilled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&conversationID, "conversation", "c", "", "open an existing conversation")

	return cmd
}

type viewChangedMsg struct{}

type actionDoneMsg struct {
	status string
	panel  string
	err    error
}

type chatStyles struct {
	header lipgloss.Style
	status lipgloss.Style
	panel  lipgloss.Style
	help   lipgloss.Style
}

func newChatStyles() chatStyles {
	return chatStyles{
		header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		status: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		panel:  lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("241")).Padding(0, 1),
		help:   lipgloss.NewStyle().Faint(true),
	}
}

// chatModel binds the session engine to the terminal. It forwards intents
// and re-renders whenever the engine signals a change.
type chatModel struct {
	ctx    context.Context
	app    *app
	engine *application.SessionEngine

	input      textinput.Model
	transcript viewport.Model
	spinner    spinner.Model
	styles     chatStyles

	width  int
	height int
	status string
	panel  string
	quit   bool
}

func newChatModel(ctx context.Context, app *app) chatModel {
	input := textinput.New()
	input.Prompt = "❯ "
	input.Placeholder = "Ask about your study material..."
	input.CharLimit = 4000
	input.Focus()

	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	m := chatModel{
		ctx:        ctx,
		app:        app,
		engine:     app.engine,
		input:      input,
		transcript: viewport.New(80, 20),
		spinner:    sp,
		styles:     newChatStyles(),
		width:      80,
		height:     24,
	}
	m.refresh()
	return m
}

func (m chatModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, waitForUpdate(m.engine.Updates()))
}

func waitForUpdate(updates <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-updates; !ok {
			return nil
		}
		return viewChangedMsg{}
	}
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case viewChangedMsg:
		m.refresh()
		return m, waitForUpdate(m.engine.Updates())
	case actionDoneMsg:
		m.status = msg.status
		if msg.err != nil {
			m.status = m.engine.Describe(msg.err)
		}
		if msg.panel != "" {
			m.panel = msg.panel
		}
		m.refresh()
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.refresh()
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.engine.View().IsPending {
			m.refresh()
		}
		return m, cmd
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quit = true
			return m, tea.Quit
		case "esc":
			if m.panel != "" {
				m.panel = ""
				return m, nil
			}
			m.stop()
			return m, nil
		case "ctrl+d":
			m.toggleDocumentMode()
			return m, nil
		case "up":
			if m.input.Value() == "" {
				m.editPrevious()
				return m, nil
			}
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.transcript, cmd = m.transcript.Update(msg)
			return m, cmd
		case "enter":
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.engine.SetComposer(m.input.Value())

	return m, tea.Batch(cmds...)
}

func (m chatModel) View() string {
	if m.quit {
		return ""
	}

	view := m.engine.View()
	header := m.styles.header.Render("recallo") + " " + m.styles.status.Render(m.headerStatus(view))

	parts := []string{header, m.transcript.View()}
	if m.panel != "" {
		parts = append(parts, m.styles.panel.Render(m.panel))
	}
	parts = append(parts, m.input.View(), m.styles.help.Render(chatHelp))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m chatModel) headerStatus(view application.View) string {
	var fields []string
	fields = append(fields, string(m.app.cfg.Backend))
	if view.DocumentMode {
		fields = append(fields, "document mode")
	}
	if view.IsPending {
		fields = append(fields, m.spinner.View()+" waiting")
	}
	if m.status != "" {
		fields = append(fields, m.status)
	}
	return strings.Join(fields, " · ")
}

func (m *chatModel) resize() {
	m.input.Width = max(m.width-4, 10)
	m.transcript.Width = m.width

	reserved := 3
	if m.panel != "" {
		reserved += lipgloss.Height(m.styles.panel.Render(m.panel))
	}
	m.transcript.Height = max(m.height-reserved, 3)
}

func (m *chatModel) refresh() {
	opts := m.app.renderOptions()
	opts.Width = max(m.width-2, 20)
	opts.PendingLabel = m.spinner.View() + " thinking..."

	content, err := transcript.Format(m.engine.View(), opts)
	if err != nil {
		m.status = fmt.Sprintf("render failed: %v", err)
		return
	}
	m.transcript.SetContent(content)
	m.transcript.GotoBottom()
	m.resize()
}

func (m chatModel) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		// the engine reports blank input as an inline notice
		_, _ = m.engine.Send(m.ctx, text)
		m.status = ""
		m.refresh()
		return m, nil
	}

	m.input.Reset()
	m.engine.SetComposer("")
	m.panel = ""
	m.status = ""

	if strings.HasPrefix(text, "/") {
		return m, m.handleSlash(text)
	}

	ctx, engine := m.ctx, m.engine
	return m, func() tea.Msg {
		_, err := engine.Send(ctx, text)
		return actionDoneMsg{err: err}
	}
}

func (m *chatModel) handleSlash(raw string) tea.Cmd {
	parts := strings.Fields(raw)
	command := strings.ToLower(parts[0])
	rest := strings.TrimSpace(strings.TrimPrefix(raw, parts[0]))
	ctx, engine := m.ctx, m.engine
	now := m.app.now

	switch command {
	case "/help":
		m.panel = slashHelp
		return nil
	case "/quit", "/exit":
		m.quit = true
		return tea.Quit
	case "/stop":
		m.stop()
		return nil
	case "/doc":
		m.toggleDocumentMode()
		return nil
	case "/new":
		return func() tea.Msg {
			conversation, err := engine.NewConversation(ctx)
			return actionDoneMsg{status: "new conversation " + string(conversation.ID), err: err}
		}
	case "/list":
		return func() tea.Msg {
			list, err := engine.RefreshConversations(ctx)
			if err != nil {
				return actionDoneMsg{err: err}
			}
			return actionDoneMsg{panel: transcript.FormatConversations(list, engine.View().ActiveConversationID, now())}
		}
	case "/switch":
		if rest == "" {
			m.status = "usage: /switch <id>"
			return nil
		}
		return func() tea.Msg {
			err := engine.SwitchConversation(ctx, domain.ConversationID(rest))
			return actionDoneMsg{err: err}
		}
	case "/rename":
		active := engine.View().ActiveConversationID
		if active.IsZero() {
			m.status = "no active conversation"
			return nil
		}
		return func() tea.Msg {
			err := engine.RenameConversation(ctx, active, rest)
			return actionDoneMsg{status: "renamed", err: err}
		}
	case "/delete":
		target := domain.ConversationID(rest)
		if target.IsZero() {
			target = engine.View().ActiveConversationID
		}
		if target.IsZero() {
			m.status = "no active conversation"
			return nil
		}
		return func() tea.Msg {
			err := engine.DeleteConversation(ctx, target)
			return actionDoneMsg{status: "deleted " + string(target), err: err}
		}
	case "/upload":
		if rest == "" {
			m.status = "usage: /upload <path>"
			return nil
		}
		return func() tea.Msg {
			file, err := openPickedFile(rest)
			if err != nil {
				return actionDoneMsg{status: err.Error()}
			}
			ref, err := engine.PickFile(ctx, file)
			return actionDoneMsg{status: "uploaded " + ref.Name, err: err}
		}
	default:
		m.status = fmt.Sprintf("unknown command %s, try /help", command)
		return nil
	}
}

func (m *chatModel) stop() {
	if err := m.engine.Stop(); err != nil && !errors.Is(err, domain.ErrNoPendingRequest) {
		m.status = m.engine.Describe(err)
	}
}

func (m *chatModel) toggleDocumentMode() {
	if m.engine.ToggleDocumentMode() {
		m.status = "document mode on"
	} else {
		m.status = "document mode off"
	}
}

func (m *chatModel) editPrevious() {
	last, ok := m.engine.View().LastUserMessage()
	if !ok {
		return
	}
	text, err := m.engine.EditPrevious(last.ID)
	if err != nil {
		m.status = m.engine.Describe(err)
		return
	}
	m.input.SetValue(text)
	m.input.CursorEnd()
	m.refresh()
}
