package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionPrintsBuildVersion(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "version")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", stdout)
}

func TestAskRequiresProfile(t *testing.T) {
	home := localHome(t)

	_, _, err := executeCLI(t, home, "ask", "What is osmosis?")
	require.Error(t, err)
	assert.Equal(t, "Sign in to continue.", err.Error())
}

func TestProfileSetRequiresOwnerFlag(t *testing.T) {
	home := localHome(t)

	_, _, err := executeCLI(t, home, "profile", "set", "--email", "student@example.test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag(s) \"owner\" not set")
}

func TestProfileSetThenShow(t *testing.T) {
	home := localHome(t)

	stdout, _, err := executeCLI(t, home, "profile", "set", "--owner", "owner-1", "--email", "student@example.test")
	require.NoError(t, err)
	assert.Contains(t, stdout, "signed in as owner-1")

	stdout, _, err = executeCLI(t, home, "profile", "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, "owner:\towner-1")
	assert.Contains(t, stdout, "email:\tstudent@example.test")
	assert.Contains(t, stdout, "token key:\trecallo://owner-1/access_token")
	assert.Contains(t, stdout, "backend:\tlocal")
}

func TestAskLocalBackendPrintsTranscript(t *testing.T) {
	home := signedInLocalHome(t)

	stdout, _, err := executeCLI(t, home, "ask", "--plain", "What", "is", "osmosis?")
	require.NoError(t, err)
	assert.Contains(t, stdout, "You")
	assert.Contains(t, stdout, "What is osmosis?")
	assert.Contains(t, stdout, "Offline mode.")
	assert.Contains(t, stdout, "conversation: ")

	conversationID := conversationFromOutput(t, stdout)
	stdout, _, err = executeCLI(t, home, "ask", "--plain", "--conversation", conversationID, "And diffusion?")
	require.NoError(t, err)
	assert.Contains(t, stdout, "What is osmosis?")
	assert.Contains(t, stdout, "And diffusion?")
	assert.Contains(t, stdout, "conversation: "+conversationID)
}

func TestAskRejectsBlankQuestion(t *testing.T) {
	home := signedInLocalHome(t)

	_, _, err := executeCLI(t, home, "ask", "   ")
	require.Error(t, err)
	assert.Equal(t, "Type a question first.", err.Error())
}

func TestConversationLifecycle(t *testing.T) {
	home := signedInLocalHome(t)

	stdout, _, err := executeCLI(t, home, "conversation", "new")
	require.NoError(t, err)
	fields := strings.Split(strings.TrimSpace(stdout), "\t")
	require.Len(t, fields, 2)
	id := fields[0]
	assert.Equal(t, "New Chat", fields[1])

	stdout, _, err = executeCLI(t, home, "conversation", "rename", id, "Cell", "biology")
	require.NoError(t, err)
	assert.Contains(t, stdout, id+"\tCell biology")

	stdout, _, err = executeCLI(t, home, "conversation", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "conversations: 1")
	assert.Contains(t, stdout, "Cell biology")

	stdout, _, err = executeCLI(t, home, "conversation", "list", "--json")
	require.NoError(t, err)
	var listed []conversationJSON
	require.NoError(t, json.Unmarshal([]byte(stdout), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, id, listed[0].ID)

	_, _, err = executeCLI(t, home, "ask", "--conversation", id, "What is mitosis?")
	require.NoError(t, err)

	stdout, _, err = executeCLI(t, home, "conversation", "show", "--plain", id)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Cell biology")
	assert.Contains(t, stdout, "What is mitosis?")

	stdout, _, err = executeCLI(t, home, "conversation", "delete", id)
	require.NoError(t, err)
	assert.Contains(t, stdout, "deleted "+id)

	_, _, err = executeCLI(t, home, "conversation", "show", id)
	require.Error(t, err)
	assert.Equal(t, "That conversation no longer exists.", err.Error())
}

func TestConversationRenameRequiresTitle(t *testing.T) {
	home := signedInLocalHome(t)

	stdout, _, err := executeCLI(t, home, "conversation", "new")
	require.NoError(t, err)
	id := strings.Split(strings.TrimSpace(stdout), "\t")[0]

	_, _, err = executeCLI(t, home, "conversation", "rename", id, " ")
	require.Error(t, err)
	assert.Equal(t, "Title is required.", err.Error())
}

func TestUploadAndAskAboutDocument(t *testing.T) {
	home := signedInLocalHome(t)
	notes := writeFile(t, "notes.txt", "Osmosis moves water across a membrane.")

	stdout, _, err := executeCLI(t, home, "upload", notes)
	require.NoError(t, err)
	assert.Contains(t, stdout, "uploaded\tnotes.txt\t")

	stdout, _, err = executeCLI(t, home, "ask", "--plain", "--document", notes, "summarize")
	require.NoError(t, err)
	assert.Contains(t, stdout, "uploaded: notes.txt (already uploaded earlier)")
	assert.Contains(t, stdout, "document mode: notes.txt")
	assert.Contains(t, stdout, "> Osmosis moves water across a membrane.")
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	home := signedInLocalHome(t)
	slides := writeFile(t, "slides.pptx", "binary")

	_, _, err := executeCLI(t, home, "upload", slides)
	require.Error(t, err)
	assert.Equal(t, "Unsupported file type. Allowed: pdf, doc, docx, txt.", err.Error())
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	home := signedInLocalHome(t)
	t.Setenv("RECALLO_UPLOAD_MAX_BYTES", "8")
	notes := writeFile(t, "notes.txt", "longer than eight bytes")

	_, _, err := executeCLI(t, home, "upload", notes)
	require.Error(t, err)
	assert.Equal(t, "File is too large. Max size is 8 B.", err.Error())
}

func TestTokenSetAndClearUseFileFallback(t *testing.T) {
	home := signedInLocalHome(t)
	t.Setenv("PATH", t.TempDir())

	stdout, _, err := executeCLI(t, home, "token", "set", "--value", "tok-123")
	require.NoError(t, err)
	assert.Contains(t, stdout, "token stored under recallo://owner-1/access_token")

	secretPath := filepath.Join(home, ".recallo", "secrets", "recallo", "owner-1", "access_token")
	data, err := os.ReadFile(secretPath)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", strings.TrimSpace(string(data)))

	_, _, err = executeCLI(t, home, "token", "clear")
	require.NoError(t, err)
	_, err = os.Stat(secretPath)
	assert.True(t, os.IsNotExist(err))
}

func TestTokenSetRequiresValueOrStdin(t *testing.T) {
	home := signedInLocalHome(t)

	_, _, err := executeCLI(t, home, "token", "set")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one of the flags in the group [value stdin] is required")
}

func TestRemoteBackendSendsBearerToken(t *testing.T) {
	var gotAuth, gotOwner string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/conversations", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotOwner = r.URL.Query().Get("user_id")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"conversation_id":"c-2","title":"Chemistry","updated_at":"2026-03-01T10:00:00Z"},{"conversation_id":"c-1","title":"Biology","updated_at":"2026-02-01T10:00:00Z"}]`))
	}))
	t.Cleanup(server.Close)

	home := t.TempDir()
	t.Setenv("RECALLO_BACKEND", "remote")
	t.Setenv("PATH", t.TempDir())

	_, _, err := executeCLI(t, home, "profile", "set", "--owner", "owner-1")
	require.NoError(t, err)
	_, _, err = executeCLI(t, home, "token", "set", "--value", "tok-123")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "--base-url", server.URL, "conversation", "list")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "owner-1", gotOwner)
	assert.Contains(t, stdout, "conversations: 2")
	assert.Less(t, strings.Index(stdout, "Chemistry"), strings.Index(stdout, "Biology"))
}

func TestRemoteBackendFailureIsGeneric(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"database is locked"}`, http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	home := t.TempDir()
	t.Setenv("RECALLO_BACKEND", "remote")
	t.Setenv("PATH", t.TempDir())

	_, _, err := executeCLI(t, home, "profile", "set", "--owner", "owner-1")
	require.NoError(t, err)

	_, _, err = executeCLI(t, home, "--base-url", server.URL, "conversation", "list")
	require.Error(t, err)
	assert.Equal(t, "Something went wrong. Please try again.", err.Error())
	assert.NotContains(t, err.Error(), "database is locked")
}

func TestUnknownBackendIsAConfigError(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "--backend", "cloud", "conversation", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestChatModelSendsAndRendersReply(t *testing.T) {
	signedInLocalHome(t)

	_, app := newRootCmd()
	t.Cleanup(func() { _ = app.Close() })
	ctx := t.Context()
	require.NoError(t, app.wire(ctx))

	model := newChatModel(ctx, app)
	updated, _ := model.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	model = updated.(chatModel)

	model.input.SetValue("What is osmosis?")
	updated, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	model = updated.(chatModel)
	require.NotNil(t, cmd)
	assert.Empty(t, model.input.Value())

	done, ok := cmd().(actionDoneMsg)
	require.True(t, ok)
	require.NoError(t, done.err)

	require.Eventually(t, func() bool {
		view := app.engine.View()
		return !view.IsPending && len(view.Messages) == 2
	}, 2*time.Second, 10*time.Millisecond)

	updated, _ = model.Update(viewChangedMsg{})
	model = updated.(chatModel)
	rendered := model.View()
	assert.Contains(t, rendered, "What is osmosis?")
	assert.Contains(t, rendered, "Offline mode.")

	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyUp})
	model = updated.(chatModel)
	assert.Equal(t, "What is osmosis?", model.input.Value())
}

func TestChatModelSlashCommands(t *testing.T) {
	signedInLocalHome(t)

	_, app := newRootCmd()
	t.Cleanup(func() { _ = app.Close() })
	ctx := t.Context()
	require.NoError(t, app.wire(ctx))

	model := newChatModel(ctx, app)

	updated, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	model = updated.(chatModel)
	assert.Nil(t, cmd)
	assert.Equal(t, "Type a question first.", app.engine.View().Notice)
	assert.Contains(t, model.View(), "Type a question first.")

	model.input.SetValue("/new")
	updated, cmd = model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	model = updated.(chatModel)
	require.NotNil(t, cmd)
	updated, _ = model.Update(cmd())
	model = updated.(chatModel)
	assert.Contains(t, model.status, "new conversation ")
	require.False(t, app.engine.View().ActiveConversationID.IsZero())

	model.input.SetValue("/list")
	updated, cmd = model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	model = updated.(chatModel)
	updated, _ = model.Update(cmd())
	model = updated.(chatModel)
	assert.Contains(t, model.panel, "conversations: 1")

	model.input.SetValue("/doc")
	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	model = updated.(chatModel)
	assert.Equal(t, "document mode on", model.status)
	assert.True(t, app.engine.View().DocumentMode)

	model.input.SetValue("/bogus")
	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	model = updated.(chatModel)
	assert.Equal(t, "unknown command /bogus, try /help", model.status)

	model.input.SetValue("/quit")
	_, cmd = model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func executeCLI(t *testing.T, home string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", home)

	root, app := newRootCmd()
	defer func() { _ = app.Close() }()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func localHome(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("RECALLO_BACKEND", "local")
	return home
}

func signedInLocalHome(t *testing.T) string {
	t.Helper()

	home := localHome(t)
	_, _, err := executeCLI(t, home, "profile", "set", "--owner", "owner-1")
	require.NoError(t, err)
	return home
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func conversationFromOutput(t *testing.T, stdout string) string {
	t.Helper()

	for _, line := range strings.Split(stdout, "\n") {
		if id, ok := strings.CutPrefix(line, "conversation: "); ok {
			return strings.TrimSpace(id)
		}
	}
	require.FailNow(t, "no conversation id in output", stdout)
	return ""
}
