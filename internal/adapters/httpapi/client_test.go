package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/recallo/recallo-cli/internal/domain"
	"github.com/recallo/recallo-cli/internal/ports"
	portmocks "github.com/recallo/recallo-cli/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Options{BaseURL: server.URL, HTTPClient: server.Client()})
	require.NoError(t, err)
	return client
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func TestNewClientValidatesBaseURL(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "ftp://example.com", "http://", "://bad"} {
		_, err := NewClient(Options{BaseURL: raw})
		assert.Error(t, err, raw)
	}
}

func TestCreateConversation(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/conversations", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"user_id": "owner-1", "title": "New Chat"}, body)

		writeJSON(t, w, http.StatusCreated, map[string]any{
			"conversation_id": "conv-1",
			"title":           "New Chat",
			"created_at":      "2026-03-01T10:00:00.123456+00:00",
			"updated_at":      "2026-03-01T10:00:00.123456+00:00",
		})
	})

	conversation, err := client.CreateConversation(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ConversationID("conv-1"), conversation.ID)
	assert.Equal(t, "New Chat", conversation.Title)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 123456000, time.UTC), conversation.CreatedAt)
}

func TestCreateConversationRejectsMissingID(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusCreated, map[string]any{"title": "New Chat"})
	})

	_, err := client.CreateConversation(context.Background(), "owner-1")
	require.ErrorIs(t, err, domain.ErrRemote)
}

func TestListConversations(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "owner 1", r.URL.Query().Get("user_id"))

		writeJSON(t, w, http.StatusOK, []map[string]any{
			{"conversation_id": 7, "title": "Biology", "created_at": "2026-03-01T10:00:00", "updated_at": "2026-03-02T10:00:00Z"},
			{"conversation_id": "conv-2", "title": "History", "created_at": nil, "updated_at": ""},
		})
	})

	conversations, err := client.ListConversations(context.Background(), "owner 1")
	require.NoError(t, err)
	require.Len(t, conversations, 2)
	assert.Equal(t, domain.ConversationID("7"), conversations[0].ID)
	assert.Equal(t, time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC), conversations[0].UpdatedAt)
	assert.True(t, conversations[1].CreatedAt.IsZero())
}

func TestGetLogs(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/conversations/conv-1/logs", r.URL.Path)
		writeJSON(t, w, http.StatusOK, []map[string]any{
			{"id": 11, "user_message": "q1", "response_message": "a1", "created_at": "2026-03-01T10:00:00Z"},
			{"id": 12, "user_message": "q2", "response_message": "a2", "created_at": "2026-03-01T10:01:00Z"},
		})
	})

	turns, err := client.GetLogs(context.Background(), "conv-1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, domain.TurnID("11"), turns[0].ID)
	assert.Equal(t, "a2", turns[1].ResponseMessage)
}

func TestGetLogsNotFound(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusNotFound, map[string]string{"error": "Conversation not found"})
	})

	_, err := client.GetLogs(context.Background(), "conv-42")
	require.ErrorIs(t, err, domain.ErrConversationNotFound)
	assert.NotErrorIs(t, err, domain.ErrRemote)
}

func TestRenameAndDeleteConversation(t *testing.T) {
	t.Parallel()

	var seen []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodPut {
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "Cell biology", body["title"])
		}
		writeJSON(t, w, http.StatusOK, map[string]string{"message": "ok"})
	})

	require.NoError(t, client.RenameConversation(context.Background(), "conv-1", " Cell biology "))
	require.NoError(t, client.DeleteConversation(context.Background(), "conv-1"))
	require.ErrorIs(t, client.RenameConversation(context.Background(), "conv-1", " "), domain.ErrEmptyTitle)

	assert.Equal(t, []string{"PUT /api/conversations/conv-1", "DELETE /api/conversations/conv-1"}, seen)
}

func TestServerErrorBecomesRemoteError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusInternalServerError, map[string]string{"error": "database unavailable"})
	})

	err := client.DeleteConversation(context.Background(), "conv-1")
	require.ErrorIs(t, err, domain.ErrRemote)

	var remote *domain.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, http.StatusInternalServerError, remote.StatusCode)
	assert.ErrorContains(t, err, "database unavailable")
}

func TestUnauthorizedBecomesUnauthenticated(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.ListConversations(context.Background(), "owner-1")
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestMalformedPayloadBecomesRemoteError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"conversation_id":`))
	})

	_, err := client.ListConversations(context.Background(), "owner-1")
	require.ErrorIs(t, err, domain.ErrRemote)
	assert.ErrorContains(t, err, "decode response")
}

func TestAskChatSendsConversationAndBearerToken(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "What is osmosis?", body["message"])
		assert.Equal(t, "owner-1", body["user_id"])
		assert.Equal(t, "conv-1", body["conversation_id"])

		writeJSON(t, w, http.StatusOK, map[string]any{"response": "Water moving across a membrane.", "conversation_id": "conv-1"})
	}))
	t.Cleanup(server.Close)

	tokens := portmocks.NewMockSecretStore(t)
	tokens.EXPECT().Get(mock.Anything, "recallo://owner-1/access_token").Return("secret-token", nil)

	client, err := NewClient(Options{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		Tokens:     tokens,
		TokenKey:   "recallo://owner-1/access_token",
	})
	require.NoError(t, err)

	response, err := client.Ask(context.Background(), ports.AskRequest{
		Question:       "What is osmosis?",
		Owner:          "owner-1",
		ConversationID: "conv-1",
		Mode:           ports.AskModeChat,
	})
	require.NoError(t, err)
	assert.Equal(t, "Water moving across a membrane.", response.Text)
	assert.Equal(t, domain.ConversationID("conv-1"), response.ConversationID)
}

func TestAskWithoutStoredTokenOmitsAuthorization(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(t, w, http.StatusOK, map[string]any{"response": "ok", "conversation_id": "srv-1"})
	}))
	t.Cleanup(server.Close)

	tokens := portmocks.NewMockSecretStore(t)
	tokens.EXPECT().Get(mock.Anything, "key").Return("", fmt.Errorf("file: %w", domain.ErrSecretNotFound))

	client, err := NewClient(Options{BaseURL: server.URL, HTTPClient: server.Client(), Tokens: tokens, TokenKey: "key"})
	require.NoError(t, err)

	response, err := client.Ask(context.Background(), ports.AskRequest{Question: "q", Owner: "owner-1"})
	require.NoError(t, err)
	assert.Equal(t, domain.ConversationID("srv-1"), response.ConversationID)
}

func TestAskDocumentModeTargetsAskEndpoint(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ask", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "doc-9", body["file_uuid"])

		writeJSON(t, w, http.StatusOK, map[string]any{"response": "Summary.", "source_documents": []string{"chunk"}})
	})

	response, err := client.Ask(context.Background(), ports.AskRequest{
		Question:       "summarize",
		Owner:          "owner-1",
		ConversationID: "conv-1",
		Mode:           ports.AskModeDocument,
		Document:       &domain.FileRef{Name: "notes.pdf", RemoteID: "doc-9"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Summary.", response.Text)
	assert.Equal(t, domain.ConversationID("conv-1"), response.ConversationID)
}

func TestAskHonorsCancellation(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	t.Cleanup(func() { close(release) })

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := client.Ask(ctx, ports.AskRequest{Question: "q", Owner: "owner-1"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRequestTimesOutWithoutCallerDeadline(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		writeJSON(t, w, http.StatusOK, []any{})
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Options{BaseURL: server.URL, HTTPClient: server.Client(), RequestTimeout: 10 * time.Millisecond})
	require.NoError(t, err)

	_, err = client.ListConversations(context.Background(), "owner-1")
	require.ErrorIs(t, err, domain.ErrRemote)
}

func TestUploadSendsMultipartForm(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "owner-1", r.FormValue("user_id"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "notes.pdf", header.Filename)
		data, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.7", string(data))

		writeJSON(t, w, http.StatusOK, map[string]any{"message": "PDF processed. 3 chunks saved.", "file_uuid": "doc-1"})
	})

	result, err := client.Upload(context.Background(), "owner-1", "/home/me/notes.pdf", strings.NewReader("%PDF-1.7"))
	require.NoError(t, err)
	assert.Equal(t, "doc-1", result.RemoteID)
	assert.Contains(t, result.Message, "3 chunks")
}

func TestUploadMapsRejections(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status int
		reason domain.UploadReason
		is     error
	}{
		{http.StatusConflict, domain.UploadReasonDuplicate, nil},
		{http.StatusRequestEntityTooLarge, domain.UploadReasonTooLarge, domain.ErrFileTooLarge},
		{http.StatusBadRequest, domain.UploadReasonUnsupportedType, domain.ErrUnsupportedType},
		{http.StatusInternalServerError, domain.UploadReasonUnknown, domain.ErrRemote},
	}

	for _, tc := range cases {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.Copy(io.Discard, r.Body)
			writeJSON(t, w, tc.status, map[string]string{"error": "rejected"})
		})

		_, err := client.Upload(context.Background(), "owner-1", "notes.pdf", strings.NewReader("data"))

		var uploadErr *domain.UploadError
		require.ErrorAs(t, err, &uploadErr, tc.status)
		assert.Equal(t, tc.reason, uploadErr.Reason)
		if tc.is != nil {
			assert.ErrorIs(t, err, tc.is)
		}
	}
}
