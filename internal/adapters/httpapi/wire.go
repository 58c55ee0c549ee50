package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/recallo/recallo-cli/internal/domain"
)

// flexibleID accepts identifiers encoded either as JSON strings or numbers.
type flexibleID string

func (id *flexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = flexibleID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("identifier must be a string or number: %w", err)
	}
	*id = flexibleID(n.String())
	return nil
}

// timestamp accepts the ISO-8601 variants the backend emits, with or without
// a zone offset and fractional seconds.
type timestamp time.Time

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	time.RFC1123,
}

func (ts *timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*ts = timestamp(time.Time{})
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		*ts = timestamp(time.Time{})
		return nil
	}
	if unix, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*ts = timestamp(time.Unix(unix, 0).UTC())
		return nil
	}

	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			*ts = timestamp(parsed.UTC())
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", raw)
}

func (ts timestamp) Time() time.Time {
	return time.Time(ts)
}

type conversationPayload struct {
	ConversationID flexibleID `json:"conversation_id"`
	ID             flexibleID `json:"id"`
	Title          string     `json:"title"`
	CreatedAt      timestamp  `json:"created_at"`
	UpdatedAt      timestamp  `json:"updated_at"`
}

func (p conversationPayload) toDomain() domain.Conversation {
	id := p.ConversationID
	if id == "" {
		id = p.ID
	}

	return domain.Conversation{
		ID:        domain.ConversationID(id),
		Title:     p.Title,
		CreatedAt: p.CreatedAt.Time(),
		UpdatedAt: p.UpdatedAt.Time(),
	}
}

type turnPayload struct {
	ID              flexibleID `json:"id"`
	UserMessage     string     `json:"user_message"`
	ResponseMessage string     `json:"response_message"`
	CreatedAt       timestamp  `json:"created_at"`
}

type createConversationRequest struct {
	UserID string `json:"user_id"`
	Title  string `json:"title"`
}

type renameConversationRequest struct {
	Title string `json:"title"`
}

type chatRequest struct {
	Message        string `json:"message"`
	UserID         string `json:"user_id"`
	ConversationID string `json:"conversation_id,omitempty"`
	FileUUID       string `json:"file_uuid,omitempty"`
}

type chatResponse struct {
	Response       string     `json:"response"`
	ConversationID flexibleID `json:"conversation_id"`
}

type uploadResponse struct {
	Message  string     `json:"message"`
	Error    string     `json:"error"`
	FileUUID flexibleID `json:"file_uuid"`
}
