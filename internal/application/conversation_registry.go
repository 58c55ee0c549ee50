package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/recallo/recallo-cli/internal/domain"
	"github.com/recallo/recallo-cli/internal/ports"
)

// MessageLog is the part of the message log the registry drives when the
// active conversation changes.
type MessageLog interface {
	ResetTo(messages []domain.Message) error
}

// ConversationRegistry mirrors the owner's conversation list and tracks which
// conversation is active. The active id is always empty or present in the
// local list once an operation returns.
type ConversationRegistry struct {
	mu     sync.Mutex
	api    ports.ConversationAPI
	log    MessageLog
	clock  ports.Clock
	logger *slog.Logger
	active domain.ConversationID
	list   []domain.Conversation
}

func NewConversationRegistry(api ports.ConversationAPI, log MessageLog, clock ports.Clock, logger *slog.Logger) *ConversationRegistry {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &ConversationRegistry{api: api, log: log, clock: clock, logger: logger}
}

func (r *ConversationRegistry) Active() domain.ConversationID {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.active
}

// Conversations returns the local list, most recent first.
func (r *ConversationRegistry) Conversations() []domain.Conversation {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := make([]domain.Conversation, len(r.list))
	copy(list, r.list)
	return list
}

// CreateNew creates a conversation, activates it and clears the log.
func (r *ConversationRegistry) CreateNew(ctx context.Context, owner domain.OwnerID) (domain.Conversation, error) {
	return r.create(ctx, owner, true)
}

// Claim creates a conversation for the provisional log built up while no
// conversation was active. The log is kept as the new conversation's history.
func (r *ConversationRegistry) Claim(ctx context.Context, owner domain.OwnerID) (domain.Conversation, error) {
	return r.create(ctx, owner, false)
}

func (r *ConversationRegistry) create(ctx context.Context, owner domain.OwnerID, resetLog bool) (domain.Conversation, error) {
	if owner.IsZero() {
		return domain.Conversation{}, domain.ErrUnauthenticated
	}

	conversation, err := r.api.CreateConversation(ctx, owner)
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("create conversation: %w", err)
	}
	if conversation.ID.IsZero() {
		return domain.Conversation{}, fmt.Errorf("create conversation: %w", &domain.RemoteError{Op: "create conversation", Err: errors.New("empty conversation id")})
	}
	if strings.TrimSpace(conversation.Title) == "" {
		conversation.Title = domain.DefaultConversationTitle
	}
	if conversation.CreatedAt.IsZero() {
		conversation.CreatedAt = r.clock.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if resetLog {
		if err := r.log.ResetTo(nil); err != nil {
			return domain.Conversation{}, fmt.Errorf("reset message log: %w", err)
		}
	}
	r.list = append([]domain.Conversation{conversation}, without(r.list, conversation.ID)...)
	r.active = conversation.ID

	r.logger.Info("conversation created", "conversation_id", conversation.ID, "owner_id", owner, "claimed_log", !resetLog)
	return conversation, nil
}

// Select activates id and loads its persisted turns as alternating user and
// assistant messages. A conversation the backend no longer knows is pruned
// and the active id falls back to empty with an empty log, whichever
// conversation was active before. Other failures leave the state untouched.
func (r *ConversationRegistry) Select(ctx context.Context, id domain.ConversationID) error {
	turns, err := r.api.GetLogs(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrConversationNotFound) {
			r.prune(id, true)
		}
		return fmt.Errorf("select conversation %s: %w", id, err)
	}

	messages := MessagesFromTurns(turns)

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.log.ResetTo(messages); err != nil {
		return fmt.Errorf("load conversation %s: %w", id, err)
	}
	if indexOf(r.list, id) < 0 {
		r.list = append([]domain.Conversation{{ID: id, Title: domain.DefaultConversationTitle}}, r.list...)
	}
	r.active = id

	r.logger.Debug("conversation selected", "conversation_id", id, "turns", len(turns))
	return nil
}

// Rename updates the title locally before calling the backend. When the
// backend rejects the rename the previous title is restored, unless a newer
// local rename has already replaced the optimistic one.
func (r *ConversationRegistry) Rename(ctx context.Context, id domain.ConversationID, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.ErrEmptyTitle
	}

	r.mu.Lock()
	pos := indexOf(r.list, id)
	if pos < 0 {
		r.mu.Unlock()
		return fmt.Errorf("rename conversation %s: %w", id, domain.ErrConversationNotFound)
	}
	previous := r.list[pos].Title
	r.list[pos].Title = title
	r.mu.Unlock()

	err := r.api.RenameConversation(ctx, id, title)
	if err == nil {
		return nil
	}

	if errors.Is(err, domain.ErrConversationNotFound) {
		r.prune(id, false)
		return fmt.Errorf("rename conversation %s: %w", id, err)
	}

	r.mu.Lock()
	if pos := indexOf(r.list, id); pos >= 0 && r.list[pos].Title == title {
		r.list[pos].Title = previous
	}
	r.mu.Unlock()

	r.logger.Warn("rename rejected, title rolled back", "conversation_id", id, "error", err)
	return fmt.Errorf("rename conversation %s: %w", id, err)
}

// DeleteAndReplace deletes id. When id was active a fresh conversation is
// created and activated; the returned conversation is nil otherwise. If the
// replacement cannot be created the active id is left empty.
func (r *ConversationRegistry) DeleteAndReplace(ctx context.Context, owner domain.OwnerID, id domain.ConversationID) (*domain.Conversation, error) {
	if err := r.api.DeleteConversation(ctx, id); err != nil && !errors.Is(err, domain.ErrConversationNotFound) {
		return nil, fmt.Errorf("delete conversation %s: %w", id, err)
	}

	r.mu.Lock()
	r.list = without(r.list, id)
	wasActive := r.active == id
	if wasActive {
		r.active = ""
		if err := r.log.ResetTo(nil); err != nil {
			r.mu.Unlock()
			return nil, fmt.Errorf("reset message log: %w", err)
		}
	}
	r.mu.Unlock()

	r.logger.Info("conversation deleted", "conversation_id", id, "was_active", wasActive)
	if !wasActive {
		return nil, nil
	}

	replacement, err := r.CreateNew(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("replace deleted conversation: %w", err)
	}
	return &replacement, nil
}

// List replaces the local list with the backend's. An active conversation
// missing from the fetched list is kept at the head.
func (r *ConversationRegistry) List(ctx context.Context, owner domain.OwnerID) ([]domain.Conversation, error) {
	if owner.IsZero() {
		return nil, domain.ErrUnauthenticated
	}

	fetched, err := r.api.ListConversations(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	list := make([]domain.Conversation, 0, len(fetched)+1)
	for _, conversation := range fetched {
		if conversation.ID.IsZero() || indexOf(list, conversation.ID) >= 0 {
			continue
		}
		if strings.TrimSpace(conversation.Title) == "" {
			conversation.Title = domain.DefaultConversationTitle
		}
		list = append(list, conversation)
	}
	domain.SortByRecency(list)

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.active.IsZero() && indexOf(list, r.active) < 0 {
		if pos := indexOf(r.list, r.active); pos >= 0 {
			list = append([]domain.Conversation{r.list[pos]}, list...)
		} else {
			list = append([]domain.Conversation{{ID: r.active, Title: domain.DefaultConversationTitle}}, list...)
		}
	}
	r.list = list

	result := make([]domain.Conversation, len(list))
	copy(result, list)
	return result, nil
}

// Adopt makes id active when no conversation is active yet. The first id
// adopted wins; later calls are ignored.
func (r *ConversationRegistry) Adopt(id domain.ConversationID) bool {
	if id.IsZero() {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.active.IsZero() {
		return false
	}

	now := r.clock.Now()
	if pos := indexOf(r.list, id); pos < 0 {
		r.list = append([]domain.Conversation{{
			ID:        id,
			Title:     domain.DefaultConversationTitle,
			CreatedAt: now,
			UpdatedAt: now,
		}}, r.list...)
	}
	r.active = id

	r.logger.Debug("conversation id adopted from assistant response", "conversation_id", id)
	return true
}

// Touch records activity on id and moves it to the head of the list.
func (r *ConversationRegistry) Touch(id domain.ConversationID, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pos := indexOf(r.list, id)
	if pos < 0 {
		return
	}

	conversation := r.list[pos]
	conversation.UpdatedAt = at
	r.list = append([]domain.Conversation{conversation}, without(r.list, id)...)
}

// prune drops id from the list. The active id and the log are cleared when
// id was active, or unconditionally when abandon is set.
func (r *ConversationRegistry) prune(id domain.ConversationID, abandon bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.list = without(r.list, id)
	if r.active != id && !abandon {
		return
	}

	previous := r.active
	r.active = ""
	if err := r.log.ResetTo(nil); err != nil {
		r.logger.Error("reset message log after prune", "conversation_id", id, "error", err)
	}
	r.logger.Info("conversation vanished, pruned", "conversation_id", id, "previous_active", previous)
}

// MessagesFromTurns maps persisted turns, oldest first, into alternating user
// and assistant messages.
func MessagesFromTurns(turns []domain.Turn) []domain.Message {
	messages := make([]domain.Message, 0, len(turns)*2)
	for i, turn := range turns {
		turnID := string(turn.ID)
		if strings.TrimSpace(turnID) == "" {
			turnID = fmt.Sprintf("turn-%d", i)
		}

		messages = append(messages,
			domain.Message{
				ID:        domain.MessageID(turnID + "/user"),
				Role:      domain.RoleUser,
				Kind:      domain.MessageKindText,
				Text:      turn.UserMessage,
				Status:    domain.MessageStatusComplete,
				CreatedAt: turn.CreatedAt,
			},
			domain.Message{
				ID:        domain.MessageID(turnID + "/assistant"),
				Role:      domain.RoleAssistant,
				Kind:      domain.MessageKindText,
				Text:      turn.ResponseMessage,
				Status:    domain.MessageStatusComplete,
				CreatedAt: turn.CreatedAt,
			},
		)
	}
	return messages
}

func indexOf(list []domain.Conversation, id domain.ConversationID) int {
	for i, conversation := range list {
		if conversation.ID == id {
			return i
		}
	}
	return -1
}

func without(list []domain.Conversation, id domain.ConversationID) []domain.Conversation {
	result := make([]domain.Conversation, 0, len(list))
	for _, conversation := range list {
		if conversation.ID != id {
			result = append(result, conversation)
		}
	}
	return result
}
