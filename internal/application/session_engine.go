package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/recallo/recallo-cli/internal/domain"
	"github.com/recallo/recallo-cli/internal/ports"
)

const (
	DefaultMaxUploadBytes int64 = 5 * 1024 * 1024
)

var DefaultAllowedTypes = []string{"pdf", "doc", "docx", "txt"}

type EngineConfig struct {
	MaxUploadBytes int64
	AllowedTypes   []string
	AskTimeout     time.Duration
	// ServerAssignsConversation skips creating a conversation before the first
	// send and adopts the id returned by the assistant instead.
	ServerAssignsConversation bool
}

type Dependencies struct {
	Conversations ports.ConversationAPI
	Assistant     ports.AssistantAPI
	Uploads       ports.UploadAPI
	Identity      ports.IdentityProvider
	Clock         ports.Clock
	IDs           ports.IDGenerator
	Logger        *slog.Logger
}

// SessionEngine is the single entry point for user intents. It owns the
// message log, the request controller and the conversation registry, and is
// the only layer that turns failures into user-visible text.
type SessionEngine struct {
	cfg        EngineConfig
	deps       Dependencies
	logger     *slog.Logger
	store      *MessageStore
	controller *RequestController
	registry   *ConversationRegistry

	// ensureMu serializes lazy conversation creation across concurrent sends.
	ensureMu sync.Mutex

	mu           sync.Mutex
	documentMode bool
	composer     string
	lastUpload   *domain.FileRef
	notice       string

	updates chan struct{}
}

func NewSessionEngine(deps Dependencies, cfg EngineConfig) *SessionEngine {
	if deps.Clock == nil {
		deps.Clock = ports.SystemClock{}
	}
	if deps.IDs == nil {
		deps.IDs = ports.UUIDGenerator{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if len(cfg.AllowedTypes) == 0 {
		cfg.AllowedTypes = DefaultAllowedTypes
	}
	cfg.AllowedTypes = normalizeTypes(cfg.AllowedTypes)

	e := &SessionEngine{
		cfg:     cfg,
		deps:    deps,
		logger:  deps.Logger,
		store:   NewMessageStore(),
		updates: make(chan struct{}, 1),
	}
	e.controller = NewRequestController(e.store, deps.Assistant, deps.Clock, deps.IDs, deps.Logger.With("component", "requests"), RequestControllerOptions{
		Timeout: cfg.AskTimeout,
		Replies: Replies{
			Stopped: stoppedText,
			Failed:  e.Describe,
		},
		OnSettle: e.onSettle,
	})
	e.registry = NewConversationRegistry(deps.Conversations, e.controller, deps.Clock, deps.Logger.With("component", "conversations"))

	return e
}

// Updates signals that the view changed. Signals are coalesced; readers call
// View after each receive.
func (e *SessionEngine) Updates() <-chan struct{} {
	return e.updates
}

func (e *SessionEngine) View() View {
	messages, token := e.controller.Snapshot()

	e.mu.Lock()
	defer e.mu.Unlock()

	var lastUpload *domain.FileRef
	if e.lastUpload != nil {
		ref := *e.lastUpload
		lastUpload = &ref
	}

	return View{
		Messages:             messages,
		ActiveConversationID: e.registry.Active(),
		Conversations:        e.registry.Conversations(),
		IsPending:            token != "",
		PendingToken:         token,
		DocumentMode:         e.documentMode,
		Composer:             e.composer,
		LastUpload:           lastUpload,
		Notice:               e.notice,
	}
}

// Send appends the user's message and asks the assistant. Blank input is a
// no-op reported as domain.ErrBlankInput.
func (e *SessionEngine) Send(ctx context.Context, text string) (RequestToken, error) {
	if domain.IsBlank(text) {
		return "", e.fail("send", domain.ErrBlankInput)
	}
	text = strings.TrimSpace(text)

	owner, err := e.owner(ctx)
	if err != nil {
		return "", e.fail("send", err)
	}

	if !e.cfg.ServerAssignsConversation {
		if err := e.ensureConversation(ctx, owner); err != nil {
			return "", e.fail("send", err)
		}
	}

	userMessage := domain.Message{
		ID:        domain.MessageID(e.deps.IDs.NewID()),
		Role:      domain.RoleUser,
		Kind:      domain.MessageKindText,
		Text:      text,
		Status:    domain.MessageStatusComplete,
		CreatedAt: e.deps.Clock.Now(),
	}
	if err := e.store.Append(userMessage); err != nil {
		return "", e.fail("send", err)
	}

	e.mu.Lock()
	e.composer = ""
	e.notice = ""
	req := ports.AskRequest{
		Question:       text,
		Owner:          owner,
		ConversationID: e.registry.Active(),
		Mode:           ports.AskModeChat,
	}
	if e.documentMode {
		req.Mode = ports.AskModeDocument
		if e.lastUpload != nil {
			ref := *e.lastUpload
			req.Document = &ref
		}
	}
	e.mu.Unlock()

	token, err := e.controller.Submit(ctx, req)
	if err != nil {
		return "", e.fail("send", err)
	}

	e.notify()
	return token, nil
}

// Stop cancels the pending request, if any.
func (e *SessionEngine) Stop() error {
	if err := e.controller.Cancel(""); err != nil {
		return err
	}
	e.notify()
	return nil
}

// EditPrevious pulls a user message back into the composer and removes it
// from the log. It returns the recovered text.
func (e *SessionEngine) EditPrevious(id domain.MessageID) (string, error) {
	message, ok := e.store.Get(id)
	if !ok {
		return "", e.fail("edit message", fmt.Errorf("%w: %s", domain.ErrMessageNotFound, id))
	}
	if !message.Editable() {
		return "", e.fail("edit message", domain.ErrNotEditable)
	}
	if _, err := e.store.RemoveByID(id); err != nil {
		return "", e.fail("edit message", err)
	}

	e.mu.Lock()
	e.composer = message.Text
	e.notice = ""
	e.mu.Unlock()

	e.notify()
	return message.Text, nil
}

// PickFile validates and uploads file. Accepted files become the document
// context for sends made in document mode.
func (e *SessionEngine) PickFile(ctx context.Context, file domain.PickedFile) (domain.FileRef, error) {
	if err := e.validateFile(file); err != nil {
		return domain.FileRef{}, e.fail("pick file", err)
	}

	owner, err := e.owner(ctx)
	if err != nil {
		return domain.FileRef{}, e.fail("pick file", err)
	}
	if e.deps.Uploads == nil {
		return domain.FileRef{}, e.fail("pick file", &domain.RemoteError{Op: "upload", Err: errors.New("upload collaborator not configured")})
	}

	content, err := file.Open()
	if err != nil {
		return domain.FileRef{}, e.fail("pick file", fmt.Errorf("open %s: %w", file.Name, err))
	}
	defer func() { _ = content.Close() }()

	result, err := e.deps.Uploads.Upload(ctx, owner, file.Name, content)
	if err != nil {
		var uploadErr *domain.UploadError
		if !errors.As(err, &uploadErr) || uploadErr.Reason != domain.UploadReasonDuplicate {
			return domain.FileRef{}, e.fail("pick file", err)
		}
		result = domain.UploadResult{Duplicate: true, Message: uploadErr.Message}
	}

	ref := domain.FileRef{
		Name:      file.Name,
		Size:      file.Size,
		RemoteID:  result.RemoteID,
		Duplicate: result.Duplicate,
	}

	text := "uploaded: " + file.Name
	if ref.Duplicate {
		text += " (already uploaded earlier)"
	}
	if err := e.store.Append(domain.Message{
		ID:        domain.MessageID(e.deps.IDs.NewID()),
		Role:      domain.RoleUser,
		Kind:      domain.MessageKindUpload,
		Text:      text,
		Status:    domain.MessageStatusComplete,
		CreatedAt: e.deps.Clock.Now(),
	}); err != nil {
		return domain.FileRef{}, e.fail("pick file", err)
	}

	e.mu.Lock()
	e.lastUpload = &ref
	e.notice = ""
	e.mu.Unlock()

	e.logger.Info("file uploaded", "file", file.Name, "size", file.Size, "duplicate", ref.Duplicate)
	e.notify()
	return ref, nil
}

// SwitchConversation loads id's history. Pending work is dropped together
// with the log it belongs to, so a failed fetch leaves it running.
func (e *SessionEngine) SwitchConversation(ctx context.Context, id domain.ConversationID) error {
	err := e.registry.Select(ctx, id)
	if err != nil {
		return e.fail("switch conversation", err)
	}

	e.clearNotice()
	e.notify()
	return nil
}

func (e *SessionEngine) NewConversation(ctx context.Context) (domain.Conversation, error) {
	owner, err := e.owner(ctx)
	if err != nil {
		return domain.Conversation{}, e.fail("new conversation", err)
	}

	conversation, err := e.registry.CreateNew(ctx, owner)
	if err != nil {
		return domain.Conversation{}, e.fail("new conversation", err)
	}

	e.clearNotice()
	e.notify()
	return conversation, nil
}

func (e *SessionEngine) RenameConversation(ctx context.Context, id domain.ConversationID, title string) error {
	err := e.registry.Rename(ctx, id, title)
	if err != nil {
		return e.fail("rename conversation", err)
	}

	e.clearNotice()
	e.notify()
	return nil
}

// DeleteConversation deletes id; deleting the active conversation replaces it
// with a new empty one.
func (e *SessionEngine) DeleteConversation(ctx context.Context, id domain.ConversationID) error {
	owner, err := e.owner(ctx)
	if err != nil {
		return e.fail("delete conversation", err)
	}

	if _, err := e.registry.DeleteAndReplace(ctx, owner, id); err != nil {
		return e.fail("delete conversation", err)
	}

	e.clearNotice()
	e.notify()
	return nil
}

func (e *SessionEngine) RefreshConversations(ctx context.Context) ([]domain.Conversation, error) {
	owner, err := e.owner(ctx)
	if err != nil {
		return nil, e.fail("list conversations", err)
	}

	list, err := e.registry.List(ctx, owner)
	if err != nil {
		return nil, e.fail("list conversations", err)
	}

	e.notify()
	return list, nil
}

func (e *SessionEngine) ToggleDocumentMode() bool {
	e.mu.Lock()
	e.documentMode = !e.documentMode
	enabled := e.documentMode
	e.mu.Unlock()

	e.notify()
	return enabled
}

func (e *SessionEngine) SetComposer(text string) {
	e.mu.Lock()
	e.composer = text
	e.mu.Unlock()
}

// Wait blocks until the request behind token settles.
func (e *SessionEngine) Wait(ctx context.Context, token RequestToken) error {
	return e.controller.Wait(ctx, token)
}

// Close drops any pending request. The engine must not be used afterwards.
func (e *SessionEngine) Close() {
	e.controller.Discard()
}

// Describe turns an error into the text shown to the user.
func (e *SessionEngine) Describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrBlankInput):
		return "Type a question first."
	case errors.Is(err, domain.ErrFileTooLarge):
		return fmt.Sprintf("File is too large. Max size is %s.", formatBytes(e.cfg.MaxUploadBytes))
	case errors.Is(err, domain.ErrUnsupportedType):
		return fmt.Sprintf("Unsupported file type. Allowed: %s.", strings.Join(e.cfg.AllowedTypes, ", "))
	case errors.Is(err, domain.ErrNotEditable):
		return "Only your own messages can be edited."
	case errors.Is(err, domain.ErrEmptyTitle):
		return "Title is required."
	case errors.Is(err, domain.ErrEmptyFile):
		return "That file could not be read."
	case errors.Is(err, domain.ErrMessageNotFound):
		return "That message is no longer in the conversation."
	case errors.Is(err, domain.ErrUnauthenticated):
		return "Sign in to continue."
	case errors.Is(err, domain.ErrConversationNotFound):
		return "That conversation no longer exists."
	case errors.Is(err, domain.ErrCancelled), errors.Is(err, context.Canceled):
		return stoppedText
	case errors.Is(err, context.DeadlineExceeded):
		return "The assistant took too long to respond. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}

const stoppedText = "Stopped by user."

func (e *SessionEngine) onSettle(outcome Outcome) {
	if outcome.State == RequestFulfilled {
		if outcome.Request.ConversationID.IsZero() {
			e.registry.Adopt(outcome.Response.ConversationID)
		} else if !outcome.Response.ConversationID.IsZero() && outcome.Response.ConversationID != outcome.Request.ConversationID {
			e.logger.Warn("assistant answered under a different conversation",
				"sent", outcome.Request.ConversationID,
				"received", outcome.Response.ConversationID,
			)
		}
		if active := e.registry.Active(); !active.IsZero() {
			e.registry.Touch(active, e.deps.Clock.Now())
		}
	}
	e.notify()
}

func (e *SessionEngine) ensureConversation(ctx context.Context, owner domain.OwnerID) error {
	e.ensureMu.Lock()
	defer e.ensureMu.Unlock()

	if !e.registry.Active().IsZero() {
		return nil
	}
	_, err := e.registry.Claim(ctx, owner)
	return err
}

func (e *SessionEngine) owner(ctx context.Context) (domain.OwnerID, error) {
	if e.deps.Identity == nil {
		return "", domain.ErrUnauthenticated
	}
	owner, err := e.deps.Identity.OwnerID(ctx)
	if err != nil {
		return "", err
	}
	if owner.IsZero() {
		return "", domain.ErrUnauthenticated
	}
	return owner, nil
}

func (e *SessionEngine) validateFile(file domain.PickedFile) error {
	if file.Size > e.cfg.MaxUploadBytes {
		return fmt.Errorf("%s is %s: %w", file.Name, formatBytes(file.Size), domain.ErrFileTooLarge)
	}
	if !slices.Contains(e.cfg.AllowedTypes, file.Extension()) {
		return fmt.Errorf("%s: %w", file.Name, domain.ErrUnsupportedType)
	}
	if file.Open == nil {
		return fmt.Errorf("%s: %w", file.Name, domain.ErrEmptyFile)
	}
	return nil
}

// fail records the user-facing notice for err, notifies the view and returns
// err wrapped with op.
func (e *SessionEngine) fail(op string, err error) error {
	notice := e.Describe(err)

	e.mu.Lock()
	e.notice = notice
	e.mu.Unlock()

	if errors.Is(err, domain.ErrValidation) {
		e.logger.Debug(op+" rejected", "error", err)
	} else {
		e.logger.Warn(op+" failed", "error", err)
	}

	e.notify()
	return fmt.Errorf("%s: %w", op, err)
}

func (e *SessionEngine) clearNotice() {
	e.mu.Lock()
	e.notice = ""
	e.mu.Unlock()
}

func (e *SessionEngine) notify() {
	select {
	case e.updates <- struct{}{}:
	default:
	}
}

func normalizeTypes(types []string) []string {
	normalized := make([]string, 0, len(types))
	for _, t := range types {
		t = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(t)), ".")
		if t == "" || slices.Contains(normalized, t) {
			continue
		}
		normalized = append(normalized, t)
	}
	return normalized
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	value := float64(n)
	suffixes := []string{"KB", "MB", "GB"}
	suffix := ""
	for _, s := range suffixes {
		value /= unit
		suffix = s
		if value < unit {
			break
		}
	}
	if value == float64(int64(value)) {
		return fmt.Sprintf("%d%s", int64(value), suffix)
	}
	return fmt.Sprintf("%.1f%s", value, suffix)
}
