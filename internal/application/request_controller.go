package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/recallo/recallo-cli/internal/domain"
	"github.com/recallo/recallo-cli/internal/ports"
)

const DefaultAskTimeout = 60 * time.Second

type RequestToken string

type RequestState string

const (
	RequestPending    RequestState = "pending"
	RequestFulfilled  RequestState = "fulfilled"
	RequestFailed     RequestState = "failed"
	RequestCancelled  RequestState = "cancelled"
	RequestSuperseded RequestState = "superseded"
)

// Outcome describes how a request settled. Outcomes of cancelled or
// superseded requests never reach the settle hook.
type Outcome struct {
	Token    RequestToken
	State    RequestState
	Request  ports.AskRequest
	Response ports.AskResponse
	Err      error
}

// Replies supplies the user-facing text for entries the controller writes.
type Replies struct {
	Stopped string
	Failed  func(error) string
}

type RequestControllerOptions struct {
	Timeout  time.Duration
	Replies  Replies
	OnSettle func(Outcome)
}

type inflight struct {
	token       RequestToken
	placeholder domain.MessageID
	request     ports.AskRequest
	state       RequestState
	cancel      context.CancelFunc
	done        chan struct{}
}

// RequestController keeps at most one assistant request in flight. A newer
// Submit supersedes the older request, and results of cancelled or superseded
// requests are dropped without touching the message log.
type RequestController struct {
	mu        sync.Mutex
	store     *MessageStore
	assistant ports.AssistantAPI
	clock     ports.Clock
	ids       ports.IDGenerator
	logger    *slog.Logger
	opts      RequestControllerOptions
	current   *inflight
	requests  map[RequestToken]*inflight
}

func NewRequestController(store *MessageStore, assistant ports.AssistantAPI, clock ports.Clock, ids ports.IDGenerator, logger *slog.Logger, opts RequestControllerOptions) *RequestController {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if ids == nil {
		ids = ports.UUIDGenerator{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultAskTimeout
	}
	if opts.Replies.Stopped == "" {
		opts.Replies.Stopped = "Stopped by user."
	}
	if opts.Replies.Failed == nil {
		opts.Replies.Failed = func(error) string { return "Something went wrong. Please try again." }
	}

	return &RequestController{
		store:     store,
		assistant: assistant,
		clock:     clock,
		ids:       ids,
		logger:    logger,
		opts:      opts,
		requests:  map[RequestToken]*inflight{},
	}
}

func PlaceholderID(token RequestToken) domain.MessageID {
	return domain.MessageID("pending-" + string(token))
}

// Submit supersedes any pending request, appends a pending placeholder and
// issues the remote call in the background. The request outlives ctx: only
// Cancel, a newer Submit, Discard or the configured timeout end it early.
func (c *RequestController) Submit(ctx context.Context, req ports.AskRequest) (RequestToken, error) {
	c.mu.Lock()

	if c.current != nil {
		c.endLocked(c.current, RequestSuperseded)
	}

	token := RequestToken(c.ids.NewID())
	placeholder := domain.Message{
		ID:        PlaceholderID(token),
		Role:      domain.RoleAssistant,
		Kind:      domain.MessageKindText,
		Status:    domain.MessageStatusPending,
		CreatedAt: c.clock.Now(),
	}
	if err := c.store.Append(placeholder); err != nil {
		c.mu.Unlock()
		return "", fmt.Errorf("append placeholder: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opts.Timeout)
	attempt := &inflight{
		token:       token,
		placeholder: placeholder.ID,
		request:     req,
		state:       RequestPending,
		cancel:      cancel,
		done:        make(chan struct{}),
	}
	c.current = attempt
	c.requests[token] = attempt
	c.mu.Unlock()

	c.logger.Debug("assistant request submitted",
		"token", token,
		"conversation_id", req.ConversationID,
		"mode", req.Mode,
	)

	go c.run(reqCtx, attempt)

	return token, nil
}

// Cancel stops the pending request and leaves a "stopped by user" entry in
// place of its placeholder. An empty token cancels whatever is pending.
func (c *RequestController) Cancel(token RequestToken) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	attempt := c.current
	if attempt == nil || (token != "" && attempt.token != token) {
		return domain.ErrNoPendingRequest
	}

	attempt.state = RequestCancelled
	attempt.cancel()
	c.current = nil

	stopped := domain.Message{
		ID:        attempt.placeholder,
		Role:      domain.RoleAssistant,
		Kind:      domain.MessageKindStopped,
		Text:      c.opts.Replies.Stopped,
		Status:    domain.MessageStatusComplete,
		CreatedAt: c.clock.Now(),
	}
	if err := c.store.Replace(attempt.placeholder, stopped); err != nil {
		return fmt.Errorf("replace placeholder: %w", err)
	}

	c.logger.Debug("assistant request cancelled", "token", attempt.token)
	return nil
}

// Discard drops the pending request, if any, and removes its placeholder.
func (c *RequestController) Discard() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return false
	}
	c.endLocked(c.current, RequestCancelled)
	return true
}

// ResetTo discards any pending request and replaces the message log in one
// step, so the log never holds a placeholder without a pending token.
func (c *RequestController) ResetTo(messages []domain.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil {
		c.endLocked(c.current, RequestCancelled)
	}
	return c.store.ResetTo(messages)
}

func (c *RequestController) Pending() (RequestToken, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return "", false
	}
	return c.current.token, true
}

// Snapshot returns the message log together with the pending token, read
// under one lock so the pair is consistent.
func (c *RequestController) Snapshot() ([]domain.Message, RequestToken) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var token RequestToken
	if c.current != nil {
		token = c.current.token
	}
	return c.store.Snapshot(), token
}

// Wait blocks until the request identified by token has settled, including
// requests whose result was discarded.
func (c *RequestController) Wait(ctx context.Context, token RequestToken) error {
	c.mu.Lock()
	attempt, ok := c.requests[token]
	c.mu.Unlock()
	if !ok {
		return nil
	}

	select {
	case <-attempt.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *RequestController) run(ctx context.Context, attempt *inflight) {
	response, err := c.assistant.Ask(ctx, attempt.request)
	c.settle(attempt, response, err)
}

func (c *RequestController) settle(attempt *inflight, response ports.AskResponse, err error) {
	defer close(attempt.done)

	outcome, deliver := c.applyResult(attempt, response, err)
	if deliver && c.opts.OnSettle != nil {
		c.opts.OnSettle(outcome)
	}
}

func (c *RequestController) applyResult(attempt *inflight, response ports.AskResponse, err error) (Outcome, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	defer delete(c.requests, attempt.token)
	attempt.cancel()

	if attempt.state != RequestPending {
		c.logger.Debug("discarding late assistant result",
			"token", attempt.token,
			"state", attempt.state,
			"error", err,
		)
		return Outcome{}, false
	}
	if c.current == attempt {
		c.current = nil
	}

	outcome := Outcome{Token: attempt.token, Request: attempt.request, Response: response}
	reply := domain.Message{
		ID:        attempt.placeholder,
		Role:      domain.RoleAssistant,
		Kind:      domain.MessageKindText,
		CreatedAt: c.clock.Now(),
	}

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("assistant request timed out after %s: %w", c.opts.Timeout, err)
		}
		c.logger.Warn("assistant request failed",
			"token", attempt.token,
			"conversation_id", attempt.request.ConversationID,
			"error", err,
		)
		attempt.state = RequestFailed
		outcome.State = RequestFailed
		outcome.Err = err
		reply.Status = domain.MessageStatusError
		reply.Text = c.opts.Replies.Failed(err)
	} else {
		attempt.state = RequestFulfilled
		outcome.State = RequestFulfilled
		reply.Status = domain.MessageStatusComplete
		reply.Text = response.Text
	}

	if replaceErr := c.store.Replace(attempt.placeholder, reply); replaceErr != nil {
		c.logger.Error("settle assistant request", "token", attempt.token, "error", replaceErr)
		return Outcome{}, false
	}

	return outcome, true
}

func (c *RequestController) endLocked(attempt *inflight, state RequestState) {
	attempt.state = state
	attempt.cancel()
	if c.current == attempt {
		c.current = nil
	}
	if _, err := c.store.RemoveByID(attempt.placeholder); err != nil && !errors.Is(err, domain.ErrMessageNotFound) {
		c.logger.Error("remove placeholder", "token", attempt.token, "error", err)
	}
	c.logger.Debug("assistant request ended", "token", attempt.token, "state", state)
}
