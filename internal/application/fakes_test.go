package application

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/recallo/recallo-cli/internal/domain"
	"github.com/recallo/recallo-cli/internal/ports"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func anyContext() interface{} {
	return mock.Anything
}

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFixedClock() *fixedClock {
	return &fixedClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(time.Second)
	return c.now
}

type sequentialIDs struct {
	next atomic.Int64
}

func (g *sequentialIDs) NewID() string {
	return fmt.Sprintf("id-%d", g.next.Add(1))
}

type askReply struct {
	response ports.AskResponse
	err      error
}

type askCall struct {
	ctx     context.Context
	request ports.AskRequest
	reply   chan askReply
}

func (c *askCall) succeed(text string, conversationID domain.ConversationID) {
	c.reply <- askReply{response: ports.AskResponse{Text: text, ConversationID: conversationID}}
}

func (c *askCall) fail(err error) {
	c.reply <- askReply{err: err}
}

// scriptedAssistant parks every Ask until the test answers it. With honorCtx
// unset it ignores cancellation, like a backend that keeps working after the
// client gave up.
type scriptedAssistant struct {
	calls    chan *askCall
	honorCtx bool
}

func newScriptedAssistant() *scriptedAssistant {
	return &scriptedAssistant{calls: make(chan *askCall, 32)}
}

func (a *scriptedAssistant) Ask(ctx context.Context, req ports.AskRequest) (ports.AskResponse, error) {
	call := &askCall{ctx: ctx, request: req, reply: make(chan askReply, 1)}
	a.calls <- call

	var done <-chan struct{}
	if a.honorCtx {
		done = ctx.Done()
	}

	select {
	case reply := <-call.reply:
		return reply.response, reply.err
	case <-done:
		return ports.AskResponse{}, ctx.Err()
	}
}

func (a *scriptedAssistant) next(t *testing.T) *askCall {
	t.Helper()

	select {
	case call := <-a.calls:
		return call
	case <-time.After(2 * time.Second):
		require.FailNow(t, "assistant was not called")
		return nil
	}
}

func waitSettled(t *testing.T, wait func(context.Context, RequestToken) error, token RequestToken) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, wait(ctx, token))
}

func texts(messages []domain.Message) []string {
	result := make([]string, 0, len(messages))
	for _, message := range messages {
		result = append(result, message.Text)
	}
	return result
}

func pendingCount(messages []domain.Message) int {
	count := 0
	for _, message := range messages {
		if message.IsPending() {
			count++
		}
	}
	return count
}
