package chatservice

import (
	"context"
	"sync"
	"time"

	"github.com/atelierline/storesync/libroutine"
	"github.com/atelierline/storesync/storetypes"
)

// SessionState is the lifecycle state of a conversation session.
type SessionState int

const (
	// StateClosed means no conversation is open.
	StateClosed SessionState = iota
	// StateLoading means the initial history fetch is running.
	StateLoading
	// StateActive means the session holds history and the poll timer runs.
	StateActive
	// StatePolling means an incremental fetch is in flight.
	StatePolling
)

func (s SessionState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateLoading:
		return "loading"
	case StateActive:
		return "active"
	case StatePolling:
		return "polling"
	default:
		return "unknown"
	}
}

// session holds the in-memory message sequence for one open conversation.
// The sequence is a cache of server state: the server assigns canonical ids,
// unique per conversation and ascending in send order. All fields are guarded
// by mu; the poll goroutine and callers share it.
type session struct {
	mu sync.Mutex

	conversationID string
	state          SessionState
	messages       []storetypes.Message
	lastMessageAt  time.Time
	unreadCount    int

	// inFlight guards against overlapping polls: a tick that arrives while a
	// previous request is still outstanding is skipped, not queued.
	inFlight bool

	cancel  context.CancelFunc
	stopped chan struct{}
	trigger chan struct{}
}

// snapshot returns a copy of the held messages, ascending by id.
func (s *session) snapshot() []storetypes.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]storetypes.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// highestID returns the largest message id held, 0 when empty. Caller holds mu.
func (s *session) highestID() int64 {
	if len(s.messages) == 0 {
		return 0
	}
	return s.messages[len(s.messages)-1].ID
}

// mergeNew folds fetched messages into the session, discarding ids already
// held. Overlap between consecutive polls and the echo of a just-sent message
// both resolve here. Returns the number of messages actually appended.
// Caller holds mu.
func (s *session) mergeNew(fetched []storetypes.Message) int {
	if len(fetched) == 0 {
		return 0
	}
	known := make(map[int64]bool, len(s.messages))
	for _, msg := range s.messages {
		known[msg.ID] = true
	}
	appended := 0
	for _, msg := range fetched {
		if known[msg.ID] {
			continue
		}
		known[msg.ID] = true
		s.messages = append(s.messages, msg)
		appended++
		if msg.CreatedAt.After(s.lastMessageAt) {
			s.lastMessageAt = msg.CreatedAt
		}
	}
	if appended > 0 {
		storetypes.SortMessages(s.messages)
	}
	return appended
}

// stampRead marks every held message read and zeroes the unread count.
// Caller holds mu.
func (s *session) stampRead(at time.Time) {
	for i := range s.messages {
		if s.messages[i].ReadAt == nil {
			readAt := at
			s.messages[i].ReadAt = &readAt
		}
	}
	s.unreadCount = 0
}

// startPolling launches the poll loop for the session. The breaker holds
// ticks back after repeated failures but the loop itself never exits until
// the session closes, so polling always resumes.
func (s *session) startPolling(ctx context.Context, interval time.Duration, poll func(ctx context.Context) error, errFn func(error)) {
	pollCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.stopped = make(chan struct{})
	s.trigger = make(chan struct{}, 1)

	breaker := libroutine.NewRoutine(pollFailureThreshold, pollRecoveryTimeout)
	go func() {
		defer close(s.stopped)
		breaker.Loop(pollCtx, interval, s.trigger, poll, errFn)
	}()
}

// stopPolling cancels the loop and waits for the goroutine to exit, so a
// closed session can never write into a successor's state.
func (s *session) stopPolling() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.stopped
	s.cancel = nil
	s.stopped = nil
	s.trigger = nil
}

// poke requests an immediate poll without waiting for the next tick.
func (s *session) poke() {
	if s.trigger == nil {
		return
	}
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// applyConversation seeds the session from a full history fetch.
// Caller holds mu.
func (s *session) applyConversation(conversation *storetypes.Conversation) {
	s.messages = append([]storetypes.Message(nil), conversation.Messages...)
	storetypes.SortMessages(s.messages)
	s.lastMessageAt = conversation.LastMessageAt
	s.unreadCount = conversation.UnreadCount
	if s.lastMessageAt.IsZero() && len(s.messages) > 0 {
		s.lastMessageAt = s.messages[len(s.messages)-1].CreatedAt
	}
}
