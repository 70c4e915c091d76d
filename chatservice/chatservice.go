// Package chatservice keeps the open support conversation synchronized with
// the server. One conversation is open at a time; its history is fetched
// once, then kept current by a fixed-interval poll that fetches only messages
// newer than the highest id held. Sent messages use await-then-append: the
// server-confirmed record is appended under an id-existence guard so a
// concurrent poll cannot duplicate it.
package chatservice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/atelierline/storesync/libbus"
	"github.com/atelierline/storesync/shopapi"
	"github.com/atelierline/storesync/storetypes"
)

const (
	// DefaultPollInterval is the incremental message fetch period.
	DefaultPollInterval = 3 * time.Second

	pollFailureThreshold = 3
	pollRecoveryTimeout  = 10 * time.Second
)

var (
	// ErrNoOpenConversation is returned by operations that need an open session.
	ErrNoOpenConversation = errors.New("chatservice: no open conversation")
	// ErrEmptyMessage is returned for sends with no content and no image.
	ErrEmptyMessage = errors.New("chatservice: message is empty")
)

// Service is the conversation-session API. Open switches the active
// conversation, closing any previous session first; reads reflect the
// in-memory cache, which trails the server by at most one poll interval.
type Service interface {
	Open(ctx context.Context, conversationID string) error
	Close()
	State() SessionState
	ActiveConversation() string
	Messages() []storetypes.Message
	LastMessageAt() time.Time
	UnreadCount() int
	Send(ctx context.Context, content string) (*storetypes.Message, error)
	SendImage(ctx context.Context, filename string, image io.Reader, size int64) (*storetypes.Message, error)
	MarkRead(ctx context.Context) error
	ListConversations(ctx context.Context) ([]storetypes.Conversation, error)
	CreateConversation(ctx context.Context) (*storetypes.Conversation, error)
	Poke()
}

type service struct {
	api          shopapi.ChatAPI
	bus          libbus.Messenger
	pollInterval time.Duration
	session      *session
}

// New creates a chat service. pollInterval ≤ 0 selects DefaultPollInterval.
func New(api shopapi.ChatAPI, bus libbus.Messenger, pollInterval time.Duration) Service {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &service{
		api:          api,
		bus:          bus,
		pollInterval: pollInterval,
		session:      &session{state: StateClosed},
	}
}

// Open fetches the full history of the conversation and starts the poll
// loop. An already-open session is closed first, stopping its timer before
// the new history fetch begins.
func (s *service) Open(ctx context.Context, conversationID string) error {
	s.Close()

	sess := s.session
	sess.mu.Lock()
	sess.conversationID = conversationID
	sess.state = StateLoading
	sess.mu.Unlock()

	conversation, err := s.api.GetConversation(ctx, conversationID)
	if err != nil {
		sess.mu.Lock()
		sess.conversationID = ""
		sess.state = StateClosed
		sess.mu.Unlock()
		return fmt.Errorf("chatservice: failed to open conversation: %w", err)
	}

	sess.mu.Lock()
	// The session may have been closed while the fetch was in flight.
	if sess.conversationID != conversationID || sess.state != StateLoading {
		sess.mu.Unlock()
		return nil
	}
	sess.applyConversation(conversation)
	sess.state = StateActive
	sess.startPolling(context.WithoutCancel(ctx), s.pollInterval, s.poll, func(error) {
		// Poll failures are retried on the next tick; the breaker spaces
		// retries out after repeated failures.
	})
	sess.mu.Unlock()

	s.publishUpdated(ctx, conversationID)
	return nil
}

// Close stops the poll timer and discards the session. Safe to call at any
// time, including when nothing is open.
func (s *service) Close() {
	sess := s.session
	sess.mu.Lock()
	if sess.state == StateClosed {
		sess.mu.Unlock()
		return
	}
	sess.conversationID = ""
	sess.state = StateClosed
	sess.messages = nil
	sess.lastMessageAt = time.Time{}
	sess.unreadCount = 0
	sess.inFlight = false
	cancelled := sess.cancel != nil
	sess.mu.Unlock()

	// stopPolling waits for the loop goroutine; it must not run under mu
	// because an in-flight poll takes the same lock to finish.
	if cancelled {
		sess.stopPolling()
	}
}

// poll is one tick of the loop: fetch messages newer than the highest id
// held, discard known ids, append the rest ascending, and mark the batch
// read. A tick that lands while a previous request is outstanding is skipped.
func (s *service) poll(ctx context.Context) error {
	sess := s.session

	sess.mu.Lock()
	if sess.state != StateActive || sess.inFlight {
		sess.mu.Unlock()
		return nil
	}
	conversationID := sess.conversationID
	afterID := sess.highestID()
	sess.inFlight = true
	sess.state = StatePolling
	sess.mu.Unlock()

	fetched, err := s.api.MessagesAfter(ctx, conversationID, afterID)

	sess.mu.Lock()
	sess.inFlight = false
	// Responses are tagged with the conversation they targeted; a session
	// that moved on drops them.
	if sess.conversationID != conversationID {
		sess.mu.Unlock()
		return nil
	}
	if sess.state == StatePolling {
		sess.state = StateActive
	}
	if err != nil {
		sess.mu.Unlock()
		return fmt.Errorf("chatservice: poll failed: %w", err)
	}
	appended := sess.mergeNew(fetched)
	sess.mu.Unlock()

	if appended > 0 {
		s.publishUpdated(ctx, conversationID)
		if err := s.markRead(ctx, conversationID); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) State() SessionState {
	s.session.mu.Lock()
	defer s.session.mu.Unlock()
	return s.session.state
}

func (s *service) ActiveConversation() string {
	s.session.mu.Lock()
	defer s.session.mu.Unlock()
	return s.session.conversationID
}

func (s *service) Messages() []storetypes.Message {
	return s.session.snapshot()
}

func (s *service) LastMessageAt() time.Time {
	s.session.mu.Lock()
	defer s.session.mu.Unlock()
	return s.session.lastMessageAt
}

func (s *service) UnreadCount() int {
	s.session.mu.Lock()
	defer s.session.mu.Unlock()
	return s.session.unreadCount
}

// Send posts content and appends the server-confirmed record. If a poll
// already pulled the same id, the append is skipped; the confirmed message is
// returned either way. On failure nothing is appended and a failed-send
// notice goes out on the bus.
func (s *service) Send(ctx context.Context, content string) (*storetypes.Message, error) {
	if content == "" {
		return nil, ErrEmptyMessage
	}
	conversationID, err := s.requireOpen()
	if err != nil {
		return nil, err
	}

	message, err := s.api.SendMessage(ctx, conversationID, content)
	if err != nil {
		libbus.PublishNotice(ctx, s.bus, libbus.NoticeError, "Your message could not be sent. Please try again.")
		return nil, fmt.Errorf("chatservice: send failed: %w", err)
	}
	s.appendConfirmed(ctx, conversationID, message)
	return message, nil
}

// SendImage posts an image attachment through the same pipeline as Send.
func (s *service) SendImage(ctx context.Context, filename string, image io.Reader, size int64) (*storetypes.Message, error) {
	conversationID, err := s.requireOpen()
	if err != nil {
		return nil, err
	}

	message, err := s.api.SendImage(ctx, conversationID, filename, image, size)
	if err != nil {
		if errors.Is(err, shopapi.ErrAttachmentTooLarge) {
			libbus.PublishNotice(ctx, s.bus, libbus.NoticeWarning, "Images must be smaller than 5 MB.")
			return nil, err
		}
		libbus.PublishNotice(ctx, s.bus, libbus.NoticeError, "Your image could not be sent. Please try again.")
		return nil, fmt.Errorf("chatservice: image send failed: %w", err)
	}
	s.appendConfirmed(ctx, conversationID, message)
	return message, nil
}

func (s *service) requireOpen() (string, error) {
	s.session.mu.Lock()
	defer s.session.mu.Unlock()
	if s.session.state == StateClosed || s.session.state == StateLoading {
		return "", ErrNoOpenConversation
	}
	return s.session.conversationID, nil
}

// appendConfirmed merges one server-confirmed message into the session. The
// id-existence check inside mergeNew makes the append idempotent against the
// poll loop.
func (s *service) appendConfirmed(ctx context.Context, conversationID string, message *storetypes.Message) {
	sess := s.session
	sess.mu.Lock()
	if sess.conversationID != conversationID {
		sess.mu.Unlock()
		return
	}
	appended := sess.mergeNew([]storetypes.Message{*message})
	sess.mu.Unlock()
	if appended > 0 {
		s.publishUpdated(ctx, conversationID)
	}
}

// MarkRead reports the open conversation read to the server and stamps every
// held message locally.
func (s *service) MarkRead(ctx context.Context) error {
	conversationID, err := s.requireOpen()
	if err != nil {
		return err
	}
	return s.markRead(ctx, conversationID)
}

func (s *service) markRead(ctx context.Context, conversationID string) error {
	if err := s.api.MarkRead(ctx, conversationID); err != nil {
		return fmt.Errorf("chatservice: mark read failed: %w", err)
	}
	sess := s.session
	sess.mu.Lock()
	if sess.conversationID == conversationID {
		sess.stampRead(time.Now().UTC())
	}
	sess.mu.Unlock()
	return nil
}

func (s *service) ListConversations(ctx context.Context) ([]storetypes.Conversation, error) {
	return s.api.ListConversations(ctx)
}

func (s *service) CreateConversation(ctx context.Context) (*storetypes.Conversation, error) {
	return s.api.CreateConversation(ctx)
}

// Poke requests an immediate poll, used after a send to shorten the window
// until the counterpart's reply shows up.
func (s *service) Poke() {
	s.session.mu.Lock()
	defer s.session.mu.Unlock()
	s.session.poke()
}

func (s *service) publishUpdated(ctx context.Context, conversationID string) {
	if s.bus == nil {
		return
	}
	_ = s.bus.Publish(ctx, libbus.SubjectChatUpdated, []byte(conversationID))
}
