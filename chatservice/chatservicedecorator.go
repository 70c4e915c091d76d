package chatservice

import (
	"context"
	"io"
	"time"

	"github.com/atelierline/storesync/libtracker"
	"github.com/atelierline/storesync/storetypes"
)

type activityTrackerDecorator struct {
	service Service
	tracker libtracker.ActivityTracker
}

func (d *activityTrackerDecorator) Open(ctx context.Context, conversationID string) error {
	reportErrFn, reportChangeFn, endFn := d.tracker.Start(
		ctx,
		"open",
		"conversation",
		"conversation_id", conversationID,
	)
	defer endFn()

	err := d.service.Open(ctx, conversationID)
	if err != nil {
		reportErrFn(err)
	} else {
		reportChangeFn(conversationID, nil)
	}
	return err
}

func (d *activityTrackerDecorator) Close() {
	d.service.Close()
}

func (d *activityTrackerDecorator) State() SessionState { return d.service.State() }

func (d *activityTrackerDecorator) ActiveConversation() string {
	return d.service.ActiveConversation()
}

func (d *activityTrackerDecorator) Messages() []storetypes.Message { return d.service.Messages() }

func (d *activityTrackerDecorator) LastMessageAt() time.Time { return d.service.LastMessageAt() }

func (d *activityTrackerDecorator) UnreadCount() int { return d.service.UnreadCount() }

func (d *activityTrackerDecorator) Send(ctx context.Context, content string) (*storetypes.Message, error) {
	reportErrFn, reportChangeFn, endFn := d.tracker.Start(
		ctx,
		"send",
		"message",
		"conversation_id", d.service.ActiveConversation(),
	)
	defer endFn()

	message, err := d.service.Send(ctx, content)
	if err != nil {
		reportErrFn(err)
	} else {
		reportChangeFn(message.ConversationID, map[string]interface{}{"message_id": message.ID})
	}
	return message, err
}

func (d *activityTrackerDecorator) SendImage(ctx context.Context, filename string, image io.Reader, size int64) (*storetypes.Message, error) {
	reportErrFn, reportChangeFn, endFn := d.tracker.Start(
		ctx,
		"send_image",
		"message",
		"conversation_id", d.service.ActiveConversation(),
		"filename", filename,
	)
	defer endFn()

	message, err := d.service.SendImage(ctx, filename, image, size)
	if err != nil {
		reportErrFn(err)
	} else {
		reportChangeFn(message.ConversationID, map[string]interface{}{"message_id": message.ID})
	}
	return message, err
}

func (d *activityTrackerDecorator) MarkRead(ctx context.Context) error {
	reportErrFn, reportChangeFn, endFn := d.tracker.Start(
		ctx,
		"mark_read",
		"conversation",
		"conversation_id", d.service.ActiveConversation(),
	)
	defer endFn()

	err := d.service.MarkRead(ctx)
	if err != nil {
		reportErrFn(err)
	} else {
		reportChangeFn(d.service.ActiveConversation(), nil)
	}
	return err
}

func (d *activityTrackerDecorator) ListConversations(ctx context.Context) ([]storetypes.Conversation, error) {
	reportErrFn, _, endFn := d.tracker.Start(ctx, "list", "conversations")
	defer endFn()

	conversations, err := d.service.ListConversations(ctx)
	if err != nil {
		reportErrFn(err)
	}
	return conversations, err
}

func (d *activityTrackerDecorator) CreateConversation(ctx context.Context) (*storetypes.Conversation, error) {
	reportErrFn, reportChangeFn, endFn := d.tracker.Start(ctx, "create", "conversation")
	defer endFn()

	conversation, err := d.service.CreateConversation(ctx)
	if err != nil {
		reportErrFn(err)
	} else {
		reportChangeFn(conversation.ID, nil)
	}
	return conversation, err
}

func (d *activityTrackerDecorator) Poke() { d.service.Poke() }

// WithActivityTracker wraps a chat service with activity tracking.
func WithActivityTracker(service Service, tracker libtracker.ActivityTracker) Service {
	return &activityTrackerDecorator{
		service: service,
		tracker: tracker,
	}
}

var _ Service = (*activityTrackerDecorator)(nil)
