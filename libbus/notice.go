package libbus

import (
	"context"
	"encoding/json"
)

// NoticeLevel grades a transient user notice.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a transient user-facing message. Notices ride the bus so any
// surface can render them; they never block and never interrupt pollers.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

// PublishNotice sends a user notice on SubjectUserNotice. Failures to publish
// are swallowed: a lost notice must not fail the operation that produced it.
func PublishNotice(ctx context.Context, m Messenger, level NoticeLevel, message string) {
	if m == nil {
		return
	}
	data, err := json.Marshal(Notice{Level: level, Message: message})
	if err != nil {
		return
	}
	_ = m.Publish(ctx, SubjectUserNotice, data)
}
