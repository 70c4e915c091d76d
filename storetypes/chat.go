package storetypes

import (
	"sort"
	"time"
)

// ParticipantRole distinguishes the two sides of a support conversation.
type ParticipantRole string

const (
	RoleCustomer ParticipantRole = "customer"
	RoleSupport  ParticipantRole = "support"
)

// Message is one chat message. The server assigns the canonical id; ids are
// unique per conversation and monotonically increasing in send order.
type Message struct {
	ID             int64      `json:"id"`
	ConversationID string     `json:"conversationId"`
	SenderID       string     `json:"senderId"`
	Content        string     `json:"content,omitempty"`
	ImageRef       string     `json:"imageRef,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	ReadAt         *time.Time `json:"readAt,omitempty"`
}

// Conversation is a support-chat thread with its embedded message history.
type Conversation struct {
	ID            string            `json:"id"`
	Participants  []ParticipantRole `json:"participantRoles"`
	Messages      []Message         `json:"messages"`
	LastMessageAt time.Time         `json:"lastMessageAt"`
	UnreadCount   int               `json:"unreadCount"`
}

// SortMessages orders msgs ascending by id in place.
func SortMessages(msgs []Message) {
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].ID < msgs[j].ID })
}

// NotificationCategory is the kind of a feed entry.
type NotificationCategory string

const (
	NotificationOrder       NotificationCategory = "order"
	NotificationAppointment NotificationCategory = "appointment"
	NotificationMessage     NotificationCategory = "message"
	NotificationReview      NotificationCategory = "review"
	NotificationSystem      NotificationCategory = "system"
)

// Notification is one entry of the system-wide activity feed. Independent of
// chat; polled only for the unread badge and the recent-activity list.
type Notification struct {
	ID        string               `json:"id"`
	Category  NotificationCategory `json:"category"`
	Title     string               `json:"title"`
	Body      string               `json:"body,omitempty"`
	CreatedAt time.Time            `json:"createdAt"`
	Read      bool                 `json:"read"`
}
