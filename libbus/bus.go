// Package libbus carries store change events and transient user notices
// between the sync core and whatever surfaces subscribe to them. Views listen
// on subjects instead of reaching into ambient state; failures shown to the
// user travel the same channel and never interrupt the pollers.
package libbus

import (
	"context"
	"errors"
)

var (
	ErrConnectionClosed = errors.New("libbus: connection closed")
)

// Subscription is a live stream registration.
type Subscription interface {
	Unsubscribe() error
}

// Messenger is a fire-and-forget pub/sub channel.
type Messenger interface {
	Publish(ctx context.Context, subject string, data []byte) error
	// Stream delivers every message published to subject into ch until the
	// context ends or the subscription is cancelled.
	Stream(ctx context.Context, subject string, ch chan<- []byte) (Subscription, error)
	Close() error
}

// Subjects published by the sync core.
const (
	SubjectCartChanged     = "storesync.cart.changed"
	SubjectWishlistChanged = "storesync.wishlist.changed"
	SubjectCompareChanged  = "storesync.compare.changed"
	SubjectChatUpdated     = "storesync.chat.updated"
	SubjectNotifications   = "storesync.notifications.updated"
	SubjectUserNotice      = "storesync.user.notice"
)
