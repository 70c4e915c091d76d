package shopapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/atelierline/storesync/storetypes"
)

// NotificationAPI is the activity-feed surface consumed by the notification
// poller.
type NotificationAPI interface {
	ListNotifications(ctx context.Context) ([]storetypes.Notification, error)
	UnreadNotificationCount(ctx context.Context) (int, error)
	MarkNotificationRead(ctx context.Context, notificationID string) error
	MarkAllNotificationsRead(ctx context.Context) error
	DeleteNotification(ctx context.Context, notificationID string) error
}

var _ NotificationAPI = (*Client)(nil)

func (c *Client) ListNotifications(ctx context.Context) ([]storetypes.Notification, error) {
	var notifications []storetypes.Notification
	if err := c.doJSON(ctx, http.MethodGet, "/api/notifications", nil, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (c *Client) UnreadNotificationCount(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/notifications/unread-count", nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, notificationID string) error {
	path := "/api/notifications/" + url.PathEscape(notificationID) + "/read"
	return c.doJSON(ctx, http.MethodPost, path, struct{}{}, nil)
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/api/notifications/read-all", struct{}{}, nil)
}

func (c *Client) DeleteNotification(ctx context.Context, notificationID string) error {
	path := "/api/notifications/" + url.PathEscape(notificationID)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}
