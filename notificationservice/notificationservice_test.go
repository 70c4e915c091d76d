package notificationservice_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/atelierline/storesync/notificationservice"
	"github.com/atelierline/storesync/shopapi"
	"github.com/atelierline/storesync/storetypes"
	"github.com/stretchr/testify/require"
)

type fakeFeedAPI struct {
	mu      sync.Mutex
	feed    []storetypes.Notification
	listErr error
	calls   int
}

func (f *fakeFeedAPI) ListNotifications(ctx context.Context) ([]storetypes.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]storetypes.Notification(nil), f.feed...), nil
}

func (f *fakeFeedAPI) UnreadNotificationCount(ctx context.Context) (int, error) {
	count := 0
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.feed {
		if !n.Read {
			count++
		}
	}
	return count, nil
}

func (f *fakeFeedAPI) MarkNotificationRead(ctx context.Context, notificationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.feed {
		if f.feed[i].ID == notificationID {
			f.feed[i].Read = true
		}
	}
	return nil
}

func (f *fakeFeedAPI) MarkAllNotificationsRead(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.feed {
		f.feed[i].Read = true
	}
	return nil
}

func (f *fakeFeedAPI) DeleteNotification(ctx context.Context, notificationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.feed[:0]
	for _, n := range f.feed {
		if n.ID != notificationID {
			kept = append(kept, n)
		}
	}
	f.feed = kept
	return nil
}

var _ shopapi.NotificationAPI = (*fakeFeedAPI)(nil)

func entry(id string, category storetypes.NotificationCategory, age time.Duration, read bool) storetypes.Notification {
	return storetypes.Notification{
		ID:        id,
		Category:  category,
		Title:     "notification " + id,
		CreatedAt: time.Now().UTC().Add(-age),
		Read:      read,
	}
}

func TestUnit_RefreshDeduplicatesByID(t *testing.T) {
	api := &fakeFeedAPI{feed: []storetypes.Notification{
		entry("n1", storetypes.NotificationOrder, time.Hour, false),
		entry("n2", storetypes.NotificationMessage, time.Minute, false),
	}}
	svc := notificationservice.New(api, nil, time.Hour)

	ctx := context.Background()
	require.NoError(t, svc.Refresh(ctx))
	require.NoError(t, svc.Refresh(ctx))

	require.Len(t, svc.All(), 2)
	require.Equal(t, 2, svc.Unread())
}

func TestUnit_RecentReturnsNewestFirst(t *testing.T) {
	api := &fakeFeedAPI{feed: []storetypes.Notification{
		entry("old", storetypes.NotificationSystem, 48*time.Hour, true),
		entry("newer", storetypes.NotificationReview, time.Hour, false),
		entry("newest", storetypes.NotificationAppointment, time.Minute, false),
	}}
	svc := notificationservice.New(api, nil, time.Hour)
	require.NoError(t, svc.Refresh(context.Background()))

	recent := svc.Recent(2)
	require.Len(t, recent, 2)
	require.Equal(t, "newest", recent[0].ID)
	require.Equal(t, "newer", recent[1].ID)

	require.Empty(t, svc.Recent(0))
}

func TestUnit_MarkReadUpdatesBadge(t *testing.T) {
	api := &fakeFeedAPI{feed: []storetypes.Notification{
		entry("n1", storetypes.NotificationOrder, time.Hour, false),
		entry("n2", storetypes.NotificationOrder, time.Hour, false),
	}}
	svc := notificationservice.New(api, nil, time.Hour)
	ctx := context.Background()
	require.NoError(t, svc.Refresh(ctx))

	require.NoError(t, svc.MarkRead(ctx, "n1"))
	require.Equal(t, 1, svc.Unread())

	require.NoError(t, svc.MarkAllRead(ctx))
	require.Zero(t, svc.Unread())
}

func TestUnit_DeleteRemovesEntry(t *testing.T) {
	api := &fakeFeedAPI{feed: []storetypes.Notification{
		entry("n1", storetypes.NotificationOrder, time.Hour, false),
	}}
	svc := notificationservice.New(api, nil, time.Hour)
	ctx := context.Background()
	require.NoError(t, svc.Refresh(ctx))

	require.NoError(t, svc.Delete(ctx, "n1"))
	require.Empty(t, svc.All())
	require.NoError(t, svc.Refresh(ctx))
	require.Empty(t, svc.All())
}

func TestUnit_PollerRetriesSilentlyAfterFailures(t *testing.T) {
	api := &fakeFeedAPI{listErr: errors.New("offline")}
	svc := notificationservice.New(api, nil, 10*time.Millisecond)

	svc.Start(context.Background())
	defer svc.Stop()

	require.Eventually(t, func() bool {
		api.mu.Lock()
		defer api.mu.Unlock()
		return api.calls >= 2
	}, time.Second, 5*time.Millisecond)

	api.mu.Lock()
	api.listErr = nil
	api.feed = []storetypes.Notification{entry("n1", storetypes.NotificationOrder, time.Minute, false)}
	api.mu.Unlock()

	require.Eventually(t, func() bool {
		return len(svc.All()) == 1
	}, 90*time.Second, 20*time.Millisecond)
}

func TestUnit_StopHaltsPolling(t *testing.T) {
	api := &fakeFeedAPI{}
	svc := notificationservice.New(api, nil, 10*time.Millisecond)
	svc.Start(context.Background())
	svc.Stop()

	api.mu.Lock()
	calls := api.calls
	api.mu.Unlock()
	time.Sleep(60 * time.Millisecond)
	api.mu.Lock()
	defer api.mu.Unlock()
	require.Equal(t, calls, api.calls)
}
