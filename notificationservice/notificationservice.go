// Package notificationservice keeps the system-wide activity feed current.
// A fixed-interval poller refreshes the feed; entries are deduplicated by id
// so repeated polls never inflate the list. Poll failures are retried
// silently on the next tick.
package notificationservice

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/atelierline/storesync/libbus"
	"github.com/atelierline/storesync/libroutine"
	"github.com/atelierline/storesync/shopapi"
	"github.com/atelierline/storesync/storetypes"
)

const (
	// DefaultPollInterval is the feed refresh period.
	DefaultPollInterval = 30 * time.Second

	pollFailureThreshold = 3
	pollRecoveryTimeout  = time.Minute
)

// Service is the notification-feed API. Reads serve the in-memory cache,
// which trails the server by at most one poll interval; mutations call the
// server first and update the cache on success.
type Service interface {
	// Start launches the poll loop. It returns after the first refresh
	// attempt has been scheduled; Stop ends the loop.
	Start(ctx context.Context)
	Stop()
	Refresh(ctx context.Context) error
	All() []storetypes.Notification
	Recent(n int) []storetypes.Notification
	Unread() int
	MarkRead(ctx context.Context, notificationID string) error
	MarkAllRead(ctx context.Context) error
	Delete(ctx context.Context, notificationID string) error
}

type service struct {
	api          shopapi.NotificationAPI
	bus          libbus.Messenger
	pollInterval time.Duration

	mu            sync.Mutex
	notifications map[string]storetypes.Notification

	cancel  context.CancelFunc
	stopped chan struct{}
	trigger chan struct{}
}

// New creates a notification service. pollInterval ≤ 0 selects
// DefaultPollInterval.
func New(api shopapi.NotificationAPI, bus libbus.Messenger, pollInterval time.Duration) Service {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &service{
		api:           api,
		bus:           bus,
		pollInterval:  pollInterval,
		notifications: make(map[string]storetypes.Notification),
	}
}

func (s *service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	pollCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.stopped = make(chan struct{})
	s.trigger = make(chan struct{}, 1)

	breaker := libroutine.NewRoutine(pollFailureThreshold, pollRecoveryTimeout)
	stopped := s.stopped
	trigger := s.trigger
	go func() {
		defer close(stopped)
		// Failures are dropped here and retried next tick. The feed is
		// advisory; a stale badge is better than a surfaced error.
		breaker.Loop(pollCtx, s.pollInterval, trigger, s.Refresh, func(error) {})
	}()
}

func (s *service) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	stopped := s.stopped
	s.cancel = nil
	s.stopped = nil
	s.trigger = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-stopped
	}
}

// Refresh fetches the feed once and folds it into the cache, deduplicating
// by id. Server state wins for entries present in both.
func (s *service) Refresh(ctx context.Context) error {
	fetched, err := s.api.ListNotifications(ctx)
	if err != nil {
		return fmt.Errorf("notificationservice: refresh failed: %w", err)
	}

	s.mu.Lock()
	changed := false
	for _, notification := range fetched {
		if notification.ID == "" {
			continue
		}
		held, known := s.notifications[notification.ID]
		if !known || held != notification {
			s.notifications[notification.ID] = notification
			changed = true
		}
	}
	s.mu.Unlock()

	if changed {
		s.publishUpdated(ctx)
	}
	return nil
}

func (s *service) All() []storetypes.Notification {
	s.mu.Lock()
	out := make([]storetypes.Notification, 0, len(s.notifications))
	for _, notification := range s.notifications {
		out = append(out, notification)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Recent returns the n newest entries, newest first.
func (s *service) Recent(n int) []storetypes.Notification {
	all := s.All()
	if n < 0 {
		n = 0
	}
	if len(all) > n {
		all = all[:n]
	}
	return all
}

func (s *service) Unread() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, notification := range s.notifications {
		if !notification.Read {
			count++
		}
	}
	return count
}

func (s *service) MarkRead(ctx context.Context, notificationID string) error {
	if err := s.api.MarkNotificationRead(ctx, notificationID); err != nil {
		return fmt.Errorf("notificationservice: mark read failed: %w", err)
	}
	s.mu.Lock()
	if notification, ok := s.notifications[notificationID]; ok {
		notification.Read = true
		s.notifications[notificationID] = notification
	}
	s.mu.Unlock()
	s.publishUpdated(ctx)
	return nil
}

func (s *service) MarkAllRead(ctx context.Context) error {
	if err := s.api.MarkAllNotificationsRead(ctx); err != nil {
		return fmt.Errorf("notificationservice: mark all read failed: %w", err)
	}
	s.mu.Lock()
	for id, notification := range s.notifications {
		notification.Read = true
		s.notifications[id] = notification
	}
	s.mu.Unlock()
	s.publishUpdated(ctx)
	return nil
}

func (s *service) Delete(ctx context.Context, notificationID string) error {
	if err := s.api.DeleteNotification(ctx, notificationID); err != nil {
		return fmt.Errorf("notificationservice: delete failed: %w", err)
	}
	s.mu.Lock()
	delete(s.notifications, notificationID)
	s.mu.Unlock()
	s.publishUpdated(ctx)
	return nil
}

func (s *service) publishUpdated(ctx context.Context) {
	if s.bus == nil {
		return
	}
	_ = s.bus.Publish(ctx, libbus.SubjectNotifications, nil)
}
