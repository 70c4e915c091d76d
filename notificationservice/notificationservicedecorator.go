package notificationservice

import (
	"context"

	"github.com/atelierline/storesync/libtracker"
	"github.com/atelierline/storesync/storetypes"
)

type activityTrackerDecorator struct {
	service Service
	tracker libtracker.ActivityTracker
}

func (d *activityTrackerDecorator) Start(ctx context.Context) { d.service.Start(ctx) }

func (d *activityTrackerDecorator) Stop() { d.service.Stop() }

func (d *activityTrackerDecorator) Refresh(ctx context.Context) error {
	reportErrFn, _, endFn := d.tracker.Start(ctx, "refresh", "notifications")
	defer endFn()

	err := d.service.Refresh(ctx)
	if err != nil {
		reportErrFn(err)
	}
	return err
}

func (d *activityTrackerDecorator) All() []storetypes.Notification { return d.service.All() }

func (d *activityTrackerDecorator) Recent(n int) []storetypes.Notification {
	return d.service.Recent(n)
}

func (d *activityTrackerDecorator) Unread() int { return d.service.Unread() }

func (d *activityTrackerDecorator) MarkRead(ctx context.Context, notificationID string) error {
	reportErrFn, reportChangeFn, endFn := d.tracker.Start(
		ctx,
		"mark_read",
		"notification",
		"notification_id", notificationID,
	)
	defer endFn()

	err := d.service.MarkRead(ctx, notificationID)
	if err != nil {
		reportErrFn(err)
	} else {
		reportChangeFn(notificationID, nil)
	}
	return err
}

func (d *activityTrackerDecorator) MarkAllRead(ctx context.Context) error {
	reportErrFn, reportChangeFn, endFn := d.tracker.Start(ctx, "mark_all_read", "notifications")
	defer endFn()

	err := d.service.MarkAllRead(ctx)
	if err != nil {
		reportErrFn(err)
	} else {
		reportChangeFn("notifications", nil)
	}
	return err
}

func (d *activityTrackerDecorator) Delete(ctx context.Context, notificationID string) error {
	reportErrFn, reportChangeFn, endFn := d.tracker.Start(
		ctx,
		"delete",
		"notification",
		"notification_id", notificationID,
	)
	defer endFn()

	err := d.service.Delete(ctx, notificationID)
	if err != nil {
		reportErrFn(err)
	} else {
		reportChangeFn(notificationID, nil)
	}
	return err
}

// WithActivityTracker wraps a notification service with activity tracking.
func WithActivityTracker(service Service, tracker libtracker.ActivityTracker) Service {
	return &activityTrackerDecorator{
		service: service,
		tracker: tracker,
	}
}

var _ Service = (*activityTrackerDecorator)(nil)
