package identityservice

import (
	"context"

	"github.com/atelierline/storesync/libtracker"
	"github.com/atelierline/storesync/storetypes"
)

type activityTrackerDecorator struct {
	service Service
	tracker libtracker.ActivityTracker
}

func (d *activityTrackerDecorator) Login(ctx context.Context, token string) (storetypes.Identity, error) {
	reportErrFn, reportChangeFn, endFn := d.tracker.Start(
		ctx,
		"login",
		"identity",
	)
	defer endFn()

	identity, err := d.service.Login(ctx, token)
	if err != nil {
		reportErrFn(err)
	} else {
		reportChangeFn(identity.String(), map[string]interface{}{
			"user_id": identity.UserID,
		})
	}
	return identity, err
}

func (d *activityTrackerDecorator) Logout(ctx context.Context) {
	_, reportChangeFn, endFn := d.tracker.Start(
		ctx,
		"logout",
		"identity",
		"previous", d.service.Identity().String(),
	)
	defer endFn()

	d.service.Logout(ctx)
	reportChangeFn("guest", nil)
}

func (d *activityTrackerDecorator) Identity() storetypes.Identity {
	return d.service.Identity()
}

func (d *activityTrackerDecorator) Token() string {
	return d.service.Token()
}

// WithActivityTracker wraps an identity service with activity tracking.
func WithActivityTracker(service Service, tracker libtracker.ActivityTracker) Service {
	return &activityTrackerDecorator{
		service: service,
		tracker: tracker,
	}
}

var _ Service = (*activityTrackerDecorator)(nil)
