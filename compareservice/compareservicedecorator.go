package compareservice

import (
	"context"

	"github.com/atelierline/storesync/libtracker"
	"github.com/atelierline/storesync/storetypes"
)

type activityTrackerDecorator struct {
	service Service
	tracker libtracker.ActivityTracker
}

func (d *activityTrackerDecorator) Add(ctx context.Context, product storetypes.ProductSnapshot) error {
	reportErrFn, reportChangeFn, endFn := d.tracker.Start(
		ctx,
		"add",
		"compare_item",
		"product_id", product.ProductID,
	)
	defer endFn()

	err := d.service.Add(ctx, product)
	if err != nil {
		reportErrFn(err)
	} else {
		reportChangeFn(product.ProductID, nil)
	}
	return err
}

func (d *activityTrackerDecorator) Remove(ctx context.Context, productID string) error {
	reportErrFn, reportChangeFn, endFn := d.tracker.Start(
		ctx,
		"remove",
		"compare_item",
		"product_id", productID,
	)
	defer endFn()

	err := d.service.Remove(ctx, productID)
	if err != nil {
		reportErrFn(err)
	} else {
		reportChangeFn(productID, nil)
	}
	return err
}

func (d *activityTrackerDecorator) Clear(ctx context.Context) error {
	reportErrFn, reportChangeFn, endFn := d.tracker.Start(ctx, "clear", "compare")
	defer endFn()

	err := d.service.Clear(ctx)
	if err != nil {
		reportErrFn(err)
	} else {
		reportChangeFn("compare", nil)
	}
	return err
}

func (d *activityTrackerDecorator) Contains(ctx context.Context, productID string) (bool, error) {
	reportErrFn, _, endFn := d.tracker.Start(
		ctx,
		"read",
		"compare_item",
		"product_id", productID,
	)
	defer endFn()

	found, err := d.service.Contains(ctx, productID)
	if err != nil {
		reportErrFn(err)
	}
	return found, err
}

func (d *activityTrackerDecorator) Items(ctx context.Context) ([]storetypes.CompareItem, error) {
	reportErrFn, _, endFn := d.tracker.Start(ctx, "read", "compare")
	defer endFn()

	items, err := d.service.Items(ctx)
	if err != nil {
		reportErrFn(err)
	}
	return items, err
}

func (d *activityTrackerDecorator) Count(ctx context.Context) (int, error) {
	reportErrFn, _, endFn := d.tracker.Start(ctx, "read", "compare_count")
	defer endFn()

	count, err := d.service.Count(ctx)
	if err != nil {
		reportErrFn(err)
	}
	return count, err
}

// WithActivityTracker wraps a compare service with activity tracking.
func WithActivityTracker(service Service, tracker libtracker.ActivityTracker) Service {
	return &activityTrackerDecorator{
		service: service,
		tracker: tracker,
	}
}

var _ Service = (*activityTrackerDecorator)(nil)
