package cartservice

import (
	"context"

	"github.com/atelierline/storesync/libtracker"
	"github.com/atelierline/storesync/storetypes"
)

type activityTrackerDecorator struct {
	service Service
	tracker libtracker.ActivityTracker
}

func (d *activityTrackerDecorator) Add(ctx context.Context, product storetypes.ProductSnapshot, quantity int, size, color string) error {
	reportErrFn, reportChangeFn, endFn := d.tracker.Start(
		ctx,
		"add",
		"cart_item",
		"product_id", product.ProductID,
		"quantity", quantity,
	)
	defer endFn()

	err := d.service.Add(ctx, product, quantity, size, color)
	if err != nil {
		reportErrFn(err)
	} else {
		reportChangeFn(product.ProductID, map[string]interface{}{
			"quantity": quantity,
			"size":     size,
			"color":    color,
		})
	}
	return err
}

func (d *activityTrackerDecorator) Remove(ctx context.Context, productID, size, color string) error {
	reportErrFn, reportChangeFn, endFn := d.tracker.Start(
		ctx,
		"remove",
		"cart_item",
		"product_id", productID,
	)
	defer endFn()

	err := d.service.Remove(ctx, productID, size, color)
	if err != nil {
		reportErrFn(err)
	} else {
		reportChangeFn(productID, nil)
	}
	return err
}

func (d *activityTrackerDecorator) SetQuantity(ctx context.Context, productID string, quantity int, size, color string) error {
	reportErrFn, reportChangeFn, endFn := d.tracker.Start(
		ctx,
		"set_quantity",
		"cart_item",
		"product_id", productID,
		"quantity", quantity,
	)
	defer endFn()

	err := d.service.SetQuantity(ctx, productID, quantity, size, color)
	if err != nil {
		reportErrFn(err)
	} else {
		reportChangeFn(productID, map[string]interface{}{"quantity": quantity})
	}
	return err
}

func (d *activityTrackerDecorator) Clear(ctx context.Context) error {
	reportErrFn, reportChangeFn, endFn := d.tracker.Start(
		ctx,
		"clear",
		"cart",
	)
	defer endFn()

	err := d.service.Clear(ctx)
	if err != nil {
		reportErrFn(err)
	} else {
		reportChangeFn("cart", nil)
	}
	return err
}

func (d *activityTrackerDecorator) Items(ctx context.Context) ([]storetypes.CartItem, error) {
	reportErrFn, _, endFn := d.tracker.Start(ctx, "read", "cart")
	defer endFn()

	items, err := d.service.Items(ctx)
	if err != nil {
		reportErrFn(err)
	}
	return items, err
}

func (d *activityTrackerDecorator) Total(ctx context.Context) (float64, error) {
	reportErrFn, _, endFn := d.tracker.Start(ctx, "read", "cart_total")
	defer endFn()

	total, err := d.service.Total(ctx)
	if err != nil {
		reportErrFn(err)
	}
	return total, err
}

func (d *activityTrackerDecorator) Count(ctx context.Context) (int, error) {
	reportErrFn, _, endFn := d.tracker.Start(ctx, "read", "cart_count")
	defer endFn()

	count, err := d.service.Count(ctx)
	if err != nil {
		reportErrFn(err)
	}
	return count, err
}

// WithActivityTracker wraps a cart service with activity tracking.
func WithActivityTracker(service Service, tracker libtracker.ActivityTracker) Service {
	return &activityTrackerDecorator{
		service: service,
		tracker: tracker,
	}
}

var _ Service = (*activityTrackerDecorator)(nil)
