// Package cartservice implements the cart collection policy: variant-aware
// uniqueness, quantity accumulation, and derived totals. Cart mutations
// require an authenticated identity; there is no guest cart.
package cartservice

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/atelierline/storesync/collectionstore"
	"github.com/atelierline/storesync/libbus"
	"github.com/atelierline/storesync/libkv"
	"github.com/atelierline/storesync/storetypes"
)

// ErrSignInRequired is returned by mutations attempted under the anonymous
// identity. No state changes.
var ErrSignInRequired = errors.New("cartservice: sign in required")

// IdentityProvider supplies the active identity at call time.
type IdentityProvider interface {
	Identity() storetypes.Identity
}

// Service is the cart collection API. Every mutation is immediately durable:
// load, mutate, persist, no batching. All mutations, Remove and Clear
// included, return ErrSignInRequired under the anonymous identity: without a
// guest cart there is no scope a removal could be a no-op against.
type Service interface {
	Add(ctx context.Context, product storetypes.ProductSnapshot, quantity int, size, color string) error
	Remove(ctx context.Context, productID, size, color string) error
	SetQuantity(ctx context.Context, productID string, quantity int, size, color string) error
	Clear(ctx context.Context) error
	Items(ctx context.Context) ([]storetypes.CartItem, error)
	Total(ctx context.Context) (float64, error)
	Count(ctx context.Context) (int, error)
}

type service struct {
	identity IdentityProvider
	store    *collectionstore.Store[storetypes.CartItem]
	bus      libbus.Messenger
}

// New creates a cart service over the KV substrate.
func New(kv libkv.Executor, identity IdentityProvider, bus libbus.Messenger) Service {
	return &service{
		identity: identity,
		store:    collectionstore.New[storetypes.CartItem](kv),
		bus:      bus,
	}
}

func (s *service) scopeKey() (string, error) {
	identity := s.identity.Identity()
	if identity.IsAnonymous() {
		return "", ErrSignInRequired
	}
	return storetypes.ScopeKey(storetypes.CollectionCart, identity), nil
}

func (s *service) Add(ctx context.Context, product storetypes.ProductSnapshot, quantity int, size, color string) error {
	key, err := s.scopeKey()
	if err != nil {
		libbus.PublishNotice(ctx, s.bus, libbus.NoticeWarning, "Please sign in to add items to your cart.")
		return err
	}
	product.Normalize()
	if quantity < 1 {
		quantity = 1
	}

	items, err := s.store.Load(ctx, key)
	if err != nil {
		return err
	}

	merged := false
	for i := range items {
		if items[i].Matches(product.ProductID, size, color) {
			items[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		items = append(items, storetypes.CartItem{
			Product:  product,
			Quantity: quantity,
			Size:     size,
			Color:    color,
			AddedAt:  time.Now().UTC(),
		})
	}

	if err := s.store.Save(ctx, key, items); err != nil {
		return err
	}
	s.publishChanged(ctx, items)
	return nil
}

func (s *service) Remove(ctx context.Context, productID, size, color string) error {
	key, err := s.scopeKey()
	if err != nil {
		return err
	}
	items, err := s.store.Load(ctx, key)
	if err != nil {
		return err
	}

	kept := items[:0]
	for _, item := range items {
		if !item.Matches(productID, size, color) {
			kept = append(kept, item)
		}
	}
	if err := s.store.Save(ctx, key, kept); err != nil {
		return err
	}
	s.publishChanged(ctx, kept)
	return nil
}

func (s *service) SetQuantity(ctx context.Context, productID string, quantity int, size, color string) error {
	if quantity <= 0 {
		return s.Remove(ctx, productID, size, color)
	}
	key, err := s.scopeKey()
	if err != nil {
		return err
	}
	items, err := s.store.Load(ctx, key)
	if err != nil {
		return err
	}
	for i := range items {
		if items[i].Matches(productID, size, color) {
			items[i].Quantity = quantity
			break
		}
	}
	if err := s.store.Save(ctx, key, items); err != nil {
		return err
	}
	s.publishChanged(ctx, items)
	return nil
}

func (s *service) Clear(ctx context.Context) error {
	key, err := s.scopeKey()
	if err != nil {
		return err
	}
	if err := s.store.Clear(ctx, key); err != nil {
		return err
	}
	s.publishChanged(ctx, nil)
	return nil
}

func (s *service) Items(ctx context.Context) ([]storetypes.CartItem, error) {
	key, err := s.scopeKey()
	if err != nil {
		return nil, err
	}
	return s.store.Load(ctx, key)
}

func (s *service) Total(ctx context.Context) (float64, error) {
	items, err := s.Items(ctx)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, item := range items {
		total += item.Subtotal()
	}
	return total, nil
}

func (s *service) Count(ctx context.Context) (int, error) {
	items, err := s.Items(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	return count, nil
}

func (s *service) publishChanged(ctx context.Context, items []storetypes.CartItem) {
	if s.bus == nil {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"scope": s.identity.Identity().String(),
		"size":  len(items),
	})
	if err != nil {
		return
	}
	_ = s.bus.Publish(ctx, libbus.SubjectCartChanged, payload)
}
