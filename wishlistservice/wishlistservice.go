// Package wishlistservice implements the wishlist collection policy. Unlike
// the cart, the wishlist is available to guests; guest entries move to the
// user scope at login.
package wishlistservice

import (
	"context"
	"encoding/json"
	"time"

	"github.com/atelierline/storesync/collectionstore"
	"github.com/atelierline/storesync/libbus"
	"github.com/atelierline/storesync/libkv"
	"github.com/atelierline/storesync/storetypes"
)

// IdentityProvider supplies the active identity at call time.
type IdentityProvider interface {
	Identity() storetypes.Identity
}

// Service is the wishlist collection API.
type Service interface {
	Add(ctx context.Context, product storetypes.ProductSnapshot) error
	Remove(ctx context.Context, productID string) error
	Clear(ctx context.Context) error
	Contains(ctx context.Context, productID string) (bool, error)
	Items(ctx context.Context) ([]storetypes.WishlistItem, error)
	Count(ctx context.Context) (int, error)
}

type service struct {
	identity IdentityProvider
	store    *collectionstore.Store[storetypes.WishlistItem]
	bus      libbus.Messenger
}

// New creates a wishlist service over the KV substrate.
func New(kv libkv.Executor, identity IdentityProvider, bus libbus.Messenger) Service {
	return &service{
		identity: identity,
		store:    collectionstore.New[storetypes.WishlistItem](kv),
		bus:      bus,
	}
}

func (s *service) scopeKey() string {
	return storetypes.ScopeKey(storetypes.CollectionWishlist, s.identity.Identity())
}

// Add appends the product unless it is already wished for. Duplicate adds are
// silent no-ops.
func (s *service) Add(ctx context.Context, product storetypes.ProductSnapshot) error {
	product.Normalize()
	key := s.scopeKey()

	items, err := s.store.Load(ctx, key)
	if err != nil {
		return err
	}
	for _, item := range items {
		if item.Product.ProductID == product.ProductID {
			return nil
		}
	}
	items = append(items, storetypes.WishlistItem{
		Product: product,
		AddedAt: time.Now().UTC(),
	})
	if err := s.store.Save(ctx, key, items); err != nil {
		return err
	}
	s.publishChanged(ctx, items)
	return nil
}

func (s *service) Remove(ctx context.Context, productID string) error {
	key := s.scopeKey()
	items, err := s.store.Load(ctx, key)
	if err != nil {
		return err
	}
	kept := items[:0]
	for _, item := range items {
		if item.Product.ProductID != productID {
			kept = append(kept, item)
		}
	}
	if err := s.store.Save(ctx, key, kept); err != nil {
		return err
	}
	s.publishChanged(ctx, kept)
	return nil
}

func (s *service) Clear(ctx context.Context) error {
	if err := s.store.Clear(ctx, s.scopeKey()); err != nil {
		return err
	}
	s.publishChanged(ctx, nil)
	return nil
}

func (s *service) Contains(ctx context.Context, productID string) (bool, error) {
	items, err := s.Items(ctx)
	if err != nil {
		return false, err
	}
	for _, item := range items {
		if item.Product.ProductID == productID {
			return true, nil
		}
	}
	return false, nil
}

func (s *service) Items(ctx context.Context) ([]storetypes.WishlistItem, error) {
	return s.store.Load(ctx, s.scopeKey())
}

func (s *service) Count(ctx context.Context) (int, error) {
	items, err := s.Items(ctx)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

func (s *service) publishChanged(ctx context.Context, items []storetypes.WishlistItem) {
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
	_ = s.bus.Publish(ctx, libbus.SubjectWishlistChanged, payload)
}
