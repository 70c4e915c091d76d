package identityservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/atelierline/storesync/libkv"
	"github.com/atelierline/storesync/storetypes"
)

// migratedCollections are the kinds that exist in the guest scope. Carts are
// the carve-out: cart writes require an authenticated identity, so no guest
// cart entry can exist and cart migration is a no-op.
var migratedCollections = []storetypes.Collection{
	storetypes.CollectionWishlist,
	storetypes.CollectionCompare,
}

// migrateGuestScope copies each guest-scoped collection entry verbatim into
// the user scope and deletes the guest entry. Idempotent: a second run finds
// no guest entries and does nothing.
func migrateGuestScope(ctx context.Context, kv libkv.Executor, identity storetypes.Identity) error {
	if identity.IsAnonymous() {
		return nil
	}
	for _, collection := range migratedCollections {
		guestKey := storetypes.ScopeKey(collection, storetypes.Anonymous())
		raw, err := kv.Get(ctx, guestKey)
		if errors.Is(err, libkv.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("read guest %s: %w", collection, err)
		}

		userKey := storetypes.ScopeKey(collection, identity)
		if err := kv.Set(ctx, userKey, raw); err != nil {
			return fmt.Errorf("write user %s: %w", collection, err)
		}
		if err := kv.Delete(ctx, guestKey); err != nil {
			return fmt.Errorf("clear guest %s: %w", collection, err)
		}
	}
	return nil
}
