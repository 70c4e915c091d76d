package storetypes_test

import (
	"testing"

	"github.com/atelierline/storesync/storetypes"
	"github.com/stretchr/testify/require"
)

func TestUnit_ScopeKeySeparatesIdentities(t *testing.T) {
	guest := storetypes.ScopeKey(storetypes.CollectionCart, storetypes.Anonymous())
	user := storetypes.ScopeKey(storetypes.CollectionCart, storetypes.User("7"))

	require.Equal(t, "cart_guest", guest)
	require.Equal(t, "cart_user_7", user)
	require.NotEqual(t, guest, user)
}

func TestUnit_ScopeKeyIsStablePerIdentity(t *testing.T) {
	a := storetypes.ScopeKey(storetypes.CollectionWishlist, storetypes.User("42"))
	b := storetypes.ScopeKey(storetypes.CollectionWishlist, storetypes.User("42"))
	require.Equal(t, a, b)
}

func TestUnit_ScopeKeyGuardsTheGuestSentinel(t *testing.T) {
	// A user id crafted to look like the guest sentinel still lands in the
	// user keyspace.
	crafted := storetypes.ScopeKey(storetypes.CollectionCompare, storetypes.User("guest"))
	guest := storetypes.ScopeKey(storetypes.CollectionCompare, storetypes.Anonymous())
	require.NotEqual(t, guest, crafted)
}

func TestUnit_IdentityString(t *testing.T) {
	require.Equal(t, "guest", storetypes.Anonymous().String())
	require.Equal(t, "user:7", storetypes.User("7").String())
	require.True(t, storetypes.Anonymous().IsAnonymous())
	require.False(t, storetypes.User("7").IsAnonymous())
}
