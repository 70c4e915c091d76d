package cartservice_test

import (
	"context"
	"testing"

	"github.com/atelierline/storesync/cartservice"
	"github.com/atelierline/storesync/libkv"
	"github.com/atelierline/storesync/storetypes"
	"github.com/stretchr/testify/require"
)

type fixedIdentity struct {
	identity storetypes.Identity
}

func (f *fixedIdentity) Identity() storetypes.Identity { return f.identity }

func newTestService(t *testing.T, identity storetypes.Identity) cartservice.Service {
	t.Helper()
	return cartservice.New(libkv.NewInMem(), &fixedIdentity{identity: identity}, nil)
}

func product(id string, price float64) storetypes.ProductSnapshot {
	return storetypes.ProductSnapshot{
		ProductID: id,
		Name:      "product " + id,
		Price:     price,
	}
}

func TestUnit_CartRejectsAnonymousMutations(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, storetypes.Anonymous())

	err := svc.Add(ctx, product("p1", 10), 1, "M", "black")
	require.ErrorIs(t, err, cartservice.ErrSignInRequired)

	err = svc.Remove(ctx, "p1", "M", "black")
	require.ErrorIs(t, err, cartservice.ErrSignInRequired)

	err = svc.Clear(ctx)
	require.ErrorIs(t, err, cartservice.ErrSignInRequired)

	_, err = svc.Items(ctx)
	require.ErrorIs(t, err, cartservice.ErrSignInRequired)
}

func TestUnit_CartAddMergesOnVariantKey(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, storetypes.User("7"))

	require.NoError(t, svc.Add(ctx, product("p1", 10), 2, "M", "black"))
	require.NoError(t, svc.Add(ctx, product("p1", 10), 3, "M", "black"))

	items, err := svc.Items(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, 5, items[0].Quantity)

	// Same product under a different variant is a distinct line.
	require.NoError(t, svc.Add(ctx, product("p1", 10), 1, "L", "black"))
	items, err = svc.Items(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
}

func TestUnit_CartAddClampsQuantity(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, storetypes.User("7"))

	require.NoError(t, svc.Add(ctx, product("p1", 10), 0, "", ""))
	items, err := svc.Items(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, 1, items[0].Quantity)
}

func TestUnit_CartSetQuantityZeroRemoves(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, storetypes.User("7"))

	require.NoError(t, svc.Add(ctx, product("p1", 10), 2, "M", "black"))
	require.NoError(t, svc.SetQuantity(ctx, "p1", 0, "M", "black"))

	items, err := svc.Items(ctx)
	require.NoError(t, err)
	require.Empty(t, items)

	require.NoError(t, svc.Add(ctx, product("p2", 10), 2, "", ""))
	require.NoError(t, svc.SetQuantity(ctx, "p2", -3, "", ""))
	count, err := svc.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, count)
}

func TestUnit_CartTotalUsesEffectivePrice(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, storetypes.User("7"))

	sale := 50.0
	discounted := storetypes.ProductSnapshot{
		ProductID: "p1",
		Name:      "discounted",
		Price:     100,
		SalePrice: &sale,
	}
	require.NoError(t, svc.Add(ctx, discounted, 3, "", ""))
	require.NoError(t, svc.Add(ctx, product("p2", 100), 2, "", ""))

	total, err := svc.Total(ctx)
	require.NoError(t, err)
	require.InDelta(t, 350.0, total, 0.0001)

	count, err := svc.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 5, count)
}

func TestUnit_CartClearEmptiesAndStaysUsable(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, storetypes.User("7"))

	require.NoError(t, svc.Add(ctx, product("p1", 10), 1, "", ""))
	require.NoError(t, svc.Clear(ctx))

	items, err := svc.Items(ctx)
	require.NoError(t, err)
	require.Empty(t, items)

	require.NoError(t, svc.Add(ctx, product("p2", 20), 1, "", ""))
	count, err := svc.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestUnit_CartScopesAreIsolatedPerUser(t *testing.T) {
	ctx := context.Background()
	kv := libkv.NewInMem()
	who := &fixedIdentity{identity: storetypes.User("7")}
	svc := cartservice.New(kv, who, nil)

	require.NoError(t, svc.Add(ctx, product("p1", 10), 1, "", ""))

	who.identity = storetypes.User("8")
	items, err := svc.Items(ctx)
	require.NoError(t, err)
	require.Empty(t, items)

	who.identity = storetypes.User("7")
	items, err = svc.Items(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
}
