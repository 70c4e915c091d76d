package compareservice_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/atelierline/storesync/compareservice"
	"github.com/atelierline/storesync/libbus"
	"github.com/atelierline/storesync/libkv"
	"github.com/atelierline/storesync/storetypes"
	"github.com/stretchr/testify/require"
)

type fixedIdentity struct {
	identity storetypes.Identity
}

func (f *fixedIdentity) Identity() storetypes.Identity { return f.identity }

func product(id string) storetypes.ProductSnapshot {
	return storetypes.ProductSnapshot{ProductID: id, Name: "product " + id, Price: 10}
}

func TestUnit_CompareRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	svc := compareservice.New(libkv.NewInMem(), &fixedIdentity{identity: storetypes.User("7")}, nil)

	require.NoError(t, svc.Add(ctx, product("p1")))
	err := svc.Add(ctx, product("p1"))
	require.ErrorIs(t, err, compareservice.ErrAlreadyInCompare)

	count, err := svc.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestUnit_CompareRejectsFifthItemWithoutMutation(t *testing.T) {
	ctx := context.Background()
	svc := compareservice.New(libkv.NewInMem(), &fixedIdentity{identity: storetypes.User("7")}, nil)

	for i := 1; i <= storetypes.MaxCompareItems; i++ {
		require.NoError(t, svc.Add(ctx, product(fmt.Sprintf("p%d", i))))
	}

	err := svc.Add(ctx, product("p5"))
	require.ErrorIs(t, err, compareservice.ErrCompareFull)

	items, err := svc.Items(ctx)
	require.NoError(t, err)
	require.Len(t, items, storetypes.MaxCompareItems)
	for _, item := range items {
		require.NotEqual(t, "p5", item.Product.ProductID)
	}
}

func TestUnit_CompareRemoveFreesCapacity(t *testing.T) {
	ctx := context.Background()
	svc := compareservice.New(libkv.NewInMem(), &fixedIdentity{identity: storetypes.User("7")}, nil)

	for i := 1; i <= storetypes.MaxCompareItems; i++ {
		require.NoError(t, svc.Add(ctx, product(fmt.Sprintf("p%d", i))))
	}
	require.NoError(t, svc.Remove(ctx, "p2"))
	require.NoError(t, svc.Add(ctx, product("p5")))

	found, err := svc.Contains(ctx, "p5")
	require.NoError(t, err)
	require.True(t, found)
}

func TestUnit_CompareRejectionPublishesNotice(t *testing.T) {
	ctx := context.Background()
	bus := libbus.NewInMem()
	defer bus.Close()

	notices := make(chan []byte, 4)
	sub, err := bus.Stream(ctx, libbus.SubjectUserNotice, notices)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	svc := compareservice.New(libkv.NewInMem(), &fixedIdentity{identity: storetypes.User("7")}, bus)
	require.NoError(t, svc.Add(ctx, product("p1")))

	err = svc.Add(ctx, product("p1"))
	require.ErrorIs(t, err, compareservice.ErrAlreadyInCompare)

	select {
	case raw := <-notices:
		var notice libbus.Notice
		require.NoError(t, json.Unmarshal(raw, &notice))
		require.Equal(t, libbus.NoticeInfo, notice.Level)
		require.NotEmpty(t, notice.Message)
	case <-time.After(time.Second):
		t.Fatal("expected a user notice for the rejected add")
	}
}

func TestUnit_CompareGuestScopeSurvivesUntilMigration(t *testing.T) {
	ctx := context.Background()
	kv := libkv.NewInMem()
	who := &fixedIdentity{identity: storetypes.Anonymous()}
	svc := compareservice.New(kv, who, nil)

	require.NoError(t, svc.Add(ctx, product("p1")))

	// Logout-style deselection never deletes the guest entry.
	who.identity = storetypes.User("7")
	who.identity = storetypes.Anonymous()
	found, err := svc.Contains(ctx, "p1")
	require.NoError(t, err)
	require.True(t, found)
}
