package prefs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/launcher-core/pkg/logger"
	"github.com/0xmhha/launcher-core/pkg/store"
)

func newTestPrefs(t *testing.T) *Prefs {
	t.Helper()

	s := store.NewMemory(logger.Noop())
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Logf("Close() error = %v", err)
		}
	})
	return New(s, logger.Noop())
}

func TestWhitelist(t *testing.T) {
	ctx := context.Background()
	p := newTestPrefs(t)

	require.NoError(t, p.AddToWhitelist(ctx, "com.b"))
	require.NoError(t, p.AddToWhitelist(ctx, "com.a"))
	require.NoError(t, p.AddToWhitelist(ctx, "com.a"))

	got, err := p.Whitelist(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"com.a", "com.b"}, got)

	require.NoError(t, p.RemoveFromWhitelist(ctx, "com.b"))
	got, err = p.Whitelist(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"com.a"}, got)

	assert.ErrorIs(t, p.AddToWhitelist(ctx, "  "), ErrEmptyPackage)
}

func TestSetWhitelistEmptyRemovesKey(t *testing.T) {
	ctx := context.Background()
	p := newTestPrefs(t)

	require.NoError(t, p.SetWhitelist(ctx, []string{"com.x", "com.y"}))
	raw, err := store.Get(ctx, p.Store(), FocusWhitelist, "")
	require.NoError(t, err)
	assert.Equal(t, "com.x|com.y", raw)

	require.NoError(t, p.SetWhitelist(ctx, nil))
	r, err := p.Store().Data(ctx)
	require.NoError(t, err)
	assert.False(t, r.Has(FocusWhitelist.Name()))
}

func TestHomeAppsLimitAndOrder(t *testing.T) {
	ctx := context.Background()
	p := newTestPrefs(t)

	for _, pkg := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, p.AddHomeApp(ctx, pkg))
	}
	require.NoError(t, p.AddHomeApp(ctx, "c"), "duplicates are a no-op")
	assert.ErrorIs(t, p.AddHomeApp(ctx, "f"), ErrHomeAppsFull)

	got, err := p.HomeApps(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, got)

	require.NoError(t, p.RemoveHomeApp(ctx, "b"))
	got, err = p.HomeApps(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "d", "e"}, got)
}

func TestSetHomeApps(t *testing.T) {
	ctx := context.Background()
	p := newTestPrefs(t)

	require.NoError(t, p.SetHomeApps(ctx, []string{"z", "y", "z", ""}))
	got, err := p.HomeApps(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "y"}, got)

	err = p.SetHomeApps(ctx, []string{"1", "2", "3", "4", "5", "6"})
	assert.ErrorIs(t, err, ErrHomeAppsFull)

	require.NoError(t, p.SetHomeApps(ctx, nil))
	got, err = p.HomeApps(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAddHomeAppAppendsToStoredList(t *testing.T) {
	ctx := context.Background()
	p := newTestPrefs(t)

	require.NoError(t, p.Store().Edit(ctx, func(e *store.Editor) error {
		store.Put(e, HomeAppsOrdered, "one|two")
		return nil
	}))
	require.NoError(t, p.AddHomeApp(ctx, "three"))

	got, err := p.HomeApps(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three"}, got)
}

func TestIconPackSelection(t *testing.T) {
	ctx := context.Background()
	p := newTestPrefs(t)

	pack, err := p.SelectedIconPack(ctx)
	require.NoError(t, err)
	assert.Empty(t, pack)

	require.NoError(t, p.SetSelectedIconPack(ctx, "com.pack.arcticons"))
	pack, err = p.SelectedIconPack(ctx)
	require.NoError(t, err)
	assert.Equal(t, "com.pack.arcticons", pack)

	require.NoError(t, p.SetSelectedIconPack(ctx, ""))
	r, err := p.Store().Data(ctx)
	require.NoError(t, err)
	assert.False(t, r.Has(IconPackPackage.Name()))
}

func TestWatchWhitelist(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := newTestPrefs(t)
	ch := p.WatchWhitelist(ctx)

	select {
	case got := <-ch:
		assert.Empty(t, got)
	case <-time.After(time.Second):
		t.Fatal("no initial whitelist")
	}

	require.NoError(t, p.AddToWhitelist(ctx, "com.focus"))

	select {
	case got := <-ch:
		assert.Equal(t, []string{"com.focus"}, got)
	case <-time.After(time.Second):
		t.Fatal("whitelist change not delivered")
	}
}

func TestShakeSetting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := newTestPrefs(t)
	ch := p.WatchShakeEnabled(ctx)
	assert.False(t, <-ch)

	require.NoError(t, p.SetShakeEnabled(ctx, true))
	assert.True(t, <-ch)

	on, err := p.ShakeEnabled(ctx)
	require.NoError(t, err)
	assert.True(t, on)
}
