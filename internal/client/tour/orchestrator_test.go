package tour

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/deckviewer/internal/client/client"
	"github.com/dmitrijs2005/deckviewer/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/deckviewer/internal/client/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastTour(store Store, surface Surface) *Orchestrator {
	return New(store, surface, WithTimings(5*time.Millisecond, time.Millisecond, 50*time.Millisecond))
}

func TestWaitFor(t *testing.T) {
	ctx := context.Background()

	t.Run("already true", func(t *testing.T) {
		assert.True(t, WaitFor(ctx, func() bool { return true }, nil, time.Hour))
	})

	t.Run("true after change", func(t *testing.T) {
		s := ui.NewSurface()
		changes, unsubscribe := s.Subscribe()
		defer unsubscribe()

		go func() {
			time.Sleep(5 * time.Millisecond)
			s.Mount("x")
		}()
		start := time.Now()
		assert.True(t, WaitFor(ctx, func() bool { return s.Exists("x") }, changes, 5*time.Second))
		assert.Less(t, time.Since(start), 5*time.Second)
	})

	t.Run("times out", func(t *testing.T) {
		start := time.Now()
		assert.False(t, WaitFor(ctx, func() bool { return false }, make(chan struct{}), 20*time.Millisecond))
		assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	})

	t.Run("context done", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		assert.False(t, WaitFor(cctx, func() bool { return false }, nil, time.Hour))
	})
}

func TestDefaultSteps(t *testing.T) {
	steps := DefaultSteps()
	require.Len(t, steps, 6)

	assert.Equal(t, []Button{ButtonNext}, steps[0].Buttons)
	assert.Equal(t, []Button{ButtonBack, ButtonDone}, steps[5].Buttons)
	for _, s := range steps[1:5] {
		assert.Equal(t, []Button{ButtonBack, ButtonNext}, s.Buttons, s.ID)
	}

	var selectors []string
	for _, s := range steps {
		selectors = append(selectors, s.Selector)
	}
	assert.Equal(t, ui.Controls, selectors)
}

func TestAutoStart_SuppressedWhenCompleted(t *testing.T) {
	s := ui.NewSurface()
	s.Mount(ui.Controls...)
	store := NewMemoryStore(true)
	o := fastTour(store, s)

	assert.False(t, o.AutoStart(context.Background()))
	assert.False(t, o.Snapshot().Running)

	// manual restart clears the flag and starts anyway
	require.NoError(t, o.Restart(context.Background()))
	assert.True(t, o.Snapshot().Running)
	done, _ := store.Completed(context.Background())
	assert.False(t, done)
}

func TestAutoStart_WaitsForAllTargets(t *testing.T) {
	s := ui.NewSurface()
	s.Mount(ui.SelectorSidebarToggle)
	o := fastTour(NewMemoryStore(false), s)

	started := make(chan bool, 1)
	go func() { started <- o.AutoStart(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	assert.False(t, o.Snapshot().Running)

	s.Mount(ui.Controls...)
	select {
	case ok := <-started:
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("auto-start did not finish")
	}

	snap := o.Snapshot()
	assert.True(t, snap.Running)
	assert.Equal(t, "sidebar", snap.Step.ID)
}

func TestStart_FirstStepReadinessTimesOut(t *testing.T) {
	o := fastTour(NewMemoryStore(false), ui.NewSurface())

	start := time.Now()
	require.NoError(t, o.Start(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	assert.True(t, o.Snapshot().Running)
}

func TestNavigationAndCompletion(t *testing.T) {
	s := ui.NewSurface()
	s.Mount(ui.Controls...)
	store := NewMemoryStore(false)
	o := fastTour(store, s)
	ctx := context.Background()

	var ids []string
	o.OnChange(func(snap Snapshot) {
		if snap.Running {
			ids = append(ids, snap.Step.ID)
		}
	})

	require.ErrorIs(t, o.Next(ctx), ErrNotRunning)
	require.NoError(t, o.Start(ctx))
	require.NoError(t, o.Back())
	assert.Equal(t, 0, o.Snapshot().Index)

	for i := 0; i < 5; i++ {
		require.NoError(t, o.Next(ctx))
	}
	assert.Equal(t, "progress", o.Snapshot().Step.ID)
	require.NoError(t, o.Back())
	assert.Equal(t, "theme", o.Snapshot().Step.ID)
	require.NoError(t, o.Next(ctx))

	// Done on the last step
	require.NoError(t, o.Next(ctx))
	assert.False(t, o.Snapshot().Running)
	done, _ := store.Completed(ctx)
	assert.True(t, done)

	assert.Equal(t, []string{"sidebar", "sidebar", "navigation", "download", "fullscreen", "theme", "progress", "theme", "progress"}, ids)
}

func TestCancelPersistsFlag(t *testing.T) {
	s := ui.NewSurface()
	s.Mount(ui.Controls...)
	store := NewMemoryStore(false)
	o := fastTour(store, s)
	ctx := context.Background()

	require.NoError(t, o.Start(ctx))
	require.NoError(t, o.Cancel(ctx))
	done, _ := store.Completed(ctx)
	assert.True(t, done)
	require.ErrorIs(t, o.Cancel(ctx), ErrNotRunning)
}

func TestClose_StopsAutoStartWithoutPersisting(t *testing.T) {
	store := NewMemoryStore(false)
	o := fastTour(store, ui.NewSurface())

	started := make(chan bool, 1)
	go func() { started <- o.AutoStart(context.Background()) }()
	time.Sleep(10 * time.Millisecond)
	o.Close()

	select {
	case ok := <-started:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("auto-start kept waiting after Close")
	}
	done, _ := store.Completed(context.Background())
	assert.False(t, done)
	require.ErrorIs(t, o.Start(context.Background()), ErrClosed)
}

func TestAutoStart_AbandonedAfterManualRun(t *testing.T) {
	s := ui.NewSurface()
	s.Mount(ui.Controls...)
	store := NewMemoryStore(false)
	o := New(store, s, WithTimings(50*time.Millisecond, time.Millisecond, 50*time.Millisecond))
	ctx := context.Background()

	started := make(chan bool, 1)
	go func() { started <- o.AutoStart(ctx) }()
	time.Sleep(10 * time.Millisecond)

	// "?" then cancel while auto-start is still settling
	require.NoError(t, o.Restart(ctx))
	require.NoError(t, o.Cancel(ctx))

	select {
	case ok := <-started:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("auto-start did not finish")
	}
	assert.False(t, o.Snapshot().Running, "a cancelled tour must stay closed")
	done, _ := store.Completed(ctx)
	assert.True(t, done)
}

func TestAutoStart_RechecksFlagAfterSettle(t *testing.T) {
	s := ui.NewSurface()
	s.Mount(ui.Controls...)
	store := NewMemoryStore(false)
	o := New(store, s, WithTimings(30*time.Millisecond, time.Millisecond, 50*time.Millisecond))
	ctx := context.Background()

	started := make(chan bool, 1)
	go func() { started <- o.AutoStart(ctx) }()
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, store.SetCompleted(ctx))

	select {
	case ok := <-started:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("auto-start did not finish")
	}
	assert.False(t, o.Snapshot().Running)
}

func TestHandleKey(t *testing.T) {
	s := ui.NewSurface()
	s.Mount(ui.Controls...)
	store := NewMemoryStore(true)
	o := fastTour(store, s)
	ctx := context.Background()

	assert.False(t, o.HandleKey(ctx, RestartKey, true))
	assert.False(t, o.Snapshot().Running)
	assert.False(t, o.HandleKey(ctx, "x", false))

	assert.True(t, o.HandleKey(ctx, RestartKey, false))
	assert.True(t, o.Snapshot().Running)
}

func TestFlagKey(t *testing.T) {
	assert.Equal(t, "tour_completed", FlagKey(ScopeGlobal, "pitch"))
	assert.Equal(t, "tour_completed:pitch", FlagKey(ScopeDeck, "pitch"))
	assert.Equal(t, "tour_completed", FlagKey(ScopeDeck, ""))
}

func TestMetadataStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db, err := client.InitDatabase(ctx, filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer db.Close()

	repo := metadata.NewSQLiteRepository(db)
	global := NewMetadataStore(repo, FlagKey(ScopeGlobal, ""))
	perDeck := NewMetadataStore(repo, FlagKey(ScopeDeck, "pitch"))

	done, err := global.Completed(ctx)
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, global.SetCompleted(ctx))
	done, err = global.Completed(ctx)
	require.NoError(t, err)
	assert.True(t, done)

	done, err = perDeck.Completed(ctx)
	require.NoError(t, err)
	assert.False(t, done, "per-deck flag is independent")

	require.NoError(t, global.Clear(ctx))
	done, err = global.Completed(ctx)
	require.NoError(t, err)
	assert.False(t, done)
}
