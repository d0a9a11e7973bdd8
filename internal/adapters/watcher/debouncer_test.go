package watcher_test

import (
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/knob/internal/adapters/watcher"
)

func TestDebouncer_CoalescesBurst(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var (
			mu    sync.Mutex
			calls [][]string
		)
		d := watcher.NewDebouncer(100*time.Millisecond, func(paths []string) {
			mu.Lock()
			defer mu.Unlock()
			calls = append(calls, paths)
		})

		d.Add("/state/settings.json")
		time.Sleep(50 * time.Millisecond)
		d.Add("/state/defaults.yaml")
		time.Sleep(50 * time.Millisecond)
		d.Add("/state/settings.json")

		// The window restarts with every event.
		time.Sleep(90 * time.Millisecond)
		synctest.Wait()
		mu.Lock()
		assert.Empty(t, calls)
		mu.Unlock()

		time.Sleep(20 * time.Millisecond)
		synctest.Wait()
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, [][]string{{"/state/defaults.yaml", "/state/settings.json"}}, calls)
	})
}

func TestDebouncer_SeparateWindows(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var (
			mu    sync.Mutex
			count int
		)
		d := watcher.NewDebouncer(10*time.Millisecond, func([]string) {
			mu.Lock()
			defer mu.Unlock()
			count++
		})

		d.Add("a")
		time.Sleep(20 * time.Millisecond)
		synctest.Wait()
		d.Add("a")
		time.Sleep(20 * time.Millisecond)
		synctest.Wait()

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 2, count)
	})
}

func TestDebouncer_Stop(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		called := false
		d := watcher.NewDebouncer(10*time.Millisecond, func([]string) {
			called = true
		})

		d.Add("a")
		d.Stop()
		time.Sleep(50 * time.Millisecond)
		synctest.Wait()

		assert.False(t, called)
	})
}

func TestDebouncer_NilCallback(t *testing.T) {
	synctest.Test(t, func(_ *testing.T) {
		d := watcher.NewDebouncer(10*time.Millisecond, nil)
		d.Add("a")
		time.Sleep(20 * time.Millisecond)
		synctest.Wait()
	})
}
