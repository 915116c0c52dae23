package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  execution_log_cap: 10\n"), 0o644))

	var reloads atomic.Int32
	var lastCap atomic.Int32

	w, err := NewWatcher(path, zerolog.Nop(), func(cfg *Config) {
		reloads.Add(1)
		lastCap.Store(int32(cfg.Engine.ExecutionLogCap))
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, os.WriteFile(path, []byte("engine:\n  execution_log_cap: 25\n"), 0o644))

	require.Eventually(t, func() bool {
		return reloads.Load() >= 1
	}, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, int32(25), lastCap.Load())
}

func TestWatcher_KeepsPreviousConfigOnBrokenReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine: {}\n"), 0o644))

	var reloads atomic.Int32
	w, err := NewWatcher(path, zerolog.Nop(), func(*Config) { reloads.Add(1) })
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, os.WriteFile(path, []byte("phases: {broken"), 0o644))

	// The broken write must not produce a reload callback.
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(0), reloads.Load())
}

func TestWatcher_CoalescesWriteBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  execution_log_cap: 1\n"), 0o644))

	var reloads atomic.Int32
	var lastCap atomic.Int32

	w, err := NewWatcher(path, zerolog.Nop(), func(cfg *Config) {
		reloads.Add(1)
		lastCap.Store(int32(cfg.Engine.ExecutionLogCap))
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	for i := 2; i <= 6; i++ {
		content := fmt.Sprintf("engine:\n  execution_log_cap: %d\n", i)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	// The burst must settle on the final content, in fewer reloads
	// than writes.
	require.Eventually(t, func() bool {
		return lastCap.Load() == 6
	}, 2*time.Second, 20*time.Millisecond)
	assert.Less(t, reloads.Load(), int32(5))
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine: {}\n"), 0o644))

	var reloads atomic.Int32
	w, err := NewWatcher(path, zerolog.Nop(), func(*Config) { reloads.Add(1) })
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0o644))

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(0), reloads.Load())
}
