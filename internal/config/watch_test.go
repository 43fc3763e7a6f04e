package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchReloads(t *testing.T) {
	path := writeConfig(t, "[plugin]\ntab_width = 4\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(c Config) {
			select {
			case reloaded <- c:
			default:
			}
		}, WithDebounce(10*time.Millisecond))
	}()

	// Give the watcher time to register before writing.
	var cfg Config
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("[plugin]\ntab_width = 8\n"), 0o644)
		select {
		case cfg = <-reloaded:
			return true
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 8, cfg.Plugin.TabWidth)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatchSkipsInvalid(t *testing.T) {
	path := writeConfig(t, "[plugin]\ntab_width = 4\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan Config, 4)
	go func() {
		_ = Watch(ctx, path, func(c Config) {
			select {
			case reloaded <- c:
			default:
			}
		}, WithDebounce(10*time.Millisecond))
	}()

	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("[plugin]\ntab_width = 0\n"), 0o644)
		time.Sleep(50 * time.Millisecond)
		_ = os.WriteFile(path, []byte("[plugin]\ntab_width = 3\n"), 0o644)
		select {
		case cfg := <-reloaded:
			return cfg.Plugin.TabWidth == 3
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWatchBadDirectory(t *testing.T) {
	err := Watch(context.Background(), "/nonexistent/dir/gotodef.toml", func(Config) {})
	assert.Error(t, err)
}
