package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 100_000, cfg.Limits.MaxTextSize)
	assert.Equal(t, 50_000, cfg.Limits.MaxCellContent)
	assert.Equal(t, 100, cfg.Limits.MaxListItems)
	assert.Equal(t, 80_000, cfg.Limits.MaxLogSize)
	assert.Equal(t, 30*time.Minute, cfg.Limits.DefaultTimeout())
	assert.Equal(t, 10*time.Second, cfg.Limits.DefaultPollInterval())
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultLimits(), cfg.Limits)
}

func TestLoad_PartialLimitsKeepDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("limits:\n  max_log_size: 4096\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 4096, cfg.Limits.MaxLogSize)
	assert.Equal(t, 100_000, cfg.Limits.MaxTextSize, "unset fields keep defaults")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("databricks:\n  host: https://file.example\n  token: from-file\n"), 0o644))

	t.Setenv("DATABRICKS_HOST", "https://env.example")
	t.Setenv("DATABRICKS_TOKEN", "")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://env.example", cfg.Databricks.Host)
	assert.Equal(t, "from-file", cfg.Databricks.Token, "empty env leaves file value")
}

func TestLoad_RejectsBadLimits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("limits:\n  max_list_items: 5000\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateCredentials(t *testing.T) {
	cfg := &Config{Limits: DefaultLimits()}
	assert.Error(t, cfg.ValidateDatabricks())
	assert.Error(t, cfg.ValidateNotion())

	cfg.Databricks = DatabricksConfig{Host: "https://x", Token: "t"}
	cfg.Notion.APIKey = "secret"
	assert.NoError(t, cfg.ValidateDatabricks())
	assert.NoError(t, cfg.ValidateNotion())
}

func TestWatcher_ReloadsLimitsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("limits:\n  max_log_size: 2048\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	w := NewWatcher(cfg, path, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()

	// Writes before the watch is installed are lost.
	select {
	case <-w.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("watcher never became ready")
	}

	require.NoError(t, os.WriteFile(path, []byte("limits:\n  max_log_size: 8192\n"), 0o644))

	require.Eventually(t, func() bool {
		return w.Limits().MaxLogSize == 8192
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestWatcher_BadEditKeepsPreviousLimits(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("limits:\n  max_log_size: 2048\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	w := NewWatcher(cfg, path, nil)
	w.reload() // valid reload is a no-op change
	assert.Equal(t, 2048, w.Limits().MaxLogSize)

	require.NoError(t, os.WriteFile(path, []byte("limits:\n  max_list_items: 99999\n"), 0o644))
	w.reload()
	assert.Equal(t, 2048, w.Limits().MaxLogSize, "invalid file must not clobber limits")
}
