package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arukana/neko/internal/config/loader"
	"github.com/arukana/neko/internal/plugin"
)

func writeConfig(t *testing.T, root, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte(content), 0o644))
}

func clearEnv(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvShell, "")
	t.Setenv("SHELL", "/bin/bash")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()

	cfg, err := Load(root)
	require.NoError(t, err)

	assert.Equal(t, root, cfg.Root)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, []string{"make"}, cfg.Build.Command)
	assert.Equal(t, "origin", cfg.Git.Remote)
	assert.Equal(t, "master", cfg.Git.Branch)
	assert.Equal(t, "/bin/bash", cfg.Session.Shell)
	assert.Equal(t, time.Second, cfg.Session.Idle.Std())
	assert.Equal(t, 300*time.Millisecond, cfg.Session.Repeat.Std())
	assert.Equal(t, plugin.Layout{Root: root}, cfg.Layout())
	assert.Equal(t, filepath.Join(root, "neko.toml"), cfg.Path())
}

func TestLoadDefaultRoot(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	t.Setenv(plugin.RootEnv, root)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, root, cfg.Root)
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	writeConfig(t, root, `
log_level = "debug"

[build]
command = ["make", "-j4"]

[git]
branch = "main"

[session]
idle = "2s"
`)

	cfg, err := Load(root)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"make", "-j4"}, cfg.Build.Command)
	assert.Equal(t, "origin", cfg.Git.Remote)
	assert.Equal(t, "main", cfg.Git.Branch)
	assert.Equal(t, 2*time.Second, cfg.Session.Idle.Std())
	assert.Equal(t, 300*time.Millisecond, cfg.Session.Repeat.Std())
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	writeConfig(t, root, "log_level = \"debug\"\n[session]\nshell = \"/bin/sh\"\n")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvShell, "/bin/zsh")

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "/bin/zsh", cfg.Session.Shell)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     string
		want    error
	}{
		{name: "level", content: `log_level = "loud"`, want: ErrInvalidLevel},
		{name: "env level", env: "chatty", want: ErrInvalidLevel},
		{name: "command", content: "[build]\ncommand = []\n", want: ErrEmptyCommand},
		{name: "idle", content: "[session]\nidle = \"-1s\"\n", want: ErrInvalidDuration},
		{name: "repeat", content: "[session]\nrepeat = \"0s\"\n", want: ErrInvalidDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			root := t.TempDir()
			if tt.content != "" {
				writeConfig(t, root, tt.content)
			}
			if tt.env != "" {
				t.Setenv(EnvLogLevel, tt.env)
			}

			_, err := Load(root)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoadBadFile(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()

	writeConfig(t, root, "[session\n")
	_, err := Load(root)
	var perr *loader.ParseError
	assert.True(t, errors.As(err, &perr), "error = %v", err)

	writeConfig(t, root, "[session]\nidle = \"soon\"\n")
	_, err = Load(root)
	assert.Error(t, err)
}

func TestDuration(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, 90*time.Second, d.Std())

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(text))

	assert.Error(t, d.UnmarshalText([]byte("never")))
}

func TestNewLogger(t *testing.T) {
	cfg := Default(t.TempDir())
	cfg.LogLevel = "debug"

	logger := cfg.NewLogger(os.Stderr)
	assert.Equal(t, logrus.DebugLevel, logger.Level)

	cfg.LogLevel = "bogus"
	assert.Equal(t, logrus.InfoLevel, cfg.NewLogger(os.Stderr).Level)
}

func TestOpenLog(t *testing.T) {
	cfg := Default(filepath.Join(t.TempDir(), "fresh"))

	f, err := cfg.OpenLog()
	require.NoError(t, err)
	defer f.Close()

	logger := cfg.NewLogger(f)
	logger.Info("session started")
	require.NoError(t, f.Sync())

	data, err := os.ReadFile(filepath.Join(cfg.Root, LogFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "session started")
}
