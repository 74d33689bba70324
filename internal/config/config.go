// Package config resolves the neko root and loads <root>/neko.toml with
// environment overrides on top of built-in defaults.
//
//	log_level = "info"
//
//	[build]
//	command = ["make"]
//
//	[git]
//	remote = "origin"
//	branch = "master"
//
//	[session]
//	shell = "/bin/zsh"
//	idle = "1s"
//	repeat = "300ms"
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"

	"github.com/arukana/neko/internal/config/loader"
	"github.com/arukana/neko/internal/integration/git"
	"github.com/arukana/neko/internal/plugin"
	"github.com/arukana/neko/internal/plugin/installer"
)

// FileName is the configuration file name under the root.
const FileName = "neko.toml"

// Environment variables.
const (
	EnvLogLevel = "NEKO_LOG_LEVEL"
	EnvShell    = "NEKO_SHELL"
)

// Configuration errors.
var (
	// ErrInvalidLevel indicates an unknown log level.
	ErrInvalidLevel = errors.New("config: invalid log level")

	// ErrInvalidDuration indicates a duration that is not positive.
	ErrInvalidDuration = errors.New("config: duration must be positive")

	// ErrEmptyCommand indicates an empty build command.
	ErrEmptyCommand = errors.New("config: empty build command")
)

// Duration is a time.Duration written as a string such as "300ms".
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the duration as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the resolved configuration.
type Config struct {
	// Root is the neko directory. It is never read from the file.
	Root string `toml:"-"`

	LogLevel string        `toml:"log_level"`
	Build    BuildConfig   `toml:"build"`
	Git      GitConfig     `toml:"git"`
	Session  SessionConfig `toml:"session"`
}

// BuildConfig configures plugin builds.
type BuildConfig struct {
	Command []string `toml:"command"`
}

// GitConfig configures plugin updates.
type GitConfig struct {
	Remote string `toml:"remote"`
	Branch string `toml:"branch"`
}

// SessionConfig configures the interactive session.
type SessionConfig struct {
	Shell  string   `toml:"shell"`
	Idle   Duration `toml:"idle"`
	Repeat Duration `toml:"repeat"`
}

// Default returns the built-in configuration for root.
func Default(root string) *Config {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	return &Config{
		Root:     root,
		LogLevel: logrus.InfoLevel.String(),
		Build: BuildConfig{
			Command: append([]string(nil), installer.DefaultBuildCommand...),
		},
		Git: GitConfig{
			Remote: git.DefaultRemote,
			Branch: git.DefaultBranch,
		},
		Session: SessionConfig{
			Shell:  shell,
			Idle:   Duration(time.Second),
			Repeat: Duration(300 * time.Millisecond),
		},
	}
}

// Load resolves the configuration for root, or for the default root when
// root is empty. A missing configuration file is not an error.
func Load(root string) (*Config, error) {
	if root == "" {
		var err error
		if root, err = plugin.DefaultRoot(); err != nil {
			return nil, err
		}
	}

	// Later sources override earlier ones.
	sources := []loader.Loader{
		loader.NewTOMLLoader(filepath.Join(root, FileName)),
		loader.NewEnvLoader(map[string]string{
			EnvLogLevel: "log_level",
			EnvShell:    "session.shell",
		}),
	}

	merged := map[string]any{}
	for _, src := range sources {
		values, err := src.Load()
		if err != nil {
			return nil, err
		}
		merged = loader.DeepMerge(merged, values)
	}

	cfg := Default(root)
	if err := decode(merged, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Join(root, FileName), err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode applies a merged source map over cfg.
func decode(values map[string]any, cfg *Config) error {
	if len(values) == 0 {
		return nil
	}
	data, err := toml.Marshal(values)
	if err != nil {
		return err
	}
	return toml.Unmarshal(data, cfg)
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLevel, c.LogLevel)
	}
	if len(c.Build.Command) == 0 || c.Build.Command[0] == "" {
		return ErrEmptyCommand
	}
	if c.Session.Idle <= 0 {
		return fmt.Errorf("%w: session.idle", ErrInvalidDuration)
	}
	if c.Session.Repeat <= 0 {
		return fmt.Errorf("%w: session.repeat", ErrInvalidDuration)
	}
	return nil
}

// Layout returns the plugin layout under the root.
func (c *Config) Layout() plugin.Layout {
	return plugin.Layout{Root: c.Root}
}

// Path returns the configuration file path.
func (c *Config) Path() string {
	return filepath.Join(c.Root, FileName)
}
