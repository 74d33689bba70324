package loader

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
)

// MemFS is an in-memory file system for testing.
type MemFS struct {
	files map[string][]byte
	err   error
}

func NewMemFS() *MemFS {
	return &MemFS{files: make(map[string][]byte)}
}

func (m *MemFS) AddFile(path string, content string) {
	m.files[path] = []byte(content)
}

func (m *MemFS) ReadFile(path string) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	data, ok := m.files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return data, nil
}

func TestTOMLLoader_Load(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/neko.toml", `
log_level = "debug"

[build]
command = ["make", "release"]

[session]
shell = "/bin/zsh"
idle = "2s"
`)

	loader := NewTOMLLoaderWithFS(memfs, "/neko.toml")
	if loader.Path() != "/neko.toml" {
		t.Errorf("Path() = %q", loader.Path())
	}
	config, err := loader.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if config["log_level"] != "debug" {
		t.Errorf("log_level = %v", config["log_level"])
	}

	build, ok := config["build"].(map[string]any)
	if !ok {
		t.Fatal("expected build to be a map")
	}
	command, ok := build["command"].([]any)
	if !ok || len(command) != 2 || command[1] != "release" {
		t.Errorf("build.command = %v", build["command"])
	}

	if val, _ := getByPath(config, "session.idle"); val != "2s" {
		t.Errorf("session.idle = %v", val)
	}
}

func TestTOMLLoader_Missing(t *testing.T) {
	loader := NewTOMLLoaderWithFS(NewMemFS(), "/neko.toml")

	config, err := loader.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config != nil {
		t.Errorf("config = %v, want nil", config)
	}
}

func TestTOMLLoader_ReadError(t *testing.T) {
	memfs := NewMemFS()
	memfs.err = fs.ErrPermission

	_, err := NewTOMLLoaderWithFS(memfs, "/neko.toml").Load()
	if !errors.Is(err, fs.ErrPermission) {
		t.Fatalf("Load error = %v, want permission error", err)
	}
}

func TestTOMLLoader_ParseError(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/neko.toml", "log_level = \"debug\"\n[session\nshell = 1\n")

	_, err := NewTOMLLoaderWithFS(memfs, "/neko.toml").Load()
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Load error = %v, want *ParseError", err)
	}
	if perr.Path != "/neko.toml" {
		t.Errorf("Path = %q", perr.Path)
	}
	if perr.Line < 2 {
		t.Errorf("Line = %d, want at least 2", perr.Line)
	}
	if !strings.Contains(perr.Error(), "at line") {
		t.Errorf("Error() = %q", perr.Error())
	}
}

func TestParseErrorString(t *testing.T) {
	tests := []struct {
		err  ParseError
		want string
	}{
		{ParseError{Path: "a", Line: 1, Column: 2, Message: "m"}, "parse error in a at line 1, column 2: m"},
		{ParseError{Path: "a", Line: 1, Message: "m"}, "parse error in a at line 1: m"},
		{ParseError{Path: "a", Message: "m"}, "parse error in a: m"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestDeepMerge(t *testing.T) {
	dst := map[string]any{
		"log_level": "info",
		"session":   map[string]any{"shell": "/bin/sh", "idle": "1s"},
	}
	src := map[string]any{
		"session": map[string]any{"shell": "/bin/zsh"},
		"git":     map[string]any{"branch": "main"},
	}

	got := DeepMerge(dst, src)

	if val, _ := getByPath(got, "session.shell"); val != "/bin/zsh" {
		t.Errorf("session.shell = %v", val)
	}
	if val, _ := getByPath(got, "session.idle"); val != "1s" {
		t.Errorf("session.idle = %v", val)
	}
	if val, _ := getByPath(got, "git.branch"); val != "main" {
		t.Errorf("git.branch = %v", val)
	}
	if got["log_level"] != "info" {
		t.Errorf("log_level = %v", got["log_level"])
	}

	if DeepMerge(nil, nil) == nil {
		t.Error("DeepMerge(nil, nil) should return an empty map")
	}
}
