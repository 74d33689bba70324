package plugin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/arukana/neko/internal/plugin/ffi/ffitest"
	"github.com/arukana/neko/internal/plugin/state"
)

// journal records callback invocations as "<plugin>:<symbol>".
type journal struct {
	calls []string
}

func (j *journal) add(plugin, symbol string) {
	j.calls = append(j.calls, plugin+":"+symbol)
}

func (j *journal) reset() {
	j.calls = nil
}

// symbols returns an export table for tag restricted to names, or every
// symbol when names is empty.
func (j *journal) symbols(tag string, names ...string) map[string]any {
	hook := func(symbol string) HookFunc {
		return func(*state.State, *uintptr) { j.add(tag, symbol) }
	}
	all := map[string]any{
		SymInstall:   hook(SymInstall),
		SymUninstall: hook(SymUninstall),
		SymStart:     hook(SymStart),
		SymEnd:       hook(SymEnd),
		SymIdle:      hook(SymIdle),
		SymProcess: ProcessFunc(func(_ *state.State, _ *uintptr, name string, pid int32) {
			j.add(tag, SymProcess)
		}),
		SymCommand: TextFunc(func(_ *state.State, _ *uintptr, line string) {
			j.add(tag, SymCommand)
		}),
		SymKeyUnicodeDown: CodeFunc(func(*state.State, *uintptr, uint64) {
			j.add(tag, SymKeyUnicodeDown)
		}),
		SymKeyStringDown: TextFunc(func(*state.State, *uintptr, string) {
			j.add(tag, SymKeyStringDown)
		}),
		SymKeyRepeatDown: CodeFunc(func(*state.State, *uintptr, uint64) {
			j.add(tag, SymKeyRepeatDown)
		}),
		SymKeyIntervalDown: IntervalFunc(func(*state.State, *uintptr, int64) {
			j.add(tag, SymKeyIntervalDown)
		}),
		SymMouseDown: MouseFunc(func(*state.State, *uintptr, uint32, uint16, uint16) {
			j.add(tag, SymMouseDown)
		}),
		SymMouseUp: MouseFunc(func(*state.State, *uintptr, uint32, uint16, uint16) {
			j.add(tag, SymMouseUp)
		}),
		SymInput: BytesFunc(func(*state.State, *uintptr, *byte, uintptr) {
			j.add(tag, SymInput)
		}),
		SymOutput: BytesFunc(func(*state.State, *uintptr, *byte, uintptr) {
			j.add(tag, SymOutput)
		}),
		SymSignal: SignalFunc(func(*state.State, *uintptr, int32) {
			j.add(tag, SymSignal)
		}),
		SymResized: ResizedFunc(func(*state.State, *uintptr, *state.Winsize) {
			j.add(tag, SymResized)
		}),
	}
	if len(names) == 0 {
		return all
	}

	out := make(map[string]any, len(names))
	for _, name := range names {
		out[name] = all[name]
	}
	return out
}

// testRegistry returns a registry over a temporary layout with a fake loader.
func testRegistry(t *testing.T) (*Registry, *ffitest.Opener) {
	t.Helper()
	layout := Layout{Root: t.TempDir()}
	if err := layout.Ensure(); err != nil {
		t.Fatal(err)
	}

	logger, _ := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	opener := ffitest.NewOpener()
	reg := New(layout, WithOpener(opener), WithLogger(logger))
	t.Cleanup(reg.Close)
	return reg, opener
}

// addPlugin registers a fake artifact for name and, when manifest is not
// empty, writes its checkout manifest.
func addPlugin(t *testing.T, reg *Registry, opener *ffitest.Opener, name, manifest string, symbols map[string]any) *ffitest.Library {
	t.Helper()
	if manifest != "" {
		dir := reg.Layout().Checkout(name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, ManifestName), []byte(manifest), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return opener.Add(reg.Layout().Artifact(name), ffitest.NewLibrary(symbols))
}
