package plugin

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arukana/neko/internal/plugin/ffi"
	"github.com/arukana/neko/internal/plugin/state"
)

func priorities(reg *Registry) []int64 {
	var out []int64
	for _, h := range reg.List() {
		out = append(out, h.Priority())
	}
	return out
}

func TestRegistryMountUsesManifestPriority(t *testing.T) {
	reg, opener := testRegistry(t)
	addPlugin(t, reg, opener, "a@one", "priority = 5\n", nil)
	addPlugin(t, reg, opener, "a@two", "", nil)

	require.NoError(t, reg.Mount("a@one"))
	require.NoError(t, reg.Mount("a@two", WithPriority(-1)))

	assert.Equal(t, []string{"a@two", "a@one"}, reg.Names())
	assert.Equal(t, []int64{-1, 5}, priorities(reg))
}

func TestRegistryMountDefaultPriority(t *testing.T) {
	reg, opener := testRegistry(t)
	addPlugin(t, reg, opener, "a@one", "[dependencies]\n", nil)

	require.NoError(t, reg.Mount("a@one"))

	h, ok := reg.Get("a@one")
	require.True(t, ok)
	assert.Equal(t, DefaultPriority, h.Priority())
}

func TestRegistryMountIsIdempotent(t *testing.T) {
	reg, opener := testRegistry(t)
	lib := addPlugin(t, reg, opener, "a@one", "", nil)
	addPlugin(t, reg, opener, "a@two", "", nil)
	addPlugin(t, reg, opener, "a@three", "", nil)

	require.NoError(t, reg.Mount("a@two", WithPriority(2)))
	require.NoError(t, reg.Mount("a@three", WithPriority(4)))
	require.NoError(t, reg.Mount("a@one", WithPriority(1)))
	require.NoError(t, reg.Mount("a@one", WithPriority(9)))

	assert.Equal(t, 3, reg.Len())
	assert.Equal(t, []string{"a@two", "a@three", "a@one"}, reg.Names())
	assert.Equal(t, []int64{2, 4, 9}, priorities(reg))
	assert.IsNonDecreasing(t, priorities(reg))
	assert.Equal(t, 1, lib.Live())
	assert.Equal(t, 2, lib.Opens())
}

func TestRegistryMountReinitializesSlot(t *testing.T) {
	reg, opener := testRegistry(t)
	addPlugin(t, reg, opener, "a@one", "", map[string]any{
		SymIdle: HookFunc(func(_ *state.State, slot *uintptr) { *slot++ }),
	})

	require.NoError(t, reg.Mount("a@one", WithPriority(0)))
	reg.Call(Idle())
	reg.Call(Idle())
	h, _ := reg.Get("a@one")
	assert.Equal(t, uintptr(2), h.Slot())

	require.NoError(t, reg.Mount("a@one", WithPriority(0)))
	h, _ = reg.Get("a@one")
	assert.Equal(t, uintptr(0), h.Slot())
}

func TestRegistryMountErrors(t *testing.T) {
	t.Run("manifest unreadable", func(t *testing.T) {
		reg, _ := testRegistry(t)
		err := reg.Mount("a@missing")
		assert.ErrorIs(t, err, ErrReadManifest)

		var fsErr *FSError
		require.True(t, errors.As(err, &fsErr))
		assert.Equal(t, OpRead, fsErr.Op)
	})

	t.Run("manifest unparsable", func(t *testing.T) {
		reg, opener := testRegistry(t)
		addPlugin(t, reg, opener, "a@one", "priority = = 3", nil)
		assert.ErrorIs(t, reg.Mount("a@one"), ErrParseManifest)
	})

	t.Run("priority not an integer", func(t *testing.T) {
		reg, opener := testRegistry(t)
		addPlugin(t, reg, opener, "a@one", "priority = \"high\"\n", nil)
		assert.ErrorIs(t, reg.Mount("a@one"), ErrParseInteger)
	})

	t.Run("artifact load failure", func(t *testing.T) {
		reg, _ := testRegistry(t)
		err := reg.Mount("a@ghost", WithPriority(0))

		var loadErr *ffi.LoadError
		require.True(t, errors.As(err, &loadErr))
		assert.Equal(t, reg.Layout().Artifact("a@ghost"), loadErr.Path)
		assert.Equal(t, 0, reg.Len())
	})
}

func TestRegistryUnmount(t *testing.T) {
	var j journal
	reg, opener := testRegistry(t)
	lib := addPlugin(t, reg, opener, "a@one", "", j.symbols("one"))

	require.NoError(t, reg.Mount("a@one", WithPriority(0)))
	j.reset()

	require.NoError(t, reg.Unmount("a@one"))
	assert.ErrorIs(t, reg.Unmount("a@one"), ErrNotFound)

	assert.Empty(t, j.calls, "unmount must not run hooks")
	assert.Equal(t, 0, lib.Live())
	assert.Equal(t, 0, reg.Len())
}

func TestRegistryRelease(t *testing.T) {
	var j journal
	reg, opener := testRegistry(t)
	lib := addPlugin(t, reg, opener, "a@one", "", j.symbols("one"))

	require.NoError(t, reg.Mount("a@one", WithPriority(0)))
	j.reset()

	require.NoError(t, reg.Release("a@one", true))
	assert.Equal(t, []string{"one:end", "one:uninstall"}, j.calls)
	assert.Equal(t, 0, lib.Live())
	assert.ErrorIs(t, reg.Release("a@one", false), ErrNotFound)
}

func TestRegistryCallOrder(t *testing.T) {
	var j journal
	reg, opener := testRegistry(t)
	addPlugin(t, reg, opener, "a@low", "", j.symbols("low"))
	addPlugin(t, reg, opener, "a@mid", "", j.symbols("mid", SymInput))
	addPlugin(t, reg, opener, "a@high", "", j.symbols("high"))

	require.NoError(t, reg.Mount("a@high", WithPriority(10)))
	require.NoError(t, reg.Mount("a@low", WithPriority(-10)))
	require.NoError(t, reg.Mount("a@mid", WithPriority(0)))
	j.reset()

	reg.Call(InputEvent([]byte("q")))
	assert.Equal(t, []string{"low:input", "mid:input", "high:input"}, j.calls)

	j.reset()
	reg.Call(Idle())
	assert.Equal(t, []string{"low:idle", "high:idle"}, j.calls)
}

func TestRegistryEqualPrioritiesKeepMountOrder(t *testing.T) {
	reg, opener := testRegistry(t)
	for _, name := range []string{"a@x", "a@y", "a@z"} {
		addPlugin(t, reg, opener, name, "", nil)
		require.NoError(t, reg.Mount(name, WithPriority(1)))
	}
	assert.Equal(t, []string{"a@x", "a@y", "a@z"}, reg.Names())
}

func TestRegistryPrunesSelfUnmounted(t *testing.T) {
	var j journal
	reg, opener := testRegistry(t)

	leaver := j.symbols("leaver", SymEnd)
	leaver[SymIdle] = HookFunc(func(st *state.State, _ *uintptr) {
		j.add("leaver", SymIdle)
		st.Unmount = 1
	})
	leaverLib := addPlugin(t, reg, opener, "a@leaver", "", leaver)
	addPlugin(t, reg, opener, "a@stayer", "", j.symbols("stayer", SymIdle, SymEnd))

	require.NoError(t, reg.Mount("a@leaver", WithPriority(0)))
	require.NoError(t, reg.Mount("a@stayer", WithPriority(1)))

	var events []RegistryEvent
	reg.Subscribe(func(ev RegistryEvent) { events = append(events, ev) })

	reg.Call(Idle())

	assert.Equal(t, []string{"leaver:idle", "stayer:idle", "leaver:end"}, j.calls)
	assert.Equal(t, []string{"a@stayer"}, reg.Names())
	assert.False(t, reg.State().IsUnmounted())
	assert.Equal(t, 0, leaverLib.Live())
	require.Len(t, events, 1)
	assert.Equal(t, EventPruned, events[0].Type)
	assert.Equal(t, "a@leaver", events[0].Plugin)

	j.reset()
	reg.Call(Idle())
	assert.Equal(t, []string{"stayer:idle"}, j.calls)
}

func TestRegistryLeavingOnStartBlamesOnlyThatPlugin(t *testing.T) {
	var j journal
	reg, opener := testRegistry(t)

	addPlugin(t, reg, opener, "a@innocent", "", j.symbols("innocent", SymIdle, SymEnd))
	leaver := j.symbols("leaver", SymIdle, SymEnd)
	leaver[SymStart] = HookFunc(func(st *state.State, _ *uintptr) {
		j.add("leaver", SymStart)
		st.Unmount = 1
	})
	leaverLib := addPlugin(t, reg, opener, "a@leaver", "", leaver)

	require.NoError(t, reg.Mount("a@innocent", WithPriority(0)))
	err := reg.Mount("a@leaver", WithPriority(5))
	require.ErrorIs(t, err, ErrLeftOnMount)

	assert.Equal(t, []string{"leaver:start", "leaver:end"}, j.calls)
	assert.Equal(t, 0, leaverLib.Live())
	assert.False(t, reg.State().IsUnmounted())

	j.reset()
	reg.Call(Idle())
	assert.Equal(t, []string{"innocent:idle"}, j.calls)
	assert.Equal(t, []string{"a@innocent"}, reg.Names())
}

func TestRegistryStaleFlagIsNotBlamed(t *testing.T) {
	var j journal
	reg, opener := testRegistry(t)

	addPlugin(t, reg, opener, "a@one", "", j.symbols("one", SymIdle))
	addPlugin(t, reg, opener, "a@two", "", j.symbols("two", SymIdle))
	require.NoError(t, reg.Mount("a@one", WithPriority(0)))
	require.NoError(t, reg.Mount("a@two", WithPriority(1)))

	reg.State().Unmount = 1
	reg.Call(Idle())

	assert.Equal(t, []string{"one:idle", "two:idle"}, j.calls)
	assert.Equal(t, []string{"a@one", "a@two"}, reg.Names())
}

func TestRegistryStartMutatesState(t *testing.T) {
	reg, opener := testRegistry(t)
	addPlugin(t, reg, opener, "a@one", "", map[string]any{
		SymStart: HookFunc(func(st *state.State, _ *uintptr) {
			st.Persona.Sheet = state.SheetBust
		}),
	})

	assert.Equal(t, state.SheetNone, reg.State().Sheet())
	require.NoError(t, reg.Mount("a@one", WithPriority(0)))
	assert.Equal(t, state.SheetBust, reg.State().Sheet())
}

func TestRegistrySetters(t *testing.T) {
	reg, _ := testRegistry(t)

	reg.SetTooltipMessage("Installed with success.")
	reg.SetTooltipCardinal(state.Top)
	reg.SetPersonaSheet(state.SheetLying)
	reg.SetPersonaPosition(state.AtCardinal(state.LowerLeft))

	st := reg.State()
	assert.Equal(t, "Installed with success.", st.Tooltip.Text())
	assert.Equal(t, state.Top, st.Tooltip.Cardinal)
	assert.Equal(t, state.SheetLying, st.Sheet())
	assert.Equal(t, state.AtCardinal(state.LowerLeft), st.Position())
}

func TestRegistryCommand(t *testing.T) {
	var got []string
	reg, opener := testRegistry(t)
	addPlugin(t, reg, opener, "a@one", "", map[string]any{
		SymCommand: TextFunc(func(_ *state.State, _ *uintptr, line string) {
			got = append(got, line)
		}),
	})
	require.NoError(t, reg.Mount("a@one", WithPriority(0)))

	reg.Command("theme dark")
	assert.Equal(t, []string{"theme dark"}, got)
}

func TestRegistryClose(t *testing.T) {
	var j journal
	reg, opener := testRegistry(t)
	a := addPlugin(t, reg, opener, "a@one", "", j.symbols("one", SymEnd))
	b := addPlugin(t, reg, opener, "a@two", "", j.symbols("two", SymEnd))
	require.NoError(t, reg.Mount("a@two", WithPriority(2)))
	require.NoError(t, reg.Mount("a@one", WithPriority(1)))

	reg.Close()

	assert.Equal(t, []string{"one:end", "two:end"}, j.calls)
	assert.Equal(t, 0, a.Live())
	assert.Equal(t, 0, b.Live())
	assert.Equal(t, 0, reg.Len())
}

func TestMountAllSkipsBrokenPlugins(t *testing.T) {
	reg, opener := testRegistry(t)
	addPlugin(t, reg, opener, "a@good", "priority = 1\n", nil)
	addPlugin(t, reg, opener, "a@bad", "priority = 1.5\n", nil)
	require.NoError(t, os.MkdirAll(reg.Layout().Checkout("a@nolib"), 0o755))
	require.NoError(t, os.WriteFile(reg.Layout().Manifest("a@nolib"), nil, 0o644))

	var (
		mu     sync.Mutex
		failed []string
	)
	reg.Subscribe(func(ev RegistryEvent) {
		if ev.Type == EventError {
			mu.Lock()
			failed = append(failed, ev.Plugin)
			mu.Unlock()
		}
	})

	require.NoError(t, reg.MountAll())
	assert.Equal(t, []string{"a@good"}, reg.Names())
	assert.ElementsMatch(t, []string{"a@bad", "a@nolib"}, failed)
}

func TestOpenFailsWithoutGitDir(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "blocked")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, err := Open(Layout{Root: blocker})
	var fsErr *FSError
	require.True(t, errors.As(err, &fsErr))
	assert.Equal(t, OpCreate, fsErr.Op)
}

func TestSubscribeRecoversPanics(t *testing.T) {
	reg, opener := testRegistry(t)
	addPlugin(t, reg, opener, "a@one", "", nil)

	unsubscribe := reg.Subscribe(func(RegistryEvent) { panic("boom") })
	assert.NotPanics(t, func() {
		require.NoError(t, reg.Mount("a@one", WithPriority(0)))
	})
	unsubscribe()

	assert.NotNil(t, reg.Subscribe(nil))
}
