package ffi_test

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arukana/neko/internal/plugin/ffi"
	"github.com/arukana/neko/internal/plugin/ffi/ffitest"
)

func TestDefaultOpenMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.so")

	_, err := ffi.Default().Open(path)
	require.Error(t, err)

	var loadErr *ffi.LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, path, loadErr.Path)
	assert.NotEmpty(t, loadErr.Message)
	assert.Contains(t, err.Error(), path)
}

func TestFakeBind(t *testing.T) {
	opener := ffitest.NewOpener()
	lib := opener.Add("/lib/x.so", ffitest.NewLibrary(map[string]any{
		"double": func(n int) int { return n * 2 },
	}))

	obj, err := opener.Open("/lib/x.so")
	require.NoError(t, err)

	var double func(int) int
	require.True(t, obj.Bind("double", &double))
	assert.Equal(t, 8, double(4))

	var missing func()
	assert.False(t, obj.Bind("missing", &missing))
	assert.Nil(t, missing)

	var wrong func(string)
	assert.Panics(t, func() { obj.Bind("double", &wrong) })

	require.NoError(t, obj.Close())
	assert.Error(t, obj.Close())
	assert.Equal(t, 1, lib.Opens())
	assert.Equal(t, 1, lib.Closes())
	assert.Equal(t, 0, lib.Live())
}

func TestFakeOpenUnknown(t *testing.T) {
	opener := ffitest.NewOpener()
	opener.Add("/lib/x.so", ffitest.NewLibrary(nil))
	opener.Remove("/lib/x.so")

	_, err := opener.Open("/lib/x.so")
	var loadErr *ffi.LoadError
	assert.True(t, errors.As(err, &loadErr))

	_, ok := opener.Library("/lib/x.so")
	assert.False(t, ok)
}

func TestDefaultBindsOnlyOwnSymbols(t *testing.T) {
	cc, err := exec.LookPath("cc")
	if err != nil {
		t.Skip("cc not installed")
	}
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
		t.Skip("no dynamic loader")
	}

	dir := t.TempDir()
	src := filepath.Join(dir, "lib.c")
	lib := filepath.Join(dir, "lib.so")
	require.NoError(t, os.WriteFile(src, []byte("int twice(int n) { return 2 * n; }\n"), 0o644))
	out, err := exec.Command(cc, "-shared", "-fPIC", "-o", lib, src).CombinedOutput()
	require.NoError(t, err, string(out))

	obj, err := ffi.Default().Open(lib)
	require.NoError(t, err)
	defer func() { require.NoError(t, obj.Close()) }()

	var twice func(int32) int32
	require.True(t, obj.Bind("twice", &twice))
	assert.Equal(t, int32(42), twice(21))

	var signal func(int32, uintptr) uintptr
	assert.False(t, obj.Bind("signal", &signal))
	assert.Nil(t, signal)

	var strlen func(string) uintptr
	assert.False(t, obj.Bind("strlen", &strlen))
}
