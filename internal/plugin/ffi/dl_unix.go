//go:build darwin || linux || freebsd

package ffi

import (
	"os"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

type dlOpener struct{}

func (dlOpener) Open(path string) (Object, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return nil, &LoadError{Path: path, Message: err.Error()}
	}
	return &dlObject{path: path, handle: handle}, nil
}

type dlObject struct {
	path   string
	handle uintptr
}

// Bind only accepts symbols defined by the object itself, not by one of
// its dependencies.
func (o *dlObject) Bind(name string, fptr any) bool {
	sym, err := purego.Dlsym(o.handle, name)
	if err != nil || sym == 0 {
		return false
	}
	if !o.owns(name, sym) {
		return false
	}
	purego.RegisterFunc(fptr, sym)
	return true
}

// owns reports whether sym lies in the object's own file.
func (o *dlObject) owns(name string, sym uintptr) bool {
	if global, err := purego.Dlsym(purego.RTLD_DEFAULT, name); err == nil && global == sym {
		return false
	}

	addr := dladdrFunc()
	if addr == nil {
		return true
	}
	var info dlInfo
	if addr(sym, &info) == 0 || info.fname == nil {
		return true
	}
	return sameFile(cString(info.fname), o.path)
}

func (o *dlObject) Close() error {
	if o.handle == 0 {
		return nil
	}
	err := purego.Dlclose(o.handle)
	o.handle = 0
	return err
}

// dlInfo is Dl_info.
type dlInfo struct {
	fname *byte
	fbase uintptr
	sname *byte
	saddr uintptr
}

var (
	dladdrOnce sync.Once
	dladdr     func(addr uintptr, info *dlInfo) int32
)

// dladdrFunc returns dladdr, or nil when the C library does not export it.
func dladdrFunc() func(uintptr, *dlInfo) int32 {
	dladdrOnce.Do(func() {
		sym, err := purego.Dlsym(purego.RTLD_DEFAULT, "dladdr")
		if err != nil || sym == 0 {
			return
		}
		purego.RegisterFunc(&dladdr, sym)
	})
	return dladdr
}

func cString(p *byte) string {
	n := 0
	for *(*byte)(unsafe.Add(unsafe.Pointer(p), n)) != 0 {
		n++
	}
	return string(unsafe.Slice(p, n))
}

func sameFile(a, b string) bool {
	if a == b {
		return true
	}
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}
