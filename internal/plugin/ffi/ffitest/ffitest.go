// Package ffitest provides an in-memory ffi.Opener whose symbols are Go
// functions. It lets tests drive plugin code without a C toolchain.
package ffitest

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/arukana/neko/internal/plugin/ffi"
)

// Library is a fake shared object. Symbols maps exported names to Go funcs
// whose types match the function pointers the caller binds.
type Library struct {
	Symbols map[string]any

	// CloseErr is returned by Close when set.
	CloseErr error

	mu     sync.Mutex
	opens  int
	closes int
}

// NewLibrary returns a library exporting symbols.
func NewLibrary(symbols map[string]any) *Library {
	if symbols == nil {
		symbols = make(map[string]any)
	}
	return &Library{Symbols: symbols}
}

// Opens returns how many times the library was opened.
func (l *Library) Opens() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.opens
}

// Closes returns how many times an object of this library was released.
func (l *Library) Closes() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closes
}

// Live returns the number of open objects.
func (l *Library) Live() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.opens - l.closes
}

// Opener resolves paths to fake libraries.
type Opener struct {
	mu        sync.Mutex
	libraries map[string]*Library
}

// NewOpener returns an empty opener.
func NewOpener() *Opener {
	return &Opener{libraries: make(map[string]*Library)}
}

// Add registers lib under path and returns it.
func (o *Opener) Add(path string, lib *Library) *Library {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.libraries[path] = lib
	return lib
}

// Remove forgets the library registered under path.
func (o *Opener) Remove(path string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.libraries, path)
}

// Library returns the library registered under path.
func (o *Opener) Library(path string) (*Library, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	lib, ok := o.libraries[path]
	return lib, ok
}

// Open implements ffi.Opener.
func (o *Opener) Open(path string) (ffi.Object, error) {
	o.mu.Lock()
	lib, ok := o.libraries[path]
	o.mu.Unlock()
	if !ok {
		return nil, &ffi.LoadError{Path: path, Message: "cannot open shared object file: No such file or directory"}
	}

	lib.mu.Lock()
	lib.opens++
	lib.mu.Unlock()
	return &object{lib: lib}, nil
}

type object struct {
	lib    *Library
	closed bool
}

func (o *object) Bind(name string, fptr any) bool {
	fn, ok := o.lib.Symbols[name]
	if !ok || fn == nil {
		return false
	}

	dst := reflect.ValueOf(fptr)
	if dst.Kind() != reflect.Pointer || dst.Elem().Kind() != reflect.Func {
		panic(fmt.Sprintf("ffitest: bind %s: want pointer to func, got %T", name, fptr))
	}
	src := reflect.ValueOf(fn)
	if !src.Type().AssignableTo(dst.Elem().Type()) {
		panic(fmt.Sprintf("ffitest: bind %s: symbol is %s, want %s", name, src.Type(), dst.Elem().Type()))
	}
	dst.Elem().Set(src)
	return true
}

func (o *object) Close() error {
	if o.closed {
		return errors.New("ffitest: object already closed")
	}
	o.closed = true

	o.lib.mu.Lock()
	o.lib.closes++
	o.lib.mu.Unlock()
	return o.lib.CloseErr
}
