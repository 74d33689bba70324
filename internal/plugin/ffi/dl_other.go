//go:build !(darwin || linux || freebsd)

package ffi

import "runtime"

type dlOpener struct{}

func (dlOpener) Open(path string) (Object, error) {
	return nil, &LoadError{Path: path, Message: "dynamic loading is not supported on " + runtime.GOOS}
}
