//go:build linux || android

package plugin

// LibExt is the shared object extension of the platform.
const LibExt = "so"
