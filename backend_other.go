//go:build !windows

package certstore

// Without crypt32 there are no system stores; archives are still imported
// into in-memory stores.
var defaultBackend backend = newMemoryBackend()
