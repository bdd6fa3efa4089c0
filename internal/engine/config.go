// Package engine is the ambient host-embedding glue: a pluggable backend
// that exposes three of the engine-agnostic core packages (webcrypto,
// resolver, fetch) to whichever JS engine is embedded; clone and streams
// get no JS bindings. This package is the seam between the pure-Go core
// and the engine.
package engine

import "time"

// Config holds embedder-supplied runtime configuration.
type Config struct {
	MemoryLimitMB    int // per-isolate/VM heap limit
	FetchTimeoutSec  int
	MaxResponseBytes int
}

// resolvedFetchTimeout applies the 30s fallback when the embedder leaves
// the field zero.
func (c Config) resolvedFetchTimeout() time.Duration {
	if c.FetchTimeoutSec == 0 {
		return 30 * time.Second
	}
	return time.Duration(c.FetchTimeoutSec) * time.Second
}

func (c Config) resolvedMaxResponseBytes() int64 {
	if c.MaxResponseBytes == 0 {
		return 10 * 1024 * 1024
	}
	return int64(c.MaxResponseBytes)
}
