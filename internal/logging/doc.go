// Package logging provides a unified logging interface for storagecast.
// It abstracts the underlying logging implementation, allowing consistent logging
// across the engine, the CLI and the HTTP service while supporting multiple backends.
package logging
