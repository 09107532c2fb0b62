// Package timeouts defines shared timeout constants used across the bot's
// surfaces. Centralizing these values prevents drift between the HTTP admin
// server and the CLI and makes the durations discoverable.
package timeouts

import "time"

// ReadHeader limits how long the HTTP admin server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long the HTTP admin server waits for in-flight
// requests during graceful shutdown.
const Shutdown = 5 * time.Second

// StoreCheck caps a single diagnostic round-trip against the SQLite store.
const StoreCheck = 2 * time.Second
