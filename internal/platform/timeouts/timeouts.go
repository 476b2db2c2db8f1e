// Package timeouts defines shared timeout constants used by the commands.
package timeouts

import "time"

// DBPing caps the wait time when (re)opening a relational storage handle.
const DBPing = 5 * time.Second

// Shutdown limits how long telemetry flushing may block process exit.
const Shutdown = 5 * time.Second
