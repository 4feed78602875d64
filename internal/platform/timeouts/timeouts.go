// Package timeouts defines shared timeout constants used across featurebook
// commands.
package timeouts

import "time"

// Render caps how long a check card waits for its deferred sections.
const Render = 10 * time.Second

// OTelShutdown limits how long a command waits for pending spans to flush
// when it exits.
const OTelShutdown = 5 * time.Second
