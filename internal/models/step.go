// internal/models/step.go
package models

import (
	"fmt"
	"time"
)

// Mode describes how a resolution event was produced.
type Mode string

const (
	ModeCached           Mode = "Iterative (Cached)"
	ModeDelegation       Mode = "Iterative (Delegation)"
	ModeResolved         Mode = "Iterative (Resolved)"
	ModeQueryFailed      Mode = "Iterative (Query Failed)"
	ModeFailedDelegation Mode = "Iterative (Failed delegation)"
	ModeFailed           Mode = "Iterative (Failed)"
)

// StepType classifies which kind of server a resolution hop talked to.
type StepType string

const (
	StepRoot          StepType = "Root"
	StepAuthoritative StepType = "TLD/Authoritative"
	StepCache         StepType = "Cache"
	StepUnknown       StepType = "Unknown"
)

// CacheStatus records the cache outcome attached to a step.
type CacheStatus string

const (
	CacheHit  CacheStatus = "HIT"
	CacheMiss CacheStatus = "MISS"
	CacheNA   CacheStatus = "N/A"
)

// ResolutionStep is one append-only entry of the resolution log. The engine
// emits one per hop and one per terminal outcome; entries are immutable once
// written.
type ResolutionStep struct {
	Timestamp   time.Time
	Domain      string
	Mode        Mode
	ServerIP    string
	Step        StepType
	Description string
	RTT         time.Duration

	// TotalTime is the cumulative time to resolution. It is only
	// meaningful when HasTotal is set; intermediate hops leave it unset.
	TotalTime time.Duration
	HasTotal  bool

	CacheStatus CacheStatus
}

// PlotPoint is the per-domain datum collected for the external plotting
// collaborator: captured once, on the first successful resolution.
type PlotPoint struct {
	Domain         string
	ServersVisited int
	TotalLatency   time.Duration
}

// FormatSeconds renders a duration the way the resolution log expects it,
// e.g. "0.0042s".
func FormatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.4fs", d.Seconds())
}
