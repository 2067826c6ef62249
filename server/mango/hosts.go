package mango

import (
	"math"
	"time"
)

const (
	// StatusOnline host has checked in within OnlineDuration.
	StatusOnline = "online"

	// StatusOffline no communication with host for at least OnlineDuration.
	StatusOffline = "offline"

	// OnlineDuration is how recently a host must have checked in to be
	// considered online. The comparison is strict: a host last seen
	// exactly OnlineDuration ago is offline.
	OnlineDuration = 30 * time.Minute
)

// Host is one enrolled remote node. The node key is the sole credential the
// node authenticates with and is immutable once assigned. Telemetry fields
// are populated incrementally from reported query results.
type Host struct {
	ID           uint      `json:"id" db:"id"`
	NodeKey      string    `json:"-" db:"node_key"`
	Identifier   string    `json:"identifier" db:"identifier"`
	LastSeen     time.Time `json:"last_seen" db:"last_seen"`
	Invalidate   bool      `json:"invalidate" db:"invalidate"`
	Architecture string    `json:"architecture" db:"architecture"`
	Release      string    `json:"release" db:"os_release"`
	CPUBrand     string    `json:"cpu_brand" db:"cpu_brand"`
	RAM          int64     `json:"ram" db:"ram"`
	Tags         []*Tag    `json:"tags,omitempty" db:"-"`
}

// Alive reports whether the host has checked in within OnlineDuration of now.
func (h *Host) Alive(now time.Time) bool {
	return now.Sub(h.LastSeen) < OnlineDuration
}

// Status derives the online/offline state of the host from its last seen
// time. The state is never stored.
func (h *Host) Status(now time.Time) string {
	if h.Alive(now) {
		return StatusOnline
	}
	return StatusOffline
}

// RAMGiB returns the installed memory rounded up to whole gibibytes.
func (h *Host) RAMGiB() int {
	return int(math.Ceil(float64(h.RAM) / 1024 / 1024 / 1024))
}

func (h *Host) String() string {
	if h.Identifier != "" {
		return h.Identifier
	}
	return h.NodeKey
}
