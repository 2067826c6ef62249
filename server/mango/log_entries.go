package mango

import "time"

// LogEntry is one immutable reported query result row. Entries are created
// by log ingestion only, never updated, and are deleted with their host.
// Output holds the reported row serialized as canonical key-sorted JSON.
type LogEntry struct {
	ID        uint      `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Action    string    `json:"action" db:"action"`
	Output    string    `json:"output" db:"output"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	HostID    uint      `json:"host_id" db:"host_id"`
}
