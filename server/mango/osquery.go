package mango

import "context"

// OsqueryService is the node-facing TLS API: enroll once, then fetch the
// query schedule and report results on every cycle.
type OsqueryService interface {
	// EnrollAgent exchanges the shared enroll secret for a fresh unique
	// node key.
	EnrollAgent(ctx context.Context, enrollSecret string) (nodeKey string, err error)
	// AuthenticateHost resolves a node key to its host, refreshing the
	// host's last seen time. Unknown and invalidated keys fail with an
	// error indistinguishable on the wire.
	AuthenticateHost(ctx context.Context, nodeKey string) (*Host, error)
	// GetClientConfig computes the schedule the authenticated host must
	// run. It is recomputed fresh on every request.
	GetClientConfig(ctx context.Context) (*OsqueryConfig, error)
	// SubmitResultLogs ingests a batch of reported results for the
	// authenticated host.
	SubmitResultLogs(ctx context.Context, logType string, logs []ResultLogItem) error
}

// Service is the full API surface of the server.
type Service interface {
	OsqueryService
}

// QueryContent is one schedule entry in the osquery configuration format.
type QueryContent struct {
	Query    string `json:"query"`
	Interval uint   `json:"interval"`
	Snapshot *bool  `json:"snapshot,omitempty"`
}

// Schedule maps schedule entry names to their query content.
type Schedule map[string]QueryContent

// OsqueryConfig is the configuration document returned to a node.
type OsqueryConfig struct {
	Schedule Schedule `json:"schedule"`
}

// Result log actions reported by osqueryd.
const (
	ActionAdded    = "added"
	ActionRemoved  = "removed"
	ActionSnapshot = "snapshot"
)

// LogTypeResult is the log_type discriminator for diff-style result
// batches. Batches of any other type are ignored.
const LogTypeResult = "result"

// ResultLogItem is one reported result in a log batch. Diff-style items
// carry a single row in Columns; snapshot-style items carry the full
// dataset in Snapshot.
type ResultLogItem struct {
	Name           string                   `json:"name"`
	Action         string                   `json:"action"`
	HostIdentifier string                   `json:"hostIdentifier"`
	Columns        map[string]interface{}   `json:"columns,omitempty"`
	Snapshot       []map[string]interface{} `json:"snapshot,omitempty"`
}
