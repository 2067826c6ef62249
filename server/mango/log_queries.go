package mango

// LogQuery is an administrator-defined query scheduled onto hosts by tag
// membership. An empty tag set makes the query run on all hosts. The core
// treats log queries as read-only.
type LogQuery struct {
	ID    uint   `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Query string `json:"query" db:"query"`
	// Interval is how often the query runs on the host, in seconds.
	Interval uint `json:"interval" db:"query_interval"`
	// Snapshot marks queries that report the full dataset every run
	// instead of incremental diffs. Useful for time series metrics and
	// keepalives.
	Snapshot bool   `json:"snapshot" db:"snapshot"`
	Tags     []*Tag `json:"tags,omitempty" db:"-"`
}

func (q *LogQuery) String() string {
	return q.Name
}
