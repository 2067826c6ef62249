package mango

import (
	"context"
	"time"
)

// Datastore combines all the methods for durable entity persistence. The
// administrative interface shares the same store; only the methods the core
// protocol and its tooling need appear here.
type Datastore interface {
	HostStore
	TagStore
	LogQueryStore
	LogEntryStore

	// Name returns the name of the datastore implementation.
	Name() string
	// Drop removes all stored data. Used by tests and dev tooling.
	Drop() error
	// HealthCheck reports an error if the backing store is unreachable.
	HealthCheck() error
}

// HostStore manages Host records and their tag membership.
type HostStore interface {
	// NewHost creates a host. A node key collision returns an error
	// satisfying IsExists.
	NewHost(ctx context.Context, host *Host) (*Host, error)
	// SaveHost updates all mutable host fields in place.
	SaveHost(ctx context.Context, host *Host) error
	// DeleteHost removes a host and, transitively, its log entries.
	DeleteHost(ctx context.Context, id uint) error
	Host(ctx context.Context, id uint) (*Host, error)
	ListHosts(ctx context.Context, opt ListOptions) ([]*Host, error)
	// AuthenticateHost resolves a node key to its host. An unknown key
	// returns an error satisfying IsNotFound.
	AuthenticateHost(ctx context.Context, nodeKey string) (*Host, error)
	// MarkHostSeen refreshes the host's last seen time to t.
	MarkHostSeen(ctx context.Context, host *Host, t time.Time) error
	// ReplaceHostTags sets the host's tag membership to exactly tagIDs.
	ReplaceHostTags(ctx context.Context, hostID uint, tagIDs []uint) error
}

// TagStore manages the administrator-curated tag vocabulary.
type TagStore interface {
	// NewTag creates a tag, normalizing the name to slug form. A name
	// collision returns an error satisfying IsExists.
	NewTag(ctx context.Context, tag *Tag) (*Tag, error)
	DeleteTag(ctx context.Context, id uint) error
	ListTags(ctx context.Context, opt ListOptions) ([]*Tag, error)
	TagByName(ctx context.Context, name string) (*Tag, error)
}

// LogQueryStore manages administrator-defined queries. The core protocol
// only ever reads them.
type LogQueryStore interface {
	NewLogQuery(ctx context.Context, query *LogQuery) (*LogQuery, error)
	DeleteLogQuery(ctx context.Context, id uint) error
	ListLogQueries(ctx context.Context, opt ListOptions) ([]*LogQuery, error)
	// LogQueriesForHost returns every log query whose tag set is empty or
	// intersects the host's tags.
	LogQueriesForHost(ctx context.Context, host *Host) ([]*LogQuery, error)
	// ReplaceLogQueryTags sets the query's tag set to exactly tagIDs.
	ReplaceLogQueryTags(ctx context.Context, queryID uint, tagIDs []uint) error
}

// LogEntryStore persists reported query results.
type LogEntryStore interface {
	ListLogEntries(ctx context.Context, hostID uint, opt ListOptions) ([]*LogEntry, error)
	// RecordLogResults saves the host's updated fields and appends the
	// entries in a single atomic transaction. Either everything from the
	// request is persisted or nothing is.
	RecordLogResults(ctx context.Context, host *Host, entries []*LogEntry) error
}

// OrderDirection is the sort direction for list results.
type OrderDirection int

const (
	OrderAscending OrderDirection = iota
	OrderDescending
)

// ListOptions controls paging and ordering of list results.
type ListOptions struct {
	// Page of results to fetch, 0-indexed.
	Page uint
	// PerPage is the number of results per page. 0 means unlimited.
	PerPage uint
	// OrderKey names the field to order by. Empty means no ordering.
	OrderKey       string
	OrderDirection OrderDirection
}
