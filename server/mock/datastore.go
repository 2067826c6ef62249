// Package mock provides a hand-maintained mock of the Datastore interface
// in the style of mockimpl-generated code: one func field plus an Invoked
// flag per method.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/fincham/mango/server/mango"
)

var _ mango.Datastore = (*Store)(nil)

type NewHostFunc func(ctx context.Context, host *mango.Host) (*mango.Host, error)

type SaveHostFunc func(ctx context.Context, host *mango.Host) error

type DeleteHostFunc func(ctx context.Context, id uint) error

type HostFunc func(ctx context.Context, id uint) (*mango.Host, error)

type ListHostsFunc func(ctx context.Context, opt mango.ListOptions) ([]*mango.Host, error)

type AuthenticateHostFunc func(ctx context.Context, nodeKey string) (*mango.Host, error)

type MarkHostSeenFunc func(ctx context.Context, host *mango.Host, t time.Time) error

type ReplaceHostTagsFunc func(ctx context.Context, hostID uint, tagIDs []uint) error

type NewTagFunc func(ctx context.Context, tag *mango.Tag) (*mango.Tag, error)

type DeleteTagFunc func(ctx context.Context, id uint) error

type ListTagsFunc func(ctx context.Context, opt mango.ListOptions) ([]*mango.Tag, error)

type TagByNameFunc func(ctx context.Context, name string) (*mango.Tag, error)

type NewLogQueryFunc func(ctx context.Context, query *mango.LogQuery) (*mango.LogQuery, error)

type DeleteLogQueryFunc func(ctx context.Context, id uint) error

type ListLogQueriesFunc func(ctx context.Context, opt mango.ListOptions) ([]*mango.LogQuery, error)

type LogQueriesForHostFunc func(ctx context.Context, host *mango.Host) ([]*mango.LogQuery, error)

type ReplaceLogQueryTagsFunc func(ctx context.Context, queryID uint, tagIDs []uint) error

type ListLogEntriesFunc func(ctx context.Context, hostID uint, opt mango.ListOptions) ([]*mango.LogEntry, error)

type RecordLogResultsFunc func(ctx context.Context, host *mango.Host, entries []*mango.LogEntry) error

type Store struct {
	NewHostFunc        NewHostFunc
	NewHostFuncInvoked bool

	SaveHostFunc        SaveHostFunc
	SaveHostFuncInvoked bool

	DeleteHostFunc        DeleteHostFunc
	DeleteHostFuncInvoked bool

	HostFunc        HostFunc
	HostFuncInvoked bool

	ListHostsFunc        ListHostsFunc
	ListHostsFuncInvoked bool

	AuthenticateHostFunc        AuthenticateHostFunc
	AuthenticateHostFuncInvoked bool

	MarkHostSeenFunc        MarkHostSeenFunc
	MarkHostSeenFuncInvoked bool

	ReplaceHostTagsFunc        ReplaceHostTagsFunc
	ReplaceHostTagsFuncInvoked bool

	NewTagFunc        NewTagFunc
	NewTagFuncInvoked bool

	DeleteTagFunc        DeleteTagFunc
	DeleteTagFuncInvoked bool

	ListTagsFunc        ListTagsFunc
	ListTagsFuncInvoked bool

	TagByNameFunc        TagByNameFunc
	TagByNameFuncInvoked bool

	NewLogQueryFunc        NewLogQueryFunc
	NewLogQueryFuncInvoked bool

	DeleteLogQueryFunc        DeleteLogQueryFunc
	DeleteLogQueryFuncInvoked bool

	ListLogQueriesFunc        ListLogQueriesFunc
	ListLogQueriesFuncInvoked bool

	LogQueriesForHostFunc        LogQueriesForHostFunc
	LogQueriesForHostFuncInvoked bool

	ReplaceLogQueryTagsFunc        ReplaceLogQueryTagsFunc
	ReplaceLogQueryTagsFuncInvoked bool

	ListLogEntriesFunc        ListLogEntriesFunc
	ListLogEntriesFuncInvoked bool

	RecordLogResultsFunc        RecordLogResultsFunc
	RecordLogResultsFuncInvoked bool

	mu sync.Mutex
}

func (s *Store) Name() string {
	return "mock"
}

func (s *Store) Drop() error {
	return nil
}

func (s *Store) HealthCheck() error {
	return nil
}

func (s *Store) NewHost(ctx context.Context, host *mango.Host) (*mango.Host, error) {
	s.mu.Lock()
	s.NewHostFuncInvoked = true
	s.mu.Unlock()
	return s.NewHostFunc(ctx, host)
}

func (s *Store) SaveHost(ctx context.Context, host *mango.Host) error {
	s.mu.Lock()
	s.SaveHostFuncInvoked = true
	s.mu.Unlock()
	return s.SaveHostFunc(ctx, host)
}

func (s *Store) DeleteHost(ctx context.Context, id uint) error {
	s.mu.Lock()
	s.DeleteHostFuncInvoked = true
	s.mu.Unlock()
	return s.DeleteHostFunc(ctx, id)
}

func (s *Store) Host(ctx context.Context, id uint) (*mango.Host, error) {
	s.mu.Lock()
	s.HostFuncInvoked = true
	s.mu.Unlock()
	return s.HostFunc(ctx, id)
}

func (s *Store) ListHosts(ctx context.Context, opt mango.ListOptions) ([]*mango.Host, error) {
	s.mu.Lock()
	s.ListHostsFuncInvoked = true
	s.mu.Unlock()
	return s.ListHostsFunc(ctx, opt)
}

func (s *Store) AuthenticateHost(ctx context.Context, nodeKey string) (*mango.Host, error) {
	s.mu.Lock()
	s.AuthenticateHostFuncInvoked = true
	s.mu.Unlock()
	return s.AuthenticateHostFunc(ctx, nodeKey)
}

func (s *Store) MarkHostSeen(ctx context.Context, host *mango.Host, t time.Time) error {
	s.mu.Lock()
	s.MarkHostSeenFuncInvoked = true
	s.mu.Unlock()
	return s.MarkHostSeenFunc(ctx, host, t)
}

func (s *Store) ReplaceHostTags(ctx context.Context, hostID uint, tagIDs []uint) error {
	s.mu.Lock()
	s.ReplaceHostTagsFuncInvoked = true
	s.mu.Unlock()
	return s.ReplaceHostTagsFunc(ctx, hostID, tagIDs)
}

func (s *Store) NewTag(ctx context.Context, tag *mango.Tag) (*mango.Tag, error) {
	s.mu.Lock()
	s.NewTagFuncInvoked = true
	s.mu.Unlock()
	return s.NewTagFunc(ctx, tag)
}

func (s *Store) DeleteTag(ctx context.Context, id uint) error {
	s.mu.Lock()
	s.DeleteTagFuncInvoked = true
	s.mu.Unlock()
	return s.DeleteTagFunc(ctx, id)
}

func (s *Store) ListTags(ctx context.Context, opt mango.ListOptions) ([]*mango.Tag, error) {
	s.mu.Lock()
	s.ListTagsFuncInvoked = true
	s.mu.Unlock()
	return s.ListTagsFunc(ctx, opt)
}

func (s *Store) TagByName(ctx context.Context, name string) (*mango.Tag, error) {
	s.mu.Lock()
	s.TagByNameFuncInvoked = true
	s.mu.Unlock()
	return s.TagByNameFunc(ctx, name)
}

func (s *Store) NewLogQuery(ctx context.Context, query *mango.LogQuery) (*mango.LogQuery, error) {
	s.mu.Lock()
	s.NewLogQueryFuncInvoked = true
	s.mu.Unlock()
	return s.NewLogQueryFunc(ctx, query)
}

func (s *Store) DeleteLogQuery(ctx context.Context, id uint) error {
	s.mu.Lock()
	s.DeleteLogQueryFuncInvoked = true
	s.mu.Unlock()
	return s.DeleteLogQueryFunc(ctx, id)
}

func (s *Store) ListLogQueries(ctx context.Context, opt mango.ListOptions) ([]*mango.LogQuery, error) {
	s.mu.Lock()
	s.ListLogQueriesFuncInvoked = true
	s.mu.Unlock()
	return s.ListLogQueriesFunc(ctx, opt)
}

func (s *Store) LogQueriesForHost(ctx context.Context, host *mango.Host) ([]*mango.LogQuery, error) {
	s.mu.Lock()
	s.LogQueriesForHostFuncInvoked = true
	s.mu.Unlock()
	return s.LogQueriesForHostFunc(ctx, host)
}

func (s *Store) ReplaceLogQueryTags(ctx context.Context, queryID uint, tagIDs []uint) error {
	s.mu.Lock()
	s.ReplaceLogQueryTagsFuncInvoked = true
	s.mu.Unlock()
	return s.ReplaceLogQueryTagsFunc(ctx, queryID, tagIDs)
}

func (s *Store) ListLogEntries(ctx context.Context, hostID uint, opt mango.ListOptions) ([]*mango.LogEntry, error) {
	s.mu.Lock()
	s.ListLogEntriesFuncInvoked = true
	s.mu.Unlock()
	return s.ListLogEntriesFunc(ctx, hostID, opt)
}

func (s *Store) RecordLogResults(ctx context.Context, host *mango.Host, entries []*mango.LogEntry) error {
	s.mu.Lock()
	s.RecordLogResultsFuncInvoked = true
	s.mu.Unlock()
	return s.RecordLogResultsFunc(ctx, host, entries)
}
