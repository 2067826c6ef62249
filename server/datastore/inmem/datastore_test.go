package inmem

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/WatchBeam/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fincham/mango/server/mango"
)

func setup(t *testing.T) (*Datastore, *clock.MockClock, context.Context) {
	t.Helper()
	c := clock.NewMockClock()
	return New(c), c, context.Background()
}

func TestNewHostEnforcesUniqueNodeKey(t *testing.T) {
	ds, _, ctx := setup(t)

	host, err := ds.NewHost(ctx, &mango.Host{NodeKey: "aaaa", Identifier: "aaaa"})
	require.NoError(t, err)
	assert.NotZero(t, host.ID)

	_, err = ds.NewHost(ctx, &mango.Host{NodeKey: "aaaa", Identifier: "bbbb"})
	require.Error(t, err)
	assert.True(t, mango.IsExists(err))
}

func TestAuthenticateHost(t *testing.T) {
	ds, _, ctx := setup(t)

	created, err := ds.NewHost(ctx, &mango.Host{NodeKey: "aaaa", Identifier: "aaaa"})
	require.NoError(t, err)

	host, err := ds.AuthenticateHost(ctx, "aaaa")
	require.NoError(t, err)
	assert.Equal(t, created.ID, host.ID)

	_, err = ds.AuthenticateHost(ctx, "bbbb")
	require.Error(t, err)
	assert.True(t, mango.IsNotFound(err))
}

func TestMarkHostSeen(t *testing.T) {
	ds, c, ctx := setup(t)

	host, err := ds.NewHost(ctx, &mango.Host{NodeKey: "aaaa", LastSeen: c.Now()})
	require.NoError(t, err)

	c.AddTime(10 * time.Minute)
	require.NoError(t, ds.MarkHostSeen(ctx, host, c.Now()))
	assert.Equal(t, c.Now(), host.LastSeen)

	stored, err := ds.Host(ctx, host.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Now(), stored.LastSeen)
}

func TestDeleteHostCascadesLogEntries(t *testing.T) {
	ds, _, ctx := setup(t)

	host, err := ds.NewHost(ctx, &mango.Host{NodeKey: "aaaa"})
	require.NoError(t, err)
	require.NoError(t, ds.RecordLogResults(ctx, host, []*mango.LogEntry{
		{Name: "disk-space", Action: "added", Output: "{}"},
	}))

	entries, err := ds.ListLogEntries(ctx, host.ID, mango.ListOptions{})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	require.NoError(t, ds.DeleteHost(ctx, host.ID))

	_, err = ds.Host(ctx, host.ID)
	assert.True(t, mango.IsNotFound(err))
	entries, err = ds.ListLogEntries(ctx, host.ID, mango.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNewTagSlugifiesName(t *testing.T) {
	ds, _, ctx := setup(t)

	tag, err := ds.NewTag(ctx, &mango.Tag{Name: "Web Servers"})
	require.NoError(t, err)
	assert.Equal(t, "web-servers", tag.Name)

	// equivalent after slugification
	_, err = ds.NewTag(ctx, &mango.Tag{Name: "web servers"})
	require.Error(t, err)
	assert.True(t, mango.IsExists(err))

	found, err := ds.TagByName(ctx, "Web Servers")
	require.NoError(t, err)
	assert.Equal(t, tag.ID, found.ID)
}

func TestNewTagRejectsLongName(t *testing.T) {
	ds, _, ctx := setup(t)

	_, err := ds.NewTag(ctx, &mango.Tag{Name: strings.Repeat("a", mango.TagNameMaxLength+1)})
	require.Error(t, err)
}

func TestLogQueriesForHost(t *testing.T) {
	ds, _, ctx := setup(t)

	host, err := ds.NewHost(ctx, &mango.Host{NodeKey: "aaaa"})
	require.NoError(t, err)
	other, err := ds.NewHost(ctx, &mango.Host{NodeKey: "bbbb"})
	require.NoError(t, err)

	prod, err := ds.NewTag(ctx, &mango.Tag{Name: "prod"})
	require.NoError(t, err)
	dev, err := ds.NewTag(ctx, &mango.Tag{Name: "dev"})
	require.NoError(t, err)

	tagless, err := ds.NewLogQuery(ctx, &mango.LogQuery{Name: "everyone", Query: "select 1", Interval: 10})
	require.NoError(t, err)
	prodOnly, err := ds.NewLogQuery(ctx, &mango.LogQuery{Name: "prod only", Query: "select 2", Interval: 10})
	require.NoError(t, err)
	require.NoError(t, ds.ReplaceLogQueryTags(ctx, prodOnly.ID, []uint{prod.ID}))
	devOnly, err := ds.NewLogQuery(ctx, &mango.LogQuery{Name: "dev only", Query: "select 3", Interval: 10})
	require.NoError(t, err)
	require.NoError(t, ds.ReplaceLogQueryTags(ctx, devOnly.ID, []uint{dev.ID}))

	require.NoError(t, ds.ReplaceHostTags(ctx, host.ID, []uint{prod.ID}))

	queries, err := ds.LogQueriesForHost(ctx, host)
	require.NoError(t, err)
	names := []string{}
	for _, q := range queries {
		names = append(names, q.Name)
	}
	assert.ElementsMatch(t, []string{"everyone", "prod only"}, names)

	// a tagless host still receives tagless queries
	queries, err = ds.LogQueriesForHost(ctx, other)
	require.NoError(t, err)
	require.Len(t, queries, 1)
	assert.Equal(t, tagless.ID, queries[0].ID)
}

func TestReplaceHostTagsValidatesTags(t *testing.T) {
	ds, _, ctx := setup(t)

	host, err := ds.NewHost(ctx, &mango.Host{NodeKey: "aaaa"})
	require.NoError(t, err)

	err = ds.ReplaceHostTags(ctx, host.ID, []uint{999})
	require.Error(t, err)
	assert.True(t, mango.IsNotFound(err))
}

func TestDeleteTagRemovesMemberships(t *testing.T) {
	ds, _, ctx := setup(t)

	host, err := ds.NewHost(ctx, &mango.Host{NodeKey: "aaaa"})
	require.NoError(t, err)
	tag, err := ds.NewTag(ctx, &mango.Tag{Name: "prod"})
	require.NoError(t, err)
	query, err := ds.NewLogQuery(ctx, &mango.LogQuery{Name: "q", Query: "select 1", Interval: 10})
	require.NoError(t, err)
	require.NoError(t, ds.ReplaceHostTags(ctx, host.ID, []uint{tag.ID}))
	require.NoError(t, ds.ReplaceLogQueryTags(ctx, query.ID, []uint{tag.ID}))

	require.NoError(t, ds.DeleteTag(ctx, tag.ID))

	// the query no longer has tags so it applies to every host again
	queries, err := ds.LogQueriesForHost(ctx, host)
	require.NoError(t, err)
	require.Len(t, queries, 1)
	assert.Equal(t, query.ID, queries[0].ID)
}

func TestRecordLogResults(t *testing.T) {
	ds, c, ctx := setup(t)

	host, err := ds.NewHost(ctx, &mango.Host{NodeKey: "aaaa", Identifier: "aaaa"})
	require.NoError(t, err)

	c.AddTime(time.Minute)
	host.Identifier = "zaphod.example.com"
	host.Release = "5.15.0-56-generic"
	require.NoError(t, ds.RecordLogResults(ctx, host, []*mango.LogEntry{
		{Name: "disk-space", Action: "added", Output: `{"free_gb":10}`},
		{Name: "disk-space", Action: "removed", Output: `{"free_gb":12}`},
	}))

	stored, err := ds.Host(ctx, host.ID)
	require.NoError(t, err)
	assert.Equal(t, "zaphod.example.com", stored.Identifier)
	assert.Equal(t, "5.15.0-56-generic", stored.Release)

	entries, err := ds.ListLogEntries(ctx, host.ID, mango.ListOptions{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "added", entries[0].Action)
	assert.Equal(t, "removed", entries[1].Action)
	assert.Equal(t, c.Now(), entries[0].CreatedAt)
}

func TestRecordLogResultsUnknownHost(t *testing.T) {
	ds, _, ctx := setup(t)

	err := ds.RecordLogResults(ctx, &mango.Host{ID: 42}, nil)
	require.Error(t, err)
	assert.True(t, mango.IsNotFound(err))
}

func TestListHostsOrdering(t *testing.T) {
	ds, _, ctx := setup(t)

	for _, key := range []string{"cccc", "aaaa", "bbbb"} {
		_, err := ds.NewHost(ctx, &mango.Host{NodeKey: key, Identifier: key})
		require.NoError(t, err)
	}

	hosts, err := ds.ListHosts(ctx, mango.ListOptions{OrderKey: "identifier"})
	require.NoError(t, err)
	require.Len(t, hosts, 3)
	assert.Equal(t, "aaaa", hosts[0].Identifier)
	assert.Equal(t, "cccc", hosts[2].Identifier)

	hosts, err = ds.ListHosts(ctx, mango.ListOptions{Page: 1, PerPage: 2})
	require.NoError(t, err)
	assert.Len(t, hosts, 1)
}
