package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/WatchBeam/clock"
	kitlog "github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/throttled/throttled/v2/store/memstore"

	"github.com/fincham/mango/server/config"
	"github.com/fincham/mango/server/datastore/inmem"
	"github.com/fincham/mango/server/mango"
)

func newTestServer(t *testing.T, conf config.MangoConfig) (*httptest.Server, *inmem.Datastore) {
	t.Helper()

	ds := inmem.New(clock.NewMockClock())
	svc, err := NewService(ds, kitlog.NewNopLogger(), conf, clock.NewMockClock())
	require.NoError(t, err)

	limitStore, err := memstore.New(1024)
	require.NoError(t, err)

	server := httptest.NewServer(MakeHandler(svc, conf, kitlog.NewNopLogger(), limitStore))
	t.Cleanup(server.Close)
	return server, ds
}

func postJSON(t *testing.T, server *httptest.Server, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	switch body := body.(type) {
	case string:
		buf.WriteString(body)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	resp, err := http.Post(server.URL+path, "application/json", &buf)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func TestUndecodableBodyIsSoftFailure(t *testing.T) {
	server, _ := newTestServer(t, config.TestConfig())

	for _, path := range []string{
		"/api/v1/osquery/enroll",
		"/api/v1/osquery/config",
		"/api/v1/osquery/log",
	} {
		status, body := postJSON(t, server, path, "definitely{not json")
		assert.Equal(t, http.StatusOK, status, path)
		assert.Equal(t, true, body["node_invalid"], path)
		assert.NotContains(t, body, "node_key", path)
		assert.NotContains(t, body, "schedule", path)
	}
}

func TestEnrollAndFetchConfig(t *testing.T) {
	conf := config.TestConfig()
	server, ds := newTestServer(t, conf)
	ctx := context.Background()

	// wrong secret leaks nothing
	status, body := postJSON(t, server, "/api/v1/osquery/enroll", map[string]interface{}{
		"enroll_secret": "wrong",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["node_invalid"])
	assert.NotContains(t, body, "node_key")
	hosts, err := ds.ListHosts(ctx, mango.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, hosts)

	// correct secret yields a node key
	status, body = postJSON(t, server, "/api/v1/osquery/enroll", map[string]interface{}{
		"enroll_secret": conf.Osquery.EnrollSecret,
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["node_invalid"])
	nodeKey, ok := body["node_key"].(string)
	require.True(t, ok)
	require.Len(t, nodeKey, 32)

	// a fresh host only receives the bootstrap schedule
	status, body = postJSON(t, server, "/api/v1/osquery/config", map[string]interface{}{
		"node_key": nodeKey,
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["node_invalid"])
	schedule, ok := body["schedule"].(map[string]interface{})
	require.True(t, ok)
	assert.Len(t, schedule, 3)
	assert.Contains(t, schedule, "mango_os-version")
	assert.Contains(t, schedule, "mango_system-info")
	assert.Contains(t, schedule, "mango_osrelease")

	// tag the host and add a matching query
	tag, err := ds.NewTag(ctx, &mango.Tag{Name: "prod"})
	require.NoError(t, err)
	query, err := ds.NewLogQuery(ctx, &mango.LogQuery{
		Name:     "disk-space",
		Query:    "select * from mounts",
		Interval: 30,
	})
	require.NoError(t, err)
	require.NoError(t, ds.ReplaceLogQueryTags(ctx, query.ID, []uint{tag.ID}))

	hosts, err = ds.ListHosts(ctx, mango.ListOptions{})
	require.NoError(t, err)
	require.Len(t, hosts, 1)
	require.NoError(t, ds.ReplaceHostTags(ctx, hosts[0].ID, []uint{tag.ID}))

	status, body = postJSON(t, server, "/api/v1/osquery/config", map[string]interface{}{
		"node_key": nodeKey,
	})
	require.Equal(t, http.StatusOK, status)
	schedule = body["schedule"].(map[string]interface{})
	require.Len(t, schedule, 4)
	entry, ok := schedule["mango_db_disk-space"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "select * from mounts;", entry["query"])
	assert.Equal(t, float64(30), entry["interval"])
	assert.Equal(t, false, entry["snapshot"])
}

func TestUnknownNodeKeyIsSoftFailure(t *testing.T) {
	server, _ := newTestServer(t, config.TestConfig())

	status, body := postJSON(t, server, "/api/v1/osquery/config", map[string]interface{}{
		"node_key": "never enrolled",
	})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["node_invalid"])
	assert.NotContains(t, body, "schedule")
}

func TestSubmitLogsEndToEnd(t *testing.T) {
	conf := config.TestConfig()
	server, ds := newTestServer(t, conf)
	ctx := context.Background()

	_, body := postJSON(t, server, "/api/v1/osquery/enroll", map[string]interface{}{
		"enroll_secret": conf.Osquery.EnrollSecret,
	})
	nodeKey := body["node_key"].(string)

	status, body := postJSON(t, server, "/api/v1/osquery/log", map[string]interface{}{
		"node_key": nodeKey,
		"log_type": "result",
		"data": []map[string]interface{}{
			{
				"name":           "mango_os-version",
				"action":         "added",
				"hostIdentifier": "trillian.example.com",
				"columns": map[string]interface{}{
					"version": "Darwin Kernel Version 21.6.0 (something)",
				},
			},
			{
				"name":           "mango_db_disk-space",
				"action":         "added",
				"hostIdentifier": "trillian.example.com",
				"columns":        map[string]interface{}{"free_gb": 10},
			},
		},
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["node_invalid"])

	hosts, err := ds.ListHosts(ctx, mango.ListOptions{})
	require.NoError(t, err)
	require.Len(t, hosts, 1)
	assert.Equal(t, "trillian.example.com", hosts[0].Identifier)
	assert.Equal(t, "something", hosts[0].Release)

	entries, err := ds.ListLogEntries(ctx, hosts[0].ID, mango.ListOptions{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "disk-space", entries[0].Name)
	assert.Equal(t, "added", entries[0].Action)
	assert.JSONEq(t, `{"free_gb": 10}`, entries[0].Output)
}

func TestInvalidatedHostIsDeletedOnContact(t *testing.T) {
	conf := config.TestConfig()
	server, ds := newTestServer(t, conf)
	ctx := context.Background()

	_, body := postJSON(t, server, "/api/v1/osquery/enroll", map[string]interface{}{
		"enroll_secret": conf.Osquery.EnrollSecret,
	})
	nodeKey := body["node_key"].(string)

	hosts, err := ds.ListHosts(ctx, mango.ListOptions{})
	require.NoError(t, err)
	require.Len(t, hosts, 1)
	hosts[0].Invalidate = true
	require.NoError(t, ds.SaveHost(ctx, hosts[0]))

	// first contact after invalidation deletes the host
	status, body := postJSON(t, server, "/api/v1/osquery/config", map[string]interface{}{
		"node_key": nodeKey,
	})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["node_invalid"])

	hosts, err = ds.ListHosts(ctx, mango.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, hosts)

	// the same key is now simply unknown
	status, body = postJSON(t, server, "/api/v1/osquery/config", map[string]interface{}{
		"node_key": nodeKey,
	})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["node_invalid"])
}

func TestEnrollRateLimit(t *testing.T) {
	conf := config.TestConfig()
	conf.Osquery.EnrollRequestsPerMinute = 1
	server, _ := newTestServer(t, conf)

	limited := false
	for i := 0; i < 5; i++ {
		status, body := postJSON(t, server, "/api/v1/osquery/enroll", map[string]interface{}{
			"enroll_secret": conf.Osquery.EnrollSecret,
		})
		require.Equal(t, http.StatusOK, status)
		if body["node_invalid"] == true {
			assert.NotContains(t, body, "node_key")
			limited = true
		}
	}
	assert.True(t, limited, "expected the enroll quota to kick in")
}
