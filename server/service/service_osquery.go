package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/gosimple/slug"

	hostctx "github.com/fincham/mango/server/contexts/host"
	"github.com/fincham/mango/server/mango"
	"github.com/fincham/mango/server/ptr"
)

// adminQueryPrefix namespaces administrator-defined queries in the
// schedule so they can never shadow a bootstrap query.
const adminQueryPrefix = "mango_db_"

// maxEnrollRetries bounds the node key regeneration loop when a freshly
// generated key collides with an existing host.
const maxEnrollRetries = 5

func (svc service) EnrollAgent(ctx context.Context, enrollSecret string) (string, error) {
	if subtle.ConstantTimeCompare([]byte(enrollSecret), []byte(svc.config.Osquery.EnrollSecret)) != 1 {
		return "", osqueryError{
			message:     "enroll failed: invalid enroll secret",
			nodeInvalid: true,
		}
	}

	for retry := 0; retry < maxEnrollRetries; retry++ {
		nodeKey, err := generateNodeKey(svc.config.Osquery.NodeKeySize)
		if err != nil {
			return "", osqueryError{message: "generate node key: " + err.Error()}
		}

		host := &mango.Host{
			NodeKey:    nodeKey,
			Identifier: nodeKey,
			LastSeen:   svc.clock.Now(),
		}
		_, err = svc.ds.NewHost(ctx, host)
		switch {
		case err == nil:
			return nodeKey, nil
		case mango.IsExists(err):
			// key collision, generate a fresh one
			continue
		default:
			return "", osqueryError{message: "save enrolled host: " + err.Error()}
		}
	}

	return "", osqueryError{message: "enroll failed: node key collisions exhausted retries"}
}

func generateNodeKey(size int) (string, error) {
	key := make([]byte, size)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	return hex.EncodeToString(key), nil
}

func (svc service) AuthenticateHost(ctx context.Context, nodeKey string) (*mango.Host, error) {
	if nodeKey == "" {
		return nil, osqueryError{
			message:     "authentication error: missing node key",
			nodeInvalid: true,
		}
	}

	host, err := svc.ds.AuthenticateHost(ctx, nodeKey)
	if err != nil {
		if mango.IsNotFound(err) {
			return nil, osqueryError{
				message:     "authentication error: invalid node key: " + nodeKey,
				nodeInvalid: true,
			}
		}
		return nil, osqueryError{message: "authentication error: " + err.Error()}
	}

	// An invalidated host is removed so its key stops resolving. The
	// response is identical to an unknown key, forcing re-enrollment
	// without revealing which case it was.
	if host.Invalidate {
		if err := svc.ds.DeleteHost(ctx, host.ID); err != nil {
			return nil, osqueryError{message: "delete invalidated host: " + err.Error()}
		}
		return nil, osqueryError{
			message:     "authentication error: invalid node key: " + nodeKey,
			nodeInvalid: true,
		}
	}

	if err := svc.ds.MarkHostSeen(ctx, host, svc.clock.Now()); err != nil {
		return nil, osqueryError{message: "mark host seen: " + err.Error()}
	}

	return host, nil
}

func (svc service) GetClientConfig(ctx context.Context) (*mango.OsqueryConfig, error) {
	host, ok := hostctx.FromContext(ctx)
	if !ok {
		return nil, osqueryError{message: "internal error: missing host from request context"}
	}

	schedule := mango.Schedule{}
	for name, query := range svc.bootstrapQueries {
		content := mango.QueryContent{
			Query:    query.Query,
			Interval: query.Interval,
		}
		if query.Snapshot {
			content.Snapshot = ptr.Bool(true)
		}
		schedule[name] = content
	}

	queries, err := svc.ds.LogQueriesForHost(ctx, host)
	if err != nil {
		return nil, osqueryError{message: "list queries for host: " + err.Error()}
	}
	for _, query := range queries {
		name := adminQueryPrefix + slug.Make(query.Name)
		if _, ok := schedule[name]; ok {
			return nil, osqueryError{message: "duplicate schedule entry name: " + name}
		}
		schedule[name] = mango.QueryContent{
			Query:    query.Query + ";",
			Interval: query.Interval,
			Snapshot: ptr.Bool(query.Snapshot),
		}
	}

	return &mango.OsqueryConfig{Schedule: schedule}, nil
}

func (svc service) SubmitResultLogs(ctx context.Context, logType string, logs []mango.ResultLogItem) error {
	host, ok := hostctx.FromContext(ctx)
	if !ok {
		return osqueryError{message: "internal error: missing host from request context"}
	}

	// Only "result" batches carry anything to ingest. Other log types
	// ("status" and friends) are acknowledged and dropped.
	if logType != mango.LogTypeResult {
		return nil
	}

	var entries []*mango.LogEntry
	for _, item := range logs {
		if item.HostIdentifier != "" {
			host.Identifier = item.HostIdentifier
		}

		if query, ok := svc.bootstrapQueries[item.Name]; ok && item.Action == query.IngestAction {
			rows := item.Snapshot
			if item.Action != mango.ActionSnapshot {
				rows = []map[string]interface{}{item.Columns}
			}
			if err := query.IngestFunc(host, rows); err != nil {
				// malformed item, skip it
				continue
			}
			continue
		}

		if !strings.HasPrefix(item.Name, adminQueryPrefix) {
			continue
		}
		name := strings.TrimPrefix(item.Name, adminQueryPrefix)
		switch item.Action {
		case mango.ActionAdded, mango.ActionRemoved:
			output, err := serializeRow(item.Columns)
			if err != nil {
				continue
			}
			entries = append(entries, &mango.LogEntry{
				Name:   name,
				Action: item.Action,
				Output: output,
			})
		case mango.ActionSnapshot:
			// every row of a snapshot becomes its own entry
			for _, row := range item.Snapshot {
				output, err := serializeRow(row)
				if err != nil {
					continue
				}
				entries = append(entries, &mango.LogEntry{
					Name:   name,
					Action: item.Action,
					Output: output,
				})
			}
		}
	}

	if err := svc.ds.RecordLogResults(ctx, host, entries); err != nil {
		return osqueryError{message: "record log results: " + err.Error()}
	}

	return nil
}

// serializeRow renders a result row as canonical JSON. Map keys are
// sorted by the encoder so the same row always serializes identically.
func serializeRow(row map[string]interface{}) (string, error) {
	output, err := json.Marshal(row)
	if err != nil {
		return "", err
	}
	return string(output), nil
}
