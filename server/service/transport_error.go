package service

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/fincham/mango/server/service/middleware/ratelimit"
)

// nodeInvalidErr is the interface implemented by errors that should be
// reported to the agent as a node_invalid response.
type nodeInvalidErr interface {
	error
	NodeInvalid() bool
}

// encodeError encodes error and status header to the client. Errors that
// translate to node_invalid, including rate limited enrollments, go out
// with a success status so the agent treats them as a protocol-level
// rejection instead of a transport failure.
func encodeError(ctx context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if e, ok := err.(nodeInvalidErr); ok && e.NodeInvalid() {
		w.WriteHeader(http.StatusOK)
		enc.Encode(map[string]interface{}{"node_invalid": true}) //nolint:errcheck
		return
	}
	if _, ok := err.(ratelimit.Error); ok {
		w.WriteHeader(http.StatusOK)
		enc.Encode(map[string]interface{}{"node_invalid": true}) //nolint:errcheck
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	enc.Encode(map[string]interface{}{"error": err.Error()}) //nolint:errcheck
}
