package service

import (
	"context"
	"encoding/json"
	"net/http"
)

// errorer interface is implemented by response structs to encode business
// logic errors
type errorer interface {
	error() error
}

// encodeResponse is the common method to encode all response types to the
// client. Responses implementing errorer that carry an error are handed
// to encodeError instead.
func encodeResponse(ctx context.Context, w http.ResponseWriter, response interface{}) error {
	if e, ok := response.(errorer); ok && e.error() != nil {
		encodeError(ctx, e.error(), w)
		return nil
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	return json.NewEncoder(w).Encode(response)
}
