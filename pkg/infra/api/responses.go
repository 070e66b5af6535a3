package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain"
)

type errorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	RequestID string `json:"requestId,omitempty"`
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.ErrorContext(ctx, "error encoding response", "err", err)
	}
}

// statusFor maps a domain error kind onto an HTTP status. MalformedKey is
// a 500: the codec fires on stored keys, so a decode failure means corrupt
// state, not bad caller input.
func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindInvalidInput, domain.KindNoPath:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(ctx, "request failed", "kind", string(kind), "err", err)
	} else {
		slog.WarnContext(ctx, "request rejected", "kind", string(kind), "err", err)
	}
	writeJSON(ctx, w, status, errorResponse{
		Error:     err.Error(),
		Kind:      string(kind),
		RequestID: requestIDFrom(ctx),
	})
}
