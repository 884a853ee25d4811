package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"crowdsale/gateway/middleware"
	"crowdsale/native/common"
	"crowdsale/native/oracle"
	"crowdsale/native/sale"
	"crowdsale/native/token"
	"crowdsale/native/vault"
	"crowdsale/observability/logging"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// errDecode marks malformed request input.
var errDecode = errors.New("malformed request")

func statusFor(err error) int {
	switch {
	case errors.Is(err, errDecode):
		return http.StatusBadRequest
	case errors.Is(err, sale.ErrUnauthorized),
		errors.Is(err, token.ErrUnauthorized),
		errors.Is(err, vault.ErrUnauthorized),
		errors.Is(err, oracle.ErrUnauthorized):
		return http.StatusForbidden
	}
	switch common.KindOf(err) {
	case common.KindPrecondition, common.KindConflict:
		return http.StatusConflict
	case common.KindRange:
		return http.StatusUnprocessableEntity
	case common.KindResource:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}
	if status != http.StatusBadRequest {
		resp.Kind = common.KindOf(err)
	}
	if status >= http.StatusInternalServerError {
		args := []any{"path", r.URL.Path, "error", err}
		if subject, ok := middleware.Subject(r.Context()); ok {
			args = append(args, logging.Address("caller", subject))
		}
		h.log.Error("request failed", args...)
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
