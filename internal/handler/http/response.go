package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"inventory-crud/internal/logger"
	"inventory-crud/internal/model"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// correlationID is the trace id when one is active, otherwise a fresh
// uuid so the error can still be matched against the log line.
func correlationID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return uuid.NewString()
	}
	return sc.TraceID().String()
}

func writeErrorCode(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, model.ErrorResponse{
		Error:         code,
		Message:       message,
		CorrelationID: correlationID(r.Context()),
	})
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed string) {
	w.Header().Set("Allow", allowed)
	writeErrorCode(w, r, http.StatusMethodNotAllowed, model.ErrCodeMethodNotAllowed, "Method not allowed")
}

// writeError maps a service error to its status code. fallback is the
// message used when err is not a known domain error.
func writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	resp := model.ErrorResponse{CorrelationID: correlationID(r.Context())}
	status := http.StatusInternalServerError

	var verr *model.ValidationError
	var derr *model.DomainError
	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
		resp.Error = verr.Code
		resp.Message = verr.Message
		resp.Fields = verr.Fields
	case errors.As(err, &derr):
		resp.Error = derr.Code
		resp.Message = derr.Message
		switch derr {
		case model.ErrProductNotFound:
			status = http.StatusNotFound
		case model.ErrDuplicateProduct:
			status = http.StatusBadRequest
			resp.IsDuplicate = true
		default:
			status = http.StatusBadRequest
		}
	default:
		resp.Error = model.ErrCodeInternalError
		resp.Message = fallback
		logger.Error(r.Context(), fallback, slog.String("error", err.Error()))
	}

	writeJSON(w, status, resp)
}
