package http

import (
	"context"
	"net/http"

	"inventory-crud/internal/service"

	"go.opentelemetry.io/otel"
)

type HealthChecker interface {
	Check(ctx context.Context) service.HealthStatus
}

type HealthHandler struct {
	service HealthChecker
}

var HttpHealthHandlerTracer = otel.Tracer("HttpHealthHandler")

func NewHealthHandler(service HealthChecker) *HealthHandler {
	return &HealthHandler{
		service: service,
	}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	ctx, span := HttpHealthHandlerTracer.Start(r.Context(), "HttpHealthHandler.Check")
	defer span.End()

	status := h.service.Check(ctx)
	overall := status.Overall()

	code := http.StatusOK
	message := "Server is running"
	if overall == service.StatusDown {
		code = http.StatusInternalServerError
		message = "Server is not running"
	}

	writeJSON(w, code, map[string]interface{}{
		"status":  overall,
		"message": message,
		"data":    status,
	})
}
