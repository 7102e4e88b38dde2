package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
)

const (
	StatusUp   = "UP"
	StatusDown = "DOWN"

	pingTimeout = 2 * time.Second
)

// Pinger is satisfied by *database.Mongo.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthService struct {
	mongo Pinger
}

type HealthStatus struct {
	Mongo string `json:"mongodb"`
}

func (h HealthStatus) Overall() string {
	if h.Mongo == StatusUp {
		return StatusUp
	}
	return StatusDown
}

var HealthServiceTracer = otel.Tracer("HealthService")

func NewHealthService(mongo Pinger) *HealthService {
	return &HealthService{mongo: mongo}
}

func (s *HealthService) Check(ctx context.Context) HealthStatus {
	ctx, span := HealthServiceTracer.Start(ctx, "HealthService.Check")
	defer span.End()

	status := HealthStatus{Mongo: StatusUp}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.mongo.Ping(pingCtx); err != nil {
		span.RecordError(err)
		status.Mongo = StatusDown
	}

	return status
}

// Watch runs Check immediately and then every interval until ctx is
// done, passing each result to report.
func (s *HealthService) Watch(ctx context.Context, interval time.Duration, report func(HealthStatus)) {
	report(s.Check(ctx))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report(s.Check(ctx))
		}
	}
}
