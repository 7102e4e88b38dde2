package middleware_grpc

import (
	"context"
	"log/slog"
	"time"

	"inventory-crud/internal/logger"
	"inventory-crud/internal/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

var tracer = otel.Tracer("GrpcMiddleware")

// UnaryTracingInterceptor continues the caller's trace and logs each
// unary call with its status code.
func UnaryTracingInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		ctx = telemetry.ExtractIncoming(ctx)
		ctx, span := tracer.Start(ctx, info.FullMethod)
		defer span.End()

		md, _ := metadata.FromIncomingContext(ctx)
		attrs := logger.LogGRPCRequest(info.FullMethod, md, req, "incoming::request")
		if p, ok := peer.FromContext(ctx); ok {
			attrs = append(attrs, slog.String("grpc.remote", p.Addr.String()))
		}
		logger.Info(ctx, "GRPC", attrs...)

		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)

		span.SetAttributes(attribute.String("rpc.grpc.status_code", code.String()))
		if code != codes.OK {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, code.String())
		} else {
			span.SetStatus(otelcodes.Ok, "")
		}

		logger.Info(ctx, "GRPC", logger.LogGRPCResponse(info.FullMethod, code, resp, time.Since(start), "incoming::response")...)
		return resp, err
	}
}
