package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"google.golang.org/grpc/metadata"
)

// MetadataTextMapCarrier adapts gRPC metadata to an OpenTelemetry TextMapCarrier.
type MetadataTextMapCarrier metadata.MD

func (c MetadataTextMapCarrier) Get(key string) string {
	v := metadata.MD(c).Get(key)
	if len(v) == 0 {
		return ""
	}
	return v[0]
}

func (c MetadataTextMapCarrier) Set(key string, value string) {
	metadata.MD(c).Set(key, value)
}

func (c MetadataTextMapCarrier) Keys() []string {
	out := make([]string, 0, len(c))
	for k := range c {
		out = append(out, k)
	}
	return out
}

// ExtractIncoming returns ctx carrying the remote span found in the
// incoming gRPC metadata, if any.
func ExtractIncoming(ctx context.Context) context.Context {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ctx
	}
	return otel.GetTextMapPropagator().Extract(ctx, MetadataTextMapCarrier(md))
}

