package logger

import (
	"log/slog"
	"strings"
	"time"

	"inventory-crud/internal/utils"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

var allowedMD = map[string]bool{
	"content-type":  true,
	"user-agent":    true,
	"x-trace-id":    true,
	"traceparent":   true,
	"authorization": true,
}

// MetadataAttrs converts allow-listed gRPC metadata into grpc.header.* attrs.
func MetadataAttrs(md metadata.MD) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(md))
	for k, vs := range md {
		lower := strings.ToLower(k)
		if !allowedMD[lower] {
			continue
		}
		v := strings.Join(vs, ", ")
		if lower == "authorization" {
			v = "***"
		}
		attrs = append(attrs, slog.String("grpc.header."+lower, v))
	}
	return attrs
}

// msgAttrs flattens a protobuf message through its JSON form; anything
// else is logged as plain JSON.
func msgAttrs(prefix string, m interface{}) []slog.Attr {
	if m == nil {
		return nil
	}
	if pm, ok := m.(proto.Message); ok {
		if b, err := protojson.Marshal(pm); err == nil {
			attrs, _ := jsonAttrsWithPrefix(prefix, b)
			return attrs
		}
	}
	return []slog.Attr{slog.String(prefix, redactIfNeeded(utils.ToJSONString(m)))}
}

// LogGRPCRequest builds attrs for a unary call. fullMethod is
// "/package.Service/Method".
func LogGRPCRequest(fullMethod string, md metadata.MD, req interface{}, direction string) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("grpc.direction", direction),
		slog.String("grpc.method", fullMethod),
	}
	attrs = append(attrs, MetadataAttrs(md)...)
	return append(attrs, msgAttrs("grpc.request", req)...)
}

func LogGRPCResponse(fullMethod string, code codes.Code, resp interface{}, duration time.Duration, direction string) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("grpc.direction", direction),
		slog.String("grpc.method", fullMethod),
		slog.String("grpc.code", code.String()),
		slog.Int64("grpc.duration_ms", duration.Milliseconds()),
	}
	return append(attrs, msgAttrs("grpc.response", resp)...)
}
