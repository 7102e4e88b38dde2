package middleware_http

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"inventory-crud/internal/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
)

var tracer = otel.Tracer("HttpMiddleware")

// ResponseWriter records the status and keeps the first
// logger.MaxBodyLogged bytes of the body for logging.
type ResponseWriter struct {
	http.ResponseWriter
	statusCode  int
	size        int64
	wroteHeader bool
	buf         bytes.Buffer
}

func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *ResponseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.wroteHeader = true
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *ResponseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += int64(n)

	if room := logger.MaxBodyLogged - rw.buf.Len(); room > 0 {
		if len(b) < room {
			room = len(b)
		}
		rw.buf.Write(b[:room])
	}
	return n, err
}

func (rw *ResponseWriter) StatusCode() int { return rw.statusCode }
func (rw *ResponseWriter) Size() int64     { return rw.size }

// TraceMiddleware continues or starts a trace for every request, exposes
// the trace id as X-Trace-ID and logs both sides of the exchange.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path)
		r = r.WithContext(ctx)

		rw := NewResponseWriter(w)
		start := time.Now()

		defer func() {
			if rec := recover(); rec != nil {
				err := errFromRecover(rec)
				span.RecordError(err)
				span.SetStatus(codes.Error, "panic occurred")
				span.End()
				panic(rec)
			}
			span.End()
		}()

		logger.Info(ctx, "HTTP", logger.LogHTTPRequest(r, "incoming::request")...)

		rw.Header().Set("X-Trace-ID", span.SpanContext().TraceID().String())

		next.ServeHTTP(rw, r)

		span.SetAttributes(
			attribute.Int("http.status_code", rw.statusCode),
			attribute.Int64("http.response_size", rw.size),
		)
		switch {
		case rw.statusCode >= 500:
			span.SetStatus(codes.Error, "internal server error")
		case rw.statusCode >= 400:
			span.SetStatus(codes.Error, "client error")
		default:
			span.SetStatus(codes.Ok, "")
		}

		attrs := logger.LogHTTPResponse(r, rw.Header(), rw.statusCode, rw.buf.Bytes(), time.Since(start), "incoming::response")
		logger.Info(ctx, "HTTP", attrs...)
	})
}

func errFromRecover(rec interface{}) error {
	if err, ok := rec.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", rec)
}
