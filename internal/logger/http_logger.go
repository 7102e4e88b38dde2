package logger

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// MaxBodyLogged caps how much of a body is buffered for logging (1 MiB).
const MaxBodyLogged = 1 << 20

const maxBinarySample = 256

var allowedHeaders = map[string]bool{
	"content-type":   true,
	"user-agent":     true,
	"content-length": true,
	"x-trace-id":     true,
	"traceparent":    true,
	"authorization":  true,
	"set-cookie":     true,
}

type replayBody struct {
	io.Reader
	io.Closer
}

// CaptureBody reads up to MaxBodyLogged bytes of r.Body for logging. The
// handler still reads the full payload: the captured prefix is replayed
// ahead of whatever remains in the original stream.
func CaptureBody(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	orig := r.Body
	body, err := io.ReadAll(io.LimitReader(orig, MaxBodyLogged))
	if err != nil {
		return nil, err
	}
	r.Body = replayBody{
		Reader: io.MultiReader(bytes.NewReader(body), orig),
		Closer: orig,
	}
	return body, nil
}

// HeaderAttrs keeps allow-listed headers and redacts credentials.
func HeaderAttrs(hdr http.Header) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(hdr))
	for name, values := range hdr {
		lower := strings.ToLower(name)
		if !allowedHeaders[lower] {
			continue
		}
		joined := strings.Join(values, ", ")
		if lower == "authorization" || lower == "set-cookie" {
			joined = "***"
		}
		attrs = append(attrs, slog.String("http.header."+lower, joined))
	}
	return attrs
}

// QueryAttrs flattens url.Values under "http.query.".
func QueryAttrs(q url.Values) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(q))
	for key, values := range q {
		if len(values) == 0 {
			continue
		}
		attrs = append(attrs, slog.String("http.query."+key, strings.Join(values, ",")))
	}
	return attrs
}

// DecodeBody turns a body into attrs according to its content type.
func DecodeBody(contentType string, body []byte) ([]slog.Attr, error) {
	if len(body) == 0 {
		return nil, nil
	}

	ct, _, _ := mime.ParseMediaType(contentType)
	switch ct {
	case "application/json":
		return jsonAttrsWithPrefix("http.body", body)
	case "application/x-www-form-urlencoded":
		return formAttrs(body)
	default:
		return binaryAttrs(body), nil
	}
}

func jsonAttrsWithPrefix(prefix string, b []byte) ([]slog.Attr, error) {
	var data any
	if err := json.Unmarshal(b, &data); err != nil {
		return []slog.Attr{slog.String(prefix, string(b))}, nil
	}
	attrs := make([]slog.Attr, 0, 8)
	flattenJSON(prefix, data, &attrs)
	return attrs, nil
}

// flattenJSON walks v depth first. Arrays only contribute their first and
// last element so a product listing does not explode the log line.
func flattenJSON(prefix string, v any, dst *[]slog.Attr) {
	switch t := v.(type) {
	case map[string]any:
		for k, v2 := range t {
			flattenJSON(prefix+"."+k, v2, dst)
		}
	case []any:
		n := len(t)
		if n == 0 {
			return
		}
		flattenJSON(prefix+".0", t[0], dst)
		if n > 1 {
			flattenJSON(prefix+"."+strconv.Itoa(n-1), t[n-1], dst)
		}
	case string:
		*dst = append(*dst, slog.String(prefix, redactIfNeeded(t)))
	case float64:
		*dst = append(*dst, slog.Float64(prefix, t))
	case bool:
		*dst = append(*dst, slog.Bool(prefix, t))
	case nil:
	default:
		*dst = append(*dst, slog.String(prefix, fmt.Sprintf("%v", t)))
	}
}

func formAttrs(b []byte) ([]slog.Attr, error) {
	vals, err := url.ParseQuery(string(b))
	if err != nil {
		return nil, err
	}
	attrs := make([]slog.Attr, 0, len(vals))
	for k, v := range vals {
		attrs = append(attrs, slog.String("http.body."+k, redactIfNeeded(strings.Join(v, ", "))))
	}
	return attrs, nil
}

func binaryAttrs(b []byte) []slog.Attr {
	if len(b) <= maxBinarySample {
		return []slog.Attr{slog.String("http.body.base64", base64.StdEncoding.EncodeToString(b))}
	}
	return []slog.Attr{
		slog.Int("http.body.size_bytes", len(b)),
		slog.String("http.body.sample_base64", base64.StdEncoding.EncodeToString(b[:maxBinarySample])),
	}
}

func redactIfNeeded(s string) string {
	if strings.Contains(strings.ToLower(s), "password") {
		return "***"
	}
	return s
}

// LogHTTPRequest collects attrs describing r, including its body.
func LogHTTPRequest(r *http.Request, direction string) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("http.direction", direction),
		slog.String("http.remote_addr", r.RemoteAddr),
		slog.String("http.method", r.Method),
		slog.String("http.path", r.URL.Path),
	}
	attrs = append(attrs, HeaderAttrs(r.Header)...)
	attrs = append(attrs, QueryAttrs(r.URL.Query())...)

	body, err := CaptureBody(r)
	if err != nil {
		return append(attrs, slog.String("http.body.error", err.Error()))
	}
	bodyAttrs, err := DecodeBody(r.Header.Get("Content-Type"), body)
	if err != nil {
		return append(attrs, slog.String("http.body.error", err.Error()))
	}
	return append(attrs, bodyAttrs...)
}

// LogHTTPResponse collects attrs for a finished response. body is the
// buffered copy captured by the middleware writer.
func LogHTTPResponse(req *http.Request, header http.Header, status int, body []byte, duration time.Duration, direction string) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("http.direction", direction),
		slog.String("http.remote_addr", req.RemoteAddr),
		slog.String("http.method", req.Method),
		slog.String("http.path", req.URL.Path),
		slog.Int("http.status", status),
		slog.Int64("duration_ms", duration.Milliseconds()),
	}
	attrs = append(attrs, HeaderAttrs(header)...)
	attrs = append(attrs, QueryAttrs(req.URL.Query())...)

	bodyAttrs, err := DecodeBody(header.Get("Content-Type"), body)
	if err != nil {
		return append(attrs, slog.String("http.body.error", err.Error()))
	}
	return append(attrs, bodyAttrs...)
}
