package httpx

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
)

// KeyExtractor names the bucket a request is charged to. An empty key means
// the request cannot be attributed and is let through.
type KeyExtractor func(*http.Request) string

// IPKeyExtractor returns the client address. The first X-Forwarded-For hop
// wins, then X-Real-IP, then the host part of RemoteAddr.
func IPKeyExtractor(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// UserIDKeyExtractor returns the session user placed in the context by the
// authentication middleware.
func UserIDKeyExtractor(r *http.Request) string {
	id, _ := r.Context().Value(CtxKeyUserID).(string)
	return id
}

// CompositeKeyExtractor joins the non-empty keys of each extractor, so
// CompositeKeyExtractor(":", IPKeyExtractor, UserIDKeyExtractor) yields
// "203.0.113.7:u_123".
func CompositeKeyExtractor(sep string, extractors ...KeyExtractor) KeyExtractor {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(extractors))
		for _, extract := range extractors {
			if k := extract(r); k != "" {
				parts = append(parts, k)
			}
		}
		return strings.Join(parts, sep)
	}
}

const maxKeyBody = 64 << 10

// JSONFieldKeyExtractor reads a top-level string field of a JSON body. The
// body is put back for the handler. Bodies over 64 KiB are not inspected.
func JSONFieldKeyExtractor(fieldName string) KeyExtractor {
	return func(r *http.Request) string {
		if r.Body == nil {
			return ""
		}
		raw, err := io.ReadAll(io.LimitReader(r.Body, maxKeyBody+1))
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(raw))
		if err != nil || len(raw) > maxKeyBody {
			return ""
		}

		var body map[string]json.RawMessage
		if json.Unmarshal(raw, &body) != nil {
			return ""
		}
		var v string
		if json.Unmarshal(body[fieldName], &v) != nil {
			return ""
		}
		return strings.TrimSpace(v)
	}
}
