package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/ragworks/ragchat/internal/log"
)

// InternalKeyHeader carries the shared secret that authorizes service-to-
// service calls into the storage tier.
const InternalKeyHeader = "X-INTERNAL-KEY"

// internalCaller is the identity tagged onto requests whose internal key
// checked out. It carries no privileges; it only feeds the request log.
const internalCaller = "gateway"

type contextKey struct{ name string }

var callerKey = &contextKey{"caller"}

// callerIdentity returns the trusted caller tagged by the guard, or the
// empty string for requests that bypassed the key check on a public path.
func callerIdentity(ctx context.Context) string {
	id, _ := ctx.Value(callerKey).(string)
	return id
}

// loggingWriter wraps http.ResponseWriter to capture the status code and
// response size for the request log.
type loggingWriter struct {
	w            http.ResponseWriter
	statusCode   int
	bytesWritten int64
	caller       string
}

func (lw *loggingWriter) Header() http.Header {
	return lw.w.Header()
}

func (lw *loggingWriter) WriteHeader(code int) {
	lw.statusCode = code
	lw.w.WriteHeader(code)
}

func (lw *loggingWriter) Write(b []byte) (int, error) {
	if lw.statusCode == 0 {
		lw.statusCode = http.StatusOK
	}
	n, err := lw.w.Write(b)
	lw.bytesWritten += int64(n)
	return n, err
}

// Unwrap returns the underlying ResponseWriter for http.ResponseController.
func (lw *loggingWriter) Unwrap() http.ResponseWriter {
	return lw.w
}

// recoveryMiddleware recovers from panics and returns 500 Internal Server Error.
func recoveryMiddleware(logger log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapper := &loggingWriter{w: w}

			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered",
						"error", err,
						"path", r.URL.Path,
						"headers_sent", wrapper.statusCode != 0,
					)
					if wrapper.statusCode == 0 {
						writeError(w, http.StatusInternalServerError, "internal server error", nil)
					}
				}
			}()
			next.ServeHTTP(wrapper, r)
		})
	}
}

// loggingMiddleware logs request details including latency, status, and
// response size. Reuses an existing *loggingWriter from outer middleware to
// avoid double-wrapping the ResponseWriter.
func loggingMiddleware(logger log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapper, ok := w.(*loggingWriter)
			if !ok {
				wrapper = &loggingWriter{w: w}
			}

			next.ServeHTTP(wrapper, r)

			status := wrapper.statusCode
			if status == 0 {
				status = http.StatusOK
			}

			fields := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", wrapper.bytesWritten,
				"duration", time.Since(start),
			}
			if wrapper.caller != "" {
				fields = append(fields, "caller", wrapper.caller)
			}
			logger.Debug("http request", fields...)
		})
	}
}

// guardMiddleware rejects requests whose X-INTERNAL-KEY header does not match
// the shared internal service key. Paths under a public prefix (health
// probes, docs) bypass the check entirely. Requests that pass the check are
// tagged with the trusted caller identity so the request log can attribute
// them.
func guardMiddleware(internalKey string, publicPrefixes []string, logger log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range publicPrefixes {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			got := r.Header.Get(InternalKeyHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(internalKey)) != 1 {
				logger.Warn("rejected request without valid internal key",
					"path", r.URL.Path,
					"method", r.Method,
				)
				writeError(w, http.StatusForbidden, "access denied", nil)
				return
			}

			if wrapper, ok := w.(*loggingWriter); ok {
				wrapper.caller = internalCaller
			}
			ctx := context.WithValue(r.Context(), callerKey, internalCaller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// chain applies middleware in order: first middleware wraps outermost.
func chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
