package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ragworks/ragchat/internal/config"
	"github.com/ragworks/ragchat/internal/log"
)

// Pipeline runs each request through its stages in order and hands the
// survivors to the forwarder. Stage order is fixed at construction.
type Pipeline struct {
	stages  []Stage
	forward http.Handler
	logger  log.Logger
}

// NewPipeline builds the standard stage chain: correlation id, client API
// key, internal key stamping. forward receives every request that passes.
func NewPipeline(creds config.Credentials, publicPrefixes []string, forward http.Handler, logger log.Logger) *Pipeline {
	if logger == nil {
		logger = log.NewNop()
	}
	if creds.GatewayKey == "" {
		logger.Warn("gateway API key is not configured, client key validation is disabled")
	}

	return &Pipeline{
		stages: []Stage{
			correlationStage{},
			&apiKeyStage{key: creds.GatewayKey, publicPrefixes: publicPrefixes, logger: logger},
			&internalKeyStage{key: creds.InternalKey},
		},
		forward: forward,
		logger:  logger,
	}
}

// ServeHTTP implements http.Handler. Short-circuited requests are not
// forwarded and not request-logged; the rejecting stage logs them itself.
func (p *Pipeline) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	for _, stage := range p.stages {
		if !stage.Process(w, r) {
			return
		}
	}

	start := time.Now()
	rec := &statusRecorder{w: w}
	p.forward.ServeHTTP(rec, r)

	status := rec.statusCode
	if status == 0 {
		status = http.StatusOK
	}
	p.logger.Info("forwarded request",
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"duration", time.Since(start),
		"correlation_id", r.Header.Get(CorrelationHeader),
	)
}

// statusRecorder captures the downstream status code for the forward log.
type statusRecorder struct {
	w          http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) Header() http.Header {
	return sr.w.Header()
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.w.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.statusCode == 0 {
		sr.statusCode = http.StatusOK
	}
	return sr.w.Write(b)
}

// Unwrap returns the underlying ResponseWriter for http.ResponseController.
func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.w
}

// writeError writes the gateway's own terse error body. The storage tier's
// richer envelope passes through the forwarder untouched; this shape is only
// for requests the edge rejects itself.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    status,
		"error":     http.StatusText(status),
		"message":   message,
		"timestamp": time.Now().UTC(),
	})
}
