// Package gateway implements the edge tier: an ordered pipeline of request
// stages in front of a forwarding proxy to the storage service.
//
// Stages run in a fixed order and may short-circuit the request (client key
// check) or decorate it (correlation id, internal service key). Only requests
// that pass every stage reach the forwarder.
package gateway

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ragworks/ragchat/internal/log"
)

const (
	// CorrelationHeader carries the request correlation id end to end.
	CorrelationHeader = "correlation-id"

	// APIKeyHeader carries the client API key checked at the edge.
	APIKeyHeader = "X-API-KEY"

	// InternalKeyHeader carries the service-to-service secret attached
	// before forwarding.
	InternalKeyHeader = "X-INTERNAL-KEY"
)

// Stage is one step of the request pipeline. Process returns false to stop
// the pipeline; the stage has then already written the response.
type Stage interface {
	Process(w http.ResponseWriter, r *http.Request) bool
}

// correlationStage attaches a correlation id when the client did not send
// one. It never rejects.
type correlationStage struct{}

func (correlationStage) Process(_ http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get(CorrelationHeader) == "" {
		r.Header.Set(CorrelationHeader, uuid.New().String())
	}
	return true
}

// apiKeyStage validates the client API key. Paths under an allow-listed
// prefix skip the check. An empty configured key disables validation
// entirely, which is only acceptable in development setups.
type apiKeyStage struct {
	key            string
	publicPrefixes []string
	logger         log.Logger
}

func (s *apiKeyStage) Process(w http.ResponseWriter, r *http.Request) bool {
	if s.key == "" {
		return true
	}
	for _, prefix := range s.publicPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	got := r.Header.Get(APIKeyHeader)
	if subtle.ConstantTimeCompare([]byte(got), []byte(s.key)) != 1 {
		s.logger.Warn("rejected request with missing or invalid API key",
			"path", r.URL.Path,
			"correlation_id", r.Header.Get(CorrelationHeader),
		)
		writeError(w, http.StatusUnauthorized, "invalid or missing API key")
		return false
	}
	return true
}

// internalKeyStage stamps the service-to-service secret on every request
// before it leaves the edge. Any client-supplied value is overwritten.
type internalKeyStage struct {
	key string
}

func (s *internalKeyStage) Process(_ http.ResponseWriter, r *http.Request) bool {
	r.Header.Set(InternalKeyHeader, s.key)
	return true
}
