package gateway

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ragworks/ragchat/internal/log"
)

// ForwardTimeout bounds a single proxied round trip to the storage tier.
const ForwardTimeout = 60 * time.Second

// Hop-by-hop headers (RFC 9110 section 7.6.1) apply to a single connection
// and must not cross the proxy hop.
var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// stripHopByHop removes hop-by-hop headers, including any header the
// Connection header nominates.
func stripHopByHop(h http.Header) {
	for _, field := range h.Values("Connection") {
		for _, name := range strings.Split(field, ",") {
			if name = strings.TrimSpace(name); name != "" {
				h.Del(name)
			}
		}
	}
	for _, name := range hopByHopHeaders {
		h.Del(name)
	}
}

// Forwarder relays requests to the storage service. It rebuilds the request
// against the storage base URL, streams the body through, and copies the
// response back verbatim.
type Forwarder struct {
	base   *url.URL
	client *http.Client
	logger log.Logger
}

// NewForwarder creates a forwarder for the given storage base URL.
func NewForwarder(storageURL string, logger log.Logger) (*Forwarder, error) {
	base, err := url.Parse(storageURL)
	if err != nil {
		return nil, fmt.Errorf("parsing storage URL: %w", err)
	}
	if logger == nil {
		logger = log.NewNop()
	}

	return &Forwarder{
		base:   base,
		client: &http.Client{Timeout: ForwardTimeout},
		logger: logger,
	}, nil
}

// ServeHTTP implements http.Handler.
func (f *Forwarder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	target := *f.base
	target.Path = r.URL.Path
	target.RawQuery = r.URL.RawQuery

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target.String(), r.Body)
	if err != nil {
		f.logger.Error("building proxy request", "error", err, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "failed to build proxy request")
		return
	}
	req.Header = r.Header.Clone()
	stripHopByHop(req.Header)

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Error("reaching storage service",
			"error", err,
			"url", target.String(),
			"correlation_id", r.Header.Get(CorrelationHeader),
		)
		writeError(w, http.StatusBadGateway, "storage service unavailable")
		return
	}
	defer resp.Body.Close()

	stripHopByHop(resp.Header)
	for key, values := range resp.Header {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		f.logger.Debug("copying proxy response body", "error", err)
	}
}
