package proxyhealth

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// probeUserAgent identifies health probes to upstream proxies
const probeUserAgent = "github.com/notemark/clip-relay"

// Prober issues time-boxed HEAD probes against proxy endpoints. Redirects
// are not followed: a 3xx answer already counts as reachable, and chasing
// it could turn a healthy proxy into a timeout.
type Prober struct {
	client *http.Client
}

// NewProber creates a prober with a redirect-stopping HTTP client
func NewProber() *Prober {
	return &Prober{
		client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Probe issues a HEAD request against the target and reports whether the
// response status landed in [200, 400). Network errors, timeouts and bad
// targets all report false, never an error.
func (p *Prober) Probe(ctx context.Context, target string, timeout time.Duration) bool {
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodHead, target, nil)
	if err != nil {
		log.Debug().Err(err).Str("target", target).Msg("Probe request construction failed")
		return false
	}
	req.Header.Set("User-Agent", probeUserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("target", target).Msg("Probe failed")
		return false
	}
	defer resp.Body.Close()

	healthy := resp.StatusCode >= 200 && resp.StatusCode < 400
	log.Debug().
		Str("target", target).
		Int("status", resp.StatusCode).
		Bool("healthy", healthy).
		Msg("Probe completed")
	return healthy
}
