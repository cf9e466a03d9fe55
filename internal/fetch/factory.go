package fetch

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/notemark/clip-relay/internal/domain"
)

// NewContentFetcher selects the fetch strategy once at startup: with a
// reader service configured the delegating fetcher wraps the basic one,
// otherwise the basic fetcher stands alone.
func NewContentFetcher(readerEndpoint string, client *http.Client) domain.ContentFetcher {
	basic := NewBasicFetcher(client)
	if readerEndpoint == "" {
		log.Info().Str("fetcher", basic.Name()).Msg("Content fetcher selected")
		return basic
	}

	reader := NewReaderFetcher(readerEndpoint, basic, client)
	log.Info().
		Str("fetcher", reader.Name()).
		Str("endpoint", readerEndpoint).
		Msg("Content fetcher selected")
	return reader
}
