// Package harvester implements the outbound-link pipeline for public
// link-in-bio profile pages: candidate extraction from HTML and
// embedded JSON, filtering, classification, metadata enrichment and the
// import/merge engine.
package harvester

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/linkbio/harvester/models"
	"github.com/linkbio/harvester/rules"
)

// Config contains pipeline configuration.
type Config struct {
	FetchTimeout time.Duration // profile page fetch deadline
	MetaTimeout  time.Duration // metadata fetch deadline
	UserAgent    string
	Accept       string
}

// DefaultConfig returns default pipeline configuration. The request
// identity mimics a desktop browser; several profile hosts serve empty
// shells to generic client strings.
func DefaultConfig() Config {
	return Config{
		FetchTimeout: 10 * time.Second,
		MetaTimeout:  5 * time.Second,
		UserAgent:    "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		Accept:       "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
	}
}

// Harvester runs the extraction pipeline. It is stateless between
// calls; every invocation is independent.
type Harvester struct {
	config     Config
	httpClient *http.Client
	rules      *rules.Ruleset
	log        *logrus.Logger
}

// ExtractResult is the classified preview returned to the caller. It is
// not persisted; persisting happens through the import engine after the
// caller has reviewed and possibly edited the set.
type ExtractResult struct {
	Source string
	Links  models.ClassifiedLinks
}

// New creates a Harvester with the given rule tables.
func New(config Config, rs *rules.Ruleset, log *logrus.Logger) *Harvester {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Harvester{
		config: config,
		httpClient: &http.Client{
			// Deadlines are per-call contexts; the transport is
			// instrumented so outbound fetches show up in traces.
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		rules: rs,
		log:   log,
	}
}

// Extract fetches a profile page and returns its outbound links,
// filtered and classified. The allow-list check happens before any
// network activity; unsupported domains never cause a fetch. A single
// failed fetch is the final outcome — there is no retry.
func (h *Harvester) Extract(ctx context.Context, rawProfileURL string) (*ExtractResult, error) {
	rawProfileURL = strings.TrimSpace(rawProfileURL)

	profile, err := ValidateURL(rawProfileURL)
	if err != nil {
		return nil, err
	}

	source := NormalizeHost(profile.Hostname())
	if !h.rules.ProfileDomainAllowed(source) {
		return nil, fmt.Errorf("%w: %s", ErrDomainNotSupported, source)
	}

	document, err := h.fetch(ctx, rawProfileURL, h.config.FetchTimeout)
	if err != nil {
		return nil, err
	}

	candidates := CandidateLinks(document)
	links := Classify(h.rules, candidates, profile, rawProfileURL)

	h.log.WithFields(logrus.Fields{
		"source":     source,
		"candidates": len(candidates),
		"social":     len(links.Social),
		"community":  len(links.Community),
		"shop":       len(links.AffiliateShop),
	}).Info("profile extracted")

	return &ExtractResult{Source: source, Links: links}, nil
}

// fetch retrieves a page body with a bounded deadline and the
// configured browser identity. Cancelling ctx aborts the outbound call.
func (h *Harvester) fetch(ctx context.Context, target string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", h.config.UserAgent)
	req.Header.Set("Accept", h.config.Accept)

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	return string(body), nil
}
