// Package api exposes the link pipeline over HTTP with JSON bodies.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/linkbio/harvester"
	"github.com/linkbio/harvester/metrics"
	"github.com/linkbio/harvester/models"
)

// metaCacheTTL bounds how long fetched link metadata is reused.
const metaCacheTTL = time.Hour

// Store is the persistence surface the API needs: the import engine's
// store plus the click counter.
type Store interface {
	harvester.Store
	IncrementShopLinkClicks(ctx context.Context, id string) (int64, error)
}

// MetaCache is an optional side cache for fetched link metadata.
type MetaCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Config contains server configuration.
type Config struct {
	Addr        string
	CORSEnabled bool
}

// Server is the HTTP API server.
type Server struct {
	store       Store
	harvester   *harvester.Harvester
	importer    *harvester.Importer
	metaCache   MetaCache // nil disables caching
	log         *logrus.Logger
	mux         *http.ServeMux
	server      *http.Server
	corsEnabled bool
}

// NewServer wires the pipeline behind the HTTP surface. metaCache may
// be nil.
func NewServer(config Config, store Store, h *harvester.Harvester, metaCache MetaCache, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}

	s := &Server{
		store:       store,
		harvester:   h,
		importer:    harvester.NewImporter(store, log),
		metaCache:   metaCache,
		log:         log,
		mux:         http.NewServeMux(),
		corsEnabled: config.CORSEnabled,
	}

	s.registerRoutes()

	s.server = &http.Server{
		Addr:         config.Addr,
		Handler:      otelhttp.NewHandler(s.middleware(s.mux), "harvester-api"),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/extract-links", s.handleExtractLinks)
	s.mux.HandleFunc("/fetch-meta", s.handleFetchMeta)
	s.mux.HandleFunc("/import-links", s.handleImportLinks)
	s.mux.HandleFunc("/shop-links/", s.handleShopLink) // /shop-links/{id}/click
}

// Handler returns the server's root handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the API server.
func (s *Server) Start() error {
	s.log.WithField("addr", s.server.Addr).Info("starting API server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down API server")
	return s.server.Shutdown(ctx)
}

// middleware applies CORS and request logging to all routes.
func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.corsEnabled {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
		}

		start := time.Now()
		next.ServeHTTP(w, r)

		if r.URL.Path != "/health" && r.URL.Path != "/metrics" {
			s.log.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start).String(),
			}).Info("request completed")
		}
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"time":   time.Now(),
	})
}

// ExtractLinksRequest is the body of POST /extract-links.
type ExtractLinksRequest struct {
	ProfileURL string `json:"profile_url"`
}

// ExtractLinksResponse is the classified preview returned to the
// caller; nothing is persisted by this endpoint.
type ExtractLinksResponse struct {
	Success bool                   `json:"success"`
	Source  string                 `json:"source"`
	Links   models.ClassifiedLinks `json:"links"`
}

func (s *Server) handleExtractLinks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}

	var req ExtractLinksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request_body")
		return
	}
	if strings.TrimSpace(req.ProfileURL) == "" {
		respondError(w, http.StatusBadRequest, "profile_url_required")
		return
	}

	result, err := s.harvester.Extract(r.Context(), req.ProfileURL)
	if err != nil {
		code, status := extractErrorCode(err)
		metrics.ExtractionsTotal.WithLabelValues(code).Inc()
		if status == http.StatusInternalServerError {
			s.log.WithError(err).Error("link extraction failed")
		}
		respondError(w, status, code)
		return
	}

	metrics.ExtractionsTotal.WithLabelValues("ok").Inc()
	metrics.LinksClassifiedTotal.WithLabelValues("social").Add(float64(len(result.Links.Social)))
	metrics.LinksClassifiedTotal.WithLabelValues("community").Add(float64(len(result.Links.Community)))
	metrics.LinksClassifiedTotal.WithLabelValues("affiliate_shop").Add(float64(len(result.Links.AffiliateShop)))

	respondJSON(w, http.StatusOK, ExtractLinksResponse{
		Success: true,
		Source:  result.Source,
		Links:   result.Links,
	})
}

// extractErrorCode maps pipeline errors to wire codes and statuses.
func extractErrorCode(err error) (string, int) {
	switch {
	case errors.Is(err, harvester.ErrInvalidURL):
		return "invalid_url", http.StatusBadRequest
	case errors.Is(err, harvester.ErrInvalidProtocol):
		return "invalid_protocol", http.StatusBadRequest
	case errors.Is(err, harvester.ErrDomainNotSupported):
		return "domain_not_supported", http.StatusBadRequest
	default:
		return "extraction_failed", http.StatusInternalServerError
	}
}

// FetchMetaRequest is the body of POST /fetch-meta.
type FetchMetaRequest struct {
	URL string `json:"url"`
}

// FetchMetaResponse wraps the fetched metadata.
type FetchMetaResponse struct {
	Success bool             `json:"success"`
	Data    *models.LinkMeta `json:"data,omitempty"`
	Error   string           `json:"error,omitempty"`
}

func (s *Server) handleFetchMeta(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}

	var req FetchMetaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request_body")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		respondError(w, http.StatusBadRequest, "url_required")
		return
	}
	if _, err := harvester.ValidateURL(req.URL); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_url")
		return
	}

	if meta, ok := s.cachedMeta(r.Context(), req.URL); ok {
		metrics.MetaFetchesTotal.WithLabelValues("cache_hit").Inc()
		respondJSON(w, http.StatusOK, FetchMetaResponse{Success: true, Data: meta})
		return
	}

	meta, err := s.harvester.FetchMeta(r.Context(), req.URL)
	if err != nil {
		// Metadata is a best-effort preview enhancement; a failed
		// fetch is a structured result, not an HTTP error.
		metrics.MetaFetchesTotal.WithLabelValues("fetch_failed").Inc()
		s.log.WithError(err).WithField("url", req.URL).Warn("metadata fetch failed")
		respondJSON(w, http.StatusOK, FetchMetaResponse{Success: false, Error: "fetch_failed"})
		return
	}

	metrics.MetaFetchesTotal.WithLabelValues("ok").Inc()
	s.storeMeta(r.Context(), req.URL, meta)
	respondJSON(w, http.StatusOK, FetchMetaResponse{Success: true, Data: meta})
}

func (s *Server) cachedMeta(ctx context.Context, url string) (*models.LinkMeta, bool) {
	if s.metaCache == nil {
		return nil, false
	}
	raw, err := s.metaCache.Get(ctx, metaCacheKey(url))
	if err != nil {
		return nil, false
	}
	var meta models.LinkMeta
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, false
	}
	return &meta, true
}

func (s *Server) storeMeta(ctx context.Context, url string, meta *models.LinkMeta) {
	if s.metaCache == nil {
		return
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return
	}
	if err := s.metaCache.Set(ctx, metaCacheKey(url), string(raw), metaCacheTTL); err != nil {
		s.log.WithError(err).Debug("metadata cache write failed")
	}
}

func metaCacheKey(url string) string {
	return "linkmeta:" + url
}

// ImportLinksRequest is the body of POST /import-links. The links
// object is typically an edited copy of an /extract-links response.
type ImportLinksRequest struct {
	UserID string                  `json:"user_id"`
	Links  *models.ClassifiedLinks `json:"links"`
}

// ImportLinksResponse reports per-kind import counts.
type ImportLinksResponse struct {
	Success  bool                `json:"success"`
	Imported models.ImportCounts `json:"imported"`
}

func (s *Server) handleImportLinks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}

	var req ImportLinksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request_body")
		return
	}
	if req.Links == nil {
		respondError(w, http.StatusBadRequest, "links_required")
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		respondError(w, http.StatusBadRequest, "user_id_required")
		return
	}

	counts, err := s.importer.Import(r.Context(), req.UserID, *req.Links)
	if err != nil {
		s.log.WithError(err).Error("link import failed")
		respondError(w, http.StatusInternalServerError, "import_failed")
		return
	}

	metrics.LinksImportedTotal.WithLabelValues("social").Add(float64(counts.Social))
	metrics.LinksImportedTotal.WithLabelValues("community").Add(float64(counts.Community))
	metrics.LinksImportedTotal.WithLabelValues("shop").Add(float64(counts.Shop))

	respondJSON(w, http.StatusOK, ImportLinksResponse{Success: true, Imported: counts})
}

// ClickResponse is the body returned by the click counter endpoint.
type ClickResponse struct {
	Success bool  `json:"success"`
	Clicks  int64 `json:"clicks"`
}

// handleShopLink routes /shop-links/{id}/click.
func (s *Server) handleShopLink(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/shop-links/")
	if !strings.HasSuffix(path, "/click") {
		respondError(w, http.StatusNotFound, "not_found")
		return
	}
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}

	id := strings.TrimSuffix(path, "/click")
	if id == "" {
		respondError(w, http.StatusBadRequest, "link_id_required")
		return
	}

	clicks, err := s.store.IncrementShopLinkClicks(r.Context(), id)
	if err != nil {
		if models.IsNotFound(err) {
			respondError(w, http.StatusNotFound, "link_not_found")
			return
		}
		s.log.WithError(err).Error("click increment failed")
		respondError(w, http.StatusInternalServerError, "click_failed")
		return
	}

	metrics.ShopClicksTotal.Inc()
	respondJSON(w, http.StatusOK, ClickResponse{Success: true, Clicks: clicks})
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends a structured error response.
func respondError(w http.ResponseWriter, status int, code string) {
	respondJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   code,
	})
}
