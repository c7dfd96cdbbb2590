// Package metrics declares the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ExtractionsTotal counts profile extraction requests by outcome
	// (ok, invalid_url, invalid_protocol, domain_not_supported,
	// extraction_failed).
	ExtractionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "harvester_extractions_total",
		Help: "Profile link extractions by outcome.",
	}, []string{"outcome"})

	// LinksClassifiedTotal counts classified links by category.
	LinksClassifiedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "harvester_links_classified_total",
		Help: "Links classified during extraction, by category.",
	}, []string{"category"})

	// MetaFetchesTotal counts metadata fetches by outcome
	// (ok, cache_hit, fetch_failed).
	MetaFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "harvester_meta_fetches_total",
		Help: "Link metadata fetches by outcome.",
	}, []string{"outcome"})

	// LinksImportedTotal counts persisted links by kind.
	LinksImportedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "harvester_links_imported_total",
		Help: "Links persisted by the import engine, by kind.",
	}, []string{"kind"})

	// ShopClicksTotal counts recorded shop-link clicks.
	ShopClicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harvester_shop_clicks_total",
		Help: "Recorded shop link clicks.",
	})
)
