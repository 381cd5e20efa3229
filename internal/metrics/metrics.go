// Package metrics exposes Prometheus collectors for the export pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "scraping_gn"

var (
	listingPagesFetched = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "listing_pages_fetched_total",
		Help:      "Listing pages fetched during enumeration.",
	})

	shopsExported = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "shops_exported_total",
		Help:      "Shop records appended to the output sink.",
	})

	retryAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "retry_attempts_total",
		Help:      "Failed attempts that triggered a retry, by operation.",
	}, []string{"operation"})

	resolverOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "resolver_outcomes_total",
		Help:      "Website resolution outcomes by stage.",
	}, []string{"stage", "outcome"})
)

// IncListingPage counts one fetched listing page.
func IncListingPage() { listingPagesFetched.Inc() }

// IncShopExported counts one record written to the sink.
func IncShopExported() { shopsExported.Inc() }

// IncRetry counts one failed attempt of the named operation.
func IncRetry(operation string) { retryAttempts.WithLabelValues(operation).Inc() }

// ObserveResolver records the outcome ("resolved" or "unresolved") of one
// resolver stage.
func ObserveResolver(stage, outcome string) { resolverOutcomes.WithLabelValues(stage, outcome).Inc() }
