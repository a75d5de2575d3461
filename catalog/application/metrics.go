package application

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	searchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pixvault_search_requests_total",
		Help: "Image searches forwarded to the provider, by outcome.",
	}, []string{"outcome"})

	ingestedImages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pixvault_ingest_total",
		Help: "Image ingestion attempts, by outcome.",
	}, []string{"outcome"})

	ingestedBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pixvault_ingest_bytes_total",
		Help: "Bytes of image payload persisted.",
	})

	droppedTags = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pixvault_tags_dropped_total",
		Help: "Submitted tags removed by the content filter.",
	})

	prohibitedQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pixvault_prohibited_queries_total",
		Help: "Search terms rejected by the content filter, by endpoint.",
	}, []string{"endpoint"})
)
