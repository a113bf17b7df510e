package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DatasetRowsLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bikeshare_dataset_rows_loaded",
			Help: "Rows held by the most recent dataset load",
		},
	)

	DatasetLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bikeshare_dataset_load_duration_seconds",
			Help:    "Time taken to fetch and parse the dataset",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"scheme"},
	)

	DatasetFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bikeshare_dataset_fetch_total",
			Help: "Dataset fetch attempts by scheme and status",
		},
		[]string{"scheme", "status"},
	)

	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bikeshare_http_requests_total",
			Help: "Dashboard requests by route and status",
		},
		[]string{"route", "status"},
	)

	RequestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bikeshare_http_request_duration_seconds",
			Help:    "Dashboard request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	TabViews = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bikeshare_tab_views_total",
			Help: "Rendered dashboard tabs by name",
		},
		[]string{"tab"},
	)

	UnknownWeatherCodes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bikeshare_unknown_weather_codes_total",
			Help: "Weather buckets aggregated under the catch-all label for a code outside 1-4",
		},
		[]string{"code"},
	)

	InsightRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bikeshare_insight_requests_total",
			Help: "Insight lookups by outcome (cache_hit, generated, error)",
		},
		[]string{"outcome"},
	)

	ImageCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bikeshare_image_cache_total",
			Help: "Share card cache lookups by result",
		},
		[]string{"result"},
	)
)
