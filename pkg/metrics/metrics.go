package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "pdfgallery", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "pdfgallery", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	ThumbnailCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "pdfgallery", Name: "thumbnail_cache_total", Help: "Thumbnail cache lookups by result (hit|miss)."},
		[]string{"result"},
	)
	ThumbnailRenders = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "pdfgallery", Name: "thumbnail_renders_total", Help: "Thumbnail render attempts by renderer and outcome."},
		[]string{"renderer", "outcome"},
	)
	ThumbnailFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "pdfgallery", Name: "thumbnail_fallbacks_total", Help: "Records served with the placeholder image."},
	)
	ViewRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "pdfgallery", Name: "view_requests_total", Help: "Gallery views built by grouping."},
		[]string{"group"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(ThumbnailCache)
	reg.MustRegister(ThumbnailRenders)
	reg.MustRegister(ThumbnailFallbacks)
	reg.MustRegister(ViewRequests)
}
