package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	gatewayRequestDurationHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vkyc",
			Name:      "gateway_request_duration_seconds",
			Help:      "Duration of HTTP requests to the video KYC gateway.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	gatewayRequestsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vkyc",
			Name:      "gateway_requests_total",
			Help:      "Total gateway requests by outcome.",
		},
		[]string{"operation", "outcome"}, // outcome: "success", "network", "decode", "request"
	)
)
