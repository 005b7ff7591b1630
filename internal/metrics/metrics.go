// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	BackendStatus = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "socialdesk_backend_status",
		Help: "Backend connectivity status: 0=checking, 1=connected, 2=disconnected.",
	})

	ProbesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "socialdesk_connectivity_probes_total",
		Help: "Connectivity probes by outcome.",
	}, []string{"outcome"})

	ProbeAttempt = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "socialdesk_connectivity_attempt",
		Help: "Current connectivity retry attempt counter.",
	})

	CallbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "socialdesk_oauth_callbacks_total",
		Help: "OAuth callback outcomes by provider.",
	}, []string{"provider", "status"})
)

func init() {
	prometheus.MustRegister(BackendStatus, ProbesTotal, ProbeAttempt, CallbacksTotal)
}
