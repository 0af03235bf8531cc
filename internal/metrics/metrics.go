package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ConnectionsGauge tracks currently registered sockets.
	ConnectionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "realtime_active_connections",
		Help: "Number of live websocket connections",
	})

	// EventsTotal counts inbound events by type.
	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_inbound_events_total",
		Help: "Inbound events dispatched by the router",
	}, []string{"type"})

	// PushesTotal counts outbound pushes by event type.
	PushesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_outbound_pushes_total",
		Help: "Outbound events pushed to sockets",
	}, []string{"type"})
)

// Handler returns an http.Handler for Prometheus scraping
func Handler() http.Handler {
	return promhttp.Handler()
}
