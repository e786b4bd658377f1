package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	APIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "notifsync_api_requests_total", Help: "API requests"},
		[]string{"endpoint", "status"},
	)
	StatusUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "notifsync_status_updates_total", Help: "Accepted status updates"},
		[]string{"status", "origin"},
	)
	Publishes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "notifsync_publish_total", Help: "Status event publish results"},
		[]string{"result"},
	)
	WebhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "notifsync_webhook_events_total", Help: "Webhook events by reported status"},
		[]string{"event"},
	)
	ConsumedEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "notifsync_consumed_events_total", Help: "Broker events consumed"},
		[]string{"result"},
	)
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(APIRequests, StatusUpdates, Publishes, WebhookEvents, ConsumedEvents)
}
