package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicechat_http_requests_total",
			Help: "Total number of HTTP requests processed by the voicechat service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "voicechat_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	wsActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "voicechat_ws_active_connections",
			Help: "Number of active websocket connections.",
		},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicechat_ws_events_total",
			Help: "Total number of websocket events by type.",
		},
		[]string{"type"},
	)
	matchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "voicechat_matches_total",
			Help: "Total number of successful pairings.",
		},
	)
	activeCalls = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "voicechat_active_calls",
			Help: "Number of currently active call sessions.",
		},
	)
	signalsRelayedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicechat_signals_relayed_total",
			Help: "Total number of WebRTC signaling messages relayed.",
		},
		[]string{"kind"},
	)
	signalsDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "voicechat_signals_dropped_total",
			Help: "Signaling messages dropped because the recipient was gone.",
		},
	)
	gamesStartedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "voicechat_games_started_total",
			Help: "Total number of hangman games started.",
		},
	)
	gamesFinishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicechat_games_finished_total",
			Help: "Total number of hangman games finished by winner.",
		},
		[]string{"winner"},
	)
	callbackRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicechat_callback_requests_total",
			Help: "Total number of callback requests by final status.",
		},
		[]string{"status"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "voicechat_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		wsActiveConnections,
		wsEventsTotal,
		matchesTotal,
		activeCalls,
		signalsRelayedTotal,
		signalsDroppedTotal,
		gamesStartedTotal,
		gamesFinishedTotal,
		callbackRequestsTotal,
		amqpPublishErrorsTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func IncWSActive() { wsActiveConnections.Inc() }

func DecWSActive() { wsActiveConnections.Dec() }

func IncMatch() { matchesTotal.Inc() }

func IncActiveCall() { activeCalls.Inc() }

func DecActiveCall() { activeCalls.Dec() }

func IncWSEvent(eventType string) {
	wsEventsTotal.WithLabelValues(eventType).Inc()
}

func IncSignalRelayed(kind string) {
	signalsRelayedTotal.WithLabelValues(kind).Inc()
}

func IncSignalDropped() {
	signalsDroppedTotal.Inc()
}

func IncGameStarted() {
	gamesStartedTotal.Inc()
}

func IncGameFinished(winner string) {
	if winner == "" {
		winner = "none"
	}
	gamesFinishedTotal.WithLabelValues(winner).Inc()
}

func IncCallbackRequest(status string) {
	callbackRequestsTotal.WithLabelValues(status).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
