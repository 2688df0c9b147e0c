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
			Name: "trade_chat_http_requests_total",
			Help: "Total number of HTTP requests processed by the chat service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trade_chat_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	wsActiveConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trade_chat_ws_active_connections",
			Help: "Number of active websocket connections.",
		},
		[]string{"topic"},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trade_chat_ws_events_total",
			Help: "Total number of websocket events.",
		},
		[]string{"topic", "event"},
	)
	wsDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trade_chat_ws_dropped_events_total",
			Help: "Events dropped because a subscriber could not keep up.",
		},
		[]string{"topic"},
	)
	messagesAppendedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trade_chat_messages_appended_total",
			Help: "Total number of messages committed to the store.",
		},
	)
	roomsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trade_chat_rooms_created_total",
			Help: "Total number of rooms created.",
		},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trade_chat_amqp_publish_errors_total",
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
		wsDroppedTotal,
		messagesAppendedTotal,
		roomsCreatedTotal,
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

func IncWSActive(topic string) {
	wsActiveConnections.WithLabelValues(topic).Inc()
}

func DecWSActive(topic string) {
	wsActiveConnections.WithLabelValues(topic).Dec()
}

func IncWSEvent(topic, event string) {
	wsEventsTotal.WithLabelValues(topic, event).Inc()
}

func IncWSDropped(topic string) {
	wsDroppedTotal.WithLabelValues(topic).Inc()
}

func IncMessageAppended() {
	messagesAppendedTotal.Inc()
}

func IncRoomCreated() {
	roomsCreatedTotal.Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
