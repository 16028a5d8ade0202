package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(chatExchanges, chatsCreated, cacheRequestsTotal) }

var (
	chatExchanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_exchanges_total",
			Help: "Append-exchange attempts by result.",
		},
		[]string{"result"}, // ok | unauthenticated | invalid | not_found | conflict | persistence_error
	)

	chatsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chats_created_total",
			Help: "Chats created.",
		},
	)

	cacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_requests_total",
			Help: "Tracks cache hits and misses for various caches.",
		},
		[]string{"cache", "result"}, // e.g., cache="chat_list", result="hit"
	)
)

func IncChatExchange(result string) {
	chatExchanges.WithLabelValues(norm(result)).Inc()
}

func IncChatCreated() {
	chatsCreated.Inc()
}

func IncCacheRequest(cacheName, result string) {
	cacheRequestsTotal.WithLabelValues(norm(cacheName), norm(result)).Inc()
}
