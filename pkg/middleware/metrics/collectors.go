package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	responseTime = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "response_time",
			Help:    "http response time.",
			Buckets: []float64{0.5, 1, 5, 10, 30, 60},
		},
	)

	totalHttpRequestsFromRole = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "total_http_requests_from_role", Help: "http requests from role"},
		[]string{"role"},
	)

	totalHttpRequestsToUri = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "total_http_requests_to_uri", Help: "http requests to uri"},
		[]string{"code", "uri", "method"},
	)

	totalHttpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "total_http_requests", Help: "http requests by code, and method"},
		[]string{"code", "method"},
	)

	pendingInvocations = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "pending_invocations", Help: "invocations awaiting completion"},
	)

	invocationsDispatched = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "invocations_dispatched_total", Help: "invocations handed to the engine"},
	)

	invocationCompletions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "invocation_completions_total", Help: "completions by outcome"},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		responseTime,
		totalHttpRequestsFromRole,
		totalHttpRequestsToUri,
		totalHttpRequests,
		pendingInvocations,
		invocationsDispatched,
		invocationCompletions,
	)
}

// Invocation lifecycle hooks, called from the dispatch and completion paths.

func InvocationRegistered()  { pendingInvocations.Inc() }
func InvocationSettled()     { pendingInvocations.Dec() }
func InvocationDispatched()  { invocationsDispatched.Inc() }
func CompletionObserved(outcome string) {
	invocationCompletions.WithLabelValues(outcome).Inc()
}
