package diagnostics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/km-arc/ioc/container"
)

// PrometheusListener exposes resolve-pipeline activity as a request
// counter labelled by service and outcome and a duration histogram
// labelled by service. It
// is always enabled; metrics collection is cheap enough not to gate.
type PrometheusListener struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec

	mu     sync.Mutex
	starts map[string]time.Time
}

// NewPrometheusListener registers its collectors against reg and returns
// the listener ready to attach to a RegistryBuilder.
func NewPrometheusListener(reg prometheus.Registerer) (*PrometheusListener, error) {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ioc",
		Name:      "resolve_requests_total",
		Help:      "Count of resolve pipeline requests by service and outcome.",
	}, []string{"service", "outcome"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ioc",
		Name:      "resolve_request_duration_seconds",
		Help:      "Resolve pipeline request latency by service.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"service"})

	if err := reg.Register(requests); err != nil {
		return nil, err
	}
	if err := reg.Register(duration); err != nil {
		return nil, err
	}

	return &PrometheusListener{
		requests: requests,
		duration: duration,
		starts:   make(map[string]time.Time),
	}, nil
}

func (l *PrometheusListener) IsEnabled() bool { return true }

func (l *PrometheusListener) Write(eventKey string, payload any) {
	switch eventKey {
	case container.EventRequestStart:
		if v, ok := payload.(container.RequestEvent); ok {
			l.mu.Lock()
			l.starts[v.Service.String()] = time.Now()
			l.mu.Unlock()
		}
	case container.EventRequestSuccess, container.EventRequestFailure:
		v, ok := payload.(container.RequestEvent)
		if !ok {
			return
		}
		outcome := "success"
		if eventKey == container.EventRequestFailure {
			outcome = "failure"
		}
		l.requests.WithLabelValues(v.Service.String(), outcome).Inc()

		l.mu.Lock()
		start, found := l.starts[v.Service.String()]
		if found {
			delete(l.starts, v.Service.String())
		}
		l.mu.Unlock()
		if found {
			l.duration.WithLabelValues(v.Service.String()).Observe(time.Since(start).Seconds())
		}
	}
}

var _ container.DiagnosticListener = (*PrometheusListener)(nil)
