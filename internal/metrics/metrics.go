package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Valores do label outcome
const (
	OutcomeSuccess  = "success"
	OutcomeDegraded = "degraded"
	OutcomeRejected = "rejected"
)

// Metrics contém os coletores do chat
type Metrics struct {
	chatRequests    *prometheus.CounterVec
	gatewayDuration prometheus.Histogram
	workerInflight  prometheus.Gauge
}

// New cria os coletores e registra em reg, quando informado
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		chatRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatbridge",
			Name:      "chat_requests_total",
			Help:      "Total number of chat requests by outcome.",
		}, []string{"outcome"}),
		gatewayDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "chatbridge",
			Name:      "gateway_duration_seconds",
			Help:      "Time spent waiting for the assistant to reply.",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}),
		workerInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chatbridge",
			Name:      "worker_inflight",
			Help:      "Number of assistant calls currently running on the worker pool.",
		}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.chatRequests, m.gatewayDuration, m.workerInflight} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}

	return m, nil
}

// RecordChat incrementa o contador de requisições para outcome
func (m *Metrics) RecordChat(outcome string) {
	m.chatRequests.WithLabelValues(outcome).Inc()
}

// ObserveGateway registra a duração de uma chamada ao agente
func (m *Metrics) ObserveGateway(d time.Duration) {
	m.gatewayDuration.Observe(d.Seconds())
}

// AddInflight soma delta ao gauge do pool
func (m *Metrics) AddInflight(delta int64) {
	m.workerInflight.Add(float64(delta))
}

// Inflight expõe o gauge do pool, usado nos testes
func (m *Metrics) Inflight() prometheus.Gauge {
	return m.workerInflight
}

// ChatRequests expõe o contador, usado nos testes
func (m *Metrics) ChatRequests() *prometheus.CounterVec {
	return m.chatRequests
}
