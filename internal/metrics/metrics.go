package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors exported on /metrics. A nil *Metrics is
// valid and records nothing, which is what the terminal client uses.
type Metrics struct {
	AuthAttempts   *prometheus.CounterVec
	QuizzesStarted prometheus.Counter
	Answers        *prometheus.CounterVec
	Syncs          *prometheus.CounterVec
	Connections    prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AuthAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_auth_attempts_total",
				Help: "Login attempts by outcome",
			},
			[]string{"outcome"},
		),
		QuizzesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quiz_sessions_started_total",
			Help: "Quiz sessions started",
		}),
		Answers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_answers_total",
				Help: "Answered questions by correctness",
			},
			[]string{"result"},
		),
		Syncs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_result_syncs_total",
				Help: "Result sync attempts by status",
			},
			[]string{"status"},
		),
		Connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quiz_ws_connections",
			Help: "Open websocket connections",
		}),
	}
	reg.MustRegister(m.AuthAttempts, m.QuizzesStarted, m.Answers, m.Syncs, m.Connections)
	return m
}

func (m *Metrics) Auth(outcome string) {
	if m == nil {
		return
	}
	m.AuthAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) QuizStarted() {
	if m == nil {
		return
	}
	m.QuizzesStarted.Inc()
}

func (m *Metrics) Answer(correct bool) {
	if m == nil {
		return
	}
	result := "wrong"
	if correct {
		result = "correct"
	}
	m.Answers.WithLabelValues(result).Inc()
}

func (m *Metrics) Sync(status string) {
	if m == nil {
		return
	}
	m.Syncs.WithLabelValues(status).Inc()
}

func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.Connections.Inc()
}

func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.Connections.Dec()
}
