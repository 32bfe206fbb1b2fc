package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/zeu5/trafficcontrol/core"
)

// PrometheusMetrics records agent progress on a private registry
type PrometheusMetrics struct {
	registry *prometheus.Registry

	// Counters
	episodes *prometheus.CounterVec
	steps    *prometheus.CounterVec

	// Histograms
	episodeDuration *prometheus.HistogramVec

	// Gauges
	episodeReward *prometheus.GaugeVec
	runningAgents prometheus.Gauge

	// Internal tracking
	episodeStart map[string]time.Time
	mu           sync.Mutex
}

var _ core.Observer = &PrometheusMetrics{}

func NewPrometheusMetrics() *PrometheusMetrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &PrometheusMetrics{
		registry: registry,
		episodes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "trafficcontrol_episodes_total",
			Help: "Total number of completed episodes",
		}, []string{"agent", "learn"}),
		steps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "trafficcontrol_steps_total",
			Help: "Total number of control steps taken",
		}, []string{"agent"}),
		episodeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trafficcontrol_episode_duration_seconds",
			Help:    "Wall clock duration of an episode",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"agent"}),
		episodeReward: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "trafficcontrol_episode_reward",
			Help: "Accumulated reward of the last completed episode",
		}, []string{"agent"}),
		runningAgents: factory.NewGauge(prometheus.GaugeOpts{
			Name: "trafficcontrol_running_agents",
			Help: "Number of agents currently running",
		}),
		episodeStart: make(map[string]time.Time),
	}
}

func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *PrometheusMetrics) AgentStarted(name string, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runningAgents.Inc()
	m.episodeStart[name] = time.Now()
}

func (m *PrometheusMetrics) StepTaken(name string, _ float64) {
	m.steps.WithLabelValues(name).Inc()
}

func (m *PrometheusMetrics) EpisodeFinished(r *core.EpisodeResult) {
	learn := "false"
	if r.Learn {
		learn = "true"
	}
	m.episodes.WithLabelValues(r.Agent, learn).Inc()
	m.episodeReward.WithLabelValues(r.Agent).Set(r.Reward)

	m.mu.Lock()
	defer m.mu.Unlock()
	if start, ok := m.episodeStart[r.Agent]; ok {
		m.episodeDuration.WithLabelValues(r.Agent).Observe(time.Since(start).Seconds())
	}
	m.episodeStart[r.Agent] = time.Now()
}

func (m *PrometheusMetrics) AgentFinished(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runningAgents.Dec()
	delete(m.episodeStart, name)
}

// WriteTo writes the text exposition of all metrics to path
func (m *PrometheusMetrics) WriteTo(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
