package app

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service counters on a private registry.
type Metrics struct {
	registry        *prometheus.Registry
	stories         *prometheus.CounterVec
	narrations      *prometheus.CounterVec
	journalSaves    *prometheus.CounterVec
	discardedScenes prometheus.Counter
}

// NewMetrics registers the counters on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		stories: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dreamweaver_stories_total",
			Help: "Story generations, partitioned by outcome.",
		}, []string{"outcome"}),
		narrations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dreamweaver_narrations_total",
			Help: "Narration requests, partitioned by whether audio or the local fallback was returned.",
		}, []string{"result"}),
		journalSaves: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dreamweaver_journal_saves_total",
			Help: "Journal saves, partitioned by outcome.",
		}, []string{"outcome"}),
		discardedScenes: factory.NewCounter(prometheus.CounterOpts{
			Name: "dreamweaver_scene_tasks_discarded_total",
			Help: "Scene tasks whose result was dropped because a newer generation started.",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) story(outcome string) { m.stories.WithLabelValues(outcome).Inc() }
func (m *Metrics) narration(result string) { m.narrations.WithLabelValues(result).Inc() }
func (m *Metrics) journalSave(outcome string) { m.journalSaves.WithLabelValues(outcome).Inc() }
