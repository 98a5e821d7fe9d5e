// Package metrics exposes Prometheus counters for the composition service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "letterpress"

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Recorder owns a registry and the service's collectors.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry        *prometheus.Registry
	composed        prometheus.Counter
	viewStateWrites *prometheus.CounterVec
	favouriteSaves  *prometheus.CounterVec
	imageLookups    *prometheus.CounterVec
	notices         *prometheus.CounterVec
}

// New creates a Recorder with Go runtime and process collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		composed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_composed_total",
			Help:      "Documents rendered.",
		}),
		viewStateWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "viewstate_writes_total",
			Help:      "View state writes sent to the backend.",
		}, []string{"outcome"}),
		favouriteSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "favourites_saves_total",
			Help:      "Favourites saves sent to the backend.",
		}, []string{"outcome"}),
		imageLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_lookups_total",
			Help:      "Profile image lookups by cache outcome.",
		}, []string{"outcome"}),
		notices: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notices_total",
			Help:      "Notices raised by variant.",
		}, []string{"variant"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.composed,
		r.viewStateWrites,
		r.favouriteSaves,
		r.imageLookups,
		r.notices,
	)
	return r
}

// Registry returns the underlying registry, or nil for a nil Recorder.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *Recorder) DocumentComposed() {
	if r == nil {
		return
	}
	r.composed.Inc()
}

func (r *Recorder) ViewStateWrite(err error) {
	if r == nil {
		return
	}
	r.viewStateWrites.WithLabelValues(outcome(err)).Inc()
}

func (r *Recorder) FavouritesSave(err error) {
	if r == nil {
		return
	}
	r.favouriteSaves.WithLabelValues(outcome(err)).Inc()
}

// ImageLookup counts a lookup; outcome is "hit", "miss" or "error".
func (r *Recorder) ImageLookup(outcome string) {
	if r == nil {
		return
	}
	r.imageLookups.WithLabelValues(outcome).Inc()
}

func (r *Recorder) Notice(variant string) {
	if r == nil {
		return
	}
	r.notices.WithLabelValues(variant).Inc()
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
