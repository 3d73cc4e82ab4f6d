package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type IncrementalCounter interface {
	Increment(val ...string)
}

type Counter struct {
	Name string
	Help string

	vec *prometheus.CounterVec
}

func (c *Counter) Increment(val ...string) {
	c.vec.WithLabelValues(val...).Inc()
}

func NewCounter(reg prometheus.Registerer, name, help string, labels ...string) *Counter {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: name,
		Help: help,
	}, labels)

	reg.MustRegister(vec)

	return &Counter{Name: name, Help: help, vec: vec}
}

// Recorder holds the host's counters.
type Recorder struct {
	Requests IncrementalCounter
	Previews IncrementalCounter
}

func NewRecorder(reg prometheus.Registerer) *Recorder {
	return &Recorder{
		Requests: NewCounter(reg, "swooshd_requests_total", "HTTP requests by route and status code.", "route", "code"),
		Previews: NewCounter(reg, "swooshd_previews_total", "Server-rendered bar previews."),
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
