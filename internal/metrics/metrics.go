// Package metrics exposes protocol and API counters to prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "moswords"

// Metrics is safe to use through a nil pointer; every recorder is then a no-op.
type Metrics struct {
	registry *prometheus.Registry

	KeysMinted       prometheus.Counter
	KeysAdopted      prometheus.Counter
	EnvelopesOpened  prometheus.Counter
	EnvelopeFailures prometheus.Counter
	DecryptFailures  prometheus.Counter
	MessagesMigrated prometheus.Counter
	HTTPRequests     *prometheus.CounterVec
}

// New registers every collector on a fresh registry, so several instances
// can coexist in one process.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	counter := func(name, help string) prometheus.Counter {
		c := prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help})
		reg.MustRegister(c)
		return c
	}

	m := &Metrics{
		registry:         reg,
		KeysMinted:       counter("conversation_keys_minted_total", "Conversation keys generated on this process."),
		KeysAdopted:      counter("conversation_keys_adopted_total", "Mints discarded in favour of a key another device wrote first."),
		EnvelopesOpened:  counter("key_envelopes_opened_total", "Key envelopes opened with the device private key."),
		EnvelopeFailures: counter("key_envelope_failures_total", "Key envelopes that could not be opened."),
		DecryptFailures:  counter("decrypt_failures_total", "Payloads that failed to decrypt or had no key."),
		MessagesMigrated: counter("messages_migrated_total", "Legacy plaintext messages rewritten as ciphertext."),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(m.HTTPRequests)
	reg.MustRegister(collectors.NewGoCollector())
	return m
}

func (m *Metrics) KeyMinted() {
	if m != nil {
		m.KeysMinted.Inc()
	}
}

func (m *Metrics) KeyAdopted() {
	if m != nil {
		m.KeysAdopted.Inc()
	}
}

func (m *Metrics) EnvelopeOpened() {
	if m != nil {
		m.EnvelopesOpened.Inc()
	}
}

func (m *Metrics) EnvelopeFailed() {
	if m != nil {
		m.EnvelopeFailures.Inc()
	}
}

func (m *Metrics) DecryptFailed() {
	if m != nil {
		m.DecryptFailures.Inc()
	}
}

func (m *Metrics) MessageMigrated() {
	if m != nil {
		m.MessagesMigrated.Inc()
	}
}

func (m *Metrics) Request(method, route, status string) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
