// Package server exposes the device key directory, the key envelope store
// and the message store over HTTP.
package server

import (
	"net/http"
	"strconv"
	"time"

	"moswords/internal/device"
	"moswords/internal/envelope"
	"moswords/internal/message"
	"moswords/internal/metrics"
	"moswords/pkg/logger"

	"github.com/gorilla/mux"
)

type Handler struct {
	devices   device.DeviceUsecase
	envelopes envelope.EnvelopeUsecase
	messages  message.MessageUsecase
	metrics   *metrics.Metrics
	logger    *logger.Logger
	jwtSecret string
}

type Deps struct {
	Devices   device.DeviceUsecase
	Envelopes envelope.EnvelopeUsecase
	Messages  message.MessageUsecase
	Metrics   *metrics.Metrics
	Logger    *logger.Logger
	JWTSecret string
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		devices:   d.Devices,
		envelopes: d.Envelopes,
		messages:  d.Messages,
		metrics:   d.Metrics,
		logger:    d.Logger.Named("http"),
		jwtSecret: d.JWTSecret,
	}
}

// Router builds the route table. Everything under /v1 requires a bearer token.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(h.instrument)

	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", h.metrics.Handler()).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.Use(h.authenticate)

	v1.HandleFunc("/devices", h.registerDevice).Methods(http.MethodPost)
	v1.HandleFunc("/devices", h.listDevices).Methods(http.MethodGet)

	v1.HandleFunc("/envelopes", h.getEnvelope).Methods(http.MethodGet)
	v1.HandleFunc("/envelopes", h.putEnvelopes).Methods(http.MethodPost)

	v1.HandleFunc("/messages", h.postMessage).Methods(http.MethodPost)
	v1.HandleFunc("/messages", h.listMessages).Methods(http.MethodGet)
	v1.HandleFunc("/messages/{id}/ciphertext", h.updateCiphertext).Methods(http.MethodPut)

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// instrument counts requests by route template so ids do not explode the
// label space.
func (h *Handler) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		h.metrics.Request(r.Method, route, strconv.Itoa(rec.status))
	})
}
