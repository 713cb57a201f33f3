package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/abelzeko/people-counter/internal/usecases"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPServer exposes the people use case over HTTP and hosts the echo WebSocket
type HTTPServer struct {
	useCase *usecases.PeopleUseCase
	timeout time.Duration
	metrics *Metrics
	echo    *EchoHandler
}

// NewHTTPServer creates a new HTTP handler set. Each request against the
// store is given timeout to complete.
func NewHTTPServer(useCase *usecases.PeopleUseCase, timeout time.Duration, metrics *Metrics) *HTTPServer {
	return &HTTPServer{
		useCase: useCase,
		timeout: timeout,
		metrics: metrics,
		echo:    NewEchoHandler(),
	}
}

// DayRequest is the body of the day-scoped queries
type DayRequest struct {
	Date string `json:"date"`
}

// NewDataRequest is the body of /new_data
type NewDataRequest struct {
	NbPeople *int32  `json:"nb_people"`
	Source   *string `json:"source"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Router builds the route table
func (s *HTTPServer) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Hello, World!"))
	})
	r.Get("/web_socket", s.echo.ServeHTTP)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(s.withDeadline)
		r.Get("/get_people/{nb}", s.handleLatest)
		r.Post("/get_day", s.handleDay)
		r.Get("/get_today", s.handleToday)
		r.Get("/get_yesterday", s.handleYesterday)
		r.Post("/get_hourly", s.handleHourly)
		r.Post("/new_data", s.handleNewData)
	})

	return r
}

// withDeadline bounds the request context. An expired deadline surfaces from
// the store as an unavailable error, so no response is written here.
func (s *HTTPServer) withDeadline(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.timeout <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *HTTPServer) handleLatest(w http.ResponseWriter, r *http.Request) {
	nb, err := strconv.Atoi(chi.URLParam(r, "nb"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid number of people requested"})
		return
	}

	items, err := s.useCase.Latest(r.Context(), nb)
	if err != nil {
		respondError(w, err, "Failed to get item")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *HTTPServer) handleDay(w http.ResponseWriter, r *http.Request) {
	var req DayRequest
	if !decodeBody(w, r, &req) {
		return
	}

	items, err := s.useCase.Day(r.Context(), req.Date)
	if err != nil {
		respondError(w, err, "Failed to get people for the day")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *HTTPServer) handleToday(w http.ResponseWriter, r *http.Request) {
	items, err := s.useCase.Today(r.Context())
	if err != nil {
		respondError(w, err, "Failed to get people for today")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *HTTPServer) handleYesterday(w http.ResponseWriter, r *http.Request) {
	items, err := s.useCase.Yesterday(r.Context())
	if err != nil {
		respondError(w, err, "Failed to get people for yesterday")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *HTTPServer) handleHourly(w http.ResponseWriter, r *http.Request) {
	var req DayRequest
	if !decodeBody(w, r, &req) {
		return
	}

	items, err := s.useCase.HourlyTotals(r.Context(), req.Date)
	if err != nil {
		respondError(w, err, "Failed to get hourly totals for the day")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *HTTPServer) handleNewData(w http.ResponseWriter, r *http.Request) {
	var req NewDataRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.NbPeople == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "nb_people is required"})
		return
	}

	item, err := s.useCase.Record(r.Context(), *req.NbPeople, req.Source)
	if err != nil {
		respondError(w, err, "Failed to create item")
		return
	}
	s.metrics.ObservationRecorded()
	writeJSON(w, http.StatusCreated, item)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		log.Printf("Error decoding request body: %v", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return false
	}
	return true
}

// respondError maps use case errors: malformed input is the caller's fault,
// anything else is reported as a server failure with a generic message.
func respondError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, usecases.ErrInvalidArgument) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	log.Printf("%s: %v", msg, err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// Metrics holds the Prometheus collectors of the HTTP server
type Metrics struct {
	registry     *prometheus.Registry
	requests     *prometheus.CounterVec
	observations prometheus.Counter
}

// NewMetrics registers the server collectors on a fresh registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "people_counter",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status code.",
		}, []string{"route", "code"}),
		observations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "people_counter",
			Name:      "observations_recorded_total",
			Help:      "Observations appended through the HTTP API.",
		}),
	}
	m.registry.MustRegister(m.requests, m.observations)
	return m
}

// Middleware counts requests once the route pattern is known
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	})
}

// ObservationRecorded counts one appended observation
func (m *Metrics) ObservationRecorded() {
	m.observations.Inc()
}
