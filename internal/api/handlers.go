package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/punchamoorthee/referralops/internal/domain"
	"github.com/punchamoorthee/referralops/internal/service"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "referral_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "endpoint", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "referral_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"method", "endpoint"})

	registrationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "referral_registrations_total",
		Help: "Accounts created successfully",
	})

	redemptionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "referral_redemptions_total",
		Help: "Referral codes redeemed successfully",
	})
)

type Handler struct {
	service *service.Service
	log     *logrus.Logger
}

func NewHandler(svc *service.Service, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.New()
	}
	return &Handler{service: svc, log: log}
}

// Routes builds the full router, shared by cmd/api and the handler
// tests.
func (h *Handler) Routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(corsMiddleware)

	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/health", h.HealthCheckHandler).Methods("GET")

	apiV1 := r.PathPrefix("/api/v1").Subrouter()
	apiV1.HandleFunc("/register", h.RegisterHandler).Methods("POST")
	apiV1.HandleFunc("/login", h.LoginHandler).Methods("POST")
	apiV1.HandleFunc("/apply-referral", h.ApplyReferralHandler).Methods("POST")
	apiV1.HandleFunc("/profile", h.ProfileHandler).Methods("GET")
	return r
}

func (h *Handler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"}, "GET", "/health")
}

func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/register"))
	defer timer.ObserveDuration()

	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Malformed JSON body", "POST", "/register")
		return
	}

	view, err := h.service.Register(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, err, "POST", "/register")
		return
	}

	registrationsTotal.Inc()
	h.respondJSON(w, http.StatusCreated, map[string]any{
		"message": "Registered successfully",
		"user":    view,
	}, "POST", "/register")
}

func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/login"))
	defer timer.ObserveDuration()

	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Malformed JSON body", "POST", "/login")
		return
	}

	view, err := h.service.Login(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, err, "POST", "/login")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{"user": view}, "POST", "/login")
}

func (h *Handler) ApplyReferralHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/apply-referral"))
	defer timer.ObserveDuration()

	var req domain.ApplyReferralRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Malformed JSON body", "POST", "/apply-referral")
		return
	}

	resp, err := h.service.ApplyReferral(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, err, "POST", "/apply-referral")
		return
	}

	redemptionsTotal.Inc()
	h.respondJSON(w, http.StatusOK, resp, "POST", "/apply-referral")
}

func (h *Handler) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		h.respondError(w, http.StatusBadRequest, "email query parameter required", "GET", "/profile")
		return
	}

	profile, err := h.service.Profile(r.Context(), email)
	if err != nil {
		h.respondServiceError(w, err, "GET", "/profile")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{"user": profile}, "GET", "/profile")
}

// respondServiceError maps service errors onto the wire. User-input
// and business-rule errors keep their specific message; infrastructure
// errors are logged and surfaced generically.
func (h *Handler) respondServiceError(w http.ResponseWriter, err error, method, endpoint string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		h.respondError(w, http.StatusBadRequest, err.Error(), method, endpoint)
	case errors.Is(err, service.ErrDuplicateEmail):
		h.respondError(w, http.StatusConflict, "Email already registered", method, endpoint)
	case errors.Is(err, service.ErrNotFound):
		h.respondError(w, http.StatusNotFound, "User not found", method, endpoint)
	case errors.Is(err, service.ErrInvalidCode):
		h.respondError(w, http.StatusUnprocessableEntity, "Invalid referral code", method, endpoint)
	case errors.Is(err, service.ErrSelfReferral):
		h.respondError(w, http.StatusUnprocessableEntity, "You cannot use your own referral code", method, endpoint)
	case errors.Is(err, service.ErrAlreadyRedeemed):
		h.respondError(w, http.StatusConflict, "Referral already applied", method, endpoint)
	case errors.Is(err, service.ErrInvalidCredentials):
		h.respondError(w, http.StatusUnauthorized, "Invalid email or password", method, endpoint)
	default:
		// Covers code exhaustion and storage failures: never leak
		// internal detail to the client.
		h.log.WithError(err).WithField("endpoint", endpoint).Error("request failed")
		h.respondError(w, http.StatusInternalServerError, "Internal Server Error", method, endpoint)
	}
}

func (h *Handler) respondJSON(w http.ResponseWriter, code int, payload any, method, endpoint string) {
	httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(code)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, code int, message, method, endpoint string) {
	h.respondJSON(w, code, map[string]string{"error": message}, method, endpoint)
}
