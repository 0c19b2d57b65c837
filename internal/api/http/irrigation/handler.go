package irrigation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/handlers"
	"go.uber.org/zap"

	domain "github.com/oshokin/irrigation/internal/domain/irrigation"
	"github.com/oshokin/irrigation/internal/logger"
	"github.com/oshokin/irrigation/internal/telemetry"
)

// Controller abstracts the operations the transport depends on.
type Controller interface {
	Snapshot() domain.Snapshot
	ToggleDevice(ctx context.Context, name string) error
	UpdateSchedule(ctx context.Context, name string, startOffsetSeconds, durationSeconds uint32) error
	ToggleManualMode(ctx context.Context) bool
	SyncClock(ctx context.Context, clientEpochSeconds int64) int64
}

// Option configures the handler.
type Option func(*Handler)

// WithMetrics serves the Prometheus registry on /metrics.
func WithMetrics(enabled bool) Option {
	return func(h *Handler) {
		h.metrics = enabled
	}
}

// WithLogger sets the logger attached to every request context.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

// Handler routes HTTP requests to a Controller.
type Handler struct {
	controller Controller
	log        *zap.SugaredLogger
	metrics    bool
}

// NewHandler builds the router. The returned handler adds
// Access-Control-Allow-Origin: * to every cross-origin response.
func NewHandler(controller Controller, opts ...Option) http.Handler {
	h := &Handler{
		controller: controller,
		log:        logger.Logger(),
	}

	for _, opt := range opts {
		opt(h)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.observe)

	r.Get("/", h.index)
	r.Get("/healthz", h.healthz)

	if h.metrics {
		r.Method(http.MethodGet, "/metrics", telemetry.Handler())
	}

	r.Get("/get_info", h.legacyInfo)
	r.Get("/toggle/manual_mode", h.legacyToggleManualMode)
	r.Get("/toggle/{name}", h.legacyToggleDevice)
	r.Get("/update_aspersor/{name}", h.legacyUpdateSchedule)
	r.Get("/set_time", h.legacySetTime)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", h.status)
		r.Post("/devices/{name}/toggle", h.toggleDevice)
		r.Put("/devices/{name}/schedule", h.updateSchedule)
		r.Post("/mode/toggle", h.toggleManualMode)
		r.Post("/clock/sync", h.syncClock)
	})

	return handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(r)
}

// observe attaches the logger, counts the request and logs it at debug level.
func (h *Handler) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ctx := logger.ToContext(r.Context(), h.log.With("request_id", middleware.GetReqID(r.Context())))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(ctx))

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}

		telemetry.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(code)).Inc()
		logger.DebugKV(ctx, "HTTP request served",
			"method", r.Method,
			"route", route,
			"status", code,
			"duration", time.Since(started))
	})
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (h *Handler) legacyInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, toLegacyInfo(h.controller.Snapshot()))
}

func (h *Handler) legacyToggleManualMode(w http.ResponseWriter, r *http.Request) {
	h.controller.ToggleManualMode(r.Context())
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (h *Handler) legacyToggleDevice(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.ToggleDevice(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeJSON(w, statusFor(err), okResponse{OK: false})
		return
	}

	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (h *Handler) legacyUpdateSchedule(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	err := h.controller.UpdateSchedule(r.Context(), chi.URLParam(r, "name"),
		QueryU32(query, "init_time"),
		QueryU32(query, "duration"))
	if err != nil {
		writeJSON(w, statusFor(err), okResponse{OK: false})
		return
	}

	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (h *Handler) legacySetTime(w http.ResponseWriter, r *http.Request) {
	h.controller.SyncClock(r.Context(), QueryI64(r.URL.Query(), "timestamp"))
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (h *Handler) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, toStatusResponse(h.controller.Snapshot()))
}

func (h *Handler) toggleDevice(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := h.controller.ToggleDevice(r.Context(), name); err != nil {
		writeError(w, err)
		return
	}

	snapshot := h.controller.Snapshot()
	state, _ := snapshot.Device(name)

	writeJSON(w, http.StatusOK, DeviceToggleResponse{Name: name, On: state.IsOn})
}

func (h *Handler) updateSchedule(w http.ResponseWriter, r *http.Request) {
	var req ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid schedule body"})
		return
	}

	name := chi.URLParam(r, "name")
	if err := h.controller.UpdateSchedule(r.Context(), name, req.StartSeconds, req.DurationSeconds); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) toggleManualMode(w http.ResponseWriter, r *http.Request) {
	manual := h.controller.ToggleManualMode(r.Context())
	writeJSON(w, http.StatusOK, ModeResponse{Mode: domain.Mode(manual).String(), ManualMode: manual})
}

func (h *Handler) syncClock(w http.ResponseWriter, r *http.Request) {
	var req ClockSyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid clock body"})
		return
	}

	writeJSON(w, http.StatusOK, ClockSyncResponse{Offset: h.controller.SyncClock(r.Context(), req.Epoch)})
}

func statusFor(err error) int {
	if errors.Is(err, domain.ErrNotFound) {
		return http.StatusNotFound
	}

	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
