package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/availability"
	"github.com/hackgods/clinic-scheduling/internal/clinic"
	"github.com/hackgods/clinic-scheduling/internal/slot"
)

// Arbiter is the booking surface the handlers drive.
type Arbiter = appointment.Arbiter

// Calendar is the weekly availability surface the handlers drive.
type Calendar interface {
	SetTemplate(ctx context.Context, doctorID uuid.UUID, weekday time.Weekday, window slot.Interval, slotDurationMinutes int) (*availability.Template, error)
	ListTemplates(ctx context.Context, doctorID uuid.UUID) ([]availability.Template, error)
	GetTemplateByID(ctx context.Context, id uuid.UUID) (*availability.Template, error)
	DeleteTemplate(ctx context.Context, id uuid.UUID) error
}

type RouterConfig struct {
	Arbiter   Arbiter
	Calendar  Calendar
	Directory clinic.Directory
	Auth      *Authenticator
	Logger    *zap.Logger
	Observer  HTTPObserver
	Metrics   http.Handler
	Checks    []Check
	Env       string
	Version   string
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger, cfg.Observer))
	r.Use(middleware.Recoverer)

	// Health endpoints
	health := NewHealthHandler(cfg.Checks, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(cfg.Auth.Authenticate)

		// Directory
		r.With(RequireRoles(RoleAdmin)).Post("/doctors", createDoctorHandler(cfg.Directory))
		r.Get("/doctors/{doctorID}", getDoctorHandler(cfg.Directory))
		r.With(RequireRoles(RoleAdmin)).Delete("/doctors/{doctorID}", deleteDoctorHandler(cfg.Directory))
		r.With(RequireRoles(RoleAdmin)).Post("/patients", createPatientHandler(cfg.Directory))
		r.Get("/patients/{patientID}", getPatientHandler(cfg.Directory))

		// Availability
		r.With(RequireRoles(RoleDoctor, RoleAdmin)).Put("/doctors/{doctorID}/availability", setAvailabilityHandler(cfg.Calendar))
		r.Get("/doctors/{doctorID}/availability", listAvailabilityHandler(cfg.Calendar))
		r.With(RequireRoles(RoleDoctor, RoleAdmin)).Delete("/availability/{id}", deleteAvailabilityHandler(cfg.Calendar))
		r.Get("/doctors/{doctorID}/slots", listSlotsHandler(cfg.Arbiter))

		// Appointments
		r.With(RequireRoles(RolePatient, RoleAdmin)).Post("/appointments", bookAppointmentHandler(cfg.Arbiter))
		r.Get("/appointments/{id}", getAppointmentHandler(cfg.Arbiter))
		r.With(RequireRoles(RolePatient, RoleAdmin)).Post("/appointments/{id}/cancel", cancelAppointmentHandler(cfg.Arbiter))
		r.With(RequireRoles(RoleDoctor, RoleAdmin)).Post("/appointments/{id}/complete", completeAppointmentHandler(cfg.Arbiter))
		r.Get("/patients/{patientID}/appointments", listPatientAppointmentsHandler(cfg.Arbiter))
		r.Get("/doctors/{doctorID}/appointments", listDoctorAppointmentsHandler(cfg.Arbiter))
	})

	return r
}
