// Package handlers provides HTTP request handlers for the campaign service.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"sort"

	"github.com/telhawk-systems/campaign-stack/campaign/internal/eventlog"
	"github.com/telhawk-systems/campaign-stack/campaign/internal/models"
	"github.com/telhawk-systems/campaign-stack/campaign/internal/repository"
	"github.com/telhawk-systems/campaign-stack/campaign/internal/service"
	"github.com/telhawk-systems/campaign-stack/common/execution"
	"github.com/telhawk-systems/campaign-stack/common/httputil"
	"github.com/telhawk-systems/campaign-stack/common/logging"
	"github.com/telhawk-systems/campaign-stack/common/middleware"
)

// Executor runs campaign executions.
type Executor interface {
	Execute(ctx context.Context, trigger *service.Trigger) (*service.Result, error)
}

// ContactStore records the current contact of a tracking session.
type ContactStore interface {
	SetCurrentContact(ctx context.Context, sessionID string, contact *models.Contact) error
}

// CheckFunc reports whether a dependency is ready.
type CheckFunc func(ctx context.Context) error

// Handler provides HTTP handlers for the campaign service
type Handler struct {
	exec     Executor
	contacts ContactStore
	checks   map[string]CheckFunc
	logger   *logging.Logger
}

// NewHandler creates a new Handler instance
func NewHandler(exec Executor, contacts ContactStore, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		exec:     exec,
		contacts: contacts,
		checks:   make(map[string]CheckFunc),
		logger:   logger,
	}
}

// WithCheck adds a dependency to the readiness probe.
func (h *Handler) WithCheck(name string, check CheckFunc) *Handler {
	h.checks[name] = check
	return h
}

// HealthResponse is returned by the health endpoints.
type HealthResponse struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// TriggerResponse is returned by a successful trigger.
type TriggerResponse struct {
	ExecutionID string  `json:"execution_id"`
	LogIDs      []int64 `json:"log_ids"`
	ContactIDs  []int64 `json:"contact_ids"`
}

// HealthCheck handles GET /healthz
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Service: "campaign",
	})
}

// ReadyCheck handles GET /readyz
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := HealthResponse{Status: "ready", Service: "campaign", Checks: make(map[string]string, len(names))}
	status := http.StatusOK
	for _, name := range names {
		if err := h.checks[name](r.Context()); err != nil {
			h.logger.WarnContext(r.Context(), "readiness check failed", "check", name, logging.Error(err))
			resp.Checks[name] = err.Error()
			resp.Status = "not ready"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	httputil.WriteJSON(w, status, resp)
}

// Trigger handles POST /api/v1/events/trigger. Requests made through the API
// are user-initiated.
func (h *Handler) Trigger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var trigger service.Trigger
	if err := httputil.DecodeJSON(r, &trigger); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := execution.WithSystemTriggered(r.Context(), false)
	result, err := h.exec.Execute(ctx, &trigger)
	if err != nil {
		h.writeExecutionError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, TriggerResponse{
		ExecutionID: result.ExecutionID,
		LogIDs:      result.LogIDs,
		ContactIDs:  result.ContactIDs,
	})
}

// CurrentContact handles PUT /api/v1/contacts/current for the session named
// by the X-Session-ID header.
func (h *Handler) CurrentContact(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	sessionID := middleware.GetSessionID(r.Context())
	if sessionID == "" {
		httputil.WriteError(w, http.StatusBadRequest, middleware.SessionIDHeader+" header required")
		return
	}

	var contact models.Contact
	if err := httputil.DecodeJSON(r, &contact); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if contact.ID <= 0 {
		httputil.WriteError(w, http.StatusUnprocessableEntity, "contact id must be positive")
		return
	}

	if err := h.contacts.SetCurrentContact(r.Context(), sessionID, &contact); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to store current contact",
			logging.ContactID(contact.ID),
			logging.Error(err),
		)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to store current contact")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeExecutionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, eventlog.ErrMissingContact):
		httputil.WriteError(w, http.StatusBadRequest, "no contact given and no current contact for session")
	case errors.Is(err, eventlog.ErrInvalidEvent), errors.Is(err, repository.ErrIncompleteLog):
		httputil.WriteError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, repository.ErrDuplicateLog):
		httputil.WriteError(w, http.StatusConflict, "event already logged for contact")
	default:
		h.logger.ErrorContext(r.Context(), "trigger failed", logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}
