package resolution

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/patentbot/pkg/handlers"
	"github.com/JaimeStill/patentbot/pkg/routes"
)

// Handler provides HTTP endpoints for resolution sessions.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "resolution"),
	}
}

// Routes returns the route group definition for session endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Tags: []string{"Sessions"},
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/cases/{id}/session", Handler: h.Start, OpenAPI: Spec.Start},
			{Method: "GET", Pattern: "/sessions/{id}", Handler: h.Present, OpenAPI: Spec.Present},
			{Method: "POST", Pattern: "/sessions/{id}/select", Handler: h.Select, OpenAPI: Spec.Select},
			{Method: "POST", Pattern: "/sessions/{id}/confirm", Handler: h.Confirm, OpenAPI: Spec.Confirm},
			{Method: "POST", Pattern: "/sessions/{id}/finalize", Handler: h.Finalize, OpenAPI: Spec.Finalize},
		},
	}
}

// Start creates the resolution session for a case, or returns the existing one.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	caseID, err := handlers.PathUUID(r, "id")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	s, err := h.sys.Start(r.Context(), caseID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, s)
}

// Present returns the current claim, or the draft once generated.
func (h *Handler) Present(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathUUID(r, "id")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	p, err := h.sys.Present(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, p)
}

// Select stages a disposition for the current claim.
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathUUID(r, "id")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	cmd, err := handlers.DecodeJSON[SelectCommand](r, false)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	p, err := h.sys.Select(r.Context(), id, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, p)
}

// Confirm commits the staged disposition and advances to the next claim.
// Confirming the last claim triggers draft generation.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathUUID(r, "id")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	cmd, err := handlers.DecodeJSON[ConfirmCommand](r, false)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	p, err := h.sys.Confirm(r.Context(), id, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, p)
}

// Finalize generates the draft for a fully resolved session.
func (h *Handler) Finalize(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathUUID(r, "id")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	p, err := h.sys.Finalize(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, p)
}
