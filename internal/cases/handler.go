package cases

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/JaimeStill/patentbot/internal/documents"
	"github.com/JaimeStill/patentbot/pkg/handlers"
	"github.com/JaimeStill/patentbot/pkg/pagination"
	"github.com/JaimeStill/patentbot/pkg/routes"
)

// Handler provides HTTP endpoints for case operations.
type Handler struct {
	sys           System
	logger        *slog.Logger
	pagination    pagination.Config
	maxUploadSize int64
}

// SearchRequest combines pagination and filter criteria for the search endpoint.
type SearchRequest struct {
	pagination.PageRequest
	Filters
}

// NewHandler creates a Handler with the given system, logger, pagination config, and upload size limit.
func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
	maxUploadSize int64,
) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "cases"),
		pagination:    pagination,
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route group definition for case endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/cases",
		Tags:   []string{"Cases"},
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List, OpenAPI: Spec.List},
			{Method: "POST", Pattern: "", Handler: h.Create, OpenAPI: Spec.Create},
			{Method: "POST", Pattern: "/search", Handler: h.Search, OpenAPI: Spec.Search},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find, OpenAPI: Spec.Find},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete, OpenAPI: Spec.Delete},
			{Method: "POST", Pattern: "/{id}/run", Handler: h.Run, OpenAPI: Spec.Run},
			{Method: "GET", Pattern: "/{id}/progress", Handler: h.Progress, OpenAPI: Spec.Progress},
		},
	}
}

// List returns a paginated list of cases with optional query parameter filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Search accepts a JSON body with pagination and filter criteria and returns matching cases.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	req, err := handlers.DecodeJSON[SearchRequest](r, true)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	req.PageRequest.Normalize(h.pagination)

	result, err := h.sys.List(r.Context(), req.PageRequest, req.Filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns a single case with its record.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathUUID(r, "id")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	c, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, c)
}

// Create processes the multipart intake form of a new case. Files are sent
// in fields named after their role; prior_art may repeat.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, documents.ErrFileTooLarge)
		return
	}

	cmd := CreateCommand{
		Title: r.FormValue("title"),
		Mode:  Mode(r.FormValue("mode")),
	}

	for _, role := range documents.Roles() {
		headers := r.MultipartForm.File[string(role)]
		if len(headers) > 1 && role != documents.RolePriorArt {
			err := fmt.Errorf("%w: more than one %s file", documents.ErrInvalidFile, role)
			handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
			return
		}

		for i, fh := range headers {
			f, err := documents.ReadFile(h.logger, role, i, fh)
			if err != nil {
				handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
				return
			}
			cmd.Files = append(cmd.Files, f)
		}
	}

	intake, err := h.sys.Create(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, intake)
}

// Delete removes a case with its documents and session.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathUUID(r, "id")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	if err := h.sys.Delete(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Run executes or resumes the pipeline of a case. With
// Accept: application/x-ndjson the progress events are streamed as they
// happen; otherwise the updated case is returned when the run ends.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathUUID(r, "id")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	if !handlers.WantsNDJSON(r) {
		c, err := h.sys.Run(r.Context(), id, nil)
		if err != nil {
			handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
			return
		}
		handlers.RespondJSON(w, http.StatusOK, c)
		return
	}

	// the stream opens on the first event so errors raised before the
	// run starts still get their own status
	var nd *handlers.NDJSONWriter
	write := func(ev Event) {
		if nd == nil {
			nd = handlers.NewNDJSONWriter(w, http.StatusOK)
		}
		if err := nd.Write(ev); err != nil {
			h.logger.Debug("progress write failed", "case_id", id, "error", err)
		}
	}

	c, err := h.sys.Run(r.Context(), id, write)
	if nd != nil {
		return
	}
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	write(Event{CaseID: id, Type: EventCompleted, Stage: c.Stage, Time: time.Now().UTC()})
}

// Progress returns the events of the latest run of a case.
func (h *Handler) Progress(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathUUID(r, "id")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	events, err := h.sys.Progress(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, events)
}
