package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"lotkeeper/internal/locations/service"
	apperrors "lotkeeper/pkg/errors"
	httputil "lotkeeper/pkg/http"
	"lotkeeper/pkg/logger"
	"lotkeeper/pkg/middleware"
	"lotkeeper/pkg/model"
)

type LocationHandler struct {
	service service.LocationService
	log     *logger.Logger
}

func NewLocationHandler(service service.LocationService, log *logger.Logger) *LocationHandler {
	return &LocationHandler{
		service: service,
		log:     log,
	}
}

func (h *LocationHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := h.requireAdmin(r); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	var location model.Location
	if err := json.NewDecoder(r.Body).Decode(&location); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("Invalid request body"))
		return
	}

	if err := h.service.Create(r.Context(), &location); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, location); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *LocationHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	location, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, location); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *LocationHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	locations, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, locations, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *LocationHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.requireAdmin(r); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	var updates model.LocationUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		h.writeError(w, "Update", apperrors.InvalidInput("Invalid request body"))
		return
	}

	if err := h.service.Update(r.Context(), ps.ByName("id"), &updates); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *LocationHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.requireAdmin(r); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *LocationHandler) Availability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	availability, err := h.service.Availability(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}

	if err := httputil.WriteSuccess(w, availability); err != nil {
		h.log.Error("failed to write success response", "handler", "Availability", "operation", "WriteSuccess", "error", err)
	}
}

func (h *LocationHandler) requireAdmin(r *http.Request) error {
	actor, ok := middleware.ActorFrom(r)
	if !ok || !actor.IsAdmin() {
		return apperrors.Forbidden("Location management requires ADMIN role")
	}
	return nil
}

func (h *LocationHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *LocationHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/locations", h.Create)
	router.GET("/api/v1/locations", h.GetAll)
	router.GET("/api/v1/locations/:id", h.GetByID)
	router.PATCH("/api/v1/locations/:id", h.Update)
	router.DELETE("/api/v1/locations/:id", h.Delete)
	router.GET("/api/v1/locations/:id/availability", h.Availability)
}
