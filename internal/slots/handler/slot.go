package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"lotkeeper/internal/slots/service"
	apperrors "lotkeeper/pkg/errors"
	httputil "lotkeeper/pkg/http"
	"lotkeeper/pkg/logger"
	"lotkeeper/pkg/middleware"
	"lotkeeper/pkg/model"
)

type SlotHandler struct {
	service service.SlotService
	log     *logger.Logger
}

func NewSlotHandler(service service.SlotService, log *logger.Logger) *SlotHandler {
	return &SlotHandler{
		service: service,
		log:     log,
	}
}

func (h *SlotHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, ok := middleware.ActorFrom(r)
	if !ok || !actor.IsAdmin() {
		h.writeError(w, "Create", apperrors.Forbidden("Slot management requires ADMIN role"))
		return
	}

	var slot model.Slot
	if err := json.NewDecoder(r.Body).Decode(&slot); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("Invalid request body"))
		return
	}

	if err := h.service.CreateSlot(r.Context(), &slot); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, slot); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *SlotHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	slot, err := h.service.Lookup(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, slot); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SlotHandler) GetByLocation(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	locationID := r.URL.Query().Get("location_id")
	if locationID == "" {
		h.writeError(w, "GetByLocation", apperrors.InvalidInput("The 'location_id' query parameter is required"))
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetByLocation", err)
		return
	}

	slots, total, err := h.service.GetByLocation(r.Context(), locationID, limit, offset)
	if err != nil {
		h.writeError(w, "GetByLocation", err)
		return
	}

	if err := httputil.WritePaginated(w, slots, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetByLocation", "operation", "WritePaginated", "error", err)
	}
}

func (h *SlotHandler) Snapshot(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	snapshot, err := h.service.Snapshot(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Snapshot", err)
		return
	}

	if err := httputil.WriteSuccess(w, snapshot); err != nil {
		h.log.Error("failed to write success response", "handler", "Snapshot", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SlotHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, ok := middleware.ActorFrom(r)
	if !ok || !actor.IsAdmin() {
		h.writeError(w, "Delete", apperrors.Forbidden("Slot management requires ADMIN role"))
		return
	}

	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *SlotHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *SlotHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/slots", h.Create)
	router.GET("/api/v1/slots", h.GetByLocation)
	router.GET("/api/v1/slots/:id", h.GetByID)
	router.GET("/api/v1/slots/:id/snapshot", h.Snapshot)
	router.DELETE("/api/v1/slots/:id", h.Delete)
}
