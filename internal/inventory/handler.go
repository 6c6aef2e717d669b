package inventory

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fids-maurice/expostand/internal/shared"
	"github.com/fids-maurice/expostand/internal/standtypes"
)

// Handler exposes the catalog and the availability projection.
type Handler struct {
	logger  *slog.Logger
	service *Service
	catalog *standtypes.Catalog
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, catalog *standtypes.Catalog) *Handler {
	return &Handler{logger: logger, service: service, catalog: catalog}
}

// MountRoutes attaches stand-type routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/stand-types", h.ListStandTypes)
	r.Get("/stand-types/{id}/availability", h.StandTypeAvailability)
	r.Get("/availability", h.Availability)
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// ListStandTypes handles GET /stand-types.
func (h *Handler) ListStandTypes(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.catalog.List())
}

// StandTypeAvailability handles GET /stand-types/{id}/availability.
func (h *Handler) StandTypeAvailability(w http.ResponseWriter, r *http.Request) {
	avail, err := h.service.Availability(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.Error(w, "unknown stand type", http.StatusNotFound)
			return
		}
		h.logger.Error("availability failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.respondJSON(w, http.StatusOK, avail)
}

// Availability handles GET /availability.
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.Snapshot(r.Context())
	if err != nil {
		h.logger.Error("availability snapshot failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.respondJSON(w, http.StatusOK, snapshot)
}
