package transport

import (
	"net/http"

	"winecellar/internal/middleware"
	"winecellar/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateShelfRequest represents the shelf creation payload. Name is optional
// and defaults server-side.
type CreateShelfRequest struct {
	Name     string `json:"name"`
	Capacity int    `json:"capacity" validate:"required,gte=1,lte=200"`
}

// PlaceRequest represents the placement payload. Slot is optional: absent
// means take the lowest free slot.
type PlaceRequest struct {
	ShelfID  string `json:"shelf_id" validate:"required,uuid"`
	BottleID string `json:"bottle_id" validate:"required,uuid"`
	Quantity int    `json:"quantity" validate:"required,gte=1"`
	Slot     *int   `json:"slot,omitempty"`
}

// ReslotRequest represents the slot reassignment payload
type ReslotRequest struct {
	Slot *int `json:"slot,omitempty"`
}

// ConsumeRequest represents the removal payload. Motif defaults to consumed.
type ConsumeRequest struct {
	Quantity int    `json:"quantity" validate:"required,gte=1"`
	Motif    string `json:"motif" validate:"omitempty,oneof=consumed gifted broken"`
}

// CellarHandler handles HTTP requests for the shelf registry and the lot
// ledger
type CellarHandler struct {
	shelfService service.ShelfService
	stockService service.StockService
	logger       *zap.Logger
}

// NewCellarHandler creates a new CellarHandler
func NewCellarHandler(shelfService service.ShelfService, stockService service.StockService, logger *zap.Logger) *CellarHandler {
	return &CellarHandler{
		shelfService: shelfService,
		stockService: stockService,
		logger:       logger,
	}
}

// RegisterRoutes registers all cellar routes, every one behind auth
func (h *CellarHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/cellar", func(r chi.Router) {
		r.Use(authMiddleware)

		r.Route("/shelves", func(r chi.Router) {
			r.Get("/", h.ListShelves)
			r.Post("/", h.CreateShelf)
			r.Get("/{shelfID}/capacity", h.ShelfCapacity)
			r.Delete("/{shelfID}", h.DeleteShelf)
		})

		r.Route("/stock", func(r chi.Router) {
			r.Get("/", h.ListStock)
			r.Post("/", h.Place)
			r.Get("/unassigned", h.ListUnassigned)
			r.Get("/{lotID}", h.GetLot)
			r.Patch("/{lotID}/slot", h.Reslot)
			r.Post("/{lotID}/consume", h.Consume)
		})

		r.Get("/history", h.History)
	})
}

// ListShelves returns the user's shelves with remaining capacity
func (h *CellarHandler) ListShelves(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	shelves, err := h.shelfService.List(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, shelves)
}

// CreateShelf adds a shelf to the user's cellar
func (h *CellarHandler) CreateShelf(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateShelfRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	shelf, err := h.shelfService.Create(r.Context(), userID, req.Name, req.Capacity)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Shelf created",
		zap.String("shelf_id", shelf.ID.String()),
		zap.Int("capacity", shelf.Capacity),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, shelf)
}

// ShelfCapacity returns the remaining capacity of one shelf
func (h *CellarHandler) ShelfCapacity(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	shelfID, err := uuid.Parse(chi.URLParam(r, "shelfID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid shelf ID")
		return
	}

	left, err := h.shelfService.CapacityLeft(r.Context(), userID, shelfID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]int{"capacity_left": left})
}

// DeleteShelf removes a shelf when it no longer holds any bottles
func (h *CellarHandler) DeleteShelf(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	shelfID, err := uuid.Parse(chi.URLParam(r, "shelfID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid shelf ID")
		return
	}

	if err := h.shelfService.DeleteIfEmpty(r.Context(), userID, shelfID); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Shelf deleted", zap.String("shelf_id", shelfID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "shelf deleted"})
}

// ListStock returns the user's full stock across shelves
func (h *CellarHandler) ListStock(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	entries, err := h.stockService.ListForOwner(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, entries)
}

// ListUnassigned returns the user's lots that still wait for a slot
func (h *CellarHandler) ListUnassigned(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	entries, err := h.stockService.ListUnassigned(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, entries)
}

// Place stores bottles on a shelf
func (h *CellarHandler) Place(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req PlaceRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	shelfID, _ := uuid.Parse(req.ShelfID)
	bottleID, _ := uuid.Parse(req.BottleID)

	lot, err := h.stockService.Place(r.Context(), userID, shelfID, bottleID, req.Quantity, req.Slot)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Bottles placed",
		zap.String("lot_id", lot.ID.String()),
		zap.String("shelf_id", shelfID.String()),
		zap.Int("quantity", req.Quantity),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, lot)
}

// GetLot returns the current state of one lot
func (h *CellarHandler) GetLot(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	lotID, err := uuid.Parse(chi.URLParam(r, "lotID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid lot ID")
		return
	}

	lot, err := h.stockService.Get(r.Context(), userID, lotID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, lot)
}

// Reslot reassigns a lot's slot
func (h *CellarHandler) Reslot(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	lotID, err := uuid.Parse(chi.URLParam(r, "lotID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid lot ID")
		return
	}

	var req ReslotRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lot, err := h.stockService.Reslot(r.Context(), userID, lotID, req.Slot)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, lot)
}

// Consume removes bottles from a lot and records the removal
func (h *CellarHandler) Consume(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	lotID, err := uuid.Parse(chi.URLParam(r, "lotID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid lot ID")
		return
	}

	var req ConsumeRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	record, err := h.stockService.Consume(r.Context(), userID, lotID, req.Quantity, req.Motif)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Bottles removed",
		zap.String("lot_id", lotID.String()),
		zap.Int("quantity", record.Quantity),
		zap.String("motif", record.Motif),
	)
	middleware.RespondWithJSON(w, http.StatusOK, record)
}

// History returns the user's removal archive, newest first
func (h *CellarHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	entries, err := h.stockService.History(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, entries)
}
