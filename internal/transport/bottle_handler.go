package transport

import (
	"net/http"

	"winecellar/internal/middleware"
	"winecellar/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateBottleRequest represents the catalog creation payload. When ShelfID
// is present the bottles are placed in the same call.
type CreateBottleRequest struct {
	Domain   string  `json:"domain" validate:"required"`
	Name     string  `json:"name" validate:"required"`
	WineType string  `json:"wine_type" validate:"required"`
	Vintage  int     `json:"vintage" validate:"required,gte=1800,lte=2100"`
	Region   string  `json:"region" validate:"required"`
	Price    float64 `json:"price" validate:"gte=0"`
	ImageURL *string `json:"image_url,omitempty" validate:"omitempty,url"`

	ShelfID  *string `json:"shelf_id,omitempty" validate:"omitempty,uuid"`
	Quantity *int    `json:"quantity,omitempty" validate:"omitempty,gte=1"`
	Slot     *int    `json:"slot,omitempty"`
}

// CreateReviewRequest represents the review payload. Score and comment are
// each optional but at least one must be present.
type CreateReviewRequest struct {
	Score   *float64 `json:"score,omitempty" validate:"omitempty,gte=0,lte=20"`
	Comment *string  `json:"comment,omitempty"`
}

// BottleHandler handles HTTP requests for the catalog and reviews
type BottleHandler struct {
	bottleService service.BottleService
	reviewService service.ReviewService
	logger        *zap.Logger
}

// NewBottleHandler creates a new BottleHandler
func NewBottleHandler(bottleService service.BottleService, reviewService service.ReviewService, logger *zap.Logger) *BottleHandler {
	return &BottleHandler{
		bottleService: bottleService,
		reviewService: reviewService,
		logger:        logger,
	}
}

// RegisterRoutes registers catalog and review routes
func (h *BottleHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/bottles", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.ListRefs)
		r.Post("/", h.Create)
		r.Get("/{bottleID}", h.Get)
		r.Post("/{bottleID}/reviews", h.AddReview)
	})

	r.Route("/api/reviews", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/community", h.Community)
	})
}

// ListRefs returns the light catalog projection for pickers
func (h *BottleHandler) ListRefs(w http.ResponseWriter, r *http.Request) {
	refs, err := h.bottleService.ListRefs(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, refs)
}

// Create adds a bottle to the catalog, optionally placing it on a shelf in
// the same request
func (h *BottleHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateBottleRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := service.CreateBottleInput{
		Domain:   req.Domain,
		Name:     req.Name,
		WineType: req.WineType,
		Vintage:  req.Vintage,
		Region:   req.Region,
		Price:    req.Price,
		ImageURL: req.ImageURL,
	}

	if req.ShelfID == nil {
		bottle, err := h.bottleService.Create(r.Context(), input)
		if err != nil {
			respondServiceError(w, h.logger, err)
			return
		}

		h.logger.Info("Bottle created", zap.String("bottle_id", bottle.ID.String()))
		middleware.RespondWithJSON(w, http.StatusCreated, bottle)
		return
	}

	if req.Quantity == nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "quantity is required when placing")
		return
	}

	shelfID, _ := uuid.Parse(*req.ShelfID)
	bottle, lot, err := h.bottleService.CreateAndPlace(r.Context(), userID, input, shelfID, *req.Quantity, req.Slot)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Bottle created and placed",
		zap.String("bottle_id", bottle.ID.String()),
		zap.String("lot_id", lot.ID.String()),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"bottle": bottle,
		"lot":    lot,
	})
}

// Get returns a bottle with its average score and reviews
func (h *BottleHandler) Get(w http.ResponseWriter, r *http.Request) {
	bottleID, err := uuid.Parse(chi.URLParam(r, "bottleID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid bottle ID")
		return
	}

	detail, err := h.bottleService.Get(r.Context(), bottleID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, detail)
}

// AddReview records a review on a bottle
func (h *BottleHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	bottleID, err := uuid.Parse(chi.URLParam(r, "bottleID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid bottle ID")
		return
	}

	var req CreateReviewRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Score == nil && req.Comment == nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "a score or a comment is required")
		return
	}

	review, err := h.reviewService.Add(r.Context(), userID, bottleID, req.Score, req.Comment)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Review added",
		zap.String("review_id", review.ID.String()),
		zap.String("bottle_id", bottleID.String()),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, review)
}

// Community returns the cross-user review feed, optionally filtered by the
// search query parameter
func (h *BottleHandler) Community(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviewService.Community(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, reviews)
}
