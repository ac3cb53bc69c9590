package rest

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/heartmarshall/estate-backend/internal/domain"
	listingsvc "github.com/heartmarshall/estate-backend/internal/service/listing"
)

// listingService defines the operations ListingHandler needs.
type listingService interface {
	Create(ctx context.Context, payload domain.ListingPayload) (*domain.Listing, error)
	Replace(ctx context.Context, slug string, payload domain.ListingPayload) (*domain.Listing, error)
	Delete(ctx context.Context, slug string) error
	GetBySlug(ctx context.Context, slug string) (*domain.Listing, error)
	List(ctx context.Context, filter domain.ListingFilter) ([]domain.ListingSummary, error)
	Count(ctx context.Context, filter domain.ListingFilter) (int, error)
	AppendImages(ctx context.Context, slug string, images []domain.ImageRef) (*domain.Listing, error)
	RemoveImage(ctx context.Context, slug, url string) (*domain.Listing, error)
	ReorderImages(ctx context.Context, slug string, from, to int) (*domain.Listing, error)
	SetPrimaryImage(ctx context.Context, slug, url string) (*domain.Listing, error)
	Limits() listingsvc.Limits
}

// ListingHandler serves the /records endpoints.
type ListingHandler struct {
	svc listingService
	log *slog.Logger
}

// NewListingHandler creates a ListingHandler.
func NewListingHandler(svc listingService, logger *slog.Logger) *ListingHandler {
	return &ListingHandler{svc: svc, log: logger.With("handler", "listing")}
}

// Create handles POST /records.
func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req listingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	payload, err := req.toDraft().Build(h.svc.Limits())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	created, err := h.svc.Create(r.Context(), payload)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeData(w, http.StatusCreated, createdResponse{ID: created.ID.String(), Slug: created.Slug})
}

// Get handles GET /records/{slug}.
func (h *ListingHandler) Get(w http.ResponseWriter, r *http.Request) {
	l, err := h.svc.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeData(w, http.StatusOK, toListingResponse(l))
}

// List handles GET /records?type=&region=&status=&min_price=&max_price=&bedrooms=&featured=&limit=&offset=.
func (h *ListingHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	items, err := h.svc.List(r.Context(), filter)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeData(w, http.StatusOK, toSummaryResponses(items))
}

// Count handles GET /records/count with the same filters as List.
func (h *ListingHandler) Count(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	n, err := h.svc.Count(r.Context(), filter)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]int{"count": n})
}

// Replace handles PUT /records/{slug}.
func (h *ListingHandler) Replace(w http.ResponseWriter, r *http.Request) {
	var req listingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	payload, err := req.toDraft().Build(h.svc.Limits())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	l, err := h.svc.Replace(r.Context(), r.PathValue("slug"), payload)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeData(w, http.StatusOK, toListingResponse(l))
}

// Delete handles DELETE /records/{slug}.
func (h *ListingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), r.PathValue("slug")); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true})
}

// AppendImages handles POST /records/{slug}/images.
func (h *ListingHandler) AppendImages(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Images []imageDTO `json:"images"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Images) == 0 {
		handleError(h.log, w, r, domain.NewValidationError("images", "at least one image is required"))
		return
	}

	l, err := h.svc.AppendImages(r.Context(), r.PathValue("slug"), fromImageDTOs(req.Images))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeData(w, http.StatusOK, toListingResponse(l))
}

// RemoveImage handles DELETE /records/{slug}/images?url=.
func (h *ListingHandler) RemoveImage(w http.ResponseWriter, r *http.Request) {
	url := strings.TrimSpace(r.URL.Query().Get("url"))
	if url == "" {
		handleError(h.log, w, r, domain.NewValidationError("url", "required"))
		return
	}

	l, err := h.svc.RemoveImage(r.Context(), r.PathValue("slug"), url)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeData(w, http.StatusOK, toListingResponse(l))
}

// ReorderImages handles POST /records/{slug}/images/reorder.
func (h *ListingHandler) ReorderImages(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From *int `json:"from"`
		To   *int `json:"to"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	var errs []domain.FieldError
	if req.From == nil {
		errs = append(errs, domain.FieldError{Field: "from", Message: "required"})
	}
	if req.To == nil {
		errs = append(errs, domain.FieldError{Field: "to", Message: "required"})
	}
	if len(errs) > 0 {
		handleError(h.log, w, r, domain.NewValidationErrors(errs))
		return
	}

	l, err := h.svc.ReorderImages(r.Context(), r.PathValue("slug"), *req.From, *req.To)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeData(w, http.StatusOK, toListingResponse(l))
}

// SetPrimaryImage handles POST /records/{slug}/images/primary.
func (h *ListingHandler) SetPrimaryImage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		handleError(h.log, w, r, domain.NewValidationError("url", "required"))
		return
	}

	l, err := h.svc.SetPrimaryImage(r.Context(), r.PathValue("slug"), strings.TrimSpace(req.URL))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeData(w, http.StatusOK, toListingResponse(l))
}
