package rest

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/heartmarshall/estate-backend/internal/domain"
	articlesvc "github.com/heartmarshall/estate-backend/internal/service/article"
	"github.com/heartmarshall/estate-backend/pkg/ctxutil"
)

type articleService interface {
	Create(ctx context.Context, f domain.ArticleFields) (*domain.Article, error)
	Replace(ctx context.Context, slug string, f domain.ArticleFields) (*domain.Article, error)
	Delete(ctx context.Context, slug string) error
	GetBySlug(ctx context.Context, slug string) (*domain.Article, error)
	List(ctx context.Context, filter domain.ArticleFilter) ([]domain.Article, error)
}

// ArticleHandler serves the /articles endpoints. Drafts are visible to
// admins only; everyone else gets 404 for them.
type ArticleHandler struct {
	svc articleService
	log *slog.Logger
}

// NewArticleHandler creates an ArticleHandler.
func NewArticleHandler(svc articleService, logger *slog.Logger) *ArticleHandler {
	return &ArticleHandler{svc: svc, log: logger.With("handler", "article")}
}

type articleRequest struct {
	Slug          string  `json:"slug"`
	Title         string  `json:"title"`
	Excerpt       *string `json:"excerpt"`
	Content       string  `json:"content"`
	Category      *string `json:"category"`
	Status        string  `json:"status"`
	Featured      bool    `json:"featured"`
	FeaturedImage *string `json:"featuredImage"`
}

func (req articleRequest) toDraft() articlesvc.Draft {
	return articlesvc.Draft{
		Slug:          req.Slug,
		Title:         req.Title,
		Excerpt:       req.Excerpt,
		Content:       req.Content,
		Category:      req.Category,
		Status:        req.Status,
		Featured:      req.Featured,
		FeaturedImage: req.FeaturedImage,
	}
}

type articleResponse struct {
	ID            string     `json:"id"`
	Slug          string     `json:"slug"`
	Title         string     `json:"title"`
	Excerpt       *string    `json:"excerpt"`
	Content       string     `json:"content"`
	Category      *string    `json:"category"`
	Status        string     `json:"status"`
	Featured      bool       `json:"featured"`
	FeaturedImage *string    `json:"featuredImage"`
	PublishedAt   *time.Time `json:"publishedAt"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func toArticleResponse(a *domain.Article) articleResponse {
	return articleResponse{
		ID:            a.ID.String(),
		Slug:          a.Slug,
		Title:         a.Title,
		Excerpt:       a.Excerpt,
		Content:       a.Content,
		Category:      a.Category,
		Status:        a.Status.String(),
		Featured:      a.Featured,
		FeaturedImage: a.FeaturedImage,
		PublishedAt:   a.PublishedAt,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

// Create handles POST /articles.
func (h *ArticleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req articleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	fields, err := req.toDraft().Build()
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	created, err := h.svc.Create(r.Context(), fields)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeData(w, http.StatusCreated, createdResponse{ID: created.ID.String(), Slug: created.Slug})
}

// Get handles GET /articles/{slug}.
func (h *ArticleHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	if a.Status != domain.ArticleStatusPublished && !ctxutil.IsAdminCtx(r.Context()) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeData(w, http.StatusOK, toArticleResponse(a))
}

// List handles GET /articles?status=&category=&limit=&offset=. Non-admins
// always get published articles only.
func (h *ArticleHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseArticleFilter(r.URL.Query())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	if !ctxutil.IsAdminCtx(r.Context()) {
		published := domain.ArticleStatusPublished
		filter.Status = &published
	}

	items, err := h.svc.List(r.Context(), filter)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	out := make([]articleResponse, 0, len(items))
	for i := range items {
		out = append(out, toArticleResponse(&items[i]))
	}
	writeData(w, http.StatusOK, out)
}

// Replace handles PUT /articles/{slug}.
func (h *ArticleHandler) Replace(w http.ResponseWriter, r *http.Request) {
	var req articleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	fields, err := req.toDraft().Build()
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	a, err := h.svc.Replace(r.Context(), r.PathValue("slug"), fields)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeData(w, http.StatusOK, toArticleResponse(a))
}

// Delete handles DELETE /articles/{slug}.
func (h *ArticleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), r.PathValue("slug")); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true})
}

func parseArticleFilter(q url.Values) (domain.ArticleFilter, error) {
	var (
		f    domain.ArticleFilter
		errs []domain.FieldError
	)

	if v := strings.TrimSpace(q.Get("status")); v != "" {
		s := domain.ArticleStatus(v)
		if s.IsValid() {
			f.Status = &s
		} else {
			errs = append(errs, domain.FieldError{Field: "status", Message: "unknown status"})
		}
	}
	if v := strings.TrimSpace(q.Get("category")); v != "" {
		f.Category = &v
	}
	for _, p := range []struct {
		key string
		dst *int
	}{{"limit", &f.Limit}, {"offset", &f.Offset}} {
		v := q.Get(p.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			errs = append(errs, domain.FieldError{Field: p.key, Message: "must be a non-negative integer"})
			continue
		}
		*p.dst = n
	}

	if len(errs) > 0 {
		return domain.ArticleFilter{}, domain.NewValidationErrors(errs)
	}
	return f, nil
}
