package app

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/heartmarshall/estate-backend/internal/config"
	"github.com/heartmarshall/estate-backend/internal/transport/middleware"
	"github.com/heartmarshall/estate-backend/internal/transport/rest"
)

type tokenValidator interface {
	ValidateAccessToken(token string) (uuid.UUID, string, error)
}

// RouterDeps holds everything NewRouter mounts. Uploads is nil when upload
// storage is not configured; a nil RateLimiter leaves uploads unthrottled.
type RouterDeps struct {
	Logger      *slog.Logger
	Listings    *rest.ListingHandler
	Articles    *rest.ArticleHandler
	Uploads     *rest.UploadHandler
	Health      *rest.HealthHandler
	Tokens      tokenValidator
	CORS        config.CORSConfig
	RateLimiter *middleware.RateLimiter
	RateLimit   config.RateLimitConfig
}

// NewRouter registers all routes and wraps them in the global middleware chain.
func NewRouter(d RouterDeps) http.Handler {
	mux := http.NewServeMux()
	admin := middleware.RequireAdmin()

	mux.HandleFunc("GET /live", d.Health.Live)
	mux.HandleFunc("GET /ready", d.Health.Ready)
	mux.HandleFunc("GET /health", d.Health.Health)

	l := d.Listings
	mux.HandleFunc("GET /records", l.List)
	mux.HandleFunc("GET /records/count", l.Count)
	mux.HandleFunc("GET /records/{slug}", l.Get)
	mux.Handle("POST /records", admin(http.HandlerFunc(l.Create)))
	mux.Handle("PUT /records/{slug}", admin(http.HandlerFunc(l.Replace)))
	mux.Handle("DELETE /records/{slug}", admin(http.HandlerFunc(l.Delete)))
	mux.Handle("POST /records/{slug}/images", admin(http.HandlerFunc(l.AppendImages)))
	mux.Handle("DELETE /records/{slug}/images", admin(http.HandlerFunc(l.RemoveImage)))
	mux.Handle("POST /records/{slug}/images/reorder", admin(http.HandlerFunc(l.ReorderImages)))
	mux.Handle("POST /records/{slug}/images/primary", admin(http.HandlerFunc(l.SetPrimaryImage)))

	a := d.Articles
	mux.HandleFunc("GET /articles", a.List)
	mux.HandleFunc("GET /articles/{slug}", a.Get)
	mux.Handle("POST /articles", admin(http.HandlerFunc(a.Create)))
	mux.Handle("PUT /articles/{slug}", admin(http.HandlerFunc(a.Replace)))
	mux.Handle("DELETE /articles/{slug}", admin(http.HandlerFunc(a.Delete)))

	if d.Uploads != nil {
		var throttle middleware.Middleware
		if d.RateLimiter != nil {
			throttle = d.RateLimiter.Limit(d.RateLimit.UploadsPerMinute)
		}
		limited := middleware.Chain(admin, throttle)
		mux.Handle("POST /uploads", limited(http.HandlerFunc(d.Uploads.Upload)))
		mux.HandleFunc("GET /uploads/{id}", d.Uploads.Serve)
	}

	// Auth sits outside Logger so access logs carry user_id.
	return middleware.Chain(
		middleware.RequestID(),
		middleware.Recovery(d.Logger),
		middleware.Auth(d.Tokens),
		middleware.Logger(d.Logger),
		middleware.CORS(d.CORS),
	)(mux)
}
