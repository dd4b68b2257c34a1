package wire

import (
	"context"
	"net/http"
	"time"

	"myvillage-api/internal/adaptor"
	"myvillage-api/internal/data/repository"
	"myvillage-api/internal/usecase"
	"myvillage-api/pkg/database"
	"myvillage-api/pkg/metrics"
	"myvillage-api/pkg/middleware"
	"myvillage-api/pkg/storage"
	"myvillage-api/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Infra holds the connections built in main.
type Infra struct {
	DB      database.PgxIface
	Redis   *redis.Client // nil disables rate limiting
	Storage storage.Storage
	// UploadDir is served under /uploads when files are stored locally.
	UploadDir string
}

// App menyimpan semua dependencies
type App struct {
	Router *chi.Mux
}

// routes bundles what every wireX function needs.
type routes struct {
	auth      func(http.Handler) http.Handler
	optional  func(http.Handler) http.Handler
	admin     func(http.Handler) http.Handler
	limiter   middleware.Limiter
	rateLimit utils.RateLimitConfig
	config    *utils.Config
	log       *zap.Logger
}

func (rt *routes) limit(name string, requests, windowMinutes int, key middleware.KeyFunc, message string) func(http.Handler) http.Handler {
	return middleware.RateLimit(rt.limiter, middleware.RateLimitRule{
		Name:    name,
		Limit:   int64(requests),
		Window:  time.Duration(windowMinutes) * time.Minute,
		Key:     key,
		Message: message,
	}, rt.log)
}

// Wiring menginisialisasi semua dependencies
func Wiring(repo *repository.Repository, infra Infra, config *utils.Config, logger *zap.Logger) *App {
	jwtManager := utils.NewJWTManager(config.JWT)

	// Initialize services dan handlers
	service := usecase.NewService(repo, jwtManager, infra.Storage, config, logger)
	handler := adaptor.NewHandler(service, config, logger)

	var limiter middleware.Limiter
	if infra.Redis != nil {
		limiter = middleware.NewRedisLimiter(infra.Redis, "ratelimit")
	} else {
		logger.Warn("Redis is not configured, rate limiting disabled")
	}

	rt := &routes{
		auth:      middleware.Authenticate(jwtManager, repo.User, logger),
		optional:  middleware.OptionalAuthenticate(jwtManager, repo.User, logger),
		admin:     middleware.Admin(logger),
		limiter:   limiter,
		rateLimit: config.RateLimit,
		config:    config,
		log:       logger,
	}

	router := setupRouter(handler, rt, infra)

	return &App{
		Router: router,
	}
}

// setupRouter konfigurasi Chi router
func setupRouter(handler *adaptor.Handler, rt *routes, infra Infra) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(rt.log))
	r.Use(middleware.Recover(rt.log))
	r.Use(middleware.CORS(rt.config.App.ClientURLs))
	r.Use(metrics.NewHTTPMetrics(rt.config.App.Name).Middleware)

	// Operational endpoints stay outside the general limit
	wireOps(r, infra, rt.log)

	r.Group(func(r chi.Router) {
		r.Use(rt.limit("general", rt.rateLimit.GeneralRequests, rt.rateLimit.GeneralWindowMinutes,
			middleware.KeyByIP, "Too many requests from this IP, please try again later"))

		// Apply routes
		wireAuth(r, handler.Auth, rt)
		wireTelegram(r, handler.Telegram, rt)
		wireUser(r, handler.User, rt)
		wireCatalog(r, "/api/listings", handler.Listing, handler.Review, handler.Message, rt)
		wireCatalog(r, "/api/services", handler.Service, handler.Review, handler.Message, rt)
		wireCatalog(r, "/api/marketplace", handler.Marketplace, handler.Review, handler.Message, rt)
		wireReview(r, handler.Review, rt)
		wireCategory(r, handler.Category, rt)
		wireMessage(r, handler.Message, rt)
		wireUpload(r, handler.Upload, rt)
		wireAdmin(r, handler.Admin, rt)
	})

	return r
}

func wireOps(r chi.Router, infra Infra, log *zap.Logger) {
	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if infra.DB != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := infra.DB.Ping(ctx); err != nil {
				log.Error("Health check failed", zap.Error(err))
				utils.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "database": "down"})
				return
			}
		}
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "database": "up"})
	})

	r.Handle("/metrics", metrics.Handler())

	if infra.UploadDir != "" {
		fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(infra.UploadDir)))
		r.Get("/uploads/*", fs.ServeHTTP)
	}
}
