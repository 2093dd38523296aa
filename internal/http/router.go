// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/medihub/go-medihub-backend/internal/auth"
	"github.com/medihub/go-medihub-backend/internal/config"
	"github.com/medihub/go-medihub-backend/internal/http/handlers"
	"github.com/medihub/go-medihub-backend/internal/http/middleware"
	"github.com/medihub/go-medihub-backend/internal/notify"
	"github.com/medihub/go-medihub-backend/internal/repo"
	"github.com/medihub/go-medihub-backend/internal/services"
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), authentication,
// idempotency and rate limiting, CORS and security headers, health and
// metrics endpoints, and then mounts the public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter, gzip
//  6. Metrics
//  7. Authentication (identity only; guards authorize per endpoint)
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per user/IP, bypass on replay)
//  10. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction (lead payloads carry contact PII)
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))

	// 4) Panic recovery to the standard 5000 envelope
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB) and response compression
	r.Use(limitBody(1 << 20))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Identity resolution
	verifier := auth.NewManager(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	r.Use(middleware.Authenticate(verifier, cfg.Auth.AllowHeaderAuth))

	// 8) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, userID, key string, now time.Time) (bool, error) {
			if userID == "" {
				return false, nil
			}
			rec, err := repo.GetIdempotencyKey(ctx, db, userID, key)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 9) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 10) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS);
	// no-store because lead responses carry contact details.
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.CodeNotFound, handlers.MsgNotFound)
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.CodeBadRequest, handlers.MsgBadRequest)
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Swagger UI (opt-in)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/config
	var mailer notify.Mailer = notify.LogMailer{}
	if cfg.SMTP.Enabled {
		mailer = notify.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	}
	dispatcher := notify.NewDispatcher(db, mailer, cfg.Notify.MaxRetries, cfg.Notify.BaseDelay)

	rateSvc := services.NewRateLimitService(db,
		services.RateLimitPolicy{
			PerDay:         cfg.Limits.LeadPerDay,
			PerWeek:        cfg.Limits.LeadPerWeek,
			TargetCooldown: cfg.Limits.LeadVendorCooldown,
		},
		services.RateLimitPolicy{
			PerMinute: cfg.Limits.MessagePerMinute,
		},
		services.RateLimitPolicy{
			PerDay: cfg.Limits.VerificationPerDay,
		},
	)
	auditSvc := services.NewAuditService(db)
	leadSvc := services.NewLeadService(db, rateSvc, auditSvc, dispatcher, cfg.IdempotencyTTL)
	vendSvc := services.NewVendorService(db)
	verifSvc := services.NewVerificationService(db, rateSvc, auditSvc, dispatcher)
	profSvc := services.NewProfileService(db)

	h := handlers.New(db, leadSvc, vendSvc, verifSvc, profSvc, auditSvc)

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Vendors (public catalog)
		api.GET("/vendors", h.ListVendors)
		api.GET("/vendors/:id", h.GetVendor)

		// Leads
		api.POST("/leads", h.CreateLead())
		api.GET("/leads", h.ListLeads())
		api.GET("/leads/:id", h.GetLead())
		api.PATCH("/leads/:id/status", h.ChangeLeadStatus())
		api.GET("/leads/:id/messages", h.ListLeadMessages())
		api.POST("/leads/:id/messages", h.SendLeadMessage())
		api.POST("/leads/:id/messages/read", h.MarkLeadMessagesRead())

		// Verifications (doctor side)
		api.POST("/verifications/doctor", h.SubmitVerification())
		api.GET("/verifications/doctor", h.GetMyVerification())

		// Me
		api.GET("/me", h.GetMe())

		// Admin
		api.GET("/admin/verifications", h.ListVerifications())
		api.POST("/admin/verifications/:id/approve", h.ApproveVerification())
		api.POST("/admin/verifications/:id/reject", h.RejectVerification())
		api.GET("/admin/audit-logs", h.ListAuditLogs())
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
