package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/arrematai/auditor_backend/config"
	"github.com/arrematai/auditor_backend/middlewares"
	"github.com/arrematai/auditor_backend/models"
	"github.com/arrematai/auditor_backend/models/reports"
	"github.com/bsm/redislock"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/arrematai/auditor_backend/utils"
)

const defaultPort = "8080"

func environmentName() string {
	env := strings.TrimSpace(os.Getenv("GO_ENV"))
	if env == "" {
		return "development"
	}
	return env
}

type reconcileRequest struct {
	Environment  string `json:"environment"`
	RunIntegrity bool   `json:"run_integrity"`
	// When set, samples without a db_value get it resolved from the store.
	ResolveFromStore bool                  `json:"resolve_from_store"`
	Samples          []reports.FieldSample `json:"samples"`
}

// reconcileHandler accepts a batch of extracted UI samples, cross-checks them
// against the store values the orchestrator captured, optionally runs the
// integrity battery, and returns the finalized report.
func reconcileHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		tenantId := c.Param("tenantId")
		if strings.TrimSpace(tenantId) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "tenantId required"})
			return
		}

		var req reconcileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		env := req.Environment
		if env == "" {
			env = environmentName()
		}

		ctx := utils.SetTenantIdInContext(c.Request.Context(), tenantId)

		builder := reports.NewReportBuilder(tenantId, env)
		for _, sample := range req.Samples {
			if req.ResolveFromStore && strings.TrimSpace(sample.DbValue) == "" {
				resolved, err := models.ResolveFieldValue(ctx, sample.EntityType, sample.EntityId, sample.FieldName)
				if err != nil {
					config.LogError(logger, "server.go", "reconcileHandler", "ResolveFieldValue", sample, err)
					c.JSON(http.StatusUnprocessableEntity, gin.H{
						"error":  "could not resolve store value for sample",
						"entity": sample.EntityType,
						"id":     sample.EntityId,
						"field":  sample.FieldName,
					})
					return
				}
				sample.DbValue = resolved
			}
			if _, err := builder.CheckField(ctx, sample); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{
					"error":  "invalid sample",
					"detail": utils.ProcessValidationErrors(err),
				})
				return
			}
		}

		if req.RunIntegrity {
			integrity, err := models.RunReferentialIntegrityChecks(ctx, tenantId)
			if err != nil {
				config.LogError(logger, "server.go", "reconcileHandler", "RunReferentialIntegrityChecks", tenantId, err)
				c.JSON(http.StatusBadGateway, gin.H{"error": "integrity checks failed; report aborted"})
				return
			}
			builder.AttachIntegrity(integrity)
		}

		report := builder.Finalize()
		if err := reports.CacheRenderedReport(tenantId, reports.RenderMarkdown(report)); err != nil {
			config.LogError(logger, "server.go", "reconcileHandler", "CacheRenderedReport", tenantId, err)
		}
		if err := reports.CacheReport(tenantId, report); err != nil {
			config.LogError(logger, "server.go", "reconcileHandler", "CacheReport", tenantId, err)
		}

		if c.Query("format") == "markdown" {
			c.String(http.StatusOK, reports.RenderMarkdown(report))
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

// integrityHandler runs only the store-side battery (no UI samples).
func integrityHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		tenantId := c.Param("tenantId")
		if strings.TrimSpace(tenantId) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "tenantId required"})
			return
		}
		ctx := utils.SetTenantIdInContext(c.Request.Context(), tenantId)

		run, err := models.StartAuditRun(ctx, tenantId)
		if err != nil {
			config.LogError(logger, "server.go", "integrityHandler", "StartAuditRun", tenantId, err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit run could not be recorded"})
			return
		}

		integrity, err := models.RunReferentialIntegrityChecks(ctx, tenantId)
		if err != nil {
			_ = run.Finish(ctx, 0, err)
			config.LogError(logger, "server.go", "integrityHandler", "RunReferentialIntegrityChecks", tenantId, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "integrity checks failed; report aborted"})
			return
		}
		if err := run.Finish(ctx, integrity.AnomalyCount(), nil); err != nil {
			config.LogError(logger, "server.go", "integrityHandler", "FinishAuditRun", tenantId, err)
		}
		// The last full report no longer reflects the store.
		if err := reports.InvalidateCachedReport(tenantId); err != nil {
			config.LogError(logger, "server.go", "integrityHandler", "InvalidateCachedReport", tenantId, err)
		}
		c.JSON(http.StatusOK, integrity)
	}
}

// lastReportHandler serves the latest cached report for a tenant, rendered
// by default, structured with ?format=json.
func lastReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantId := c.Param("tenantId")

		if c.Query("format") == "json" {
			report, ok, err := reports.GetCachedReport(tenantId)
			if err != nil {
				c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
				return
			}
			if !ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "no cached report for tenant"})
				return
			}
			c.JSON(http.StatusOK, report)
			return
		}

		rendered, ok, err := reports.GetCachedRenderedReport(tenantId)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "no cached report for tenant"})
			return
		}
		c.String(http.StatusOK, rendered)
	}
}

// nightlyIntegrityAudit walks every tenant and runs the battery, serialized
// per tenant with a redis lock so overlapping runners skip instead of
// double-auditing.
func nightlyIntegrityAudit(logger *logrus.Logger) {
	ctx := context.Background()
	tenantIds, err := models.ListTenantIds(ctx)
	if err != nil {
		config.LogError(logger, "server.go", "nightlyIntegrityAudit", "ListTenantIds", nil, err)
		return
	}

	for _, tenantId := range tenantIds {
		auditTenant(ctx, logger, tenantId)
	}
}

func auditTenant(ctx context.Context, logger *logrus.Logger, tenantId string) {
	tctx := utils.SetTenantIdInContext(ctx, tenantId)
	tctx = utils.SetCorrelationIdInContext(tctx, uuid.NewString())

	if locker := config.GetRedisLock(); locker != nil {
		lock, lockErr := locker.Obtain(tctx, "audit:integrity:"+tenantId, 10*time.Minute, nil)
		if lockErr == redislock.ErrNotObtained {
			logger.WithFields(logrus.Fields{"field": "NightlyAudit", "tenant_id": tenantId}).Info("another runner holds the audit lock; skipping tenant")
			return
		}
		if lockErr == nil {
			defer lock.Release(tctx)
		}
	}

	run, err := models.StartAuditRun(tctx, tenantId)
	if err != nil {
		config.LogError(logger, "server.go", "auditTenant", "StartAuditRun", tenantId, err)
		return
	}
	integrity, err := models.RunReferentialIntegrityChecks(tctx, tenantId)
	if err != nil {
		_ = run.Finish(tctx, 0, err)
		config.LogError(logger, "server.go", "auditTenant", "RunReferentialIntegrityChecks", tenantId, err)
		return
	}
	_ = run.Finish(tctx, integrity.AnomalyCount(), nil)

	builder := reports.NewReportBuilder(tenantId, environmentName())
	builder.AttachIntegrity(integrity)
	report := builder.Finalize()
	if err := reports.CacheRenderedReport(tenantId, reports.RenderMarkdown(report)); err != nil {
		config.LogError(logger, "server.go", "auditTenant", "CacheRenderedReport", tenantId, err)
	}
	if err := reports.CacheReport(tenantId, report); err != nil {
		config.LogError(logger, "server.go", "auditTenant", "CacheReport", tenantId, err)
	}
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	var out []string
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func main() {
	port := os.Getenv("AUDITOR_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP; until DB/Redis are ready, app endpoints 503.
	r := gin.New()
	// Correlation IDs: generate once per request and attach to context.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// Require an explicit allowlist in production; allow all elsewhere.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(environmentName(), "production") {
		if allowedOrigins == "" {
			// No allowlist configured: deny cross-origin browser calls.
			corsConfig.AllowOriginFunc = func(string) bool { return false }
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Authorization", "x-correlation-id")
	corsConfig.AddExposeHeaders("Content-Length")
	r.Use(cors.New(corsConfig))

	r.Use(gin.Recovery())

	api := r.Group("/api/v1", middlewares.AuthMiddleware())
	api.POST("/audit/:tenantId/reconcile", reconcileHandler())
	api.POST("/audit/:tenantId/integrity", integrityHandler())
	api.GET("/audit/:tenantId/report", lastReportHandler())

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	// Custom UI status labels, when a tenant theme renders its own wording.
	if path := strings.TrimSpace(os.Getenv("STATUS_VARIANTS_FILE")); path != "" {
		if err := models.LoadStatusVariantOverrides(path); err != nil {
			config.LogError(logger, "server.go", "main", "LoadStatusVariantOverrides", path, err)
		}
	}

	// Nightly integrity audit over all tenants.
	var scheduler *cron.Cron
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("CRON_AUDIT_DISABLED")), "true") {
		spec := strings.TrimSpace(os.Getenv("CRON_AUDIT_SPEC"))
		if spec == "" {
			spec = "0 3 * * *"
		}
		scheduler = cron.New()
		if _, err := scheduler.AddFunc(spec, func() { nightlyIntegrityAudit(logger) }); err != nil {
			config.LogError(logger, "server.go", "main", "cron.AddFunc", spec, err)
		} else {
			scheduler.Start()
			logger.WithFields(logrus.Fields{"field": "cron", "spec": spec}).Info("nightly integrity audit scheduled")
		}
	}

	logger.WithFields(logrus.Fields{"field": "http", "port": port}).Info("auditor listening")

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}
}
