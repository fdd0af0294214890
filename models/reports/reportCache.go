package reports

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/arrematai/auditor_backend/config"
)

func reportCacheEnabled() bool {
	v := strings.TrimSpace(os.Getenv("ENABLE_REPORT_CACHE"))
	return v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes") || strings.EqualFold(v, "on")
}

func reportCacheTTL() time.Duration {
	// Env: REPORT_CACHE_TTL_SECONDS (default 1h; nightly runs, stable reports)
	ttl := 3600
	if v := strings.TrimSpace(os.Getenv("REPORT_CACHE_TTL_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ttl = n
		}
	}
	return time.Duration(ttl) * time.Second
}

func renderedReportKey(tenantId string) string {
	return "reconciliation_report:rendered:" + tenantId
}

func reportObjectKey(tenantId string) string {
	return "reconciliation_report:object:" + tenantId
}

// CacheRenderedReport stores the latest rendered document per tenant.
// Best effort: a cold or absent redis never fails a run.
func CacheRenderedReport(tenantId string, rendered string) error {
	if !reportCacheEnabled() {
		return nil
	}
	return config.SetRedisValue(renderedReportKey(tenantId), rendered, reportCacheTTL())
}

// GetCachedRenderedReport returns the latest rendered document for a tenant.
func GetCachedRenderedReport(tenantId string) (string, bool, error) {
	if !reportCacheEnabled() {
		return "", false, nil
	}
	return config.GetRedisValue(renderedReportKey(tenantId))
}

// CacheReport stores the structured report alongside the rendered document so
// API consumers can fetch the last run without re-auditing.
func CacheReport(tenantId string, report *ReconciliationReport) error {
	if !reportCacheEnabled() {
		return nil
	}
	return config.SetRedisObject(reportObjectKey(tenantId), report, reportCacheTTL())
}

func GetCachedReport(tenantId string) (*ReconciliationReport, bool, error) {
	if !reportCacheEnabled() {
		return nil, false, nil
	}
	var report ReconciliationReport
	found, err := config.GetRedisObject(reportObjectKey(tenantId), &report)
	if err != nil || !found {
		return nil, false, err
	}
	return &report, true, nil
}

// InvalidateCachedReport drops both cache entries for a tenant. Called when a
// store-only integrity run makes the last full report stale.
func InvalidateCachedReport(tenantId string) error {
	return config.RemoveRedisKey(renderedReportKey(tenantId), reportObjectKey(tenantId))
}
