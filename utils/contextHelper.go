package utils

import (
	"context"

	"github.com/arrematai/auditor_backend/appctx"
	"github.com/google/uuid"
)

// Re-exported so call sites outside config don't need to import appctx.
var (
	ContextKeyTenantId      = appctx.ContextKeyTenantId
	ContextKeyCorrelationId = appctx.ContextKeyCorrelationId
	ContextKeyActor         = appctx.ContextKeyActor
	ContextKeyEnvironment   = appctx.ContextKeyEnvironment

	ContextKeyIsAdmin         = appctx.ContextKeyIsAdmin
	ContextKeySkipTenantScope = appctx.ContextKeySkipTenantScope
)

func GetTenantIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyTenantId)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func GetActorFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyActor)
}

func GetEnvironmentFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyEnvironment)
}

func SetTenantIdInContext(ctx context.Context, tenantId string) context.Context {
	return appctx.Set(ctx, ContextKeyTenantId, tenantId)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}

func SetActorInContext(ctx context.Context, actor string) context.Context {
	return appctx.Set(ctx, ContextKeyActor, actor)
}

func SetEnvironmentInContext(ctx context.Context, env string) context.Context {
	return appctx.Set(ctx, ContextKeyEnvironment, env)
}

func SetSkipTenantScopeInContext(ctx context.Context) context.Context {
	return appctx.Set(ctx, ContextKeySkipTenantScope, true)
}

// CorrelationIdFromContextOrNew returns the request correlation id, minting
// one when the orchestrator did not supply any.
func CorrelationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}
