package models

import (
	"context"
	"time"

	"github.com/arrematai/auditor_backend/config"
	"github.com/arrematai/auditor_backend/utils"
)

type AuditRunStatus string

const (
	AuditRunStatusRunning   AuditRunStatus = "RUNNING"
	AuditRunStatusCompleted AuditRunStatus = "COMPLETED"
	AuditRunStatusFailed    AuditRunStatus = "FAILED"
)

// AuditRun is the auditor's own bookkeeping row for the nightly loop. It is
// the only table this service writes; audited marketplace tables are never
// touched.
type AuditRun struct {
	ID            int            `gorm:"primary_key" json:"id"`
	TenantId      string         `gorm:"index;not null" json:"tenant_id"`
	CorrelationId string         `gorm:"size:64;index" json:"correlation_id"`
	Status        AuditRunStatus `gorm:"size:20;not null" json:"status"`
	AnomalyCount  int            `gorm:"default:0" json:"anomaly_count"`
	Error         string         `gorm:"type:text" json:"error,omitempty"`
	StartedAt     time.Time      `gorm:"not null" json:"started_at"`
	FinishedAt    *time.Time     `json:"finished_at"`
}

func StartAuditRun(ctx context.Context, tenantId string) (*AuditRun, error) {
	db := config.GetDB()
	if db == nil {
		return nil, utils.ErrorStoreUnavailable
	}
	run := &AuditRun{
		TenantId:      tenantId,
		CorrelationId: utils.CorrelationIdFromContextOrNew(ctx),
		Status:        AuditRunStatusRunning,
		StartedAt:     time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

func (run *AuditRun) Finish(ctx context.Context, anomalies int, runErr error) error {
	db := config.GetDB()
	if db == nil {
		return utils.ErrorStoreUnavailable
	}
	now := time.Now().UTC()
	run.FinishedAt = &now
	run.AnomalyCount = anomalies
	if runErr != nil {
		run.Status = AuditRunStatusFailed
		run.Error = runErr.Error()
	} else {
		run.Status = AuditRunStatusCompleted
	}
	return db.WithContext(ctx).Save(run).Error
}
