package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RunStatus is the outcome of one generation run
type RunStatus string

const (
	RunStatusRunning RunStatus = "RUNNING"
	RunStatusSuccess RunStatus = "SUCCESS"
	RunStatusFailed  RunStatus = "FAILED"
	RunStatusLocked  RunStatus = "LOCKED"
)

// RunTrigger says who started a run
type RunTrigger string

const (
	RunTriggerCron   RunTrigger = "cron"
	RunTriggerManual RunTrigger = "manual"
	RunTriggerCLI    RunTrigger = "cli"
)

// GenerationRun records one monthly generation attempt for a tenant
type GenerationRun struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	TenantID    uuid.UUID  `gorm:"column:tenant_id;type:uuid;not null;index" json:"tenant_id"`
	Period      string     `gorm:"column:period;size:7;not null" json:"period"`
	Trigger     RunTrigger `gorm:"column:triggered_by;size:20;not null" json:"trigger"`
	Status      RunStatus  `gorm:"column:status;size:20;not null" json:"status"`
	Attempt     int        `gorm:"column:attempt;not null;default:1" json:"attempt"`
	Created     int        `gorm:"column:created;not null;default:0" json:"created"`
	Skipped     int        `gorm:"column:skipped;not null;default:0" json:"skipped"`
	Error       string     `gorm:"column:error;type:text" json:"error,omitempty"`
	StartedAt   time.Time  `gorm:"column:started_at;not null" json:"started_at"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
}

// TableName returns the table name for GORM
func (GenerationRun) TableName() string {
	return "invoice_generation_runs"
}

func (r *GenerationRun) complete(created, skipped int) {
	now := time.Now()
	r.Status = RunStatusSuccess
	r.Created = created
	r.Skipped = skipped
	r.Error = ""
	r.CompletedAt = &now
}

func (r *GenerationRun) fail(err error) {
	now := time.Now()
	r.Status = RunStatusFailed
	r.Error = err.Error()
	r.CompletedAt = &now
}

func (r *GenerationRun) locked() {
	now := time.Now()
	r.Status = RunStatusLocked
	r.CompletedAt = &now
}

// GenerationRunRepository persists generation runs
type GenerationRunRepository struct {
	db *gorm.DB
}

// NewGenerationRunRepository creates a new GenerationRunRepository
func NewGenerationRunRepository(db *gorm.DB) *GenerationRunRepository {
	return &GenerationRunRepository{db: db}
}

// Start inserts a running record
func (r *GenerationRunRepository) Start(ctx context.Context, tenantID uuid.UUID, period string, trigger RunTrigger, attempt int) (*GenerationRun, error) {
	run := &GenerationRun{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Period:    period,
		Trigger:   trigger,
		Status:    RunStatusRunning,
		Attempt:   attempt,
		StartedAt: time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

// Finish stores the final state of a run
func (r *GenerationRunRepository) Finish(ctx context.Context, run *GenerationRun) error {
	return r.db.WithContext(ctx).
		Model(&GenerationRun{}).
		Where("id = ?", run.ID).
		Updates(map[string]any{
			"status":       run.Status,
			"created":      run.Created,
			"skipped":      run.Skipped,
			"error":        run.Error,
			"completed_at": run.CompletedAt,
		}).Error
}

// Recent returns the latest runs of a tenant, newest first
func (r *GenerationRunRepository) Recent(ctx context.Context, tenantID uuid.UUID, limit int) ([]GenerationRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []GenerationRun
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error
	return runs, err
}
