package scheduler

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/orderdesk/backend/internal/application/reconciliation"
	"github.com/orderdesk/backend/internal/domain/shared"
)

// OrderSyncJobStatus represents the status of one tenant sync
type OrderSyncJobStatus string

const (
	OrderSyncJobStatusPending OrderSyncJobStatus = "PENDING"
	OrderSyncJobStatusRunning OrderSyncJobStatus = "RUNNING"
	OrderSyncJobStatusSuccess OrderSyncJobStatus = "SUCCESS"
	OrderSyncJobStatusPartial OrderSyncJobStatus = "PARTIAL"
	OrderSyncJobStatusFailed  OrderSyncJobStatus = "FAILED"
)

// OrderSyncJob is one tenant's share of a scheduled run
type OrderSyncJob struct {
	ID          uuid.UUID
	RunID       uuid.UUID
	TenantID    uuid.UUID
	Status      OrderSyncJobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time

	Added         int
	Updated       int
	FailedOrders  int
	FailedSources int
}

// NewOrderSyncJob creates a pending job
func NewOrderSyncJob(runID, tenantID uuid.UUID) *OrderSyncJob {
	return &OrderSyncJob{
		ID:       uuid.New(),
		RunID:    runID,
		TenantID: tenantID,
		Status:   OrderSyncJobStatusPending,
	}
}

// Start marks the job as running
func (j *OrderSyncJob) Start() {
	now := time.Now()
	j.Status = OrderSyncJobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// Complete records the sync outcome. A partial-failure error means some
// units succeeded; any other error fails the job.
func (j *OrderSyncJob) Complete(res *reconciliation.SyncResult, err error) {
	now := time.Now()
	j.CompletedAt = &now
	if res != nil {
		j.Added = res.Added
		j.Updated = res.Updated
		j.FailedOrders = len(res.Failures)
		j.FailedSources = len(res.Errors)
	}

	switch {
	case err == nil:
		j.Status = OrderSyncJobStatusSuccess
	case errors.Is(err, shared.ErrPartialFailure):
		j.Status = OrderSyncJobStatusPartial
		j.Error = err.Error()
	default:
		j.Status = OrderSyncJobStatusFailed
		j.Error = err.Error()
	}
}

// Duration returns how long the job ran, zero until it completes
func (j *OrderSyncJob) Duration() time.Duration {
	if j.StartedAt == nil || j.CompletedAt == nil {
		return 0
	}
	return j.CompletedAt.Sub(*j.StartedAt)
}
