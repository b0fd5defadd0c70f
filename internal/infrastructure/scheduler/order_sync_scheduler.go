// Package scheduler runs the periodic order sync across tenants.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/orderdesk/backend/internal/application/reconciliation"
	"github.com/orderdesk/backend/internal/domain/integration"
	"github.com/orderdesk/backend/internal/infrastructure/config"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// TenantLister lists tenants that have marketplace credentials
type TenantLister interface {
	ListTenants(ctx context.Context) ([]uuid.UUID, error)
}

// TenantSyncer syncs every source of one tenant
type TenantSyncer interface {
	SyncTenant(ctx context.Context, tenantID uuid.UUID, source *integration.SourceName) (*reconciliation.SyncResult, error)
}

// RunRecorder counts finished jobs
type RunRecorder interface {
	RecordSyncRun(ctx context.Context, status string, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordSyncRun(context.Context, string, time.Duration) {}

// OrderSyncSchedulerConfig holds configuration for the order sync scheduler
type OrderSyncSchedulerConfig struct {
	// Interval between run starts
	Interval time.Duration
	// RunTimeout bounds one tenant's sync
	RunTimeout time.Duration
	// MaxConcurrency is the number of tenants synced in parallel
	MaxConcurrency int
	// RunOnStart triggers a run immediately instead of after the first interval
	RunOnStart bool
}

// ConfigFromSync maps application sync settings
func ConfigFromSync(c config.SyncConfig) OrderSyncSchedulerConfig {
	return OrderSyncSchedulerConfig{
		Interval:       c.Interval,
		RunTimeout:     c.RunTimeout,
		MaxConcurrency: c.MaxConcurrency,
		RunOnStart:     true,
	}
}

// Validate validates the configuration
func (c *OrderSyncSchedulerConfig) Validate() error {
	if c.Interval <= 0 || c.RunTimeout <= 0 || c.MaxConcurrency <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// RunSummary aggregates the jobs of one run
type RunSummary struct {
	RunID   uuid.UUID
	Jobs    []*OrderSyncJob
	Success int
	Partial int
	Failed  int
}

// OrderSyncScheduler periodically syncs every tenant with marketplace credentials
type OrderSyncScheduler struct {
	config   OrderSyncSchedulerConfig
	tenants  TenantLister
	syncer   TenantSyncer
	recorder RunRecorder
	logger   *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	inFlight  atomic.Bool

	historyMu  sync.RWMutex
	history    []*OrderSyncJob
	maxHistory int
}

// NewOrderSyncScheduler creates a new order sync scheduler
func NewOrderSyncScheduler(cfg OrderSyncSchedulerConfig, tenants TenantLister, syncer TenantSyncer, recorder RunRecorder, logger *zap.Logger) (*OrderSyncScheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderSyncScheduler{
		config:     cfg,
		tenants:    tenants,
		syncer:     syncer,
		recorder:   recorder,
		logger:     logger,
		history:    make([]*OrderSyncJob, 0, 100),
		maxHistory: 100,
	}, nil
}

// Start launches the ticker loop
func (s *OrderSyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}
	s.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("Order sync scheduler started",
		zap.Duration("interval", s.config.Interval),
		zap.Duration("run_timeout", s.config.RunTimeout),
		zap.Int("max_concurrency", s.config.MaxConcurrency),
	)
	return nil
}

// Stop cancels the loop and waits for in-flight jobs or ctx expiry
func (s *OrderSyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Order sync scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Order sync scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether Start was called without a matching Stop
func (s *OrderSyncScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

func (s *OrderSyncScheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	if s.config.RunOnStart {
		s.runLogged(ctx)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runLogged(ctx)
		}
	}
}

func (s *OrderSyncScheduler) runLogged(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
		s.logger.Warn("Order sync run skipped", zap.Error(err))
	}
}

// RunOnce syncs every tenant once, at most MaxConcurrency at a time. An
// overlapping call returns ErrRunInProgress.
func (s *OrderSyncScheduler) RunOnce(ctx context.Context) (*RunSummary, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer s.inFlight.Store(false)

	tenantIDs, err := s.tenants.ListTenants(ctx)
	if err != nil {
		return nil, err
	}

	summary := &RunSummary{RunID: uuid.New(), Jobs: make([]*OrderSyncJob, len(tenantIDs))}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.MaxConcurrency)
	for i, tenantID := range tenantIDs {
		job := NewOrderSyncJob(summary.RunID, tenantID)
		summary.Jobs[i] = job
		g.Go(func() error {
			s.processJob(gctx, job)
			return nil
		})
	}
	_ = g.Wait()

	for _, job := range summary.Jobs {
		switch job.Status {
		case OrderSyncJobStatusSuccess:
			summary.Success++
		case OrderSyncJobStatusPartial:
			summary.Partial++
		case OrderSyncJobStatusFailed:
			summary.Failed++
		}
	}
	s.logger.Info("Order sync run completed",
		zap.String("run_id", summary.RunID.String()),
		zap.Int("tenants", len(tenantIDs)),
		zap.Int("success", summary.Success),
		zap.Int("partial", summary.Partial),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

func (s *OrderSyncScheduler) processJob(ctx context.Context, job *OrderSyncJob) {
	log := s.logger.With(
		zap.String("job_id", job.ID.String()),
		zap.String("tenant_id", job.TenantID.String()),
	)

	job.Start()
	jobCtx, cancel := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancel()

	res, err := s.syncer.SyncTenant(jobCtx, job.TenantID, nil)
	job.Complete(res, err)
	s.recorder.RecordSyncRun(ctx, string(job.Status), job.Duration())

	fields := []zap.Field{
		zap.String("status", string(job.Status)),
		zap.Int("added", job.Added),
		zap.Int("updated", job.Updated),
		zap.Int("failed_orders", job.FailedOrders),
		zap.Int("failed_sources", job.FailedSources),
		zap.Duration("duration", job.Duration()),
	}
	switch job.Status {
	case OrderSyncJobStatusFailed:
		log.Error("Order sync job failed", append(fields, zap.Error(err))...)
	case OrderSyncJobStatusPartial:
		log.Warn("Order sync job partially failed", append(fields, zap.Error(err))...)
	default:
		log.Info("Order sync job completed", fields...)
	}

	s.addToHistory(job)
}

// addToHistory adds a completed job to history
func (s *OrderSyncScheduler) addToHistory(job *OrderSyncJob) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	s.history = append([]*OrderSyncJob{job}, s.history...)
	if len(s.history) > s.maxHistory {
		s.history = s.history[:s.maxHistory]
	}
}

// GetJobHistory returns recent jobs, newest first
func (s *OrderSyncScheduler) GetJobHistory(limit int) []*OrderSyncJob {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}
	result := make([]*OrderSyncJob, limit)
	copy(result, s.history[:limit])
	return result
}

// GetJobHistoryByTenant returns recent jobs for one tenant
func (s *OrderSyncScheduler) GetJobHistoryByTenant(tenantID uuid.UUID, limit int) []*OrderSyncJob {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	result := make([]*OrderSyncJob, 0, limit)
	for _, job := range s.history {
		if job.TenantID == tenantID {
			result = append(result, job)
			if len(result) >= limit {
				break
			}
		}
	}
	return result
}
