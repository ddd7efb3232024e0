package report

import (
	"context"
	"sync"
	"time"

	"github.com/contractiq/backend/internal/domain/report"
	"github.com/contractiq/backend/internal/domain/usage"
	"github.com/contractiq/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// UsageRecorderConfig holds configuration for the async usage recorder
type UsageRecorderConfig struct {
	Enabled       bool
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
	// WriteTimeout bounds a single batch write
	WriteTimeout time.Duration
}

// DefaultUsageRecorderConfig returns default usage recorder configuration
func DefaultUsageRecorderConfig() UsageRecorderConfig {
	return UsageRecorderConfig{
		Enabled:       true,
		BufferSize:    1024,
		BatchSize:     50,
		FlushInterval: 5 * time.Second,
		WriteTimeout:  10 * time.Second,
	}
}

// UsageRecorder buffers usage events and appends them to the usage log in
// batches, off the request path. Events are dropped, with a warning, when the
// buffer is full; report responses never wait on the log.
type UsageRecorder struct {
	config  UsageRecorderConfig
	writer  usage.EventWriter
	buffer  chan *usage.Event
	metrics *telemetry.ReportMetrics
	logger  *zap.Logger

	wg      sync.WaitGroup
	stopCh  chan struct{}
	mu      sync.RWMutex
	running bool
}

// NewUsageRecorder creates a new usage recorder. Call Start before Record.
func NewUsageRecorder(cfg UsageRecorderConfig, writer usage.EventWriter, metrics *telemetry.ReportMetrics, logger *zap.Logger) *UsageRecorder {
	defaults := DefaultUsageRecorderConfig()
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaults.BufferSize
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaults.BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = defaults.FlushInterval
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaults.WriteTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &UsageRecorder{
		config:  cfg,
		writer:  writer,
		buffer:  make(chan *usage.Event, cfg.BufferSize),
		metrics: metrics,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}
}

// Start begins the background batch writer goroutine
func (r *UsageRecorder) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running || !r.config.Enabled {
		return
	}

	r.running = true
	r.wg.Add(1)
	go r.batchWriter()

	r.logger.Info("Usage recorder started",
		zap.Int("buffer_size", r.config.BufferSize),
		zap.Int("batch_size", r.config.BatchSize),
		zap.Duration("flush_interval", r.config.FlushInterval),
	)
}

// Stop flushes buffered events and stops the writer, waiting at most until
// ctx is done
func (r *UsageRecorder) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	close(r.stopCh)
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("Usage recorder stopped")
		return nil
	case <-ctx.Done():
		r.logger.Warn("Usage recorder stop timed out, buffered events may be lost")
		return ctx.Err()
	}
}

// Record queues a usage event for tenant. It reports whether the event was
// accepted; invalid events and a full buffer both return false.
func (r *UsageRecorder) Record(tenant report.TenantRef, action string, metadata map[string]any) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.running {
		return false
	}

	event, err := usage.NewEvent(tenant, action, time.Now())
	if err != nil {
		r.logger.Debug("Invalid usage event", zap.String("action", action), zap.Error(err))
		return false
	}
	event.Metadata = metadata

	select {
	case r.buffer <- event:
		return true
	default:
		r.logger.Warn("Usage buffer full, dropping event",
			zap.String("action", action),
			zap.String("tenant", tenant.String()),
		)
		return false
	}
}

// batchWriter is the background goroutine that batches and writes events
func (r *UsageRecorder) batchWriter() {
	defer r.wg.Done()

	batch := make([]*usage.Event, 0, r.config.BatchSize)
	ticker := time.NewTicker(r.config.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
		defer cancel()

		if err := r.writer.AppendBatch(ctx, batch); err != nil {
			r.logger.Error("Failed to write usage batch",
				zap.Int("batch_size", len(batch)),
				zap.Error(err),
			)
		} else {
			counts := make(map[string]int)
			for _, e := range batch {
				counts[e.Action]++
			}
			for action, n := range counts {
				r.metrics.AddUsageRecorded(ctx, n, action)
			}
			r.logger.Debug("Wrote usage batch", zap.Int("batch_size", len(batch)))
		}

		// writers may keep the slice, so start a new one
		batch = make([]*usage.Event, 0, r.config.BatchSize)
	}

	for {
		select {
		case event := <-r.buffer:
			batch = append(batch, event)
			if len(batch) >= r.config.BatchSize {
				flush()
			}

		case <-ticker.C:
			flush()

		case <-r.stopCh:
			// Record holds the read lock while sending and Stop closed stopCh
			// under the write lock, so nothing is sent after this point
			for {
				select {
				case event := <-r.buffer:
					batch = append(batch, event)
					if len(batch) >= r.config.BatchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}
