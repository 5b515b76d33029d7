package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kaeky/Yum-Yum-sub001/pkg/logger"
)

// NoShowSweeper marks stale reservations as no-shows in batches
type NoShowSweeper interface {
	SweepNoShows(ctx context.Context, limit int) (int, error)
}

// NoShowWorkerConfig contains configuration for the no-show worker
type NoShowWorkerConfig struct {
	// ScanInterval is the interval between scanning for stale reservations
	ScanInterval time.Duration
	// BatchSize is the number of reservations to process in each scan
	BatchSize int
}

// DefaultNoShowWorkerConfig returns default configuration
func DefaultNoShowWorkerConfig() *NoShowWorkerConfig {
	return &NoShowWorkerConfig{
		ScanInterval: time.Minute,
		BatchSize:    100,
	}
}

// NoShowWorker scans for reservations whose slot has ended without the
// party being seated and marks them NO_SHOW, returning their capacity.
type NoShowWorker struct {
	reservations NoShowSweeper
	config       *NoShowWorkerConfig
	log          *logger.Logger
	stopCh       chan struct{}
	wg           sync.WaitGroup
	mu           sync.Mutex
	running      bool

	// Stats
	totalSwept   int64
	lastScanTime time.Time
}

// NewNoShowWorker creates a new no-show worker
func NewNoShowWorker(reservations NoShowSweeper, config *NoShowWorkerConfig) *NoShowWorker {
	if config == nil {
		config = DefaultNoShowWorkerConfig()
	}

	return &NoShowWorker{
		reservations: reservations,
		config:       config,
		log:          logger.Get(),
		stopCh:       make(chan struct{}),
	}
}

// Start starts the no-show worker
func (w *NoShowWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("no-show worker already running")
	}
	w.running = true
	w.mu.Unlock()

	w.log.Info("Starting no-show worker")

	w.wg.Add(1)
	go w.scanStaleReservations(ctx)

	return nil
}

// Stop stops the no-show worker
func (w *NoShowWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	w.log.Info("Stopping no-show worker")
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("No-show worker stopped")
}

// scanStaleReservations periodically sweeps reservations past their slot end
func (w *NoShowWorker) scanStaleReservations(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.ScanInterval)
	defer ticker.Stop()

	// Run immediately on start
	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *NoShowWorker) sweep(ctx context.Context) {
	w.mu.Lock()
	w.lastScanTime = time.Now()
	w.mu.Unlock()

	swept, err := w.reservations.SweepNoShows(ctx, w.config.BatchSize)
	if err != nil {
		w.log.Error(fmt.Sprintf("No-show sweep failed: %v", err))
		return
	}

	if swept > 0 {
		w.mu.Lock()
		w.totalSwept += int64(swept)
		w.mu.Unlock()
		w.log.Info(fmt.Sprintf("Marked %d reservations as no-show", swept))
	}
}

// Stats returns worker statistics
func (w *NoShowWorker) Stats() (totalSwept int64, lastScan time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.totalSwept, w.lastScanTime
}
