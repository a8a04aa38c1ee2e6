package cleanup

import (
	"context"
	"time"

	"github.com/hackload-kz/rorobotics/internal/shared/config"
	"github.com/hackload-kz/rorobotics/pkg/logger"
)

// JobProcessor runs the cleanup sweeps on a fixed interval.
type JobProcessor struct {
	service  Service
	interval time.Duration
	done     chan struct{}
}

func NewJobProcessor(service Service, cfg *config.Config) *JobProcessor {
	return &JobProcessor{
		service:  service,
		interval: cfg.Reaper.Interval,
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop. The first sweep runs one interval
// after startup, not immediately, so a restart storm does not hammer
// the database.
func (jp *JobProcessor) Start(ctx context.Context) {
	logger.GetDefault().Info("starting cleanup job", "interval", jp.interval)
	go jp.run(ctx)
}

// Stop terminates the sweep loop.
func (jp *JobProcessor) Stop() {
	close(jp.done)
	logger.GetDefault().Info("cleanup job stopped")
}

func (jp *JobProcessor) run(ctx context.Context) {
	ticker := time.NewTicker(jp.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			jp.service.RunFullCleanup(ctx)
		case <-jp.done:
			return
		case <-ctx.Done():
			return
		}
	}
}
