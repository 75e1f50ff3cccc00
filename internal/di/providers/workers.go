package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/mediashelf/mediashelf-server/internal/logger"
)

// recordGaugeInterval is how often cached record counts are sampled.
const recordGaugeInterval = 5 * time.Minute

// RecordGaugeJob periodically samples cached record counts into metrics.
type RecordGaugeJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *RecordGaugeJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideRecordGaugeJob provides the periodic record count sampler.
func ProvideRecordGaugeJob(i do.Injector) (*RecordGaugeJob, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		ticker := time.NewTicker(recordGaugeInterval)
		defer ticker.Stop()

		// Initial sample on startup
		if err := storeHandle.SampleRecordGauge(ctx); err != nil {
			log.Warn("Initial record count sample failed", "error", err)
		}

		for {
			select {
			case <-ticker.C:
				if err := storeHandle.SampleRecordGauge(ctx); err != nil && ctx.Err() == nil {
					log.Warn("Record count sample failed", "error", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Record count sampler started", "interval", recordGaugeInterval)

	return &RecordGaugeJob{cancel: cancel}, nil
}
