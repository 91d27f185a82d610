package cron

import (
	"context"
	"errors"
	"time"

	"github.com/gastaldl/lojaflow/internal/orders"
	"github.com/gastaldl/lojaflow/pkg/logger"
)

const purgeCancelledJobName = "purge-cancelled-orders"

type orderPurger interface {
	PurgeCancelled(ctx context.Context, olderThan time.Duration) (*orders.PurgeResult, error)
}

// PurgeCancelledJob removes cancelled orders past the retention window.
// A zero Retention defers to the order service's configured retention.
type PurgeCancelledJob struct {
	orders    orderPurger
	logg      *logger.Logger
	retention time.Duration
}

// NewPurgeCancelledJob wires the job onto the order service.
func NewPurgeCancelledJob(svc orderPurger, logg *logger.Logger, retention time.Duration) (*PurgeCancelledJob, error) {
	if svc == nil {
		return nil, errors.New("order service required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	if retention < 0 {
		return nil, errors.New("retention cannot be negative")
	}
	return &PurgeCancelledJob{orders: svc, logg: logg, retention: retention}, nil
}

func (j *PurgeCancelledJob) Name() string { return purgeCancelledJobName }

func (j *PurgeCancelledJob) Run(ctx context.Context) error {
	result, err := j.orders.PurgeCancelled(ctx, j.retention)
	if err != nil {
		return err
	}
	if result.Removed > 0 {
		ctx = j.logg.WithFields(ctx, map[string]any{
			"removed": result.Removed,
			"cutoff":  result.Cutoff,
		})
		j.logg.Info(ctx, "cancelled orders purged")
	}
	return nil
}
