package jobs

import (
	"context"
	"log"
	"time"

	"github.com/keyforge-app/keyforge-api/pkg/api/repositories"
	"github.com/keyforge-app/keyforge-api/pkg/tools"
	"github.com/robfig/cron/v3"
)

const stuckReason = "generation timed out: worker never reached a terminal state"

// ScheduleStuckReconcile sets up an hourly job that fails generations
// sitting in generating for longer than maxAge. A worker that dies
// mid-run otherwise leaves its record non-terminal forever.
func ScheduleStuckReconcile(ctx context.Context, repo repositories.GenerationRepository, maxAge time.Duration) *cron.Cron {
	c := cron.New()
	_, _ = c.AddFunc("@hourly", func() {
		tools.Dispatch(context.Background(), "reconcile_stuck", func(ctx context.Context) error {
			n, err := repo.FailStuckGenerating(ctx, time.Now().Add(-maxAge), stuckReason)
			if err != nil {
				log.Printf("[reconcile] failed: %v", err)
				return err
			}
			if n > 0 {
				log.Printf("[reconcile] marked %d stuck generation(s) failed", n)
			}
			return nil
		})
	})
	c.Start()

	go func() {
		<-ctx.Done()
		c.Stop()
	}()
	return c
}
