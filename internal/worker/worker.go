package worker

import (
	"context"
	"fmt"

	"workshop-scheduler/config"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// Worker runs the asynq server together with the scheduler that enqueues the
// periodic sweep.
type Worker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	cronSpec  string
	log       *logrus.Logger
}

func NewWorker(redisOpt asynq.RedisClientOpt, cfg config.WorkerConfig, mux *asynq.ServeMux, log *logrus.Logger) *Worker {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueDefault: 1,
		},
		Logger: log,
	})

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{Logger: log})

	return &Worker{
		server:    server,
		scheduler: scheduler,
		mux:       mux,
		cronSpec:  cfg.OverdueCron,
		log:       log,
	}
}

// Run blocks until ctx is cancelled, then drains in-flight tasks.
func (w *Worker) Run(ctx context.Context) error {
	entryID, err := w.scheduler.Register(w.cronSpec, NewOverdueSweepTask())
	if err != nil {
		return fmt.Errorf("register %s on %q: %w", TypeOverdueSweep, w.cronSpec, err)
	}
	w.log.Infof("Scheduled %s: cron=%q entry=%s", TypeOverdueSweep, w.cronSpec, entryID)

	if err := w.scheduler.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer w.scheduler.Shutdown()

	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("start worker server: %w", err)
	}
	w.log.Info("Worker started")

	<-ctx.Done()

	w.log.Info("Worker shutting down...")
	w.server.Shutdown()
	return nil
}
