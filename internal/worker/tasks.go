package worker

import (
	"github.com/hibiken/asynq"
)

const (
	TypeOverdueSweep = "booking:overdue_sweep"

	queueDefault = "default"
)

// NewOverdueSweepTask builds the task the scheduler enqueues on every tick.
func NewOverdueSweepTask() *asynq.Task {
	return asynq.NewTask(TypeOverdueSweep, nil, asynq.Queue(queueDefault), asynq.MaxRetry(1))
}
