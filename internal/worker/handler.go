package worker

import (
	"context"
	"fmt"

	"workshop-scheduler/internal/usecase"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

type OverdueSweepHandler struct {
	overdueUsecase usecase.OverdueUsecase
	log            *logrus.Logger
}

func NewOverdueSweepHandler(overdueUsecase usecase.OverdueUsecase, log *logrus.Logger) *OverdueSweepHandler {
	return &OverdueSweepHandler{
		overdueUsecase: overdueUsecase,
		log:            log,
	}
}

func (h *OverdueSweepHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	n, err := h.overdueUsecase.SweepOverdue(ctx)
	if err != nil {
		h.log.Warnf("Failed to run %s: %+v", task.Type(), err)
		return fmt.Errorf("overdue sweep: %w", err)
	}

	h.log.Debugf("%s processed %d bookings", task.Type(), n)
	return nil
}

// NewServeMux routes every task type the worker understands.
func NewServeMux(overdue *OverdueSweepHandler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TypeOverdueSweep, overdue)
	return mux
}
