package usecase

import (
	"context"
	"fmt"
	"time"

	"workshop-scheduler/internal/converter"
	"workshop-scheduler/internal/delivery/dto"
	"workshop-scheduler/internal/domain/entity"
	"workshop-scheduler/internal/domain/repository"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type ReportUsecase interface {
	GetStatistics(ctx context.Context) (*dto.StatisticsResponse, error)
	GetServiceTypes(ctx context.Context) (*dto.ServiceTypesResponse, error)
	// ExportBookings renders the filtered bookings as an .xlsx workbook.
	ExportBookings(ctx context.Context, filter *entity.BookingFilter) ([]byte, error)
}

type reportUsecase struct {
	transactor  repository.Transactor
	log         *logrus.Logger
	bookingRepo repository.BookingRepository
	loc         *time.Location
	now         func() time.Time
}

func NewReportUsecase(
	transactor repository.Transactor,
	log *logrus.Logger,
	bookingRepo repository.BookingRepository,
	loc *time.Location,
) ReportUsecase {
	if loc == nil {
		loc = time.UTC
	}
	return &reportUsecase{
		transactor:  transactor,
		log:         log,
		bookingRepo: bookingRepo,
		loc:         loc,
		now:         time.Now,
	}
}

// GetStatistics counts bookings per status and those scheduled today.
// Both aggregates run concurrently.
func (u *reportUsecase) GetStatistics(ctx context.Context) (*dto.StatisticsResponse, error) {
	var (
		counts []repository.StatusCount
		today  int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		counts, err = u.bookingRepo.CountByStatus(u.transactor.Conn(gctx))
		return err
	})
	g.Go(func() error {
		var err error
		start, end := dayBounds(u.now(), u.loc)
		today, err = u.bookingRepo.CountBetween(u.transactor.Conn(gctx), start, end)
		return err
	})
	if err := g.Wait(); err != nil {
		u.log.Warnf("Failed to compute booking statistics: %+v", err)
		return nil, err
	}

	response := &dto.StatisticsResponse{
		ByStatus: make(map[string]int64, len(entity.AllBookingStatuses)),
		Today:    today,
	}
	for _, status := range entity.AllBookingStatuses {
		response.ByStatus[string(status)] = 0
	}
	for _, c := range counts {
		response.ByStatus[string(c.Status)] = c.Count
		response.Total += c.Count
	}

	return response, nil
}

func (u *reportUsecase) GetServiceTypes(ctx context.Context) (*dto.ServiceTypesResponse, error) {
	serviceTypes, err := u.bookingRepo.FindServiceTypes(u.transactor.Conn(ctx))
	if err != nil {
		u.log.Warnf("Failed to find service types: %+v", err)
		return nil, err
	}
	if serviceTypes == nil {
		serviceTypes = []string{}
	}
	return &dto.ServiceTypesResponse{ServiceTypes: serviceTypes}, nil
}

func (u *reportUsecase) ExportBookings(ctx context.Context, filter *entity.BookingFilter) ([]byte, error) {
	bookings, err := u.bookingRepo.FindAll(u.transactor.Conn(ctx), filter)
	if err != nil {
		u.log.Warnf("Failed to load bookings for export: %+v", err)
		return nil, err
	}

	f, err := converter.BookingsToWorkbook(bookings, u.loc)
	if err != nil {
		u.log.Warnf("Failed to build bookings workbook: %+v", err)
		return nil, err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	u.log.Infof("Bookings exported: rows=%d", len(bookings))
	return buf.Bytes(), nil
}
