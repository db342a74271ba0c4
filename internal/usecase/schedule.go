package usecase

import (
	"context"
	"strings"
	"time"

	"workshop-scheduler/internal/delivery/http/middleware"
	"workshop-scheduler/internal/domain/entity"
)

const (
	dateLayout     = "2006-01-02"
	clockLayout    = "15:04"
	scheduleLayout = dateLayout + " " + clockLayout
)

// parseSchedule combines a YYYY-MM-DD date and an HH:MM time in loc.
func parseSchedule(date, clock string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(scheduleLayout, strings.TrimSpace(date)+" "+strings.TrimSpace(clock), loc)
	if err != nil {
		return time.Time{}, ErrInvalidDateFormat
	}
	return t, nil
}

func parseDate(date string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(date), loc)
	if err != nil {
		return time.Time{}, ErrInvalidDateFormat
	}
	return t, nil
}

// dayBounds returns [midnight, next midnight) of t's calendar day in loc.
func dayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	t = t.In(loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

func durationOf(minutes int) time.Duration {
	return time.Duration(minutes) * time.Minute
}

func actorFromContext(ctx context.Context) (entity.Actor, error) {
	actor, ok := middleware.GetActorFromContext(ctx)
	if !ok {
		return entity.Actor{}, ErrUnauthenticated
	}
	return actor, nil
}
