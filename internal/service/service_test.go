package service

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// monday is 2030-03-11, a Monday well in the future.
var monday = time.Date(2030, 3, 11, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return monday.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
