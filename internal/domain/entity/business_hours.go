package entity

import (
	"fmt"
	"time"
)

// SlotInterval is the granularity of bookable start times.
const SlotInterval = 30 * time.Minute

const (
	BusinessStatusOpen   = "open"
	BusinessStatusClosed = "closed"
)

// BusinessHours describes one day of the workshop week. Close is exclusive:
// the last bookable slot starts one interval before it.
type BusinessHours struct {
	Open   string `json:"open"`
	Close  string `json:"close"`
	Status string `json:"status"`
}

type openingHours struct {
	open  int
	close int
}

var weeklyHours = map[time.Weekday]openingHours{
	time.Monday:    {open: 8, close: 18},
	time.Tuesday:   {open: 8, close: 18},
	time.Wednesday: {open: 8, close: 18},
	time.Thursday:  {open: 8, close: 18},
	time.Friday:    {open: 8, close: 18},
	time.Saturday:  {open: 9, close: 16},
}

// BusinessHoursFor returns the opening hours for the date's weekday.
func BusinessHoursFor(date time.Time) BusinessHours {
	hours, ok := weeklyHours[date.Weekday()]
	if !ok {
		return BusinessHours{Status: BusinessStatusClosed}
	}
	return BusinessHours{
		Open:   fmt.Sprintf("%02d:00", hours.open),
		Close:  fmt.Sprintf("%02d:00", hours.close),
		Status: BusinessStatusOpen,
	}
}

// SlotsFor lists the HH:MM start times offered on the date's weekday, ascending.
// Sundays yield an empty list.
func SlotsFor(date time.Time) []string {
	hours, ok := weeklyHours[date.Weekday()]
	if !ok {
		return []string{}
	}

	slots := make([]string, 0, (hours.close-hours.open)*2)
	for t := time.Duration(hours.open) * time.Hour; t < time.Duration(hours.close)*time.Hour; t += SlotInterval {
		slots = append(slots, fmt.Sprintf("%02d:%02d", int(t.Hours()), int(t.Minutes())%60))
	}
	return slots
}

// IsClosed reports whether the workshop is closed all day.
func IsClosed(date time.Time) bool {
	_, ok := weeklyHours[date.Weekday()]
	return !ok
}
