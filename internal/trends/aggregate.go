// Package trends buckets appointment records into a rolling daily window and
// downsamples it for charting.
package trends

import (
	"time"

	"github.com/wolfman30/healthhub-platform/internal/domain"
)

const (
	// WindowDays is the length of the rolling window, ending today inclusive.
	WindowDays = 30
	// SampleStride keeps every third day of the window.
	SampleStride = 3
	// LabelLayout formats point labels, e.g. "Jan 2".
	LabelLayout = "Jan 2"

	dayLayout = "2006-01-02"
)

// Points is the number of points Aggregate returns.
const Points = (WindowDays + SampleStride - 1) / SampleStride

// TrendPoint is one downsampled day.
type TrendPoint struct {
	Date      string `json:"date"`
	Label     string `json:"label"`
	Scheduled int    `json:"scheduled"`
	Completed int    `json:"completed"`
	Cancelled int    `json:"cancelled"`
}

// Window returns the UTC bounds of the window ending on today's date:
// start is midnight of the oldest day, end is midnight after today.
func Window(today time.Time) (start, end time.Time) {
	day := truncateDay(today)
	return day.AddDate(0, 0, -(WindowDays - 1)), day.AddDate(0, 0, 1)
}

// Aggregate counts records per UTC calendar day and status over the window
// ending today and keeps days 0, 3, 6, ... of it. Records outside the window
// are ignored. The result depends only on its arguments.
func Aggregate(records []domain.AppointmentRecord, today time.Time) []TrendPoint {
	start, _ := Window(today)

	days := make([]TrendPoint, WindowDays)
	index := make(map[string]int, WindowDays)
	for i := range days {
		day := start.AddDate(0, 0, i)
		key := day.Format(dayLayout)
		days[i] = TrendPoint{Date: key, Label: day.Format(LabelLayout)}
		index[key] = i
	}

	for _, rec := range records {
		if rec.Date.IsZero() {
			continue
		}
		i, ok := index[rec.Date.UTC().Format(dayLayout)]
		if !ok {
			continue
		}
		switch rec.Status {
		case domain.StatusCompleted:
			days[i].Completed++
		case domain.StatusCancelled:
			days[i].Cancelled++
		default:
			days[i].Scheduled++
		}
	}

	out := make([]TrendPoint, 0, Points)
	for i := 0; i < WindowDays; i += SampleStride {
		out = append(out, days[i])
	}
	return out
}

// ZeroPoints is the empty chart for today, used when no records are available.
func ZeroPoints(today time.Time) []TrendPoint {
	return Aggregate(nil, today)
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
