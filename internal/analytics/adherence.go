package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/2beens/fitcoach/internal/training"
	"github.com/2beens/fitcoach/pkg"
)

type AdherenceMetrics struct {
	WindowDays        int     `json:"windowDays"`
	TotalSessions     int     `json:"totalSessions"`
	CompletedSessions int     `json:"completedSessions"`
	MissedSessions    int     `json:"missedSessions"`
	CompletionRate    float64 `json:"completionRate"`
	StreakDays        int     `json:"streakDays"`
	AvgSessionMinutes float64 `json:"avgSessionMinutes"`
	// WeeklyPattern maps each available weekday to the percentage of
	// weeks in the window that had a session on it.
	WeeklyPattern map[string]float64 `json:"weeklyPattern"`
}

func ComputeAdherence(
	sessions []training.WorkoutSession,
	availableDays []time.Weekday,
	window training.DateRange,
	windowDays int,
) AdherenceMetrics {
	metrics := AdherenceMetrics{
		WindowDays:    windowDays,
		WeeklyPattern: make(map[string]float64),
	}
	if len(availableDays) == 0 {
		availableDays = training.DefaultAvailableDays
	}

	var inWindow []training.WorkoutSession
	var durations []float64
	for _, s := range sessions {
		if !window.Contains(s.StartedAt) {
			continue
		}
		inWindow = append(inWindow, s)
		if s.IsCompleted() {
			metrics.CompletedSessions++
			if d := s.Duration(); d > 0 {
				durations = append(durations, d.Minutes())
			}
		}
	}

	metrics.TotalSessions = len(inWindow)
	metrics.MissedSessions = metrics.TotalSessions - metrics.CompletedSessions
	metrics.CompletionRate = pkg.Percentage(float64(metrics.CompletedSessions), float64(metrics.TotalSessions))
	metrics.StreakDays = CalculateStreakDays(inWindow)
	metrics.AvgSessionMinutes = pkg.Mean(durations)

	weeks := int(math.Ceil(float64(windowDays) / 7))
	if weeks < 1 {
		weeks = 1
	}
	trainedDates := make(map[time.Weekday]map[time.Time]struct{})
	for _, s := range inWindow {
		if s.Status == training.SessionSkipped {
			continue
		}
		day := calendarDay(s.StartedAt)
		if trainedDates[day.Weekday()] == nil {
			trainedDates[day.Weekday()] = make(map[time.Time]struct{})
		}
		trainedDates[day.Weekday()][day] = struct{}{}
	}
	for _, wd := range availableDays {
		pct := pkg.Percentage(float64(len(trainedDates[wd])), float64(weeks))
		metrics.WeeklyPattern[wd.String()] = math.Min(100, pct)
	}

	return metrics
}

// CalculateStreakDays returns the longest run of consecutive calendar days
// with at least one completed session. Several sessions on one day count once.
func CalculateStreakDays(sessions []training.WorkoutSession) int {
	daySet := make(map[time.Time]struct{})
	for _, s := range sessions {
		if s.IsCompleted() {
			daySet[calendarDay(s.StartedAt)] = struct{}{}
		}
	}
	if len(daySet) == 0 {
		return 0
	}

	days := make([]time.Time, 0, len(daySet))
	for d := range daySet {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Before(days[j])
	})

	longest, current := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i-1].AddDate(0, 0, 1).Equal(days[i]) {
			current++
		} else {
			current = 1
		}
		if current > longest {
			longest = current
		}
	}
	return longest
}

// calendarDay keeps the date as seen in the timestamp's own location.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
