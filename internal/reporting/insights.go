package reporting

import (
	"fmt"

	"github.com/2beens/fitcoach/internal/analytics"
)

const (
	weeklyGoodSessions  = 3
	monthlyGoodSessions = 12
	highRPE             = 8.5
	lowRPE              = 5.0
	productiveRPELow    = 6.0
	productiveRPEHigh   = 8.0
	lowSatisfaction     = 2.5
	highSatisfaction    = 4.0
	lowCompletionRate   = 50.0
	volumeSwingPercent  = 10.0
	notableStreakDays   = 3
)

// Insights picks the canned observations and recommendations that apply to
// a metrics snapshot.
func Insights(period Period, s analytics.Snapshot) (insights, recommendations []string) {
	completed := s.Adherence.CompletedSessions
	goodSessions := weeklyGoodSessions
	if period == PeriodMonthly {
		goodSessions = monthlyGoodSessions
	}

	switch {
	case completed == 0:
		insights = append(insights, fmt.Sprintf("No workouts completed this %s.", period.noun()))
		recommendations = append(recommendations, "Schedule your next session now, even a short one keeps the habit alive.")
		return insights, recommendations
	case completed >= goodSessions:
		insights = append(insights, fmt.Sprintf("Great consistency: %d workouts completed this %s.", completed, period.noun()))
	default:
		insights = append(insights, fmt.Sprintf("%d workouts completed this %s.", completed, period.noun()))
		recommendations = append(recommendations, fmt.Sprintf("Aim for at least %d sessions per %s.", goodSessions, period.noun()))
	}

	if s.Adherence.TotalSessions > 0 && s.Adherence.CompletionRate < lowCompletionRate {
		insights = append(insights, fmt.Sprintf("Only %.0f%% of started sessions were completed.", s.Adherence.CompletionRate))
		recommendations = append(recommendations, "Try shorter sessions so they are easier to finish.")
	}

	if s.Adherence.StreakDays >= notableStreakDays {
		insights = append(insights, fmt.Sprintf("Longest streak: %d days in a row.", s.Adherence.StreakDays))
	}

	if s.Progress.TotalVolume > 0 {
		switch change := s.Progress.VolumeChangePercent; {
		case change > volumeSwingPercent:
			insights = append(insights, fmt.Sprintf("Training volume went up %.1f%%.", change))
		case change < -volumeSwingPercent:
			insights = append(insights, fmt.Sprintf("Training volume dropped %.1f%%.", -change))
			recommendations = append(recommendations, "Volume is trending down, check whether recovery or schedule is getting in the way.")
		}
	}

	if s.Progress.RPESamples > 0 {
		rpe := s.Progress.AverageRPE
		switch {
		case rpe >= highRPE:
			insights = append(insights, fmt.Sprintf("Sessions have been very demanding (average RPE %.1f).", rpe))
			recommendations = append(recommendations, "Plan a lighter session or a deload week.")
		case rpe <= lowRPE:
			insights = append(insights, fmt.Sprintf("Sessions have felt easy (average RPE %.1f).", rpe))
			recommendations = append(recommendations, "You are ready to increase the weights.")
		case rpe >= productiveRPELow && rpe <= productiveRPEHigh:
			insights = append(insights, fmt.Sprintf("Effort is in the productive range (average RPE %.1f).", rpe))
		}
	}

	if s.Effectiveness.FeedbackCount > 0 {
		satisfaction := s.Effectiveness.AverageSatisfaction
		switch {
		case satisfaction <= lowSatisfaction:
			insights = append(insights, fmt.Sprintf("Workout satisfaction is low (%.1f/5).", satisfaction))
			recommendations = append(recommendations, "Swap in some exercises you enjoy more.")
		case satisfaction >= highSatisfaction:
			insights = append(insights, fmt.Sprintf("You are enjoying your workouts (%.1f/5).", satisfaction))
		}
	}

	return insights, recommendations
}
