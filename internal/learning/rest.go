package learning

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/2beens/fitcoach/internal/telemetry/tracing"
	"github.com/2beens/fitcoach/internal/training"
	"github.com/2beens/fitcoach/pkg"

	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultRestSeconds = 90
	MinRestSeconds     = 30
	MaxRestSeconds     = 300
	RestPatternsLimit  = 20

	goodNextSetPercent = 90.0
	maxGoodFatigue     = 3
	highFatigue        = 4
	fatigueRestBonus   = 30
	recentFatigueWidth = 3
	restRounding       = 5
)

var ErrInvalidRestPattern = errors.New("invalid rest time pattern")

type RestRecommendation struct {
	ExerciseName string `json:"exerciseName"`
	Seconds      int    `json:"seconds"`
	BasedOn      int    `json:"basedOn"`
	Reason       string `json:"reason"`
}

func validateRestPattern(p training.RestTimePattern) error {
	if err := training.ValidateUserID(p.UserID); err != nil {
		return err
	}
	if strings.TrimSpace(p.ExerciseName) == "" {
		return fmt.Errorf("%w: exercise name is empty", ErrInvalidRestPattern)
	}
	if p.ActualRestSeconds < 0 || p.RecommendedRestSeconds < 0 {
		return fmt.Errorf("%w: negative rest time", ErrInvalidRestPattern)
	}
	if p.FatigueLevel < 0 || p.FatigueLevel > 5 {
		return fmt.Errorf("%w: fatigue out of range: %d", ErrInvalidRestPattern, p.FatigueLevel)
	}
	if p.NextSetPerformance < 0 {
		return fmt.Errorf("%w: negative next set performance", ErrInvalidRestPattern)
	}
	return nil
}

// RecordRestPattern appends an observed rest period.
func (e *Engine) RecordRestPattern(ctx context.Context, p training.RestTimePattern) (_ *training.RestTimePattern, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "learning.rest.record")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int64("user_id", p.UserID),
		attribute.String("exercise", p.ExerciseName),
	)

	if err := validateRestPattern(p); err != nil {
		return nil, err
	}
	p.ExerciseName = strings.TrimSpace(p.ExerciseName)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = e.Now()
	}

	stored, err := e.repo.AddRestTimePattern(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("add rest time pattern: %w", err)
	}
	return stored, nil
}

// RecommendRest suggests the rest between sets of an exercise from the
// user's recent rest patterns (most recent first).
func (e *Engine) RecommendRest(ctx context.Context, userID int64, exerciseName string) (_ *RestRecommendation, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "learning.rest.recommend")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.String("exercise", exerciseName),
	)

	if err := training.ValidateUserID(userID); err != nil {
		return nil, err
	}
	exerciseName = strings.TrimSpace(exerciseName)
	if exerciseName == "" {
		return nil, errors.New("exercise name is empty")
	}

	patterns, err := e.repo.ListRestTimePatterns(ctx, userID, exerciseName, RestPatternsLimit)
	if err != nil {
		return nil, fmt.Errorf("list rest time patterns: %w", err)
	}

	rec := RecommendRestFromPatterns(patterns)
	rec.ExerciseName = exerciseName
	return &rec, nil
}

// RecommendRestFromPatterns expects patterns most recent first.
func RecommendRestFromPatterns(patterns []training.RestTimePattern) RestRecommendation {
	if len(patterns) == 0 {
		return RestRecommendation{
			Seconds: DefaultRestSeconds,
			Reason:  "no rest data yet, using the default",
		}
	}

	var all, good, recentFatigue []float64
	for i, p := range patterns {
		all = append(all, float64(p.ActualRestSeconds))
		if p.NextSetPerformance >= goodNextSetPercent && p.FatigueLevel <= maxGoodFatigue {
			good = append(good, float64(p.ActualRestSeconds))
		}
		if i < recentFatigueWidth {
			recentFatigue = append(recentFatigue, float64(p.FatigueLevel))
		}
	}

	if pkg.Mean(recentFatigue) >= highFatigue {
		return RestRecommendation{
			Seconds: roundRest(pkg.Mean(all) + fatigueRestBonus),
			BasedOn: len(all),
			Reason:  "recent sets ended with high fatigue, resting longer",
		}
	}
	if len(good) > 0 {
		return RestRecommendation{
			Seconds: roundRest(pkg.Mean(good)),
			BasedOn: len(good),
			Reason:  "average rest before sets that went well",
		}
	}
	return RestRecommendation{
		Seconds: roundRest(pkg.Mean(all)),
		BasedOn: len(all),
		Reason:  "average observed rest",
	}
}

func roundRest(seconds float64) int {
	rounded := math.Round(seconds/restRounding) * restRounding
	return int(pkg.Clamp(rounded, MinRestSeconds, MaxRestSeconds))
}
