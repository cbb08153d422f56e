package periodization

import (
	"math"

	"github.com/2beens/fitcoach/internal/analytics"
	"github.com/2beens/fitcoach/internal/training"
)

type StagnationType string

const (
	StagnationNone         StagnationType = ""
	StagnationStrength     StagnationType = "strength"
	StagnationFatigue      StagnationType = "fatigue"
	StagnationSatisfaction StagnationType = "satisfaction"
	StagnationVolume       StagnationType = "volume"
)

type Severity string

const (
	SeverityNone   Severity = "none"
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

type Action string

const (
	ActionRest            Action = "rest"
	ActionDeload          Action = "deload"
	ActionChangeExercises Action = "change_exercises"
	ActionChangePhase     Action = "change_phase"
	ActionContinue        Action = "continue"
)

const (
	IndicatorStrengthPlateau = "strength_plateau"
	IndicatorOverreaching    = "overreaching"
	IndicatorUnderStimulus   = "under_stimulus"
	IndicatorLowSatisfaction = "low_satisfaction"
	IndicatorVolumeDecline   = "volume_decline"
	IndicatorLongPhase       = "long_phase"
)

// StagnationThreshold is the minimum score for declaring stagnation. The
// score is a heuristic sum of rule weights, not a probability.
const StagnationThreshold = 0.3

const (
	plateauVolumeBand    = 5.0
	plateauMinWeeks      = 3
	overreachingRPE      = 8.5
	underStimulusRPE     = 5.0
	lowSatisfaction      = 2.5
	highSeveritySatisf   = 2.0
	volumeDeclinePercent = -10.0
	longPhaseWeeks       = 8
	strengthChangeWeeks  = 6
	restFatigue          = 4.0
)

// Inputs are the signals the rules look at. The Has* flags tell whether the
// matching averages are backed by data.
type Inputs struct {
	VolumeChangePercent float64
	HasVolume           bool
	AverageRPE          float64
	HasRPE              bool
	AverageSatisfaction float64
	AverageFatigue      float64
	HasFeedback         bool
	WeeksInPhase        int
}

// InputsFromSnapshot prefers per-set RPE and falls back to the post workout
// RPE when no set was rated.
func InputsFromSnapshot(s analytics.Snapshot, weeksInPhase int) Inputs {
	in := Inputs{
		VolumeChangePercent: s.Progress.VolumeChangePercent,
		HasVolume:           s.Progress.TotalVolume > 0,
		AverageRPE:          s.Progress.AverageRPE,
		HasRPE:              s.Progress.RPESamples > 0,
		AverageSatisfaction: s.Effectiveness.AverageSatisfaction,
		AverageFatigue:      s.Effectiveness.AverageFatigue,
		HasFeedback:         s.Effectiveness.FeedbackCount > 0,
		WeeksInPhase:        weeksInPhase,
	}
	if !in.HasRPE && in.HasFeedback && s.Effectiveness.AverageRPE > 0 {
		in.AverageRPE = s.Effectiveness.AverageRPE
		in.HasRPE = true
	}
	return in
}

type rule struct {
	indicator      string
	stagnationType StagnationType
	weight         float64
	fires          func(in Inputs) bool
}

// Ordered by weight, the first fired rule with a type sets the primary type.
var rules = []rule{
	{
		indicator:      IndicatorStrengthPlateau,
		stagnationType: StagnationStrength,
		weight:         0.30,
		fires: func(in Inputs) bool {
			return in.HasVolume && math.Abs(in.VolumeChangePercent) < plateauVolumeBand && in.WeeksInPhase >= plateauMinWeeks
		},
	},
	{
		indicator:      IndicatorOverreaching,
		stagnationType: StagnationFatigue,
		weight:         0.25,
		fires: func(in Inputs) bool {
			return in.HasRPE && in.AverageRPE >= overreachingRPE
		},
	},
	{
		indicator:      IndicatorUnderStimulus,
		stagnationType: StagnationStrength,
		weight:         0.20,
		fires: func(in Inputs) bool {
			return in.HasRPE && in.AverageRPE <= underStimulusRPE
		},
	},
	{
		indicator:      IndicatorLowSatisfaction,
		stagnationType: StagnationSatisfaction,
		weight:         0.20,
		fires: func(in Inputs) bool {
			return in.HasFeedback && in.AverageSatisfaction <= lowSatisfaction
		},
	},
	{
		indicator:      IndicatorVolumeDecline,
		stagnationType: StagnationVolume,
		weight:         0.15,
		fires: func(in Inputs) bool {
			return in.HasVolume && in.VolumeChangePercent < volumeDeclinePercent
		},
	},
	{
		indicator:      IndicatorLongPhase,
		stagnationType: StagnationNone,
		weight:         0.10,
		fires: func(in Inputs) bool {
			return in.WeeksInPhase >= longPhaseWeeks
		},
	},
}

type Evaluation struct {
	Indicators []string
	Type       StagnationType
	Severity   Severity
	Confidence float64
	Stagnant   bool
	Action     Action
}

// Evaluate runs every rule over in. Stagnation needs at least one fired
// indicator and a score of at least StagnationThreshold.
func Evaluate(in Inputs) Evaluation {
	var ev Evaluation
	score := 0.0
	for _, r := range rules {
		if !r.fires(in) {
			continue
		}
		ev.Indicators = append(ev.Indicators, r.indicator)
		score += r.weight
		if ev.Type == StagnationNone {
			ev.Type = r.stagnationType
		}
	}

	// hundredths, so 0.1 + 0.2 compares equal to the threshold
	ev.Confidence = math.Min(1, math.Round(score*100)/100)
	ev.Stagnant = len(ev.Indicators) > 0 && ev.Confidence >= StagnationThreshold
	ev.Severity = severity(in, len(ev.Indicators))
	ev.Action = action(in, ev)
	return ev
}

func severity(in Inputs, fired int) Severity {
	switch {
	case fired == 0:
		return SeverityNone
	case (in.HasRPE && in.AverageRPE >= overreachingRPE) ||
		(in.HasFeedback && in.AverageSatisfaction <= highSeveritySatisf) ||
		in.WeeksInPhase >= longPhaseWeeks:
		return SeverityHigh
	case fired >= 2:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

func action(in Inputs, ev Evaluation) Action {
	if !ev.Stagnant {
		return ActionContinue
	}
	switch {
	case in.HasRPE && in.AverageRPE >= overreachingRPE && in.HasFeedback && in.AverageFatigue >= restFatigue:
		return ActionRest
	case ev.Severity == SeverityHigh:
		return ActionDeload
	case ev.Type == StagnationSatisfaction:
		return ActionChangeExercises
	case (ev.Type == StagnationStrength && in.WeeksInPhase >= strengthChangeWeeks) || in.WeeksInPhase >= longPhaseWeeks:
		return ActionChangePhase
	default:
		return ActionContinue
	}
}

// NextPhase follows strength -> hypertrophy -> definition -> strength.
// Recovery goes back to hypertrophy.
func NextPhase(current training.Phase) training.Phase {
	switch current {
	case training.PhaseStrength:
		return training.PhaseHypertrophy
	case training.PhaseHypertrophy:
		return training.PhaseDefinition
	case training.PhaseDefinition:
		return training.PhaseStrength
	default:
		return training.PhaseHypertrophy
	}
}

// RecommendedPhase is the current phase unless the evaluation asks for a
// change. Fatigue always points to recovery.
func RecommendedPhase(current training.Phase, ev Evaluation) training.Phase {
	switch {
	case !ev.Stagnant:
		return current
	case ev.Type == StagnationFatigue || ev.Action == ActionRest:
		return training.PhaseRecovery
	case ev.Action == ActionContinue:
		return current
	default:
		return NextPhase(current)
	}
}
