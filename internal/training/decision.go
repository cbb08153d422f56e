package training

import (
	"encoding/json"
	"fmt"
	"time"
)

type DecisionType string

const (
	DecisionIntensityAdjustment    DecisionType = "intensity_adjustment"
	DecisionDurationAdjustment     DecisionType = "duration_adjustment"
	DecisionFrequencyAdjustment    DecisionType = "frequency_adjustment"
	DecisionWeightSuggestionUpdate DecisionType = "weight_suggestion_update"
)

func (t DecisionType) Valid() bool {
	switch t {
	case DecisionIntensityAdjustment, DecisionDurationAdjustment,
		DecisionFrequencyAdjustment, DecisionWeightSuggestionUpdate:
		return true
	}
	return false
}

// PreferenceTrigger is the feedback that caused a preference adjustment.
type PreferenceTrigger struct {
	SessionID     int64  `json:"sessionId"`
	OverallRPE    int    `json:"overallRpe"`
	Fatigue       int    `json:"fatigue"`
	Satisfaction  int    `json:"satisfaction"`
	PreviousValue string `json:"previousValue"`
	NewValue      string `json:"newValue"`
}

// WeightUpdateTrigger is the evidence a learning sweep used to rewrite a suggestion.
type WeightUpdateTrigger struct {
	RunID             string           `json:"runId"`
	ExerciseName      string           `json:"exerciseName"`
	PreviousWeight    float64          `json:"previousWeight"`
	NewWeight         float64          `json:"newWeight"`
	AverageRPE        float64          `json:"averageRpe"`
	TooLightCount     int              `json:"tooLightCount"`
	PerfectCount      int              `json:"perfectCount"`
	TooHeavyCount     int              `json:"tooHeavyCount"`
	Trend             ProgressionTrend `json:"trend"`
	RecentWeightsVar  float64          `json:"recentWeightsVariance"`
	DataPoints        int              `json:"dataPoints"`
	AdjustmentPercent float64          `json:"adjustmentPercent"`
}

// AIDecision is an auditable record of an automatic adjustment. Exactly one
// of Preference or WeightUpdate is set, selected by Type.
type AIDecision struct {
	ID         int64        `json:"id"`
	UserID     int64        `json:"userId"`
	Type       DecisionType `json:"decisionType"`
	Reasoning  string       `json:"reasoning"`
	Confidence float64      `json:"confidence"`
	CreatedAt  time.Time    `json:"createdAt"`

	Preference   *PreferenceTrigger   `json:"preferenceTrigger,omitempty"`
	WeightUpdate *WeightUpdateTrigger `json:"weightUpdateTrigger,omitempty"`
}

func (d AIDecision) Validate() error {
	switch d.Type {
	case DecisionIntensityAdjustment, DecisionDurationAdjustment, DecisionFrequencyAdjustment:
		if d.Preference == nil || d.WeightUpdate != nil {
			return fmt.Errorf("decision %s requires a preference trigger only", d.Type)
		}
	case DecisionWeightSuggestionUpdate:
		if d.WeightUpdate == nil || d.Preference != nil {
			return fmt.Errorf("decision %s requires a weight update trigger only", d.Type)
		}
	default:
		return fmt.Errorf("unknown decision type: %q", d.Type)
	}
	if d.Confidence < 0 || d.Confidence > 1 {
		return fmt.Errorf("decision confidence out of range: %f", d.Confidence)
	}
	return nil
}

// MarshalTrigger encodes the variant matching the decision type.
func (d AIDecision) MarshalTrigger() ([]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if d.Type == DecisionWeightSuggestionUpdate {
		return json.Marshal(d.WeightUpdate)
	}
	return json.Marshal(d.Preference)
}

// UnmarshalTrigger decodes raw into the variant selected by d.Type.
func (d *AIDecision) UnmarshalTrigger(raw []byte) error {
	switch d.Type {
	case DecisionIntensityAdjustment, DecisionDurationAdjustment, DecisionFrequencyAdjustment:
		var t PreferenceTrigger
		if err := json.Unmarshal(raw, &t); err != nil {
			return fmt.Errorf("unmarshal preference trigger: %w", err)
		}
		d.Preference = &t
	case DecisionWeightSuggestionUpdate:
		var t WeightUpdateTrigger
		if err := json.Unmarshal(raw, &t); err != nil {
			return fmt.Errorf("unmarshal weight update trigger: %w", err)
		}
		d.WeightUpdate = &t
	default:
		return fmt.Errorf("unknown decision type: %q", d.Type)
	}
	return nil
}
