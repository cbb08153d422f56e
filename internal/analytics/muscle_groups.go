package analytics

import "strings"

const (
	MuscleGroupShoulders = "Shoulders"
	MuscleGroupChest     = "Chest"
	MuscleGroupLegs      = "Legs"
	MuscleGroupBack      = "Back"
	MuscleGroupArms      = "Arms"
	MuscleGroupCore      = "Core"
	MuscleGroupGeneral   = "General"
)

type muscleGroupKeywords struct {
	group    string
	keywords []string
}

// Order matters: the first group with a matching keyword wins, so compound
// names like "leg curl" or "back squat" land in the more specific group.
var muscleGroupTable = []muscleGroupKeywords{
	{
		group: MuscleGroupShoulders,
		keywords: []string{
			"hombro", "shoulder", "press militar", "military press", "overhead press",
			"elevaciones laterales", "lateral raise", "deltoid",
		},
	},
	{
		group: MuscleGroupChest,
		keywords: []string{
			"pecho", "chest", "press de banca", "bench", "pec", "aperturas", "fly",
			"flexiones", "push-up", "push up",
		},
	},
	{
		group: MuscleGroupLegs,
		keywords: []string{
			"pierna", "leg", "sentadilla", "squat", "prensa", "zancada", "lunge",
			"cuádriceps", "quad", "femoral", "hamstring", "gemelo", "calf",
			"glúteo", "glute", "hip thrust",
		},
	},
	{
		group: MuscleGroupBack,
		keywords: []string{
			"espalda", "back", "remo", "row", "dominada", "pull-up", "pull up",
			"jalón", "pulldown", "peso muerto", "deadlift",
		},
	},
	{
		group: MuscleGroupArms,
		keywords: []string{
			"bíceps", "bicep", "tríceps", "tricep", "curl", "brazo", "arm",
			"antebrazo", "forearm",
		},
	},
	{
		group: MuscleGroupCore,
		keywords: []string{
			"abdominal", "abs", "core", "plancha", "plank", "crunch", "oblicuo", "oblique",
		},
	},
}

// MuscleGroup classifies an exercise name by case-insensitive substring match
// against the keyword table. Unmatched names are General.
func MuscleGroup(exerciseName string) string {
	name := strings.ToLower(strings.TrimSpace(exerciseName))
	if name == "" {
		return MuscleGroupGeneral
	}
	for _, entry := range muscleGroupTable {
		for _, kw := range entry.keywords {
			if strings.Contains(name, kw) {
				return entry.group
			}
		}
	}
	return MuscleGroupGeneral
}

// MuscleGroupKeywords returns a copy of the keyword table, group by group.
func MuscleGroupKeywords() map[string][]string {
	table := make(map[string][]string, len(muscleGroupTable))
	for _, entry := range muscleGroupTable {
		table[entry.group] = append([]string(nil), entry.keywords...)
	}
	return table
}
