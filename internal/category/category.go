// Package category classifies achievement records into the buckets the
// dashboard groups them by.
package category

// Type is an achievement-type tag as emitted by the backend.
type Type string

// Known achievement types.
const (
	TypeContributionMilestone Type = "contribution_milestone"
	TypeGoalCompleted         Type = "goal_completed"
	TypeFirstGoal             Type = "first_goal"
	TypeTeamPlayer            Type = "team_player"
	TypeStreakMilestone       Type = "streak_milestone"
)

// Category is a UI-facing category bucket.
type Category string

// Categories shown in the dashboard.
const (
	Savings Category = "savings"
	Goals   Category = "goals"
	Social  Category = "social"
	Streaks Category = "streaks"
)

// Default is the category assigned to any type not listed above.
const Default = Goals

// Achievement is the subset of a backend achievement record the mapper reads.
type Achievement struct {
	Name     string `json:"name"`
	Type     Type   `json:"type"`
	Category string `json:"category,omitempty"` // backend grouping, ignored by MapAchievement
}

// MapCategory maps an achievement type to its category. It is total: tags
// the backend adds later fall into Default instead of failing.
// Matching is exact and case-sensitive.
func MapCategory(t Type) Category {
	switch t {
	case TypeContributionMilestone:
		return Savings
	case TypeGoalCompleted, TypeFirstGoal:
		return Goals
	case TypeTeamPlayer:
		return Social
	case TypeStreakMilestone:
		return Streaks
	default:
		return Default
	}
}

// MapAchievement maps an achievement by its type tag.
func MapAchievement(a Achievement) Category {
	return MapCategory(a.Type)
}

// IsKnown reports whether t is one of the recognized types.
func IsKnown(t Type) bool {
	for _, k := range Types() {
		if k == t {
			return true
		}
	}
	return false
}

// Types returns the recognized achievement types.
func Types() []Type {
	return []Type{
		TypeContributionMilestone,
		TypeGoalCompleted,
		TypeFirstGoal,
		TypeTeamPlayer,
		TypeStreakMilestone,
	}
}

// Categories returns every category MapCategory can produce.
func Categories() []Category {
	return []Category{Savings, Goals, Social, Streaks}
}
