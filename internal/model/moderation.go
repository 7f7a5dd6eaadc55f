package model

// Category is one of the moderated content categories.
type Category string

const (
	CategoryHate     Category = "Hate"
	CategorySelfHarm Category = "SelfHarm"
	CategorySexual   Category = "Sexual"
	CategoryViolence Category = "Violence"
)

// Categories lists every moderated category in a stable order.
var Categories = []Category{CategoryHate, CategorySelfHarm, CategorySexual, CategoryViolence}

// CategoryScores holds the raw severity score per category as returned by
// the classifier. Scores are integers on the classifier's 0..7 scale.
type CategoryScores map[Category]int

// ModerationVerdict is the gate's decision for a piece of text. It is
// ephemeral and never persisted.
type ModerationVerdict struct {
	Safe       bool
	Violations []Category
	Scores     CategoryScores
}
