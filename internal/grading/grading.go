// Package grading implements the automatic correctness checks and score
// aggregation used when a student submits a lesson attempt. Everything in
// this package is a pure function over in-memory values; persistence and
// transport belong to the service layer.
package grading

import (
	"math"
	"strings"
)

// Kind identifies the exercise type and determines how an answer is graded.
type Kind string

const (
	// KindMultipleChoice expects the selected option letter to match exactly.
	KindMultipleChoice Kind = "multiple_choice"
	// KindFlashcard is graded on engagement: any non-blank summary counts.
	KindFlashcard Kind = "flashcard"
	// KindTextAnswer is free text reviewed by a tutor after submission.
	KindTextAnswer Kind = "text_answer"
)

// Valid reports whether the kind is one of the supported exercise types.
func (k Kind) Valid() bool {
	switch k {
	case KindMultipleChoice, KindFlashcard, KindTextAnswer:
		return true
	default:
		return false
	}
}

// AutoGradable reports whether correctness can be determined without a tutor.
// Flashcards count as auto-gradable even though they only measure engagement.
func (k Kind) AutoGradable() bool {
	return k == KindMultipleChoice || k == KindFlashcard
}

// Grade determines correctness of a raw answer for one exercise.
//
// multiple_choice compares the trimmed answer against the trimmed expected
// option letter, case-sensitively, with no partial credit. flashcard is
// correct whenever the student wrote any non-blank summary. text_answer
// always returns true: the result is a provisional placeholder until a tutor
// assigns a real score, and callers must not present it as a graded outcome.
//
// A missing answer is treated as the empty string. Unknown kinds grade false.
func Grade(kind Kind, expectedAnswer, rawAnswer string) bool {
	switch kind {
	case KindMultipleChoice:
		return strings.TrimSpace(rawAnswer) == strings.TrimSpace(expectedAnswer)
	case KindTextAnswer:
		return true
	case KindFlashcard:
		return strings.TrimSpace(rawAnswer) != ""
	default:
		return false
	}
}

// GradedItem pairs an exercise's weighting with the graded outcome of its
// submitted answer.
type GradedItem struct {
	Kind      Kind
	Points    int
	IsCorrect bool
}

// FullScore is the score assigned when nothing is left to auto-grade. It
// means "full credit pending review", not a measured 100%; UIs should show
// such attempts as awaiting review (see AwaitingReview on the attempt).
const FullScore = 100

// AggregateScore folds graded answers into a single 0-100 integer.
//
// Only auto-gradable kinds participate; text_answer exercises are excluded
// by kind, never by their point value. When the gradable set is empty or
// carries zero total points the result is FullScore. Otherwise the score is
// the points-weighted percentage of correct answers, rounded half up.
func AggregateScore(items []GradedItem) int {
	totalPoints := 0
	earnedPoints := 0

	for _, item := range items {
		if !item.Kind.AutoGradable() {
			continue
		}
		totalPoints += item.Points
		if item.IsCorrect {
			earnedPoints += item.Points
		}
	}

	if totalPoints == 0 {
		return FullScore
	}

	return int(math.Floor(100*float64(earnedPoints)/float64(totalPoints) + 0.5))
}
