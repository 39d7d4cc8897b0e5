package ai

import "context"

// DraftInput contains the student answer a tutor wants feedback drafted for.
type DraftInput struct {
	AnswerText     string
	ExercisePrompt string
	TargetLanguage string
}

// DraftResult is the suggested feedback returned by the drafter.
type DraftResult struct {
	Feedback string                 `json:"feedback"`
	Model    string                 `json:"model"`
	Raw      map[string]interface{} `json:"raw,omitempty"`
}

// FeedbackDrafter describes an AI model capable of drafting tutor feedback
// for free-text answers. Drafts are suggestions; tutors edit and submit
// them through the normal review flow.
type FeedbackDrafter interface {
	Draft(ctx context.Context, input DraftInput) (DraftResult, error)
}
