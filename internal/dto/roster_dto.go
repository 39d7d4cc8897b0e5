package dto

import "time"

// RosterResponse is a student's full assignment roster with every
// assignment reconciled against the lessons and tutors that still exist.
type RosterResponse struct {
	Summary RosterSummary `json:"summary"`
	Entries []RosterEntry `json:"entries"`
}

// RosterSummary aggregates roster counts for the dashboard header.
type RosterSummary struct {
	Total        int     `json:"total"`
	Assigned     int     `json:"assigned"`
	InProgress   int     `json:"in_progress"`
	Completed    int     `json:"completed"`
	Orphaned     int     `json:"orphaned"`
	AverageScore float64 `json:"average_score"`
}

// RosterTutor is the tutor slice of a roster entry. When the tutor record
// no longer exists the fields hold the documented placeholder sentinels.
type RosterTutor struct {
	TutorID   uint   `json:"tutor_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// RosterLesson is the lesson slice of a roster entry, likewise filled with
// placeholder sentinels when the lesson record is gone.
type RosterLesson struct {
	LessonID    uint        `json:"lesson_id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Language    string      `json:"language"`
	Level       string      `json:"level"`
	Tutor       RosterTutor `json:"tutor"`
}

// RosterEntry is the display-ready merge of one assignment with its lesson
// and tutor data. Orphaned marks entries whose lesson record is missing;
// they are surfaced, never dropped.
type RosterEntry struct {
	AssignmentID     uint         `json:"assignment_id"`
	Status           string       `json:"status"`
	Score            *int         `json:"score"`
	Progress         int          `json:"progress"`
	TimeSpentMinutes int          `json:"time_spent_minutes"`
	AssignedAt       time.Time    `json:"assigned_at"`
	CompletedAt      *time.Time   `json:"completed_at"`
	Orphaned         bool         `json:"orphaned"`
	Lesson           RosterLesson `json:"lesson"`
}
