package dto_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/linguaflow/linguaflow-api/internal/dto"
)

// rosterResponseSchema pins the roster wire contract consumed by the
// student dashboard. Schema violations here mean a breaking API change.
const rosterResponseSchema = `{
	"type": "object",
	"required": ["summary", "entries"],
	"properties": {
		"summary": {
			"type": "object",
			"required": ["total", "assigned", "in_progress", "completed", "orphaned", "average_score"],
			"properties": {
				"total": {"type": "integer", "minimum": 0},
				"assigned": {"type": "integer", "minimum": 0},
				"in_progress": {"type": "integer", "minimum": 0},
				"completed": {"type": "integer", "minimum": 0},
				"orphaned": {"type": "integer", "minimum": 0},
				"average_score": {"type": "number", "minimum": 0, "maximum": 100}
			}
		},
		"entries": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["assignment_id", "status", "orphaned", "lesson"],
				"properties": {
					"assignment_id": {"type": "integer"},
					"status": {"enum": ["assigned", "in_progress", "completed"]},
					"score": {"type": ["integer", "null"], "minimum": 0, "maximum": 100},
					"progress": {"type": "integer", "minimum": 0, "maximum": 100},
					"orphaned": {"type": "boolean"},
					"lesson": {
						"type": "object",
						"required": ["lesson_id", "title", "tutor"],
						"properties": {
							"lesson_id": {"type": "integer"},
							"title": {"type": "string", "minLength": 1},
							"tutor": {
								"type": "object",
								"required": ["tutor_id", "first_name", "last_name"]
							}
						}
					}
				}
			}
		}
	}
}`

func TestRosterResponseMatchesWireContract(t *testing.T) {
	schema := jsonschema.MustCompileString("roster_response.json", rosterResponseSchema)

	score := 80
	completedAt := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	response := dto.RosterResponse{
		Summary: dto.RosterSummary{Total: 2, Completed: 1, Orphaned: 1, AverageScore: 80},
		Entries: []dto.RosterEntry{
			{
				AssignmentID:     1,
				Status:           "completed",
				Score:            &score,
				Progress:         100,
				TimeSpentMinutes: 12,
				AssignedAt:       completedAt.Add(-24 * time.Hour),
				CompletedAt:      &completedAt,
				Lesson: dto.RosterLesson{
					LessonID: 10,
					Title:    "Food vocabulary",
					Language: "French",
					Tutor:    dto.RosterTutor{TutorID: 1, FirstName: "Claire", LastName: "Martin"},
				},
			},
			{
				AssignmentID: 2,
				Status:       "assigned",
				Orphaned:     true,
				AssignedAt:   completedAt.Add(-48 * time.Hour),
				Lesson: dto.RosterLesson{
					LessonID: 20,
					Title:    "Lesson unavailable",
					Tutor:    dto.RosterTutor{FirstName: "Former", LastName: "Tutor"},
				},
			},
		},
	}

	payload, err := json.Marshal(response)
	require.NoError(t, err)

	var decoded interface{}
	require.NoError(t, json.Unmarshal(payload, &decoded))
	require.NoError(t, schema.Validate(decoded))
}
