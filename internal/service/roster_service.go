package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/linguaflow/linguaflow-api/internal/dto"
	"github.com/linguaflow/linguaflow-api/internal/models"
	"github.com/linguaflow/linguaflow-api/internal/observability"
	"github.com/linguaflow/linguaflow-api/internal/repository"
)

// Placeholder sentinels substituted for missing lesson/tutor data so the
// roster always renders a display value, never null. Fixed strings by
// contract: clients may match on them to show an "unavailable" treatment.
const (
	PlaceholderLessonTitle       = "Lesson unavailable"
	PlaceholderLessonDescription = "This lesson has been removed by its tutor."
	PlaceholderTutorFirstName    = "Former"
	PlaceholderTutorLastName     = "Tutor"
)

// ErrRosterAssignmentNotFound indicates the assignment does not exist or
// belongs to another student.
var ErrRosterAssignmentNotFound = errors.New("roster assignment not found")

// ErrAssignmentNotOrphaned indicates an orphan-cleanup request targeted an
// assignment whose lesson still exists.
var ErrAssignmentNotOrphaned = errors.New("assignment still references an existing lesson")

// RosterService reconciles a student's assignments with the lesson and
// tutor records that still exist, tolerating dangling references.
type RosterService interface {
	GetRoster(ctx context.Context, studentID uint) (dto.RosterResponse, error)
	RemoveOrphan(ctx context.Context, studentID, assignmentID uint) error
	InvalidateRoster(ctx context.Context, studentID uint)
}

type rosterService struct {
	assignments repository.AssignmentRepository
	lessons     repository.LessonRepository
	tutors      repository.TutorRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
}

// NewRosterService builds the roster reconciliation service.
func NewRosterService(assignments repository.AssignmentRepository, lessons repository.LessonRepository, tutors repository.TutorRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) RosterService {
	return &rosterService{
		assignments: assignments,
		lessons:     lessons,
		tutors:      tutors,
		cache:       cache,
		cacheTTL:    ttl,
		logger:      logger.With().Str("component", "roster_service").Logger(),
	}
}

func rosterCacheKey(studentID uint) string {
	return fmt.Sprintf("roster:student:%d", studentID)
}

func (s *rosterService) GetRoster(ctx context.Context, studentID uint) (dto.RosterResponse, error) {
	cacheKey := rosterCacheKey(studentID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.RosterResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				observability.RosterCacheHits().Inc()
				s.logger.Debug().Uint("student_id", studentID).Msg("roster cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read roster cache")
		}
		observability.RosterCacheMisses().Inc()
	}

	assignments, err := s.assignments.List(ctx, repository.AssignmentFilter{StudentID: &studentID})
	if err != nil {
		return dto.RosterResponse{}, err
	}

	// Bulk lookups keyed by the id sets the assignments reference. Both
	// repositories return only the subset that still exists; the gap is
	// exactly the orphan set the reconciler fills with placeholders.
	lessons, err := s.lessons.GetByIDs(ctx, lessonIDSet(assignments))
	if err != nil {
		return dto.RosterResponse{}, err
	}

	tutors, err := s.tutors.GetByIDs(ctx, tutorIDSet(lessons))
	if err != nil {
		return dto.RosterResponse{}, err
	}

	response := buildRosterResponse(assignments, lessons, tutors)

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store roster cache")
			}
		}
	}

	return response, nil
}

// RemoveOrphan deletes a dangling assignment. Cleanup is an explicit,
// student-initiated operation; reconciliation itself never mutates data.
func (s *rosterService) RemoveOrphan(ctx context.Context, studentID, assignmentID uint) error {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRosterAssignmentNotFound
		}
		return err
	}

	if assignment.StudentID != studentID {
		return ErrRosterAssignmentNotFound
	}

	if _, err := s.lessons.GetByID(ctx, assignment.LessonID); err == nil {
		return ErrAssignmentNotOrphaned
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if err := s.assignments.Delete(ctx, assignmentID); err != nil {
		return err
	}

	s.InvalidateRoster(ctx, studentID)
	s.logger.Info().Uint("assignment_id", assignmentID).Uint("student_id", studentID).Msg("orphaned assignment removed")

	return nil
}

// InvalidateRoster drops the student's cached roster; a cache error only
// delays freshness until the TTL expires, so it is logged and swallowed.
func (s *rosterService) InvalidateRoster(ctx context.Context, studentID uint) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Del(ctx, rosterCacheKey(studentID)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("student_id", studentID).Msg("failed to invalidate roster cache")
	}
}

func lessonIDSet(assignments []models.LessonAssignment) []uint {
	seen := make(map[uint]struct{}, len(assignments))
	ids := make([]uint, 0, len(assignments))
	for _, assignment := range assignments {
		if _, ok := seen[assignment.LessonID]; ok {
			continue
		}
		seen[assignment.LessonID] = struct{}{}
		ids = append(ids, assignment.LessonID)
	}
	return ids
}

func tutorIDSet(lessons []models.Lesson) []uint {
	seen := make(map[uint]struct{}, len(lessons))
	ids := make([]uint, 0, len(lessons))
	for _, lesson := range lessons {
		if _, ok := seen[lesson.TutorID]; ok {
			continue
		}
		seen[lesson.TutorID] = struct{}{}
		ids = append(ids, lesson.TutorID)
	}
	return ids
}

// buildRosterResponse is the reconciliation core: a pure transform joining
// assignments to whatever lesson and tutor records were supplied. Every
// assignment yields exactly one entry, in input order. A missing lesson
// orphans the entry and substitutes placeholders for both lesson and tutor
// fields; a missing tutor substitutes tutor placeholders only.
func buildRosterResponse(assignments []models.LessonAssignment, lessons []models.Lesson, tutors []models.Tutor) dto.RosterResponse {
	lessonByID := make(map[uint]models.Lesson, len(lessons))
	for _, lesson := range lessons {
		lessonByID[lesson.ID] = lesson
	}

	tutorByID := make(map[uint]models.Tutor, len(tutors))
	for _, tutor := range tutors {
		tutorByID[tutor.ID] = tutor
	}

	summary := dto.RosterSummary{}
	entries := make([]dto.RosterEntry, 0, len(assignments))
	var scoreTotal float64
	var scoredCount int

	for _, assignment := range assignments {
		summary.Total++

		switch assignment.Status {
		case models.AssignmentStatusCompleted:
			summary.Completed++
		case models.AssignmentStatusInProgress:
			summary.InProgress++
		default:
			summary.Assigned++
		}

		if assignment.Score != nil {
			scoreTotal += float64(*assignment.Score)
			scoredCount++
		}

		entry := dto.RosterEntry{
			AssignmentID:     assignment.ID,
			Status:           assignment.Status,
			Score:            assignment.Score,
			Progress:         assignment.Progress,
			TimeSpentMinutes: assignment.TimeSpentMinutes,
			AssignedAt:       assignment.AssignedAt,
			CompletedAt:      assignment.CompletedAt,
		}

		lesson, lessonFound := lessonByID[assignment.LessonID]
		if !lessonFound {
			entry.Orphaned = true
			summary.Orphaned++
			entry.Lesson = placeholderLesson(assignment.LessonID)
			entries = append(entries, entry)
			continue
		}

		entry.Lesson = dto.RosterLesson{
			LessonID:    lesson.ID,
			Title:       lesson.Title,
			Description: lesson.Description,
			Language:    lesson.Language,
			Level:       lesson.Level,
		}

		if tutor, ok := tutorByID[lesson.TutorID]; ok {
			entry.Lesson.Tutor = dto.RosterTutor{
				TutorID:   tutor.ID,
				FirstName: tutor.FirstName,
				LastName:  tutor.LastName,
				Email:     tutor.Email,
			}
		} else {
			entry.Lesson.Tutor = placeholderTutor(lesson.TutorID)
		}

		entries = append(entries, entry)
	}

	if scoredCount > 0 {
		summary.AverageScore = scoreTotal / float64(scoredCount)
	}

	return dto.RosterResponse{Summary: summary, Entries: entries}
}

func placeholderLesson(lessonID uint) dto.RosterLesson {
	return dto.RosterLesson{
		LessonID:    lessonID,
		Title:       PlaceholderLessonTitle,
		Description: PlaceholderLessonDescription,
		Tutor:       placeholderTutor(0),
	}
}

func placeholderTutor(tutorID uint) dto.RosterTutor {
	return dto.RosterTutor{
		TutorID:   tutorID,
		FirstName: PlaceholderTutorFirstName,
		LastName:  PlaceholderTutorLastName,
	}
}
