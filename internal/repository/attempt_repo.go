package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/linguaflow/linguaflow-api/internal/models"
)

// AttemptRepository defines persistence operations for lesson attempts,
// their answers and the tutor review trail.
type AttemptRepository interface {
	Create(ctx context.Context, attempt *models.LessonAttempt) error
	GetByID(ctx context.Context, id uint) (models.LessonAttempt, error)
	GetByAssignment(ctx context.Context, assignmentID uint) (models.LessonAttempt, error)
	Update(ctx context.Context, attempt *models.LessonAttempt) error
	GetAnswerByID(ctx context.Context, id uint) (models.SubmittedAnswer, error)
	UpdateAnswer(ctx context.Context, answer *models.SubmittedAnswer) error
	CountPendingAnswers(ctx context.Context, attemptID uint) (int64, error)
	CreateReviewHistory(ctx context.Context, entry *models.ReviewHistory) error
}

type attemptRepository struct {
	db *gorm.DB
}

// NewAttemptRepository instantiates the repository.
func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.LessonAttempt{}).
		Preload("Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})
}

func (r *attemptRepository) Create(ctx context.Context, attempt *models.LessonAttempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

func (r *attemptRepository) GetByID(ctx context.Context, id uint) (models.LessonAttempt, error) {
	var attempt models.LessonAttempt
	if err := r.baseQuery(ctx).First(&attempt, id).Error; err != nil {
		return models.LessonAttempt{}, err
	}

	return attempt, nil
}

func (r *attemptRepository) GetByAssignment(ctx context.Context, assignmentID uint) (models.LessonAttempt, error) {
	var attempt models.LessonAttempt
	if err := r.baseQuery(ctx).
		Where("assignment_id = ?", assignmentID).
		Order("submitted_at DESC").
		First(&attempt).Error; err != nil {
		return models.LessonAttempt{}, err
	}

	return attempt, nil
}

func (r *attemptRepository) Update(ctx context.Context, attempt *models.LessonAttempt) error {
	return r.db.WithContext(ctx).Omit("Answers").Save(attempt).Error
}

func (r *attemptRepository) GetAnswerByID(ctx context.Context, id uint) (models.SubmittedAnswer, error) {
	var answer models.SubmittedAnswer
	if err := r.db.WithContext(ctx).First(&answer, id).Error; err != nil {
		return models.SubmittedAnswer{}, err
	}

	return answer, nil
}

func (r *attemptRepository) UpdateAnswer(ctx context.Context, answer *models.SubmittedAnswer) error {
	return r.db.WithContext(ctx).Save(answer).Error
}

func (r *attemptRepository) CountPendingAnswers(ctx context.Context, attemptID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SubmittedAnswer{}).
		Where("attempt_id = ?", attemptID).
		Where("review_status = ?", models.ReviewStatusPending).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *attemptRepository) CreateReviewHistory(ctx context.Context, entry *models.ReviewHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}
