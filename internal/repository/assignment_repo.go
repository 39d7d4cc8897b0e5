package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/linguaflow/linguaflow-api/internal/models"
)

// AssignmentFilter narrows assignment queries.
type AssignmentFilter struct {
	StudentID *uint
	LessonID  *uint
	Status    *string
}

// AssignmentRepository defines persistence operations for lesson
// assignments.
type AssignmentRepository interface {
	List(ctx context.Context, filter AssignmentFilter) ([]models.LessonAssignment, error)
	GetByID(ctx context.Context, id uint) (models.LessonAssignment, error)
	Create(ctx context.Context, assignment *models.LessonAssignment) error
	Update(ctx context.Context, assignment *models.LessonAssignment) error
	Delete(ctx context.Context, id uint) error
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository instantiates the repository.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) List(ctx context.Context, filter AssignmentFilter) ([]models.LessonAssignment, error) {
	query := r.db.WithContext(ctx).Model(&models.LessonAssignment{})

	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}

	if filter.LessonID != nil {
		query = query.Where("lesson_id = ?", *filter.LessonID)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	// Stable roster order: oldest assignment first.
	var assignments []models.LessonAssignment
	if err := query.Order("assigned_at ASC, id ASC").Find(&assignments).Error; err != nil {
		return nil, err
	}

	return assignments, nil
}

func (r *assignmentRepository) GetByID(ctx context.Context, id uint) (models.LessonAssignment, error) {
	var assignment models.LessonAssignment
	if err := r.db.WithContext(ctx).First(&assignment, id).Error; err != nil {
		return models.LessonAssignment{}, err
	}

	return assignment, nil
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *models.LessonAssignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *assignmentRepository) Update(ctx context.Context, assignment *models.LessonAssignment) error {
	return r.db.WithContext(ctx).Save(assignment).Error
}

func (r *assignmentRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.LessonAssignment{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
