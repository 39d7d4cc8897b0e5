package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/linguaflow/linguaflow-api/internal/models"
)

// LessonFilter describes pagination & search options for lesson listings.
type LessonFilter struct {
	TutorID  *uint
	Language string
	Search   string
	Sort     string
	Page     int
	PageSize int
}

// LessonRepository defines persistence operations for lessons and their
// exercise sets.
type LessonRepository interface {
	ListWithFilter(ctx context.Context, filter LessonFilter) ([]models.Lesson, int64, error)
	GetByID(ctx context.Context, id uint) (models.Lesson, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.Lesson, error)
	Create(ctx context.Context, lesson *models.Lesson) error
	Update(ctx context.Context, lesson *models.Lesson) error
	Delete(ctx context.Context, id uint) error
	ReplaceExercises(ctx context.Context, lessonID uint, exercises []models.Exercise) error
}

type lessonRepository struct {
	db *gorm.DB
}

// NewLessonRepository instantiates a GORM-backed lesson repository.
func NewLessonRepository(db *gorm.DB) LessonRepository {
	return &lessonRepository{db: db}
}

func (r *lessonRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Lesson{}).
		Preload("Exercises", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})
}

func (r *lessonRepository) ListWithFilter(ctx context.Context, filter LessonFilter) ([]models.Lesson, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Lesson{})

	if filter.TutorID != nil {
		query = query.Where("tutor_id = ?", *filter.TutorID)
	}

	if filter.Language != "" {
		query = query.Where("LOWER(language) = ?", strings.ToLower(strings.TrimSpace(filter.Language)))
	}

	if filter.Search != "" {
		pattern := "%" + strings.ToLower(strings.TrimSpace(filter.Search)) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order(normalizeLessonSort(filter.Sort))

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var lessons []models.Lesson
	if err := query.Find(&lessons).Error; err != nil {
		return nil, 0, err
	}

	return lessons, total, nil
}

func (r *lessonRepository) GetByID(ctx context.Context, id uint) (models.Lesson, error) {
	var lesson models.Lesson
	if err := r.baseQuery(ctx).First(&lesson, id).Error; err != nil {
		return models.Lesson{}, err
	}

	return lesson, nil
}

// GetByIDs returns the subset of requested lessons that currently exist.
// Fewer rows than ids is not an error; missing lessons are the orphaned
// assignment condition the roster reconciler handles.
func (r *lessonRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Lesson, error) {
	if len(ids) == 0 {
		return []models.Lesson{}, nil
	}

	var lessons []models.Lesson
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&lessons).Error; err != nil {
		return nil, err
	}

	return lessons, nil
}

func (r *lessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	return r.db.WithContext(ctx).Create(lesson).Error
}

func (r *lessonRepository) Update(ctx context.Context, lesson *models.Lesson) error {
	return r.db.WithContext(ctx).Omit("Exercises").Save(lesson).Error
}

func (r *lessonRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Lesson{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ReplaceExercises swaps a lesson's full exercise set atomically, keeping
// the provided order as each exercise's position.
func (r *lessonRepository) ReplaceExercises(ctx context.Context, lessonID uint, exercises []models.Exercise) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("lesson_id = ?", lessonID).Delete(&models.Exercise{}).Error; err != nil {
			return err
		}

		for i := range exercises {
			exercises[i].LessonID = lessonID
			exercises[i].Position = i
		}

		if len(exercises) == 0 {
			return nil
		}

		return tx.Create(&exercises).Error
	})
}

func normalizeLessonSort(sort string) string {
	switch strings.ToLower(strings.TrimSpace(sort)) {
	case "title", "title:asc":
		return "title ASC"
	case "-title", "title:desc":
		return "title DESC"
	case "created_at", "created_at:asc":
		return "created_at ASC"
	case "-created_at", "created_at:desc":
		return "created_at DESC"
	default:
		return "created_at DESC"
	}
}
