package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/linguaflow/linguaflow-api/internal/models"
)

// TutorFilter narrows directory listings.
type TutorFilter struct {
	Language string
	Search   string
	Page     int
	PageSize int
}

// TutorRepository defines persistence operations for tutor profiles.
type TutorRepository interface {
	ListWithFilter(ctx context.Context, filter TutorFilter) ([]models.Tutor, int64, error)
	GetByID(ctx context.Context, id uint) (models.Tutor, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.Tutor, error)
	Create(ctx context.Context, tutor *models.Tutor) error
	Update(ctx context.Context, tutor *models.Tutor) error
}

type tutorRepository struct {
	db *gorm.DB
}

// NewTutorRepository instantiates the repository.
func NewTutorRepository(db *gorm.DB) TutorRepository {
	return &tutorRepository{db: db}
}

func (r *tutorRepository) ListWithFilter(ctx context.Context, filter TutorFilter) ([]models.Tutor, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Tutor{})

	if filter.Language != "" {
		pattern := "%" + strings.ToLower(strings.TrimSpace(filter.Language)) + "%"
		query = query.Where("LOWER(languages) LIKE ?", pattern)
	}

	if filter.Search != "" {
		pattern := "%" + strings.ToLower(strings.TrimSpace(filter.Search)) + "%"
		query = query.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(bio) LIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("last_name ASC, first_name ASC")

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var tutors []models.Tutor
	if err := query.Find(&tutors).Error; err != nil {
		return nil, 0, err
	}

	return tutors, total, nil
}

func (r *tutorRepository) GetByID(ctx context.Context, id uint) (models.Tutor, error) {
	var tutor models.Tutor
	if err := r.db.WithContext(ctx).First(&tutor, id).Error; err != nil {
		return models.Tutor{}, err
	}

	return tutor, nil
}

// GetByIDs returns the subset of requested tutors that currently exist;
// missing rows are tolerated by callers, not treated as an error.
func (r *tutorRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Tutor, error) {
	if len(ids) == 0 {
		return []models.Tutor{}, nil
	}

	var tutors []models.Tutor
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&tutors).Error; err != nil {
		return nil, err
	}

	return tutors, nil
}

func (r *tutorRepository) Create(ctx context.Context, tutor *models.Tutor) error {
	return r.db.WithContext(ctx).Create(tutor).Error
}

func (r *tutorRepository) Update(ctx context.Context, tutor *models.Tutor) error {
	return r.db.WithContext(ctx).Save(tutor).Error
}
