package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/linguaflow/linguaflow-api/internal/dto"
	"github.com/linguaflow/linguaflow-api/internal/repository"
)

// ErrTutorNotFound indicates the tutor profile does not exist.
var ErrTutorNotFound = errors.New("tutor not found")

const (
	tutorDefaultPageSize = 20
	tutorMaxPageSize     = 100
)

// TutorDirectoryService exposes the public marketplace directory of tutors.
type TutorDirectoryService interface {
	List(ctx context.Context, filter repository.TutorFilter) (dto.TutorListResponse, error)
	Get(ctx context.Context, id uint) (dto.TutorResponse, error)
}

type tutorDirectoryService struct {
	repo   repository.TutorRepository
	logger zerolog.Logger
}

// NewTutorDirectoryService constructs the directory service.
func NewTutorDirectoryService(repo repository.TutorRepository, logger zerolog.Logger) TutorDirectoryService {
	return &tutorDirectoryService{
		repo:   repo,
		logger: logger.With().Str("component", "tutor_directory_service").Logger(),
	}
}

func (s *tutorDirectoryService) List(ctx context.Context, filter repository.TutorFilter) (dto.TutorListResponse, error) {
	if filter.PageSize <= 0 {
		filter.PageSize = tutorDefaultPageSize
	}
	if filter.PageSize > tutorMaxPageSize {
		filter.PageSize = tutorMaxPageSize
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}

	tutors, total, err := s.repo.ListWithFilter(ctx, filter)
	if err != nil {
		return dto.TutorListResponse{}, err
	}

	return dto.TutorListResponse{
		Tutors:   dto.NewTutorResponseSlice(tutors),
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}, nil
}

func (s *tutorDirectoryService) Get(ctx context.Context, id uint) (dto.TutorResponse, error) {
	tutor, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TutorResponse{}, ErrTutorNotFound
		}
		return dto.TutorResponse{}, err
	}

	return dto.NewTutorResponse(tutor), nil
}
