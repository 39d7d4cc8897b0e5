package dto

import (
	"time"

	"github.com/linguaflow/linguaflow-api/internal/models"
)

// TutorResponse is the public marketplace profile of a tutor.
type TutorResponse struct {
	ID         uint      `json:"id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Email      string    `json:"email"`
	Bio        string    `json:"bio"`
	Languages  string    `json:"languages"`
	HourlyRate float64   `json:"hourly_rate"`
	AvatarURL  string    `json:"avatar_url"`
	CreatedAt  time.Time `json:"created_at"`
}

// TutorListResponse pages through the tutor directory.
type TutorListResponse struct {
	Tutors   []TutorResponse `json:"tutors"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

// NewTutorResponse converts a tutor model into a DTO.
func NewTutorResponse(model models.Tutor) TutorResponse {
	return TutorResponse{
		ID:         model.ID,
		FirstName:  model.FirstName,
		LastName:   model.LastName,
		Email:      model.Email,
		Bio:        model.Bio,
		Languages:  model.Languages,
		HourlyRate: model.HourlyRate,
		AvatarURL:  model.AvatarURL,
		CreatedAt:  model.CreatedAt,
	}
}

// NewTutorResponseSlice converts a slice of tutor models into DTOs.
func NewTutorResponseSlice(tutors []models.Tutor) []TutorResponse {
	responses := make([]TutorResponse, 0, len(tutors))
	for _, tutor := range tutors {
		responses = append(responses, NewTutorResponse(tutor))
	}

	return responses
}
