package dto

import (
	"time"

	"bookline-api/modules/appointment/entity"
)

type CreateAppointmentRequest struct {
	Title           string  `json:"title"`
	Description     string  `json:"description,omitempty"`
	StartTime       string  `json:"start_time"`
	DurationMinutes int     `json:"duration_minutes"`
	ProfessionalID  *string `json:"professional_id,omitempty"`
}

// UpdateAppointmentRequest carries only the fields the caller wants changed.
// Nil fields are left untouched.
type UpdateAppointmentRequest struct {
	Title           *string `json:"title,omitempty"`
	Description     *string `json:"description,omitempty"`
	StartTime       *string `json:"start_time,omitempty"`
	DurationMinutes *int    `json:"duration_minutes,omitempty"`
}

type AppointmentResponse struct {
	ID              string    `json:"id"`
	ReferenceCode   string    `json:"reference_code"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"`
	GoogleEventID   *string   `json:"google_event_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func ToAppointmentResponse(a *entity.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:              a.ID.String(),
		ReferenceCode:   a.ReferenceCode,
		Title:           a.Title,
		Description:     a.Description,
		StartTime:       a.StartTime,
		EndTime:         a.EndTime(),
		DurationMinutes: a.DurationMinutes,
		Status:          a.Status,
		GoogleEventID:   a.GoogleEventID,
		CreatedAt:       a.CreatedAt,
	}
}
