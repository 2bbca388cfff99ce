package entity

import (
	"time"

	"bookline-api/core/entity"

	"github.com/google/uuid"
)

// Appointment is the local source of truth for a booking. The external
// calendar only ever mirrors it.
type Appointment struct {
	entity.BaseEntity
	ReferenceCode   string     `db:"reference_code" json:"reference_code"`
	ClientID        uuid.UUID  `db:"client_id" json:"client_id"`
	ProfessionalID  *uuid.UUID `db:"professional_id" json:"professional_id,omitempty"`
	Title           string     `db:"title" json:"title"`
	Description     string     `db:"description" json:"description"`
	StartTime       time.Time  `db:"start_time" json:"start_time"`
	DurationMinutes int        `db:"duration_minutes" json:"duration_minutes"`
	Status          string     `db:"status" json:"status"`
	GoogleEventID   *string    `db:"google_event_id" json:"google_event_id,omitempty"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// EndTime is the event end mirrored to the external calendar.
func (a *Appointment) EndTime() time.Time {
	return a.StartTime.Add(time.Duration(a.DurationMinutes) * time.Minute)
}
