package repository

import (
	"context"
	"database/sql"

	"bookline-api/core/database"
	"bookline-api/core/params"
	"bookline-api/modules/appointment/entity"

	"github.com/google/uuid"
)

type AppointmentRepository interface {
	Create(ctx context.Context, appointment *entity.Appointment) (*entity.Appointment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Appointment, error)
	ListByClient(ctx context.Context, clientID uuid.UUID, qp params.QueryParams) ([]entity.Appointment, int, error)
	Update(ctx context.Context, appointment *entity.Appointment) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error

	GetGoogleEventID(ctx context.Context, appointmentID uuid.UUID) (*string, error)
	SetGoogleEventID(ctx context.Context, appointmentID uuid.UUID, eventID *string) error
}

type appointmentRepository struct {
	db database.IDatabase
}

func NewAppointmentRepository(db database.IDatabase) AppointmentRepository {
	return &appointmentRepository{db: db}
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *entity.Appointment) (*entity.Appointment, error) {
	query := `
		INSERT INTO appointments (reference_code, client_id, professional_id, title, description, start_time, duration_minutes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(
		ctx, query,
		appointment.ReferenceCode, appointment.ClientID, appointment.ProfessionalID,
		appointment.Title, appointment.Description,
		appointment.StartTime, appointment.DurationMinutes, appointment.Status,
	).Scan(&appointment.ID, &appointment.CreatedAt, &appointment.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return appointment, nil
}

func (r *appointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Appointment, error) {
	query := `
		SELECT id, reference_code, client_id, professional_id, title, description, start_time, duration_minutes, status, google_event_id, created_at, updated_at
		FROM appointments
		WHERE id = $1
	`
	var appointment entity.Appointment
	err := r.db.GetContext(ctx, &appointment, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) ListByClient(ctx context.Context, clientID uuid.UUID, qp params.QueryParams) ([]entity.Appointment, int, error) {
	countQuery := `SELECT COUNT(*) FROM appointments WHERE client_id = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, clientID); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, reference_code, client_id, professional_id, title, description, start_time, duration_minutes, status, google_event_id, created_at, updated_at
		FROM appointments
		WHERE client_id = $1
		ORDER BY start_time DESC
		LIMIT $2 OFFSET $3
	`
	offset := (qp.PageNumber - 1) * qp.PageSize
	var appointments []entity.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, clientID, qp.PageSize, offset); err != nil {
		return nil, 0, err
	}
	return appointments, total, nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *entity.Appointment) error {
	query := `
		UPDATE appointments
		SET title = $1, description = $2, start_time = $3, duration_minutes = $4, updated_at = NOW()
		WHERE id = $5
	`
	return r.db.ExecContext(
		ctx, query,
		appointment.Title, appointment.Description,
		appointment.StartTime, appointment.DurationMinutes,
		appointment.ID,
	)
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `UPDATE appointments SET status = $1, updated_at = NOW() WHERE id = $2`
	return r.db.ExecContext(ctx, query, status, id)
}

func (r *appointmentRepository) GetGoogleEventID(ctx context.Context, appointmentID uuid.UUID) (*string, error) {
	query := `SELECT google_event_id FROM appointments WHERE id = $1`
	var eventID *string
	err := r.db.QueryRowContext(ctx, query, appointmentID).Scan(&eventID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return eventID, nil
}

func (r *appointmentRepository) SetGoogleEventID(ctx context.Context, appointmentID uuid.UUID, eventID *string) error {
	query := `UPDATE appointments SET google_event_id = $1, updated_at = NOW() WHERE id = $2`
	return r.db.ExecContext(ctx, query, eventID, appointmentID)
}
