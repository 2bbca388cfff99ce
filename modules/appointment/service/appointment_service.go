package service

import (
	"context"
	"time"

	"bookline-api/core/constants"
	"bookline-api/core/dto"
	"bookline-api/core/errors"
	"bookline-api/core/logger"
	"bookline-api/core/params"
	"bookline-api/core/queue"
	"bookline-api/core/utils"
	appointmentDto "bookline-api/modules/appointment/dto"
	"bookline-api/modules/appointment/entity"
	"bookline-api/modules/appointment/repository"
	calendarDto "bookline-api/modules/calendar/dto"
	calendarService "bookline-api/modules/calendar/service"
	notificationDto "bookline-api/modules/notification/dto"

	"github.com/google/uuid"
)

type AppointmentService interface {
	Create(ctx context.Context, userID uuid.UUID, req *appointmentDto.CreateAppointmentRequest) (*appointmentDto.AppointmentResponse, error)
	GetByID(ctx context.Context, userID uuid.UUID, id uuid.UUID) (*appointmentDto.AppointmentResponse, error)
	List(ctx context.Context, userID uuid.UUID, qp params.QueryParams) (*dto.Pagination[appointmentDto.AppointmentResponse], error)
	Update(ctx context.Context, userID uuid.UUID, id uuid.UUID, req *appointmentDto.UpdateAppointmentRequest) (*appointmentDto.AppointmentResponse, error)
	Cancel(ctx context.Context, userID uuid.UUID, id uuid.UUID) error
}

// taskEnqueuer is the slice of the queue client used for notification fan-out.
type taskEnqueuer interface {
	Enqueue(ctx context.Context, taskType string, payload any) error
}

type appointmentService struct {
	repo  repository.AppointmentRepository
	sync  calendarService.SyncService
	queue taskEnqueuer
}

func NewAppointmentService(repo repository.AppointmentRepository, sync calendarService.SyncService, q *queue.Client) AppointmentService {
	var enqueuer taskEnqueuer
	if q != nil {
		enqueuer = q
	}
	return &appointmentService{repo: repo, sync: sync, queue: enqueuer}
}

// Create persists the appointment and then best-effort mirrors it to the
// owner's external calendar. The local write is never rolled back when the
// mirror fails.
func (s *appointmentService) Create(ctx context.Context, userID uuid.UUID, req *appointmentDto.CreateAppointmentRequest) (*appointmentDto.AppointmentResponse, error) {
	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "start_time must be RFC3339", err)
	}
	if req.Title == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "title is required", nil)
	}
	if req.DurationMinutes <= 0 {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "duration_minutes must be positive", nil)
	}

	var professionalID *uuid.UUID
	if req.ProfessionalID != nil {
		id, err := uuid.Parse(*req.ProfessionalID)
		if err != nil {
			return nil, errors.NewAppError(errors.ErrInvalidInput, "professional_id must be a UUID", err)
		}
		professionalID = &id
	}

	appointment := &entity.Appointment{
		ReferenceCode:   "APT-" + utils.GenerateID(),
		ClientID:        userID,
		ProfessionalID:  professionalID,
		Title:           req.Title,
		Description:     req.Description,
		StartTime:       startTime,
		DurationMinutes: req.DurationMinutes,
		Status:          constants.AppointmentStatusScheduled,
	}
	if _, err := s.repo.Create(ctx, appointment); err != nil {
		logger.Error("Appointment:Create:Persist:Error", "error", err, "user_id", userID)
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to create appointment", err)
	}

	// Local record is committed, the calendar mirror happens after and its
	// failure must never surface to the booking flow.
	s.syncCreate(ctx, userID, appointment)

	resp := appointmentDto.ToAppointmentResponse(appointment)
	return &resp, nil
}

func (s *appointmentService) GetByID(ctx context.Context, userID uuid.UUID, id uuid.UUID) (*appointmentDto.AppointmentResponse, error) {
	appointment, err := s.loadOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	resp := appointmentDto.ToAppointmentResponse(appointment)
	return &resp, nil
}

func (s *appointmentService) List(ctx context.Context, userID uuid.UUID, qp params.QueryParams) (*dto.Pagination[appointmentDto.AppointmentResponse], error) {
	appointments, total, err := s.repo.ListByClient(ctx, userID, qp)
	if err != nil {
		logger.Error("Appointment:List:Error", "error", err, "user_id", userID)
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to list appointments", err)
	}

	items := make([]appointmentDto.AppointmentResponse, 0, len(appointments))
	for i := range appointments {
		items = append(items, appointmentDto.ToAppointmentResponse(&appointments[i]))
	}
	return dto.NewPagination(items, total, qp.PageNumber, qp.PageSize), nil
}

// Update persists the local change first and mirrors it only when the caller
// touched a field the external event shows. Description-only edits keep the
// remote event untouched.
func (s *appointmentService) Update(ctx context.Context, userID uuid.UUID, id uuid.UUID, req *appointmentDto.UpdateAppointmentRequest) (*appointmentDto.AppointmentResponse, error) {
	appointment, err := s.loadOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if appointment.Status == constants.AppointmentStatusCancelled {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Cannot update a cancelled appointment", nil)
	}

	eventRelevant := false
	if req.Title != nil {
		appointment.Title = *req.Title
		eventRelevant = true
	}
	if req.Description != nil {
		appointment.Description = *req.Description
	}
	if req.StartTime != nil {
		startTime, err := time.Parse(time.RFC3339, *req.StartTime)
		if err != nil {
			return nil, errors.NewAppError(errors.ErrInvalidInput, "start_time must be RFC3339", err)
		}
		appointment.StartTime = startTime
		eventRelevant = true
	}
	if req.DurationMinutes != nil {
		if *req.DurationMinutes <= 0 {
			return nil, errors.NewAppError(errors.ErrInvalidInput, "duration_minutes must be positive", nil)
		}
		appointment.DurationMinutes = *req.DurationMinutes
		eventRelevant = true
	}

	if err := s.repo.Update(ctx, appointment); err != nil {
		logger.Error("Appointment:Update:Persist:Error", "error", err, "appointment_id", id)
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to update appointment", err)
	}

	if eventRelevant {
		s.syncUpdate(ctx, userID, appointment)
	}

	resp := appointmentDto.ToAppointmentResponse(appointment)
	return &resp, nil
}

// Cancel marks the appointment cancelled, then removes the mirrored event and
// queues a notification. Both follow-ups are best effort.
func (s *appointmentService) Cancel(ctx context.Context, userID uuid.UUID, id uuid.UUID) error {
	appointment, err := s.loadOwned(ctx, userID, id)
	if err != nil {
		return err
	}
	if appointment.Status == constants.AppointmentStatusCancelled {
		return nil
	}

	if err := s.repo.UpdateStatus(ctx, id, constants.AppointmentStatusCancelled); err != nil {
		logger.Error("Appointment:Cancel:Persist:Error", "error", err, "appointment_id", id)
		return errors.NewAppError(errors.ErrInternalServer, "Failed to cancel appointment", err)
	}

	s.syncDelete(ctx, userID, appointment)

	if s.queue != nil {
		payload := notificationDto.NotificationTaskPayload{
			UserID:  appointment.ClientID.String(),
			Title:   "Appointment cancelled",
			Message: "Appointment " + appointment.ReferenceCode + " was cancelled",
		}
		if err := s.queue.Enqueue(ctx, queue.TaskNotificationCreate, payload); err != nil {
			logger.Warn("Appointment:Cancel:EnqueueNotification:Error", "error", err, "appointment_id", id)
		}
	}

	return nil
}

func (s *appointmentService) loadOwned(ctx context.Context, userID uuid.UUID, id uuid.UUID) (*entity.Appointment, error) {
	appointment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		logger.Error("Appointment:Load:Error", "error", err, "appointment_id", id)
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to load appointment", err)
	}
	if appointment == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Appointment not found", nil)
	}
	if appointment.ClientID != userID && (appointment.ProfessionalID == nil || *appointment.ProfessionalID != userID) {
		return nil, errors.NewAppError(errors.ErrForbidden, "Appointment belongs to another user", nil)
	}
	return appointment, nil
}

// syncCreate/syncUpdate/syncDelete implement the fire-and-forget bridge to
// the calendar mirror. Users without an integration are skipped silently,
// every other failure is logged and dropped.

func (s *appointmentService) syncCreate(ctx context.Context, userID uuid.UUID, appointment *entity.Appointment) {
	if !s.shouldSync(ctx, userID) {
		return
	}
	if _, err := s.sync.CreateEvent(ctx, userID, appointment.ID, eventDataFor(appointment)); err != nil {
		logger.Warn("Appointment:SyncCreate:Error", "error", err, "appointment_id", appointment.ID)
	}
}

func (s *appointmentService) syncUpdate(ctx context.Context, userID uuid.UUID, appointment *entity.Appointment) {
	if !s.shouldSync(ctx, userID) {
		return
	}
	if _, err := s.sync.UpdateEvent(ctx, userID, appointment.ID, eventDataFor(appointment)); err != nil {
		logger.Warn("Appointment:SyncUpdate:Error", "error", err, "appointment_id", appointment.ID)
	}
}

func (s *appointmentService) syncDelete(ctx context.Context, userID uuid.UUID, appointment *entity.Appointment) {
	if !s.shouldSync(ctx, userID) {
		return
	}
	if err := s.sync.DeleteEvent(ctx, userID, appointment.ID); err != nil {
		logger.Warn("Appointment:SyncDelete:Error", "error", err, "appointment_id", appointment.ID)
	}
}

func (s *appointmentService) shouldSync(ctx context.Context, userID uuid.UUID) bool {
	if s.sync == nil {
		return false
	}
	has, err := s.sync.HasIntegration(ctx, userID)
	if err != nil {
		logger.Warn("Appointment:ShouldSync:Error", "error", err, "user_id", userID)
		return false
	}
	return has
}

func eventDataFor(appointment *entity.Appointment) *calendarDto.EventData {
	return &calendarDto.EventData{
		Title:       appointment.Title,
		Description: appointment.Description,
		StartTime:   appointment.StartTime.Format(time.RFC3339),
		EndTime:     appointment.EndTime().Format(time.RFC3339),
	}
}
