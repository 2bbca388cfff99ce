package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"bookline-api/core/constants"
	"bookline-api/core/params"
	"bookline-api/modules/appointment/dto"
	"bookline-api/modules/appointment/entity"
	calendarDto "bookline-api/modules/calendar/dto"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAppointmentRepo is an in-memory repository that records write order so
// tests can assert the local write always lands before the calendar sync.
type fakeAppointmentRepo struct {
	mu           sync.Mutex
	appointments map[uuid.UUID]*entity.Appointment
	log          []string
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{appointments: make(map[uuid.UUID]*entity.Appointment)}
}

func (f *fakeAppointmentRepo) record(op string) {
	f.log = append(f.log, op)
}

func (f *fakeAppointmentRepo) Create(ctx context.Context, appointment *entity.Appointment) (*entity.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	appointment.ID = uuid.New()
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = time.Now()
	copied := *appointment
	f.appointments[appointment.ID] = &copied
	f.record("create")
	return appointment, nil
}

func (f *fakeAppointmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	appointment, ok := f.appointments[id]
	if !ok {
		return nil, nil
	}
	copied := *appointment
	return &copied, nil
}

func (f *fakeAppointmentRepo) ListByClient(ctx context.Context, clientID uuid.UUID, qp params.QueryParams) ([]entity.Appointment, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []entity.Appointment
	for _, appointment := range f.appointments {
		if appointment.ClientID == clientID {
			result = append(result, *appointment)
		}
	}
	return result, len(result), nil
}

func (f *fakeAppointmentRepo) Update(ctx context.Context, appointment *entity.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *appointment
	f.appointments[appointment.ID] = &copied
	f.record("update")
	return nil
}

func (f *fakeAppointmentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if appointment, ok := f.appointments[id]; ok {
		appointment.Status = status
	}
	f.record("update_status")
	return nil
}

func (f *fakeAppointmentRepo) GetGoogleEventID(ctx context.Context, appointmentID uuid.UUID) (*string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if appointment, ok := f.appointments[appointmentID]; ok {
		return appointment.GoogleEventID, nil
	}
	return nil, nil
}

func (f *fakeAppointmentRepo) SetGoogleEventID(ctx context.Context, appointmentID uuid.UUID, eventID *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if appointment, ok := f.appointments[appointmentID]; ok {
		appointment.GoogleEventID = eventID
	}
	return nil
}

// recordingSync captures hook invocations; shared log with the repo exposes
// ordering.
type recordingSync struct {
	repo           *fakeAppointmentRepo
	hasIntegration bool
	failAll        bool

	creates []*calendarDto.EventData
	updates []*calendarDto.EventData
	deletes []uuid.UUID
}

func (r *recordingSync) HasIntegration(ctx context.Context, userID uuid.UUID) (bool, error) {
	return r.hasIntegration, nil
}

func (r *recordingSync) CreateEvent(ctx context.Context, userID, appointmentID uuid.UUID, data *calendarDto.EventData) (string, error) {
	r.repo.mu.Lock()
	r.repo.record("sync_create")
	r.repo.mu.Unlock()
	r.creates = append(r.creates, data)
	if r.failAll {
		return "", fmt.Errorf("provider down")
	}
	return "evt_new", nil
}

func (r *recordingSync) UpdateEvent(ctx context.Context, userID, appointmentID uuid.UUID, data *calendarDto.EventData) (string, error) {
	r.repo.mu.Lock()
	r.repo.record("sync_update")
	r.repo.mu.Unlock()
	r.updates = append(r.updates, data)
	if r.failAll {
		return "", fmt.Errorf("provider down")
	}
	return "", nil
}

func (r *recordingSync) DeleteEvent(ctx context.Context, userID, appointmentID uuid.UUID) error {
	r.repo.mu.Lock()
	r.repo.record("sync_delete")
	r.repo.mu.Unlock()
	r.deletes = append(r.deletes, appointmentID)
	if r.failAll {
		return fmt.Errorf("provider down")
	}
	return nil
}

func (r *recordingSync) ListEvents(ctx context.Context, userID uuid.UUID, timeMin, timeMax string) ([]calendarDto.GoogleCalendarEvent, error) {
	return nil, nil
}

func newTestAppointmentService(hasIntegration bool) (*appointmentService, *fakeAppointmentRepo, *recordingSync) {
	repo := newFakeAppointmentRepo()
	syncSvc := &recordingSync{repo: repo, hasIntegration: hasIntegration}
	svc := NewAppointmentService(repo, syncSvc, nil).(*appointmentService)
	return svc, repo, syncSvc
}

func TestCreateSkipsSyncWithoutIntegration(t *testing.T) {
	svc, repo, syncSvc := newTestAppointmentService(false)

	resp, err := svc.Create(context.Background(), uuid.New(), &dto.CreateAppointmentRequest{
		Title:           "Haircut",
		StartTime:       "2025-01-10T10:00:00Z",
		DurationMinutes: 30,
	})
	require.NoError(t, err)
	require.NotNil(t, resp)

	assert.Empty(t, syncSvc.creates)
	assert.Equal(t, []string{"create"}, repo.log)
	assert.Equal(t, constants.AppointmentStatusScheduled, resp.Status)
	assert.True(t, len(resp.ReferenceCode) > 4)
}

func TestCreateSyncsAfterLocalWrite(t *testing.T) {
	svc, repo, syncSvc := newTestAppointmentService(true)

	resp, err := svc.Create(context.Background(), uuid.New(), &dto.CreateAppointmentRequest{
		Title:           "Haircut",
		StartTime:       "2025-01-10T10:00:00Z",
		DurationMinutes: 30,
	})
	require.NoError(t, err)

	require.Len(t, syncSvc.creates, 1)
	assert.Equal(t, []string{"create", "sync_create"}, repo.log)

	data := syncSvc.creates[0]
	assert.Equal(t, "Haircut", data.Title)
	assert.Equal(t, "2025-01-10T10:00:00Z", data.StartTime)
	assert.Equal(t, "2025-01-10T10:30:00Z", data.EndTime)
	assert.Equal(t, resp.StartTime.Add(30*time.Minute), resp.EndTime)
}

func TestCreateSurvivesSyncFailure(t *testing.T) {
	svc, repo, syncSvc := newTestAppointmentService(true)
	syncSvc.failAll = true

	resp, err := svc.Create(context.Background(), uuid.New(), &dto.CreateAppointmentRequest{
		Title:           "Haircut",
		StartTime:       "2025-01-10T10:00:00Z",
		DurationMinutes: 30,
	})
	require.NoError(t, err)
	require.NotNil(t, resp)

	// local record exists despite the failed mirror
	id, err := uuid.Parse(resp.ID)
	require.NoError(t, err)
	stored, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestUpdateDescriptionOnlySkipsSync(t *testing.T) {
	svc, repo, syncSvc := newTestAppointmentService(true)
	userID := uuid.New()

	resp, err := svc.Create(context.Background(), userID, &dto.CreateAppointmentRequest{
		Title:           "Haircut",
		StartTime:       "2025-01-10T10:00:00Z",
		DurationMinutes: 30,
	})
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)
	repo.log = nil
	syncSvc.creates = nil

	description := "bring photos"
	_, err = svc.Update(context.Background(), userID, id, &dto.UpdateAppointmentRequest{Description: &description})
	require.NoError(t, err)

	assert.Empty(t, syncSvc.updates)
	assert.Equal(t, []string{"update"}, repo.log)
}

func TestUpdateTimeTriggersSyncAfterLocalWrite(t *testing.T) {
	svc, repo, syncSvc := newTestAppointmentService(true)
	userID := uuid.New()

	resp, err := svc.Create(context.Background(), userID, &dto.CreateAppointmentRequest{
		Title:           "Haircut",
		StartTime:       "2025-01-10T10:00:00Z",
		DurationMinutes: 30,
	})
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)
	repo.log = nil

	newStart := "2025-01-11T14:00:00Z"
	updated, err := svc.Update(context.Background(), userID, id, &dto.UpdateAppointmentRequest{StartTime: &newStart})
	require.NoError(t, err)

	require.Len(t, syncSvc.updates, 1)
	assert.Equal(t, []string{"update", "sync_update"}, repo.log)
	assert.Equal(t, newStart, syncSvc.updates[0].StartTime)
	assert.Equal(t, "2025-01-11T14:30:00Z", syncSvc.updates[0].EndTime)
	assert.Equal(t, newStart, updated.StartTime.Format(time.RFC3339))
}

func TestCancelPersistsBeforeDeleteAndSurvivesFailure(t *testing.T) {
	svc, repo, syncSvc := newTestAppointmentService(true)
	userID := uuid.New()

	resp, err := svc.Create(context.Background(), userID, &dto.CreateAppointmentRequest{
		Title:           "Haircut",
		StartTime:       "2025-01-10T10:00:00Z",
		DurationMinutes: 30,
	})
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)
	repo.log = nil
	syncSvc.failAll = true

	require.NoError(t, svc.Cancel(context.Background(), userID, id))

	assert.Equal(t, []string{"update_status", "sync_delete"}, repo.log)
	stored, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, constants.AppointmentStatusCancelled, stored.Status)

	// cancelling again is a no-op, no second delete attempt
	require.NoError(t, svc.Cancel(context.Background(), userID, id))
	require.Len(t, syncSvc.deletes, 1)
}

func TestUpdateRejectsForeignAppointment(t *testing.T) {
	svc, _, _ := newTestAppointmentService(true)
	owner := uuid.New()

	resp, err := svc.Create(context.Background(), owner, &dto.CreateAppointmentRequest{
		Title:           "Haircut",
		StartTime:       "2025-01-10T10:00:00Z",
		DurationMinutes: 30,
	})
	require.NoError(t, err)

	title := "Hijacked"
	_, err = svc.Update(context.Background(), uuid.New(), uuid.MustParse(resp.ID), &dto.UpdateAppointmentRequest{Title: &title})
	require.Error(t, err)
}
