package service

import (
	"context"
	"encoding/json"
	"time"

	coreEntity "bookline-api/core/entity"
	"bookline-api/core/logger"
	"bookline-api/core/params"
	"bookline-api/modules/notification/dto"
	"bookline-api/modules/notification/entity"
	"bookline-api/modules/notification/repository"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type NotificationService struct {
	repo *repository.NotificationRepository
}

func NewNotificationService(repo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

func (s *NotificationService) Create(ctx context.Context, req *dto.CreateNotificationRequest) error {
	notif := &entity.Notification{
		UserID:  req.UserID,
		Title:   req.Title,
		Message: req.Message,
		Type:    req.Type,
		Data:    entity.JSONB(req.Data),
		IsRead:  false,
		BaseEntity: coreEntity.BaseEntity{
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
	}
	return s.repo.Create(ctx, notif)
}

// HandleCreateTask is the queue worker entrypoint. Producers enqueue a
// NotificationTaskPayload and the worker turns it into a stored row.
func (s *NotificationService) HandleCreateTask(ctx context.Context, task *asynq.Task) error {
	var payload dto.NotificationTaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Error("NotificationService:HandleCreateTask:Unmarshal:Error:", err)
		return err
	}

	userID, err := uuid.Parse(payload.UserID)
	if err != nil {
		logger.Error("NotificationService:HandleCreateTask:InvalidUserID:", err)
		return err
	}

	notifType := payload.Type
	if notifType == "" {
		notifType = "appointment"
	}

	return s.Create(ctx, &dto.CreateNotificationRequest{
		UserID:  userID,
		Title:   payload.Title,
		Message: payload.Message,
		Type:    notifType,
		Data:    payload.Data,
	})
}

func (s *NotificationService) GetMyNotifications(ctx context.Context, userID uuid.UUID, queryParams params.QueryParams) (*entity.PaginatedNotificationEntity, error) {
	return s.repo.GetByUserID(ctx, userID, queryParams)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, userID uuid.UUID, ids []string) error {
	return s.repo.MarkAsRead(ctx, userID, ids)
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}
