package notifications

import (
	"context"
	"fmt"
	"net/url"

	"ticketly-client/internal/api"
	"ticketly-client/internal/logger"
	"ticketly-client/internal/models"
)

const basePath = "/notificaciones/notificaciones"

type NotificationService struct {
	API    api.Requester
	Logger *logger.Logger
}

func NewNotificationService(requester api.Requester, log *logger.Logger) *NotificationService {
	return &NotificationService{API: requester, Logger: log}
}

func (s *NotificationService) GetMyNotifications(ctx context.Context) ([]models.Notification, error) {
	var list []models.Notification
	if err := s.API.Get(ctx, basePath+"/mis-notificaciones", nil, &list); err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	return list, nil
}

func (s *NotificationService) GetUnreadCount(ctx context.Context) (int, error) {
	var resp struct {
		Count int `json:"count"`
	}
	if err := s.API.Get(ctx, basePath+"/contador-no-leidas", nil, &resp); err != nil {
		return 0, fmt.Errorf("failed to fetch unread count: %w", err)
	}
	return resp.Count, nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, id models.ID) (*models.Notification, error) {
	var n models.Notification
	if err := s.API.Put(ctx, basePath+"/marcar-leida/"+url.PathEscape(id.String()), nil, &n); err != nil {
		return nil, fmt.Errorf("failed to mark notification %s as read: %w", id, err)
	}
	return &n, nil
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context) error {
	if err := s.API.Put(ctx, basePath+"/marcar-todas-leidas", nil, nil); err != nil {
		return fmt.Errorf("failed to mark notifications as read: %w", err)
	}
	return nil
}

func (s *NotificationService) DeleteNotification(ctx context.Context, id models.ID) error {
	if err := s.API.Delete(ctx, basePath+"/delete/"+url.PathEscape(id.String()), nil); err != nil {
		return fmt.Errorf("failed to delete notification %s: %w", id, err)
	}
	return nil
}

// CreateNotification sends a notification to a single user. Admin only.
func (s *NotificationService) CreateNotification(ctx context.Context, req models.CreateNotificationRequest) (*models.Notification, error) {
	var n models.Notification
	if err := s.API.Post(ctx, basePath+"/crear", req, &n); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	s.Logger.Info("NOTIFICATIONS", fmt.Sprintf("Notification %s sent to user %s", n.ID, n.UserID))
	return &n, nil
}

// SendBroadcast sends the same notification to every user. Admin only.
func (s *NotificationService) SendBroadcast(ctx context.Context, req models.CreateNotificationRequest) error {
	req.UserID = ""
	if err := s.API.Post(ctx, basePath+"/broadcast", req, nil); err != nil {
		return fmt.Errorf("failed to broadcast notification: %w", err)
	}
	s.Logger.Info("NOTIFICATIONS", fmt.Sprintf("Broadcast sent: %s", req.Title))
	return nil
}

func (s *NotificationService) GetAllNotifications(ctx context.Context) ([]models.Notification, error) {
	var list []models.Notification
	if err := s.API.Get(ctx, "/notificaciones/todas", nil, &list); err != nil {
		return nil, fmt.Errorf("failed to fetch all notifications: %w", err)
	}
	return list, nil
}
