package services

import (
	"claims_app_go/models"
	"time"

	"gorm.io/gorm"
)

type NotificationService struct {
	DB *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{DB: db}
}

func (s *NotificationService) GetUnreadNotifications(caseID string, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	var notifications []models.Notification
	err := s.DB.Where("case_id = ? AND read_at IS NULL", caseID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

func (s *NotificationService) MarkAsRead(notificationID, caseID string) error {
	now := time.Now()
	result := s.DB.Model(&models.Notification{}).
		Where("id = ? AND case_id = ?", notificationID, caseID).
		Update("read_at", now)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notFound("notification", notificationID)
	}
	return nil
}

func (s *NotificationService) MarkAllAsRead(caseID string) error {
	now := time.Now()
	return s.DB.Model(&models.Notification{}).
		Where("case_id = ? AND read_at IS NULL", caseID).
		Update("read_at", now).Error
}

func (s *NotificationService) GetNotificationCount(caseID string) (int64, error) {
	var count int64
	err := s.DB.Model(&models.Notification{}).
		Where("case_id = ? AND read_at IS NULL", caseID).
		Count(&count).Error
	return count, err
}

func (s *NotificationService) CreateNotification(notification *models.Notification) error {
	return s.DB.Create(notification).Error
}
