package repository

import (
	"time"

	"presensi-backend/internal/notification/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationRepository defines Local Store operations for notifications
type NotificationRepository interface {
	Create(notification *domain.Notification) error
	FindByID(id string) (*domain.Notification, error)
	List(limit, offset int) ([]domain.Notification, int64, error)
	MarkPending(id string) error
	RecordOutcome(id string, status domain.NotificationStatus, sentCount, failedCount int, sentAt *time.Time) error
}

// notificationRepository implements NotificationRepository using GORM
type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new instance of notificationRepository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(notification *domain.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.New().String()
	}
	if notification.Status == "" {
		notification.Status = domain.StatusPending
	}
	notification.CreatedAt = time.Now()
	notification.UpdatedAt = time.Now()
	return r.db.Create(notification).Error
}

func (r *notificationRepository) FindByID(id string) (*domain.Notification, error) {
	var notification domain.Notification
	err := r.db.Where("id = ?", id).First(&notification).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &notification, nil
}

func (r *notificationRepository) List(limit, offset int) ([]domain.Notification, int64, error) {
	var notifications []domain.Notification
	var total int64

	if err := r.db.Model(&domain.Notification{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&notifications).Error
	return notifications, total, err
}

// MarkPending re-enters a notification into the pending state for resend.
func (r *notificationRepository) MarkPending(id string) error {
	return r.db.Model(&domain.Notification{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": domain.StatusPending, "updated_at": time.Now()}).Error
}

// RecordOutcome writes the dispatcher's delivery verdict. A nil sentAt
// clears the column, so a failed verdict never carries a send timestamp.
// Only the dispatcher calls this.
func (r *notificationRepository) RecordOutcome(id string, status domain.NotificationStatus, sentCount, failedCount int, sentAt *time.Time) error {
	return r.db.Model(&domain.Notification{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       status,
			"sent_count":   sentCount,
			"failed_count": failedCount,
			"sent_at":      sentAt,
			"updated_at":   time.Now(),
		}).Error
}
