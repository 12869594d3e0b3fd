package repository

import (
	"github.com/certbridge/certbridge/app/models"
	"gorm.io/gorm"
)

// webhookEventRepository implements the WebhookEventRepository interface
type webhookEventRepository struct {
	db *gorm.DB
}

// NewWebhookEventRepository creates a new webhook ledger repository instance
func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &webhookEventRepository{db: db}
}

// GetByMessageID retrieves a ledger entry by its message id
func (r *webhookEventRepository) GetByMessageID(messageID string) (*models.WebhookEvent, error) {
	var event models.WebhookEvent
	err := r.db.Where("message_id = ?", messageID).First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// List retrieves ledger entries with pagination, newest first
func (r *webhookEventRepository) List(offset, limit int) ([]models.WebhookEvent, error) {
	var events []models.WebhookEvent
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&events).Error
	return events, err
}

// ListByStatus retrieves ledger entries in one status with pagination
func (r *webhookEventRepository) ListByStatus(status string, offset, limit int) ([]models.WebhookEvent, error) {
	var events []models.WebhookEvent
	err := r.db.Where("status = ?", status).Order("created_at DESC").
		Offset(offset).Limit(limit).Find(&events).Error
	return events, err
}

// Count returns the total number of ledger entries
func (r *webhookEventRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.WebhookEvent{}).Count(&count).Error
	return count, err
}

// CountByStatus returns the number of ledger entries in one status
func (r *webhookEventRepository) CountByStatus(status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.WebhookEvent{}).Where("status = ?", status).Count(&count).Error
	return count, err
}
