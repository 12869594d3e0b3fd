package models

import "time"

// Webhook ledger statuses. RECEIVED and PROCESSING are transient,
// SUCCESS and FAILED are terminal. An ignored-but-valid delivery ends
// in SUCCESS as well; ignoring is not an error.
const (
	WebhookStatusReceived   = "RECEIVED"
	WebhookStatusProcessing = "PROCESSING"
	WebhookStatusSuccess    = "SUCCESS"
	WebhookStatusFailed     = "FAILED"
)

// WebhookEvent is the idempotent ledger of every inbound Docebo delivery,
// keyed by message id. Rows are upserted on redelivery and never deleted.
type WebhookEvent struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	MessageID      string    `gorm:"type:varchar(191);not null;uniqueIndex:ux_webhook_events_message_id" json:"message_id"`
	Event          string    `gorm:"type:varchar(100);not null;index" json:"event"`
	Domain         string    `gorm:"type:varchar(191);not null;index" json:"domain"`
	Payload        JSON      `gorm:"type:longtext" json:"payload"`
	Status         string    `gorm:"type:varchar(20);not null;default:'RECEIVED';index" json:"status"`
	ErrorMessage   string    `gorm:"type:text" json:"error_message"`
	DoceboDomainID *uint     `gorm:"index" json:"docebo_domain_id,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
