package models

import "time"

// DoceboDomain identifies one Docebo instance that can deliver webhooks.
// Domains are auto-created inactive on first contact and must be enabled
// manually through the admin API.
type DoceboDomain struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(191);not null;uniqueIndex" json:"name" validate:"required,min=1,max=191"`
	APIURL    string    `gorm:"type:varchar(255);not null" json:"api_url"`
	Username  string    `gorm:"type:varchar(191)" json:"username"`
	Password  string    `gorm:"type:varchar(191)" json:"-"`
	Active    bool      `gorm:"default:false;index" json:"active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
