package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Certificate statuses. The automatic pipeline creates rows directly in
// GENERATING; PENDING is reserved for manual or deferred flows and is never
// produced by webhook ingestion.
const (
	CertificateStatusPending    = "PENDING"
	CertificateStatusGenerating = "GENERATING"
	CertificateStatusSuccess    = "SUCCESS"
	CertificateStatusFailed     = "FAILED"
)

// Certificate is one issuance attempt for a completed course. It is created
// once per successfully resolved completion event and mutated in place by
// the orchestrator and the retry entry point; rows are never deleted.
type Certificate struct {
	ID                   uint           `gorm:"primaryKey" json:"id"`
	UUID                 string         `gorm:"type:varchar(36);not null;uniqueIndex" json:"uuid"`
	DoceboUserID         int64          `gorm:"not null;index" json:"docebo_user_id"`
	DoceboCourseID       int64          `gorm:"not null;index" json:"docebo_course_id"`
	UserEmail            string         `gorm:"type:varchar(191);not null" json:"user_email"`
	UserName             string         `gorm:"type:varchar(191);not null" json:"user_name"`
	CompletionDate       time.Time      `gorm:"not null" json:"completion_date"`
	CertopusCredentialID string         `gorm:"type:varchar(191)" json:"certopus_credential_id"`
	CertificateURL       string         `gorm:"type:varchar(512)" json:"certificate_url"`
	ErrorMessage         string         `gorm:"type:text" json:"error_message"`
	Status               string         `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	CourseMappingID      uint           `gorm:"not null;index" json:"course_mapping_id"`
	DoceboDomainID       uint           `gorm:"not null;index" json:"docebo_domain_id"`
	CourseMapping        *CourseMapping `gorm:"foreignKey:CourseMappingID" json:"course_mapping,omitempty"`
	DoceboDomain         *DoceboDomain  `gorm:"foreignKey:DoceboDomainID" json:"docebo_domain,omitempty"`
	CreatedAt            time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt            time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeCreate assigns the public identifier used by the retry endpoint.
func (c *Certificate) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == "" {
		c.UUID = uuid.New().String()
	}
	return nil
}
