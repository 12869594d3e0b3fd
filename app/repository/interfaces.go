package repository

import (
	"github.com/certbridge/certbridge/app/models"
	"gorm.io/gorm"
)

// DoceboDomainRepository defines the interface for Docebo domain database operations
type DoceboDomainRepository interface {
	Create(domain *models.DoceboDomain) error
	GetByID(id uint) (*models.DoceboDomain, error)
	GetByName(name string) (*models.DoceboDomain, error)
	Update(domain *models.DoceboDomain) error
	Delete(id uint) error
	List(offset, limit int) ([]models.DoceboDomain, error)
	Count() (int64, error)
}

// CourseMappingRepository defines the interface for course mapping database operations
type CourseMappingRepository interface {
	Create(mapping *models.CourseMapping) error
	GetByID(id uint) (*models.CourseMapping, error)
	Update(mapping *models.CourseMapping) error
	Delete(id uint) error
	List(offset, limit int) ([]models.CourseMapping, error)
	Count() (int64, error)
}

// CertificateRepository defines the interface for certificate database operations
type CertificateRepository interface {
	GetByID(id uint) (*models.Certificate, error)
	GetByUUID(uuid string) (*models.Certificate, error)
	List(offset, limit int) ([]models.Certificate, error)
	ListByStatus(status string, offset, limit int) ([]models.Certificate, error)
	Count() (int64, error)
	CountByStatus(status string) (int64, error)
}

// WebhookEventRepository defines the interface for webhook ledger database operations
type WebhookEventRepository interface {
	GetByMessageID(messageID string) (*models.WebhookEvent, error)
	List(offset, limit int) ([]models.WebhookEvent, error)
	ListByStatus(status string, offset, limit int) ([]models.WebhookEvent, error)
	Count() (int64, error)
	CountByStatus(status string) (int64, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	DoceboDomain  DoceboDomainRepository
	CourseMapping CourseMappingRepository
	Certificate   CertificateRepository
	WebhookEvent  WebhookEventRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		DoceboDomain:  NewDoceboDomainRepository(db),
		CourseMapping: NewCourseMappingRepository(db),
		Certificate:   NewCertificateRepository(db),
		WebhookEvent:  NewWebhookEventRepository(db),
	}
}
