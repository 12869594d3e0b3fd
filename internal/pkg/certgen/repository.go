package certgen

import (
	"github.com/certbridge/certbridge/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides the DB operations used by the orchestrator.
type Repository interface {
	EnsureDomain(name string) (*models.DoceboDomain, error)
	UpsertWebhookEvent(event *models.WebhookEvent) error
	MarkWebhookStatus(messageID, status, errorMessage string) error
	FindActiveCourseMapping(domainName string, courseID int64) (*models.CourseMapping, error)
	CreateCertificate(cert *models.Certificate) error
	UpdateCertificate(cert *models.Certificate) error
	GetCertificateByUUID(uuid string) (*models.Certificate, error)
}

// DomainDefaults seeds auto-created domain rows. Domains first seen via a
// webhook start inactive and need manual configuration before their own
// credentials are used.
type DomainDefaults struct {
	APIURL   string
	Username string
	Password string
}

type gormRepository struct {
	db       *gorm.DB
	defaults DomainDefaults
}

// NewRepository creates a pipeline repository backed by GORM.
func NewRepository(db *gorm.DB, defaults DomainDefaults) Repository {
	return &gormRepository{db: db, defaults: defaults}
}

func (r *gormRepository) EnsureDomain(name string) (*models.DoceboDomain, error) {
	domain := &models.DoceboDomain{
		Name:     name,
		APIURL:   r.defaults.APIURL,
		Username: r.defaults.Username,
		Password: r.defaults.Password,
		Active:   false,
	}
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(domain)
	if tx.Error != nil {
		return nil, tx.Error
	}

	var stored models.DoceboDomain
	if err := r.db.Where("name = ?", name).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

// UpsertWebhookEvent inserts or overwrites the ledger row keyed solely by
// message id. A redelivery replaces status and payload instead of creating
// a second row; under concurrent duplicates the last writer wins.
func (r *gormRepository) UpsertWebhookEvent(event *models.WebhookEvent) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "message_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"event",
			"domain",
			"payload",
			"status",
			"error_message",
			"docebo_domain_id",
			"updated_at",
		}),
	}).Create(event).Error; err != nil {
		return err
	}

	// Ensure ID is populated after upsert.
	return r.db.Where("message_id = ?", event.MessageID).First(event).Error
}

func (r *gormRepository) MarkWebhookStatus(messageID, status, errorMessage string) error {
	updates := map[string]interface{}{
		"status":        status,
		"error_message": errorMessage,
	}
	return r.db.Model(&models.WebhookEvent{}).
		Where("message_id = ?", messageID).
		Updates(updates).Error
}

func (r *gormRepository) FindActiveCourseMapping(domainName string, courseID int64) (*models.CourseMapping, error) {
	var mapping models.CourseMapping
	err := r.db.
		Joins("JOIN docebo_domains ON docebo_domains.id = course_mappings.docebo_domain_id").
		Where("docebo_domains.name = ? AND course_mappings.docebo_course_id = ? AND course_mappings.active = ?", domainName, courseID, true).
		Preload("DoceboDomain").
		First(&mapping).Error
	if err != nil {
		return nil, err
	}
	return &mapping, nil
}

func (r *gormRepository) CreateCertificate(cert *models.Certificate) error {
	return r.db.Create(cert).Error
}

func (r *gormRepository) UpdateCertificate(cert *models.Certificate) error {
	return r.db.Save(cert).Error
}

func (r *gormRepository) GetCertificateByUUID(uuid string) (*models.Certificate, error) {
	var cert models.Certificate
	err := r.db.
		Preload("CourseMapping").
		Preload("CourseMapping.DoceboDomain").
		Preload("DoceboDomain").
		Where("uuid = ?", uuid).
		First(&cert).Error
	if err != nil {
		return nil, err
	}
	return &cert, nil
}
