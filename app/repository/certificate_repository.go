package repository

import (
	"github.com/certbridge/certbridge/app/models"
	"gorm.io/gorm"
)

// certificateRepository implements the CertificateRepository interface
type certificateRepository struct {
	db *gorm.DB
}

// NewCertificateRepository creates a new certificate repository instance
func NewCertificateRepository(db *gorm.DB) CertificateRepository {
	return &certificateRepository{db: db}
}

// GetByID retrieves a certificate by its ID
func (r *certificateRepository) GetByID(id uint) (*models.Certificate, error) {
	var cert models.Certificate
	err := r.db.Preload("CourseMapping").Preload("DoceboDomain").First(&cert, id).Error
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

// GetByUUID retrieves a certificate by its public identifier
func (r *certificateRepository) GetByUUID(uuid string) (*models.Certificate, error) {
	var cert models.Certificate
	err := r.db.Preload("CourseMapping").Preload("DoceboDomain").
		Where("uuid = ?", uuid).First(&cert).Error
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

// List retrieves certificates with pagination, newest first
func (r *certificateRepository) List(offset, limit int) ([]models.Certificate, error) {
	var certs []models.Certificate
	err := r.db.Preload("CourseMapping").Order("created_at DESC").
		Offset(offset).Limit(limit).Find(&certs).Error
	return certs, err
}

// ListByStatus retrieves certificates in one status with pagination
func (r *certificateRepository) ListByStatus(status string, offset, limit int) ([]models.Certificate, error) {
	var certs []models.Certificate
	err := r.db.Preload("CourseMapping").Where("status = ?", status).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&certs).Error
	return certs, err
}

// Count returns the total number of certificates
func (r *certificateRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Certificate{}).Count(&count).Error
	return count, err
}

// CountByStatus returns the number of certificates in one status
func (r *certificateRepository) CountByStatus(status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Certificate{}).Where("status = ?", status).Count(&count).Error
	return count, err
}
