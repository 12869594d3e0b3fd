package repository

import (
	"github.com/certbridge/certbridge/app/models"
	"gorm.io/gorm"
)

// doceboDomainRepository implements the DoceboDomainRepository interface
type doceboDomainRepository struct {
	db *gorm.DB
}

// NewDoceboDomainRepository creates a new Docebo domain repository instance
func NewDoceboDomainRepository(db *gorm.DB) DoceboDomainRepository {
	return &doceboDomainRepository{db: db}
}

// Create creates a new domain in the database
func (r *doceboDomainRepository) Create(domain *models.DoceboDomain) error {
	return r.db.Create(domain).Error
}

// GetByID retrieves a domain by its ID
func (r *doceboDomainRepository) GetByID(id uint) (*models.DoceboDomain, error) {
	var domain models.DoceboDomain
	err := r.db.First(&domain, id).Error
	if err != nil {
		return nil, err
	}
	return &domain, nil
}

// GetByName retrieves a domain by its unique name
func (r *doceboDomainRepository) GetByName(name string) (*models.DoceboDomain, error) {
	var domain models.DoceboDomain
	err := r.db.Where("name = ?", name).First(&domain).Error
	if err != nil {
		return nil, err
	}
	return &domain, nil
}

// Update updates an existing domain in the database
func (r *doceboDomainRepository) Update(domain *models.DoceboDomain) error {
	return r.db.Save(domain).Error
}

// Delete deletes a domain by its ID
func (r *doceboDomainRepository) Delete(id uint) error {
	return r.db.Delete(&models.DoceboDomain{}, id).Error
}

// List retrieves domains with pagination
func (r *doceboDomainRepository) List(offset, limit int) ([]models.DoceboDomain, error) {
	var domains []models.DoceboDomain
	err := r.db.Order("name ASC").Offset(offset).Limit(limit).Find(&domains).Error
	return domains, err
}

// Count returns the total number of domains
func (r *doceboDomainRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.DoceboDomain{}).Count(&count).Error
	return count, err
}
