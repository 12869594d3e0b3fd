package repository

import (
	"github.com/certbridge/certbridge/app/models"
	"gorm.io/gorm"
)

// courseMappingRepository implements the CourseMappingRepository interface
type courseMappingRepository struct {
	db *gorm.DB
}

// NewCourseMappingRepository creates a new course mapping repository instance
func NewCourseMappingRepository(db *gorm.DB) CourseMappingRepository {
	return &courseMappingRepository{db: db}
}

// Create creates a new course mapping in the database
func (r *courseMappingRepository) Create(mapping *models.CourseMapping) error {
	return r.db.Create(mapping).Error
}

// GetByID retrieves a course mapping by its ID
func (r *courseMappingRepository) GetByID(id uint) (*models.CourseMapping, error) {
	var mapping models.CourseMapping
	err := r.db.Preload("DoceboDomain").First(&mapping, id).Error
	if err != nil {
		return nil, err
	}
	return &mapping, nil
}

// Update updates an existing course mapping in the database
func (r *courseMappingRepository) Update(mapping *models.CourseMapping) error {
	return r.db.Save(mapping).Error
}

// Delete deletes a course mapping by its ID
func (r *courseMappingRepository) Delete(id uint) error {
	return r.db.Delete(&models.CourseMapping{}, id).Error
}

// List retrieves course mappings with pagination
func (r *courseMappingRepository) List(offset, limit int) ([]models.CourseMapping, error) {
	var mappings []models.CourseMapping
	err := r.db.Preload("DoceboDomain").Order("created_at DESC").
		Offset(offset).Limit(limit).Find(&mappings).Error
	return mappings, err
}

// Count returns the total number of course mappings
func (r *courseMappingRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.CourseMapping{}).Count(&count).Error
	return count, err
}
