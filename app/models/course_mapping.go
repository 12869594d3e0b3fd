package models

import (
	"encoding/json"
	"time"
)

// CourseMapping links one Docebo course to the Certopus template it should
// be issued from, including the per-certificate field bindings. At most one
// active mapping may exist per (domain, course) pair; the pipeline fails an
// event when no active mapping resolves.
type CourseMapping struct {
	ID                 uint          `gorm:"primaryKey" json:"id"`
	DoceboDomainID     uint          `gorm:"not null;uniqueIndex:ux_course_mappings_domain_course,priority:1" json:"docebo_domain_id" validate:"required"`
	DoceboCourseID     int64         `gorm:"not null;uniqueIndex:ux_course_mappings_domain_course,priority:2" json:"docebo_course_id" validate:"required,gt=0"`
	CertopusOrgID      string        `gorm:"type:varchar(191);not null" json:"certopus_org_id" validate:"required"`
	CertopusEventID    string        `gorm:"type:varchar(191);not null" json:"certopus_event_id" validate:"required"`
	CertopusCategoryID string        `gorm:"type:varchar(191)" json:"certopus_category_id"`
	FieldMappings      JSON          `gorm:"type:longtext" json:"field_mappings"`
	AutoGenerate       bool          `gorm:"default:true" json:"auto_generate"`
	AutoPublish        bool          `gorm:"default:false" json:"auto_publish"`
	Active             bool          `gorm:"default:true;index" json:"active"`
	DoceboDomain       *DoceboDomain `gorm:"foreignKey:DoceboDomainID" json:"docebo_domain,omitempty"`
	CreatedAt          time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

// FieldMappingTable decodes the stored field-mapping document into a flat
// key -> source-selector map. A missing or malformed document yields an
// empty table rather than an error; the renderer falls back to defaults.
func (m *CourseMapping) FieldMappingTable() map[string]string {
	table := make(map[string]string)
	if len(m.FieldMappings) == 0 {
		return table
	}
	if err := json.Unmarshal(m.FieldMappings, &table); err != nil {
		return map[string]string{}
	}
	return table
}
