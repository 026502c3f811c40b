package models

import "time"

type Organization struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Name        string  `json:"name" gorm:"not null;size:200;uniqueIndex" validate:"required,max=200"`
	Description *string `json:"description" gorm:"type:text"`

	CreatedAt time.Time `json:"created_date"`
	UpdatedAt time.Time `json:"modified_date"`
	IsActive  bool      `json:"is_active" gorm:"default:true"`
	IsDeleted bool      `json:"is_deleted" gorm:"default:false;index"`
}

func (o *Organization) Effective() bool {
	return o.IsActive && !o.IsDeleted
}

func (Organization) TableName() string {
	return "organizations"
}

// Tag groups questions for tag-driven random sampling on tests.
type Tag struct {
	ID             uint    `json:"id" gorm:"primaryKey"`
	Name           string  `json:"name" gorm:"not null;size:100;index" validate:"required,max=100"`
	Description    *string `json:"description" gorm:"type:text"`
	OrganizationID uint    `json:"organization_id" gorm:"not null;index"`

	CreatedAt time.Time `json:"created_date"`
	UpdatedAt time.Time `json:"modified_date"`
	IsActive  bool      `json:"is_active" gorm:"default:true"`
	IsDeleted bool      `json:"is_deleted" gorm:"default:false"`

	Organization Organization `json:"-" gorm:"foreignKey:OrganizationID"`
}

func (Tag) TableName() string {
	return "tags"
}
