package models

import "time"

// Organization is the registration root: it owns teachers and students and is
// identified externally by its short org code.
type Organization struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	OrgCode   string    `json:"org_code" gorm:"not null;size:10;uniqueIndex" validate:"required,org_code"`
	Name      string    `json:"name" gorm:"not null;size:100" validate:"required,min=1,max=100"`
	Website   *string   `json:"website" gorm:"size:255" validate:"omitempty,max=255"`
	Email     *string   `json:"email" gorm:"size:100" validate:"omitempty,email"`
	Phone     *string   `json:"phone" gorm:"size:20" validate:"omitempty,max=20"`
	City      *string   `json:"city" gorm:"size:50" validate:"omitempty,max=50"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Teachers []Teacher `json:"teachers,omitempty" gorm:"foreignKey:OrgID"`
	Students []Student `json:"students,omitempty" gorm:"foreignKey:OrgID"`
}

func (Organization) TableName() string {
	return "organizations"
}
