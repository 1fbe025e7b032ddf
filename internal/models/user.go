package models

import "time"

// Role identifies the three principal types that can hold a session.
type Role string

const (
	RoleOrganization Role = "organization"
	RoleTeacher      Role = "teacher"
	RoleStudent      Role = "student"
)

// Teacher belongs to exactly one organization and owns tests.
// Password holds a bcrypt hash, never plaintext.
type Teacher struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	OrgID     uint      `json:"org_id" gorm:"not null;index"`
	TeacherID string    `json:"teacher_id" gorm:"not null;size:20;uniqueIndex" validate:"required,max=20"`
	Name      string    `json:"name" gorm:"not null;size:100" validate:"required,max=100"`
	Email     string    `json:"email" gorm:"not null;size:100;uniqueIndex" validate:"required,email"`
	Password  string    `json:"-" gorm:"not null;size:128"`
	Gender    *string   `json:"gender" gorm:"size:10"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Org   Organization `json:"org,omitempty" gorm:"foreignKey:OrgID"`
	Tests []Test       `json:"tests,omitempty" gorm:"foreignKey:TeacherID;constraint:OnDelete:CASCADE"`
}

// Student belongs to one organization and optionally records the teacher
// whose invitation led to the registration.
type Student struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	OrgID     uint      `json:"org_id" gorm:"not null;index"`
	InvitedBy *uint     `json:"invited_by" gorm:"index"`
	StudentID string    `json:"student_id" gorm:"not null;size:20;uniqueIndex" validate:"required,max=20"`
	Name      string    `json:"name" gorm:"not null;size:100" validate:"required,max=100"`
	Email     string    `json:"email" gorm:"not null;size:100;uniqueIndex" validate:"required,email"`
	Password  string    `json:"-" gorm:"not null;size:128"`
	Gender    *string   `json:"gender" gorm:"size:10"`
	Grade     *string   `json:"grade" gorm:"size:10"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Org     Organization `json:"org,omitempty" gorm:"foreignKey:OrgID"`
	Inviter *Teacher     `json:"inviter,omitempty" gorm:"foreignKey:InvitedBy"`
}

func (Teacher) TableName() string {
	return "teachers"
}

func (Student) TableName() string {
	return "students"
}
