package models

import "time"

// StudentInvite records that a teacher invited an email address to register.
// Unique per (teacher, email) so re-inviting surfaces as already_invited.
type StudentInvite struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TeacherID uint      `json:"teacher_id" gorm:"not null;uniqueIndex:idx_student_invites_teacher_email"`
	Email     string    `json:"email" gorm:"not null;size:100;uniqueIndex:idx_student_invites_teacher_email" validate:"required,email"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Teacher Teacher `json:"teacher,omitempty" gorm:"foreignKey:TeacherID;constraint:OnDelete:CASCADE"`
}

// TestInvite is a scheduled offer for one student email to take a test within
// [TimeToStart, EndTime]. TestID may be nil when the invite is issued before
// the test row exists; once linked, (test_id, student_email) is the canonical
// duplicate identity and is enforced by a unique index. Unlinked invites fall
// back to (lower(title), student_email, time_to_start), checked by the issuer
// before any row of a batch is written.
//
// The only mutation after creation is flipping AddedToTests when the student
// acknowledges the invite. Expiry is a presentation concern: readers compare
// the current time to EndTime.
type TestInvite struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	TestID          *uint     `json:"test_id" gorm:"uniqueIndex:idx_test_invites_test_email"`
	TeacherName     string    `json:"teacher_name" gorm:"not null;size:255" validate:"required"`
	StudentEmail    string    `json:"student_email" gorm:"not null;size:100;index;uniqueIndex:idx_test_invites_test_email" validate:"required,email"`
	TimeToStart     time.Time `json:"time_to_start" gorm:"not null;index"`
	DurationMinutes int       `json:"duration_minutes" gorm:"not null" validate:"required,min=1"`
	Title           string    `json:"title" gorm:"not null;size:255" validate:"required,max=255"`
	Description     *string   `json:"description" gorm:"type:text"`
	Subject         string    `json:"subject" gorm:"not null;size:100" validate:"required,max=100"`
	PointValue      int       `json:"point_value" gorm:"not null" validate:"required,min=1"`
	EndTime         time.Time `json:"end_time" gorm:"not null"`
	AddedToTests    bool      `json:"added_to_tests" gorm:"not null;default:false"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// Relations
	Test *Test `json:"test,omitempty" gorm:"foreignKey:TestID"`
}

func (StudentInvite) TableName() string {
	return "student_invites"
}

func (TestInvite) TableName() string {
	return "test_invites"
}
