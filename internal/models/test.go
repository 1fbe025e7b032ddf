package models

import "time"

// OptionKey is the answer key of a multiple-choice question.
type OptionKey string

const (
	OptionA OptionKey = "A"
	OptionB OptionKey = "B"
	OptionC OptionKey = "C"
	OptionD OptionKey = "D"
)

// Test is a teacher-authored assessment. Deleting a test cascades to its
// questions, invites and submissions.
type Test struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	TeacherID   uint      `json:"teacher_id" gorm:"not null;index"`
	Name        string    `json:"name" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Subject     *string   `json:"subject" gorm:"size:100;index" validate:"omitempty,max=100"`
	Description *string   `json:"description" gorm:"type:text" validate:"omitempty,max=2000"`
	CreatedAt   time.Time `json:"created_at"`

	// Relations
	Teacher     Teacher      `json:"teacher,omitempty" gorm:"foreignKey:TeacherID"`
	Questions   []Question   `json:"questions,omitempty" gorm:"foreignKey:TestID;constraint:OnDelete:CASCADE"`
	Invites     []TestInvite `json:"invites,omitempty" gorm:"foreignKey:TestID;constraint:OnDelete:CASCADE"`
	Submissions []Submission `json:"submissions,omitempty" gorm:"foreignKey:TestID;constraint:OnDelete:CASCADE"`

	// Computed fields (not stored)
	QuestionCount int `json:"question_count" gorm:"-"`
	TotalPoints   int `json:"total_points" gorm:"-"`
}

// Question is a four-option multiple-choice question. The four options must
// be pairwise distinct; duplicate question text within a test is rejected by
// a unique index on (test_id, lower(btrim(text))).
type Question struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	TestID        uint      `json:"test_id" gorm:"not null;index"`
	Text          string    `json:"text" gorm:"type:text;not null" validate:"required,min=1"`
	OptionA       string    `json:"option_a" gorm:"not null;size:255" validate:"required,max=255"`
	OptionB       string    `json:"option_b" gorm:"not null;size:255" validate:"required,max=255"`
	OptionC       string    `json:"option_c" gorm:"not null;size:255" validate:"required,max=255"`
	OptionD       string    `json:"option_d" gorm:"not null;size:255" validate:"required,max=255"`
	CorrectAnswer OptionKey `json:"correct_answer" gorm:"not null;size:1" validate:"required,oneof=A B C D"`
	PointValue    int       `json:"point_value" gorm:"not null;default:1" validate:"min=1,max=100"`
	CreatedAt     time.Time `json:"created_at"`

	// Relations
	Test Test `json:"test,omitempty" gorm:"foreignKey:TestID"`
}

// Option returns the option text for a key, or "" for an unknown key.
func (q *Question) Option(key OptionKey) string {
	switch key {
	case OptionA:
		return q.OptionA
	case OptionB:
		return q.OptionB
	case OptionC:
		return q.OptionC
	case OptionD:
		return q.OptionD
	}
	return ""
}

func (Test) TableName() string {
	return "tests"
}

func (Question) TableName() string {
	return "questions"
}
