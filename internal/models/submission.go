package models

import (
	"time"

	"gorm.io/datatypes"
)

// Submission is a student's single scored attempt at a test. The
// (test_id, student_id) unique index is the authoritative guard against
// double submission; the service-level pre-check only exists to return a
// friendly conflict message before hitting the constraint.
//
// Score is a percentage with two-decimal precision, set exactly once at
// creation time. AnswersRaw keeps the submitted answer map as JSONB for
// auditing; the graded per-question rows live in SubmissionAnswer.
type Submission struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	TestID      uint           `json:"test_id" gorm:"not null;uniqueIndex:idx_submissions_test_student"`
	StudentID   uint           `json:"student_id" gorm:"not null;uniqueIndex:idx_submissions_test_student"`
	EnteredAt   *time.Time     `json:"entered_at"`
	SubmittedAt time.Time      `json:"submitted_at" gorm:"autoCreateTime"`
	Duration    int            `json:"duration"` // seconds
	Score       float64        `json:"score" gorm:"type:decimal(5,2)"`
	AnswersRaw  datatypes.JSON `json:"-" gorm:"type:jsonb"`

	// Relations
	Test    Test               `json:"test,omitempty" gorm:"foreignKey:TestID"`
	Student Student            `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	Answers []SubmissionAnswer `json:"answers,omitempty" gorm:"foreignKey:SubmissionID;constraint:OnDelete:CASCADE"`
}

// SubmissionAnswer records the selected option for one answered question.
// Unanswered questions produce no row.
type SubmissionAnswer struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	SubmissionID uint      `json:"submission_id" gorm:"not null;index"`
	QuestionID   uint      `json:"question_id" gorm:"not null;index"`
	SelectedKey  OptionKey `json:"selected_key" gorm:"not null;size:5"`

	// Relations
	Question Question `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
}

func (Submission) TableName() string {
	return "submissions"
}

func (SubmissionAnswer) TableName() string {
	return "submission_answers"
}
