package events

import (
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the service.
const (
	EventInviteIssued      = "invite.issued"
	EventInviteAdded       = "invite.added"
	EventSubmissionScored  = "submission.scored"
	EventStudentRegistered = "student.registered"
)

// Event is the envelope every published message shares.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewEvent builds an envelope around a payload.
func NewEvent(eventType string, data interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    "assessment-service",
		Version:   "1.0",
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// InviteIssuedEvent is published once per invite row created in a batch.
type InviteIssuedEvent struct {
	InviteID     uint      `json:"invite_id"`
	TestID       *uint     `json:"test_id,omitempty"`
	StudentEmail string    `json:"student_email"`
	Title        string    `json:"title"`
	TimeToStart  time.Time `json:"time_to_start"`
	EndTime      time.Time `json:"end_time"`
}

// SubmissionScoredEvent is published after a submission is scored and stored.
type SubmissionScoredEvent struct {
	SubmissionID uint    `json:"submission_id"`
	TestID       uint    `json:"test_id"`
	StudentID    uint    `json:"student_id"`
	Score        float64 `json:"score"`
}

// StudentRegisteredEvent is published when a student account is created.
type StudentRegisteredEvent struct {
	StudentID uint   `json:"student_id"`
	OrgID     uint   `json:"org_id"`
	Email     string `json:"email"`
}
