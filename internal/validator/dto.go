package validator

import "github.com/rocket-assess/assessment-service/internal/models"

// ===== DIRECTORY DTOs =====

type OrganizationRegisterRequest struct {
	OrgCode string  `json:"org_code" validate:"required,org_code"`
	Name    string  `json:"name" validate:"required,max=255"`
	Website *string `json:"website" validate:"omitempty,url,max=255"`
	Email   *string `json:"email" validate:"omitempty,email,max=100"`
	Phone   *string `json:"phone" validate:"omitempty,max=30"`
	City    *string `json:"city" validate:"omitempty,max=100"`
}

type OrganizationUpdateRequest struct {
	Name    *string `json:"name" validate:"omitempty,max=255"`
	Website *string `json:"website" validate:"omitempty,url,max=255"`
	Email   *string `json:"email" validate:"omitempty,email,max=100"`
	Phone   *string `json:"phone" validate:"omitempty,max=30"`
	City    *string `json:"city" validate:"omitempty,max=100"`
}

type TeacherRegisterRequest struct {
	OrgCode  string `json:"org_code" validate:"required,org_code"`
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Gender   string `json:"gender" validate:"omitempty,oneof=male female other"`
}

type StudentRegisterRequest struct {
	OrgCode  string `json:"org_code" validate:"required,org_code"`
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Gender   string `json:"gender" validate:"omitempty,oneof=male female other"`
	Grade    string `json:"grade" validate:"omitempty,max=50"`
}

type LoginRequest struct {
	OrgCode  string `json:"org_code" validate:"required,org_code"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=teacher student organization"`
}

type InviteStudentsRequest struct {
	Emails []string `json:"emails" validate:"required,min=1,max=100,dive,email"`
}

// ===== TEST AUTHORING DTOs =====

type TestCreateRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Subject     *string `json:"subject" validate:"omitempty,max=100"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

type TestUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=255"`
	Subject     *string `json:"subject" validate:"omitempty,max=100"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

type QuestionCreateRequest struct {
	Text          string           `json:"text" validate:"required,max=2000"`
	OptionA       string           `json:"option_a" validate:"required,max=500"`
	OptionB       string           `json:"option_b" validate:"required,max=500"`
	OptionC       string           `json:"option_c" validate:"required,max=500"`
	OptionD       string           `json:"option_d" validate:"required,max=500"`
	CorrectAnswer models.OptionKey `json:"correct_answer" validate:"required,option_key"`
	PointValue    int              `json:"point_value" validate:"required,min=1,max=100"`
}

type QuestionUpdateRequest struct {
	Text          *string           `json:"text" validate:"omitempty,max=2000"`
	OptionA       *string           `json:"option_a" validate:"omitempty,max=500"`
	OptionB       *string           `json:"option_b" validate:"omitempty,max=500"`
	OptionC       *string           `json:"option_c" validate:"omitempty,max=500"`
	OptionD       *string           `json:"option_d" validate:"omitempty,max=500"`
	CorrectAnswer *models.OptionKey `json:"correct_answer" validate:"omitempty,option_key"`
	PointValue    *int              `json:"point_value" validate:"omitempty,min=1,max=100"`
}

// ===== INVITE DTOs =====

// IssueInvitesRequest creates one invite per student email. TimeToStart
// accepts RFC 3339 or the bare "2006-01-02T15:04" form browsers send.
type IssueInvitesRequest struct {
	TestID          *uint    `json:"test_id"`
	Title           string   `json:"title" validate:"required,max=255"`
	Subject         string   `json:"subject" validate:"required,max=100"`
	Description     *string  `json:"description" validate:"omitempty,max=2000"`
	TimeToStart     string   `json:"time_to_start" validate:"required"`
	DurationMinutes int      `json:"duration_minutes" validate:"required,min=1,max=1440"`
	PointValue      int      `json:"point_value" validate:"required,min=1"`
	StudentEmails   []string `json:"student_emails" validate:"required,min=1,max=500,dive,email"`
}

// ===== SUBMISSION DTOs =====

type SubmitTestRequest struct {
	TestID    uint                      `json:"test_id" validate:"required"`
	Answers   map[uint]models.OptionKey `json:"answers" validate:"required,dive,option_key"`
	EnteredAt *string                   `json:"entered_at"`
	Duration  int                       `json:"duration" validate:"omitempty,min=0"`
}
