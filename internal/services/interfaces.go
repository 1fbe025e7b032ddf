package services

import (
	"context"
	"time"

	"github.com/rocket-assess/assessment-service/internal/cache"
	"github.com/rocket-assess/assessment-service/internal/models"
	"github.com/rocket-assess/assessment-service/internal/repositories"
	"github.com/rocket-assess/assessment-service/internal/validator"
)

// ===== REQUEST DTOs =====

// Use business validator types
type RegisterOrganizationRequest = validator.OrganizationRegisterRequest
type UpdateOrganizationRequest = validator.OrganizationUpdateRequest
type RegisterTeacherRequest = validator.TeacherRegisterRequest
type RegisterStudentRequest = validator.StudentRegisterRequest
type LoginRequest = validator.LoginRequest
type InviteStudentsRequest = validator.InviteStudentsRequest
type CreateTestRequest = validator.TestCreateRequest
type UpdateTestRequest = validator.TestUpdateRequest
type CreateQuestionRequest = validator.QuestionCreateRequest
type UpdateQuestionRequest = validator.QuestionUpdateRequest
type IssueInvitesRequest = validator.IssueInvitesRequest
type SubmitTestRequest = validator.SubmitTestRequest

// Actor identifies the authenticated caller for permission checks.
type Actor struct {
	UserID uint
	OrgID  uint
	Email  string
	Role   models.Role
}

// ===== AUTH DTOs =====

type AuthResponse struct {
	Token  string      `json:"token"`
	Role   models.Role `json:"role"`
	UserID uint        `json:"user_id"`
	OrgID  uint        `json:"org_id"`
	Email  string      `json:"email"`
	Name   string      `json:"name"`
}

// ===== DIRECTORY DTOs =====

// StudentInviteResult reports the outcome for one email in an invite batch.
// Status is one of "invited", "already_invited", "already_registered" or
// "invalid".
type StudentInviteResult struct {
	Email  string `json:"email"`
	Status string `json:"status"`
}

// StudentInviteInfo is a registration invite as listed back to its teacher,
// with whether the address has since registered.
type StudentInviteInfo struct {
	ID         uint      `json:"id"`
	Email      string    `json:"email"`
	Registered bool      `json:"registered"`
	CreatedAt  time.Time `json:"created_at"`
}

// ===== TEST DTOs =====

type TestResponse struct {
	*models.Test
	QuestionCount int64 `json:"question_count"`
	TotalPoints   int   `json:"total_points"`
}

type TestListResponse struct {
	Tests []*TestResponse `json:"tests"`
	Total int64           `json:"total"`
}

// QuestionPublic is a question as shown to a student taking a test. The
// correct answer never leaves the server.
type QuestionPublic struct {
	ID         uint   `json:"id"`
	Text       string `json:"text"`
	OptionA    string `json:"option_a"`
	OptionB    string `json:"option_b"`
	OptionC    string `json:"option_c"`
	OptionD    string `json:"option_d"`
	PointValue int    `json:"point_value"`
}

type TestDetailResponse struct {
	*models.Test
	Questions   []QuestionPublic `json:"questions"`
	TotalPoints int              `json:"total_points"`

	// Scheduled window, present for students and taken from their earliest
	// invite for this test.
	TimeToStart     *time.Time `json:"time_to_start,omitempty"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
}

type QuestionListResponse struct {
	Questions []*models.Question `json:"questions"`
	Total     int64              `json:"total"`
}

// ===== INVITE DTOs =====

// DuplicateInvite identifies one collision that caused a batch rejection.
type DuplicateInvite struct {
	StudentEmail string    `json:"student_email"`
	Title        string    `json:"title"`
	TimeToStart  time.Time `json:"time_to_start"`
}

type InviteBatchResponse struct {
	Created []*models.TestInvite  `json:"created"`
	Skipped []StudentInviteResult `json:"skipped,omitempty"`
}

type InviteResponse struct {
	*models.TestInvite
	Expired bool `json:"expired"`
	Active  bool `json:"active"`
}

// ===== SUBMISSION DTOs =====

type SubmissionResponse struct {
	*models.Submission
	TotalPoints  int `json:"total_points"`
	EarnedPoints int `json:"earned_points"`
}

type AnswerDetail struct {
	QuestionID    uint             `json:"question_id"`
	Text          string           `json:"text"`
	Selected      models.OptionKey `json:"selected"`
	SelectedText  string           `json:"selected_text"`
	CorrectAnswer models.OptionKey `json:"correct_answer"`
	CorrectText   string           `json:"correct_text"`
	IsCorrect     bool             `json:"is_correct"`
	PointValue    int              `json:"point_value"`
	EarnedPoints  int              `json:"earned_points"`
}

type SubmissionDetailResponse struct {
	*models.Submission
	TestName     string         `json:"test_name"`
	StudentName  string         `json:"student_name"`
	TotalPoints  int            `json:"total_points"`
	EarnedPoints int            `json:"earned_points"`
	Answers      []AnswerDetail `json:"answer_details"`
}

// ===== REPORTING DTOs =====

type AttendanceEntry struct {
	InviteID     uint       `json:"invite_id"`
	StudentEmail string     `json:"student_email"`
	Title        string     `json:"title"`
	Subject      string     `json:"subject"`
	TimeToStart  time.Time  `json:"time_to_start"`
	EndTime      time.Time  `json:"end_time"`
	Submitted    bool       `json:"submitted"`
	SubmittedAt  *time.Time `json:"submitted_at,omitempty"`
}

type RankingEntry struct {
	Rank         int       `json:"rank"`
	StudentID    uint      `json:"student_id"`
	StudentName  string    `json:"student_name"`
	StudentEmail string    `json:"student_email"`
	Score        float64   `json:"score"`
	Duration     int       `json:"duration"`
	SubmittedAt  time.Time `json:"submitted_at"`

	// Scheduled window from the matching invite, when one exists.
	TimeToStart *time.Time `json:"time_to_start,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`
}

type TestAverage struct {
	TestID          uint    `json:"test_id"`
	Name            string  `json:"name"`
	SubmissionCount int     `json:"submission_count"`
	AverageScore    float64 `json:"average_score"`
}

type TeacherAnalytics struct {
	TestCount       int           `json:"test_count"`
	QuestionCount   int64         `json:"question_count"`
	StudentCount    int           `json:"student_count"`
	SubmissionCount int           `json:"submission_count"`
	AverageScore    float64       `json:"average_score"`
	Tests           []TestAverage `json:"tests"`
}

type CompletedTestEntry struct {
	SubmissionID uint      `json:"submission_id"`
	TestID       uint      `json:"test_id"`
	TestName     string    `json:"test_name"`
	Score        float64   `json:"score"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

// ===== SERVICE INTERFACES =====

type AuthService interface {
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	Logout(ctx context.Context, token string) error
	ResolveSession(ctx context.Context, token string) (*cache.Session, error)
}

type DirectoryService interface {
	// Organizations
	RegisterOrganization(ctx context.Context, req *RegisterOrganizationRequest) (*models.Organization, error)
	GetOrganization(ctx context.Context, id uint) (*models.Organization, error)
	GetOrganizationByCode(ctx context.Context, code string) (*models.Organization, error)
	UpdateOrganization(ctx context.Context, id uint, req *UpdateOrganizationRequest, actor Actor) (*models.Organization, error)

	// Accounts
	RegisterTeacher(ctx context.Context, req *RegisterTeacherRequest) (*models.Teacher, error)
	RegisterStudent(ctx context.Context, req *RegisterStudentRequest) (*models.Student, error)
	GetTeacher(ctx context.Context, id uint) (*models.Teacher, error)
	GetStudent(ctx context.Context, id uint) (*models.Student, error)
	ListTeachers(ctx context.Context, orgID uint) ([]*models.Teacher, error)
	ListStudents(ctx context.Context, orgID uint) ([]*models.Student, error)

	// Registration invites
	InviteStudents(ctx context.Context, teacherID uint, req *InviteStudentsRequest) ([]StudentInviteResult, error)
	ListStudentInvites(ctx context.Context, teacherID uint) ([]StudentInviteInfo, error)
}

type TestService interface {
	// Tests
	CreateTest(ctx context.Context, teacherID uint, req *CreateTestRequest) (*TestResponse, error)
	GetTest(ctx context.Context, id uint, actor Actor) (*TestDetailResponse, error)
	UpdateTest(ctx context.Context, id uint, req *UpdateTestRequest, teacherID uint) (*TestResponse, error)
	DeleteTest(ctx context.Context, id uint, teacherID uint) error
	ListTests(ctx context.Context, teacherID uint, filters repositories.TestFilters) (*TestListResponse, error)

	// Questions
	AddQuestion(ctx context.Context, testID uint, teacherID uint, req *CreateQuestionRequest) (*models.Question, error)
	UpdateQuestion(ctx context.Context, questionID uint, teacherID uint, req *UpdateQuestionRequest) (*models.Question, error)
	DeleteQuestion(ctx context.Context, questionID uint, teacherID uint) error
	ListQuestions(ctx context.Context, testID uint, teacherID uint) ([]*models.Question, error)
	QuestionPool(ctx context.Context, teacherID uint, subject string, limit, offset int) (*QuestionListResponse, error)
}

type InviteService interface {
	IssueInvites(ctx context.Context, teacherID uint, req *IssueInvitesRequest) (*InviteBatchResponse, error)
	ListForStudent(ctx context.Context, email string, added *bool) ([]*InviteResponse, error)
	GetInvite(ctx context.Context, id uint, actor Actor) (*InviteResponse, error)
	MarkAdded(ctx context.Context, id uint, email string) error
}

type SubmissionService interface {
	SubmitTest(ctx context.Context, studentID uint, req *SubmitTestRequest) (*SubmissionResponse, error)
	GetSubmission(ctx context.Context, id uint, actor Actor) (*SubmissionDetailResponse, error)
}

type ReportingService interface {
	Attendance(ctx context.Context, teacherID, testID uint) ([]AttendanceEntry, error)
	Rankings(ctx context.Context, teacherID, testID uint) ([]RankingEntry, error)
	TeacherOverview(ctx context.Context, teacherID uint) (*TeacherAnalytics, error)
	CompletedTests(ctx context.Context, studentID uint) ([]CompletedTestEntry, error)
	ExportRankings(ctx context.Context, teacherID, testID uint) ([]byte, string, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Auth() AuthService
	Directory() DirectoryService
	Test() TestService
	Invite() InviteService
	Submission() SubmissionService
	Reporting() ReportingService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
