package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/rocket-assess/assessment-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type TestFilters struct {
	TeacherID *uint   `json:"teacher_id"`
	Subject   *string `json:"subject"`
	Limit     int     `json:"limit"`
	Offset    int     `json:"offset"`
	SortBy    string  `json:"sort_by"`    // "created_at", "name"
	SortOrder string  `json:"sort_order"` // "asc", "desc"
}

type InviteFilters struct {
	StudentEmail *string    `json:"student_email"`
	TestID       *uint      `json:"test_id"`
	Added        *bool      `json:"added"`
	DateFrom     *time.Time `json:"date_from"`
	DateTo       *time.Time `json:"date_to"`
	Limit        int        `json:"limit"`
	Offset       int        `json:"offset"`
}

type SubmissionFilters struct {
	TestID    *uint `json:"test_id"`
	StudentID *uint `json:"student_id"`
	Limit     int   `json:"limit"`
	Offset    int   `json:"offset"`
}

// ===== DIRECTORY DOMAIN =====

type OrganizationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, org *models.Organization) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Organization, error)
	GetByCode(ctx context.Context, tx *gorm.DB, code string) (*models.Organization, error)
	Update(ctx context.Context, tx *gorm.DB, org *models.Organization) error
	ExistsByCode(ctx context.Context, tx *gorm.DB, code string) (bool, error)
}

type TeacherRepository interface {
	Create(ctx context.Context, tx *gorm.DB, teacher *models.Teacher) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Teacher, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, orgID uint, email string) (*models.Teacher, error)
	GetByPublicID(ctx context.Context, tx *gorm.DB, publicID string) (*models.Teacher, error)
	ListByOrg(ctx context.Context, tx *gorm.DB, orgID uint) ([]*models.Teacher, error)
	ExistsByEmail(ctx context.Context, tx *gorm.DB, email string) (bool, error)
}

type StudentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, student *models.Student) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Student, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, orgID uint, email string) (*models.Student, error)
	GetByAnyEmail(ctx context.Context, tx *gorm.DB, email string) (*models.Student, error)
	ListByOrg(ctx context.Context, tx *gorm.DB, orgID uint) ([]*models.Student, error)
	ExistsByEmail(ctx context.Context, tx *gorm.DB, email string) (bool, error)
}

type StudentInviteRepository interface {
	Create(ctx context.Context, tx *gorm.DB, invite *models.StudentInvite) error
	Exists(ctx context.Context, tx *gorm.DB, teacherID uint, email string) (bool, error)
	ListByTeacher(ctx context.Context, tx *gorm.DB, teacherID uint) ([]*models.StudentInvite, error)
	FindByEmail(ctx context.Context, tx *gorm.DB, email string) ([]*models.StudentInvite, error)
}

// ===== ASSESSMENT DOMAIN =====

type TestRepository interface {
	Create(ctx context.Context, tx *gorm.DB, test *models.Test) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error)
	GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error)
	Update(ctx context.Context, tx *gorm.DB, test *models.Test) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	ListByTeacher(ctx context.Context, tx *gorm.DB, teacherID uint, filters TestFilters) ([]*models.Test, int64, error)
	GetByTeacherAndName(ctx context.Context, tx *gorm.DB, teacherID uint, name string) (*models.Test, error)

	// Aggregates used by listings and scoring
	QuestionCount(ctx context.Context, tx *gorm.DB, testID uint) (int64, error)
	TotalPoints(ctx context.Context, tx *gorm.DB, testID uint) (int, error)
}

type QuestionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, question *models.Question) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error)
	Update(ctx context.Context, tx *gorm.DB, question *models.Question) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	ListByTest(ctx context.Context, tx *gorm.DB, testID uint) ([]*models.Question, error)
	ListByTeacher(ctx context.Context, tx *gorm.DB, teacherID uint, subject *string, limit, offset int) ([]*models.Question, int64, error)
	ExistsByText(ctx context.Context, tx *gorm.DB, testID uint, text string, excludeID *uint) (bool, error)
}

type TestInviteRepository interface {
	Create(ctx context.Context, tx *gorm.DB, invite *models.TestInvite) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.TestInvite, error)
	ListByEmail(ctx context.Context, tx *gorm.DB, email string, filters InviteFilters) ([]*models.TestInvite, error)
	ListByTest(ctx context.Context, tx *gorm.DB, testID uint) ([]*models.TestInvite, error)
	ListByTeacherName(ctx context.Context, tx *gorm.DB, teacherName string) ([]*models.TestInvite, error)
	FindDuplicates(ctx context.Context, tx *gorm.DB, candidates []*models.TestInvite) ([]*models.TestInvite, error)
	MarkAdded(ctx context.Context, tx *gorm.DB, id uint) error
}

type SubmissionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, submission *models.Submission) error
	CreateAnswers(ctx context.Context, tx *gorm.DB, answers []*models.SubmissionAnswer) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Submission, error)
	GetByIDWithAnswers(ctx context.Context, tx *gorm.DB, id uint) (*models.Submission, error)
	GetByTestAndStudent(ctx context.Context, tx *gorm.DB, testID, studentID uint) (*models.Submission, error)
	Exists(ctx context.Context, tx *gorm.DB, testID, studentID uint) (bool, error)
	ListByTest(ctx context.Context, tx *gorm.DB, testID uint) ([]*models.Submission, error)
	ListByStudent(ctx context.Context, tx *gorm.DB, studentID uint) ([]*models.Submission, error)
	ListByTeacher(ctx context.Context, tx *gorm.DB, teacherID uint) ([]*models.Submission, error)
}
