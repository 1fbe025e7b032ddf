package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/rocket-assess/assessment-service/internal/models"
	"github.com/rocket-assess/assessment-service/internal/repositories"
)

// mockRepository wires configurable fakes behind the Repository interface.
// Unset sub-repositories return nil so a test only builds what it touches.
type mockRepository struct {
	organization  repositories.OrganizationRepository
	teacher       repositories.TeacherRepository
	student       repositories.StudentRepository
	studentInvite repositories.StudentInviteRepository
	test          repositories.TestRepository
	question      repositories.QuestionRepository
	testInvite    repositories.TestInviteRepository
	submission    repositories.SubmissionRepository
}

func (m *mockRepository) Organization() repositories.OrganizationRepository { return m.organization }
func (m *mockRepository) Teacher() repositories.TeacherRepository           { return m.teacher }
func (m *mockRepository) Student() repositories.StudentRepository           { return m.student }
func (m *mockRepository) StudentInvite() repositories.StudentInviteRepository {
	return m.studentInvite
}
func (m *mockRepository) Test() repositories.TestRepository             { return m.test }
func (m *mockRepository) Question() repositories.QuestionRepository    { return m.question }
func (m *mockRepository) TestInvite() repositories.TestInviteRepository { return m.testInvite }
func (m *mockRepository) Submission() repositories.SubmissionRepository { return m.submission }

func (m *mockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}
func (m *mockRepository) Ping(ctx context.Context) error { return nil }
func (m *mockRepository) Close() error                   { return nil }

// ===== ORGANIZATION FAKE =====

type fakeOrganizationRepo struct {
	orgs map[uint]*models.Organization
}

func (f *fakeOrganizationRepo) Create(ctx context.Context, tx *gorm.DB, org *models.Organization) error {
	org.ID = uint(len(f.orgs) + 1)
	f.orgs[org.ID] = org
	return nil
}

func (f *fakeOrganizationRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Organization, error) {
	if o, ok := f.orgs[id]; ok {
		return o, nil
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeOrganizationRepo) GetByCode(ctx context.Context, tx *gorm.DB, code string) (*models.Organization, error) {
	for _, o := range f.orgs {
		if o.OrgCode == code {
			return o, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeOrganizationRepo) Update(ctx context.Context, tx *gorm.DB, org *models.Organization) error {
	f.orgs[org.ID] = org
	return nil
}

func (f *fakeOrganizationRepo) ExistsByCode(ctx context.Context, tx *gorm.DB, code string) (bool, error) {
	_, err := f.GetByCode(ctx, tx, code)
	return err == nil, nil
}

// ===== STUDENT INVITE FAKE =====

type fakeStudentInviteRepo struct {
	invites []*models.StudentInvite
}

func (f *fakeStudentInviteRepo) Create(ctx context.Context, tx *gorm.DB, invite *models.StudentInvite) error {
	for _, existing := range f.invites {
		if existing.TeacherID == invite.TeacherID && existing.Email == invite.Email {
			return repositories.ErrDuplicate
		}
	}
	invite.ID = uint(len(f.invites) + 1)
	f.invites = append(f.invites, invite)
	return nil
}

func (f *fakeStudentInviteRepo) Exists(ctx context.Context, tx *gorm.DB, teacherID uint, email string) (bool, error) {
	for _, i := range f.invites {
		if i.TeacherID == teacherID && i.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStudentInviteRepo) ListByTeacher(ctx context.Context, tx *gorm.DB, teacherID uint) ([]*models.StudentInvite, error) {
	var out []*models.StudentInvite
	for _, i := range f.invites {
		if i.TeacherID == teacherID {
			out = append(out, i)
		}
	}
	return out, nil
}

func (f *fakeStudentInviteRepo) FindByEmail(ctx context.Context, tx *gorm.DB, email string) ([]*models.StudentInvite, error) {
	var out []*models.StudentInvite
	for _, i := range f.invites {
		if i.Email == email {
			out = append(out, i)
		}
	}
	return out, nil
}

// ===== TEACHER FAKE =====

type fakeTeacherRepo struct {
	teachers map[uint]*models.Teacher
}

func (f *fakeTeacherRepo) Create(ctx context.Context, tx *gorm.DB, teacher *models.Teacher) error {
	f.teachers[teacher.ID] = teacher
	return nil
}

func (f *fakeTeacherRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Teacher, error) {
	if t, ok := f.teachers[id]; ok {
		return t, nil
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeTeacherRepo) GetByEmail(ctx context.Context, tx *gorm.DB, orgID uint, email string) (*models.Teacher, error) {
	for _, t := range f.teachers {
		if t.OrgID == orgID && t.Email == email {
			return t, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeTeacherRepo) GetByPublicID(ctx context.Context, tx *gorm.DB, publicID string) (*models.Teacher, error) {
	for _, t := range f.teachers {
		if t.TeacherID == publicID {
			return t, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeTeacherRepo) ListByOrg(ctx context.Context, tx *gorm.DB, orgID uint) ([]*models.Teacher, error) {
	var out []*models.Teacher
	for _, t := range f.teachers {
		if t.OrgID == orgID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTeacherRepo) ExistsByEmail(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	for _, t := range f.teachers {
		if t.Email == email {
			return true, nil
		}
	}
	return false, nil
}

// ===== STUDENT FAKE =====

type fakeStudentRepo struct {
	students map[uint]*models.Student
}

func (f *fakeStudentRepo) Create(ctx context.Context, tx *gorm.DB, student *models.Student) error {
	f.students[student.ID] = student
	return nil
}

func (f *fakeStudentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Student, error) {
	if s, ok := f.students[id]; ok {
		return s, nil
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeStudentRepo) GetByEmail(ctx context.Context, tx *gorm.DB, orgID uint, email string) (*models.Student, error) {
	for _, s := range f.students {
		if s.OrgID == orgID && s.Email == email {
			return s, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeStudentRepo) GetByAnyEmail(ctx context.Context, tx *gorm.DB, email string) (*models.Student, error) {
	for _, s := range f.students {
		if s.Email == email {
			return s, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeStudentRepo) ListByOrg(ctx context.Context, tx *gorm.DB, orgID uint) ([]*models.Student, error) {
	var out []*models.Student
	for _, s := range f.students {
		if s.OrgID == orgID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStudentRepo) ExistsByEmail(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	for _, s := range f.students {
		if s.Email == email {
			return true, nil
		}
	}
	return false, nil
}

// ===== TEST FAKE =====

type fakeTestRepo struct {
	tests map[uint]*models.Test
}

func (f *fakeTestRepo) Create(ctx context.Context, tx *gorm.DB, test *models.Test) error {
	f.tests[test.ID] = test
	return nil
}

func (f *fakeTestRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error) {
	if t, ok := f.tests[id]; ok {
		return t, nil
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeTestRepo) GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error) {
	return f.GetByID(ctx, tx, id)
}

func (f *fakeTestRepo) Update(ctx context.Context, tx *gorm.DB, test *models.Test) error {
	f.tests[test.ID] = test
	return nil
}

func (f *fakeTestRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	delete(f.tests, id)
	return nil
}

func (f *fakeTestRepo) ListByTeacher(ctx context.Context, tx *gorm.DB, teacherID uint, filters repositories.TestFilters) ([]*models.Test, int64, error) {
	var out []*models.Test
	for _, t := range f.tests {
		if t.TeacherID == teacherID {
			out = append(out, t)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeTestRepo) GetByTeacherAndName(ctx context.Context, tx *gorm.DB, teacherID uint, name string) (*models.Test, error) {
	for _, t := range f.tests {
		if t.TeacherID == teacherID && t.Name == name {
			return t, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeTestRepo) QuestionCount(ctx context.Context, tx *gorm.DB, testID uint) (int64, error) {
	if t, ok := f.tests[testID]; ok {
		return int64(len(t.Questions)), nil
	}
	return 0, nil
}

func (f *fakeTestRepo) TotalPoints(ctx context.Context, tx *gorm.DB, testID uint) (int, error) {
	total := 0
	if t, ok := f.tests[testID]; ok {
		for _, q := range t.Questions {
			total += q.PointValue
		}
	}
	return total, nil
}

// ===== QUESTION FAKE =====

type fakeQuestionRepo struct {
	questions map[uint]*models.Question
	nextID    uint
}

func normalizeQuestionText(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

func (f *fakeQuestionRepo) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	f.nextID++
	question.ID = f.nextID
	f.questions[question.ID] = question
	return nil
}

func (f *fakeQuestionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	if q, ok := f.questions[id]; ok {
		return q, nil
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeQuestionRepo) Update(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	f.questions[question.ID] = question
	return nil
}

func (f *fakeQuestionRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	delete(f.questions, id)
	return nil
}

func (f *fakeQuestionRepo) ListByTest(ctx context.Context, tx *gorm.DB, testID uint) ([]*models.Question, error) {
	var out []*models.Question
	for _, q := range f.questions {
		if q.TestID == testID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeQuestionRepo) ListByTeacher(ctx context.Context, tx *gorm.DB, teacherID uint, subject *string, limit, offset int) ([]*models.Question, int64, error) {
	var out []*models.Question
	for _, q := range f.questions {
		out = append(out, q)
	}
	return out, int64(len(out)), nil
}

func (f *fakeQuestionRepo) ExistsByText(ctx context.Context, tx *gorm.DB, testID uint, text string, excludeID *uint) (bool, error) {
	for _, q := range f.questions {
		if excludeID != nil && q.ID == *excludeID {
			continue
		}
		if q.TestID == testID && normalizeQuestionText(q.Text) == normalizeQuestionText(text) {
			return true, nil
		}
	}
	return false, nil
}

// ===== TEST INVITE FAKE =====

type fakeTestInviteRepo struct {
	invites   map[uint]*models.TestInvite
	nextID    uint
	createErr map[string]error
}

func (f *fakeTestInviteRepo) Create(ctx context.Context, tx *gorm.DB, invite *models.TestInvite) error {
	if err, ok := f.createErr[invite.StudentEmail]; ok {
		return err
	}
	f.nextID++
	invite.ID = f.nextID
	f.invites[invite.ID] = invite
	return nil
}

func (f *fakeTestInviteRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.TestInvite, error) {
	if i, ok := f.invites[id]; ok {
		return i, nil
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeTestInviteRepo) ListByEmail(ctx context.Context, tx *gorm.DB, email string, filters repositories.InviteFilters) ([]*models.TestInvite, error) {
	var out []*models.TestInvite
	for _, i := range f.invites {
		if i.StudentEmail != email {
			continue
		}
		if filters.TestID != nil && (i.TestID == nil || *i.TestID != *filters.TestID) {
			continue
		}
		if filters.Added != nil && i.AddedToTests != *filters.Added {
			continue
		}
		out = append(out, i)
	}
	return out, nil
}

func (f *fakeTestInviteRepo) ListByTest(ctx context.Context, tx *gorm.DB, testID uint) ([]*models.TestInvite, error) {
	var out []*models.TestInvite
	for _, i := range f.invites {
		if i.TestID != nil && *i.TestID == testID {
			out = append(out, i)
		}
	}
	return out, nil
}

func (f *fakeTestInviteRepo) ListByTeacherName(ctx context.Context, tx *gorm.DB, teacherName string) ([]*models.TestInvite, error) {
	var out []*models.TestInvite
	for _, i := range f.invites {
		if i.TeacherName == teacherName {
			out = append(out, i)
		}
	}
	return out, nil
}

func (f *fakeTestInviteRepo) FindDuplicates(ctx context.Context, tx *gorm.DB, candidates []*models.TestInvite) ([]*models.TestInvite, error) {
	var out []*models.TestInvite
	for _, c := range candidates {
		for _, existing := range f.invites {
			if c.TestID != nil && existing.TestID != nil {
				if *c.TestID == *existing.TestID && c.StudentEmail == existing.StudentEmail {
					out = append(out, existing)
				}
				continue
			}
			if c.TestID == nil && existing.TestID == nil &&
				c.Title == existing.Title &&
				c.StudentEmail == existing.StudentEmail &&
				c.TimeToStart.Equal(existing.TimeToStart) {
				out = append(out, existing)
			}
		}
	}
	return out, nil
}

func (f *fakeTestInviteRepo) MarkAdded(ctx context.Context, tx *gorm.DB, id uint) error {
	if i, ok := f.invites[id]; ok {
		i.AddedToTests = true
		return nil
	}
	return repositories.ErrNotFound
}

// ===== SUBMISSION FAKE =====

type fakeSubmissionRepo struct {
	submissions map[uint]*models.Submission
	answers     []*models.SubmissionAnswer
	nextID      uint
}

func (f *fakeSubmissionRepo) Create(ctx context.Context, tx *gorm.DB, submission *models.Submission) error {
	for _, existing := range f.submissions {
		if existing.TestID == submission.TestID && existing.StudentID == submission.StudentID {
			return repositories.ErrDuplicate
		}
	}
	f.nextID++
	submission.ID = f.nextID
	f.submissions[submission.ID] = submission
	return nil
}

func (f *fakeSubmissionRepo) CreateAnswers(ctx context.Context, tx *gorm.DB, answers []*models.SubmissionAnswer) error {
	f.answers = append(f.answers, answers...)
	return nil
}

func (f *fakeSubmissionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Submission, error) {
	if s, ok := f.submissions[id]; ok {
		return s, nil
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeSubmissionRepo) GetByIDWithAnswers(ctx context.Context, tx *gorm.DB, id uint) (*models.Submission, error) {
	return f.GetByID(ctx, tx, id)
}

func (f *fakeSubmissionRepo) GetByTestAndStudent(ctx context.Context, tx *gorm.DB, testID, studentID uint) (*models.Submission, error) {
	for _, s := range f.submissions {
		if s.TestID == testID && s.StudentID == studentID {
			return s, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeSubmissionRepo) Exists(ctx context.Context, tx *gorm.DB, testID, studentID uint) (bool, error) {
	_, err := f.GetByTestAndStudent(ctx, tx, testID, studentID)
	if err == nil {
		return true, nil
	}
	return false, nil
}

func (f *fakeSubmissionRepo) ListByTest(ctx context.Context, tx *gorm.DB, testID uint) ([]*models.Submission, error) {
	var out []*models.Submission
	for _, s := range f.submissions {
		if s.TestID == testID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSubmissionRepo) ListByStudent(ctx context.Context, tx *gorm.DB, studentID uint) ([]*models.Submission, error) {
	var out []*models.Submission
	for _, s := range f.submissions {
		if s.StudentID == studentID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSubmissionRepo) ListByTeacher(ctx context.Context, tx *gorm.DB, teacherID uint) ([]*models.Submission, error) {
	return nil, nil
}
