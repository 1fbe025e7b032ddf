package services

import (
	"context"
	"log/slog"

	"gorm.io/gorm"

	"github.com/rocket-assess/assessment-service/internal/models"
	"github.com/rocket-assess/assessment-service/internal/repositories"
	"github.com/rocket-assess/assessment-service/internal/validator"
)

type testService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewTestService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) TestService {
	return &testService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

// ===== TESTS =====

func (s *testService) CreateTest(ctx context.Context, teacherID uint, req *CreateTestRequest) (*TestResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError("", err.Error())
	}

	if _, err := s.repo.Teacher().GetByID(ctx, nil, teacherID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("teacher not found")
		}
		return nil, NewInternalError("failed to get teacher", err)
	}

	if _, err := s.repo.Test().GetByTeacherAndName(ctx, nil, teacherID, req.Name); err == nil {
		return nil, NewConflictError("a test with this name already exists")
	} else if !repositories.IsNotFoundError(err) {
		return nil, NewInternalError("failed to check test name", err)
	}

	test := &models.Test{
		TeacherID:   teacherID,
		Name:        req.Name,
		Subject:     req.Subject,
		Description: req.Description,
	}
	if err := s.repo.Test().Create(ctx, nil, test); err != nil {
		return nil, NewInternalError("failed to create test", err)
	}

	s.logger.Info("test created", "test_id", test.ID, "teacher_id", teacherID)
	return &TestResponse{Test: test}, nil
}

// GetTest returns a test with its questions. Teachers see their own tests;
// students only see tests they hold an invite for, and never the correct
// answers.
func (s *testService) GetTest(ctx context.Context, id uint, actor Actor) (*TestDetailResponse, error) {
	test, err := s.repo.Test().GetByIDWithQuestions(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("test not found")
		}
		return nil, NewInternalError("failed to get test", err)
	}

	var window *models.TestInvite
	switch actor.Role {
	case models.RoleTeacher:
		if test.TeacherID != actor.UserID {
			return nil, NewAccessDeniedError("test belongs to another teacher")
		}
	case models.RoleStudent:
		invite, err := s.earliestInvite(ctx, id, actor.Email)
		if err != nil {
			return nil, err
		}
		if invite == nil {
			return nil, NewAccessDeniedError("no invite for this test")
		}
		window = invite
	default:
		return nil, NewAccessDeniedError("not allowed to view tests")
	}

	questions := make([]QuestionPublic, 0, len(test.Questions))
	totalPoints := 0
	for _, q := range test.Questions {
		totalPoints += q.PointValue
		questions = append(questions, QuestionPublic{
			ID:         q.ID,
			Text:       q.Text,
			OptionA:    q.OptionA,
			OptionB:    q.OptionB,
			OptionC:    q.OptionC,
			OptionD:    q.OptionD,
			PointValue: q.PointValue,
		})
	}

	detail := &TestDetailResponse{
		Test:        test,
		Questions:   questions,
		TotalPoints: totalPoints,
	}
	if window != nil {
		detail.TimeToStart = &window.TimeToStart
		detail.EndTime = &window.EndTime
		detail.DurationMinutes = &window.DurationMinutes
	}
	return detail, nil
}

func (s *testService) UpdateTest(ctx context.Context, id uint, req *UpdateTestRequest, teacherID uint) (*TestResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError("", err.Error())
	}

	test, err := s.getOwnedTest(ctx, id, teacherID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != test.Name {
		if _, err := s.repo.Test().GetByTeacherAndName(ctx, nil, teacherID, *req.Name); err == nil {
			return nil, NewConflictError("a test with this name already exists")
		} else if !repositories.IsNotFoundError(err) {
			return nil, NewInternalError("failed to check test name", err)
		}
		test.Name = *req.Name
	}
	if req.Subject != nil {
		test.Subject = req.Subject
	}
	if req.Description != nil {
		test.Description = req.Description
	}

	if err := s.repo.Test().Update(ctx, nil, test); err != nil {
		return nil, NewInternalError("failed to update test", err)
	}
	return &TestResponse{Test: test}, nil
}

func (s *testService) DeleteTest(ctx context.Context, id uint, teacherID uint) error {
	if _, err := s.getOwnedTest(ctx, id, teacherID); err != nil {
		return err
	}
	if err := s.repo.Test().Delete(ctx, nil, id); err != nil {
		return NewInternalError("failed to delete test", err)
	}
	s.logger.Info("test deleted", "test_id", id, "teacher_id", teacherID)
	return nil
}

func (s *testService) ListTests(ctx context.Context, teacherID uint, filters repositories.TestFilters) (*TestListResponse, error) {
	tests, total, err := s.repo.Test().ListByTeacher(ctx, nil, teacherID, filters)
	if err != nil {
		return nil, NewInternalError("failed to list tests", err)
	}

	responses := make([]*TestResponse, 0, len(tests))
	for _, test := range tests {
		count, err := s.repo.Test().QuestionCount(ctx, nil, test.ID)
		if err != nil {
			return nil, NewInternalError("failed to count questions", err)
		}
		points, err := s.repo.Test().TotalPoints(ctx, nil, test.ID)
		if err != nil {
			return nil, NewInternalError("failed to sum points", err)
		}
		responses = append(responses, &TestResponse{
			Test:          test,
			QuestionCount: count,
			TotalPoints:   points,
		})
	}

	return &TestListResponse{Tests: responses, Total: total}, nil
}

// ===== QUESTIONS =====

func (s *testService) AddQuestion(ctx context.Context, testID uint, teacherID uint, req *CreateQuestionRequest) (*models.Question, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError("", err.Error())
	}
	if errs := s.validator.ValidateQuestionOptions(req.OptionA, req.OptionB, req.OptionC, req.OptionD); len(errs) > 0 {
		return nil, NewValidationError(errs[0].Field, errs[0].Message)
	}

	if _, err := s.getOwnedTest(ctx, testID, teacherID); err != nil {
		return nil, err
	}

	dup, err := s.repo.Question().ExistsByText(ctx, nil, testID, req.Text, nil)
	if err != nil {
		return nil, NewInternalError("failed to check question text", err)
	}
	if dup {
		return nil, NewConflictError("an identical question already exists in this test")
	}

	question := &models.Question{
		TestID:        testID,
		Text:          req.Text,
		OptionA:       req.OptionA,
		OptionB:       req.OptionB,
		OptionC:       req.OptionC,
		OptionD:       req.OptionD,
		CorrectAnswer: req.CorrectAnswer,
		PointValue:    req.PointValue,
	}
	if err := s.repo.Question().Create(ctx, nil, question); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, NewConflictError("an identical question already exists in this test")
		}
		return nil, NewInternalError("failed to create question", err)
	}

	s.logger.Info("question added", "question_id", question.ID, "test_id", testID)
	return question, nil
}

func (s *testService) UpdateQuestion(ctx context.Context, questionID uint, teacherID uint, req *UpdateQuestionRequest) (*models.Question, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError("", err.Error())
	}

	question, err := s.getOwnedQuestion(ctx, questionID, teacherID)
	if err != nil {
		return nil, err
	}

	if req.Text != nil && *req.Text != question.Text {
		dup, err := s.repo.Question().ExistsByText(ctx, nil, question.TestID, *req.Text, &questionID)
		if err != nil {
			return nil, NewInternalError("failed to check question text", err)
		}
		if dup {
			return nil, NewConflictError("an identical question already exists in this test")
		}
		question.Text = *req.Text
	}
	if req.OptionA != nil {
		question.OptionA = *req.OptionA
	}
	if req.OptionB != nil {
		question.OptionB = *req.OptionB
	}
	if req.OptionC != nil {
		question.OptionC = *req.OptionC
	}
	if req.OptionD != nil {
		question.OptionD = *req.OptionD
	}
	if errs := s.validator.ValidateQuestionOptions(question.OptionA, question.OptionB, question.OptionC, question.OptionD); len(errs) > 0 {
		return nil, NewValidationError(errs[0].Field, errs[0].Message)
	}
	if req.CorrectAnswer != nil {
		question.CorrectAnswer = *req.CorrectAnswer
	}
	if req.PointValue != nil {
		question.PointValue = *req.PointValue
	}

	if err := s.repo.Question().Update(ctx, nil, question); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, NewConflictError("an identical question already exists in this test")
		}
		return nil, NewInternalError("failed to update question", err)
	}
	return question, nil
}

func (s *testService) DeleteQuestion(ctx context.Context, questionID uint, teacherID uint) error {
	if _, err := s.getOwnedQuestion(ctx, questionID, teacherID); err != nil {
		return err
	}
	if err := s.repo.Question().Delete(ctx, nil, questionID); err != nil {
		return NewInternalError("failed to delete question", err)
	}
	return nil
}

func (s *testService) ListQuestions(ctx context.Context, testID uint, teacherID uint) ([]*models.Question, error) {
	if _, err := s.getOwnedTest(ctx, testID, teacherID); err != nil {
		return nil, err
	}
	questions, err := s.repo.Question().ListByTest(ctx, nil, testID)
	if err != nil {
		return nil, NewInternalError("failed to list questions", err)
	}
	return questions, nil
}

// QuestionPool pages through every question the teacher has authored across
// all tests, optionally narrowed to one subject.
func (s *testService) QuestionPool(ctx context.Context, teacherID uint, subject string, limit, offset int) (*QuestionListResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var subjectFilter *string
	if subject != "" {
		subjectFilter = &subject
	}
	questions, total, err := s.repo.Question().ListByTeacher(ctx, nil, teacherID, subjectFilter, limit, offset)
	if err != nil {
		return nil, NewInternalError("failed to list questions", err)
	}
	return &QuestionListResponse{Questions: questions, Total: total}, nil
}

// ===== HELPERS =====

func (s *testService) getOwnedTest(ctx context.Context, testID, teacherID uint) (*models.Test, error) {
	test, err := s.repo.Test().GetByID(ctx, nil, testID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("test not found")
		}
		return nil, NewInternalError("failed to get test", err)
	}
	if test.TeacherID != teacherID {
		return nil, NewAccessDeniedError("test belongs to another teacher")
	}
	return test, nil
}

func (s *testService) getOwnedQuestion(ctx context.Context, questionID, teacherID uint) (*models.Question, error) {
	question, err := s.repo.Question().GetByID(ctx, nil, questionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("question not found")
		}
		return nil, NewInternalError("failed to get question", err)
	}
	if _, err := s.getOwnedTest(ctx, question.TestID, teacherID); err != nil {
		return nil, err
	}
	return question, nil
}

// earliestInvite returns the student's earliest-starting invite for the test,
// or nil when they hold none.
func (s *testService) earliestInvite(ctx context.Context, testID uint, email string) (*models.TestInvite, error) {
	invites, err := s.repo.TestInvite().ListByEmail(ctx, nil, normalizeEmail(email), repositories.InviteFilters{TestID: &testID})
	if err != nil {
		return nil, NewInternalError("failed to check invites", err)
	}
	var earliest *models.TestInvite
	for _, invite := range invites {
		if earliest == nil || invite.TimeToStart.Before(earliest.TimeToStart) {
			earliest = invite
		}
	}
	return earliest, nil
}
