package services

import (
	"context"
	"testing"
	"time"

	"github.com/rocket-assess/assessment-service/internal/models"
	"github.com/rocket-assess/assessment-service/internal/validator"
)

func newTestFixture() (*fakeTestRepo, *fakeQuestionRepo, *fakeTestInviteRepo, TestService) {
	teachers := &fakeTeacherRepo{teachers: map[uint]*models.Teacher{
		1: {ID: 1, OrgID: 1, Name: "Ms. Rivera", Email: "rivera@example.com"},
	}}
	tests := &fakeTestRepo{tests: map[uint]*models.Test{}}
	questions := &fakeQuestionRepo{questions: map[uint]*models.Question{}}
	invites := &fakeTestInviteRepo{invites: map[uint]*models.TestInvite{}}

	repo := &mockRepository{teacher: teachers, test: tests, question: questions, testInvite: invites}
	service := NewTestService(repo, nil, testLogger(), validator.New())
	return tests, questions, invites, service
}

func validQuestionRequest() *CreateQuestionRequest {
	return &CreateQuestionRequest{
		Text:          "What is 2 + 2?",
		OptionA:       "3",
		OptionB:       "4",
		OptionC:       "5",
		OptionD:       "22",
		CorrectAnswer: models.OptionB,
		PointValue:    5,
	}
}

func TestTestService_CreateTest_DuplicateName(t *testing.T) {
	tests, _, _, service := newTestFixture()
	ctx := context.Background()

	tests.tests[3] = &models.Test{ID: 3, TeacherID: 1, Name: "Algebra Basics"}

	_, err := service.CreateTest(ctx, 1, &CreateTestRequest{Name: "Algebra Basics"})
	if !IsConflict(err) {
		t.Errorf("expected conflict for duplicate test name, got %v", err)
	}
}

func TestTestService_AddQuestion(t *testing.T) {
	tests, questions, _, service := newTestFixture()
	ctx := context.Background()
	tests.tests[3] = &models.Test{ID: 3, TeacherID: 1, Name: "Algebra Basics"}

	t.Run("creates question", func(t *testing.T) {
		q, err := service.AddQuestion(ctx, 3, 1, validQuestionRequest())
		if err != nil {
			t.Fatalf("AddQuestion failed: %v", err)
		}
		if q.ID == 0 || q.TestID != 3 {
			t.Errorf("unexpected question: %+v", q)
		}
		if len(questions.questions) != 1 {
			t.Errorf("expected 1 stored question, got %d", len(questions.questions))
		}
	})

	t.Run("duplicate text rejected", func(t *testing.T) {
		req := validQuestionRequest()
		req.Text = "  WHAT IS 2 + 2?  "
		_, err := service.AddQuestion(ctx, 3, 1, req)
		if !IsConflict(err) {
			t.Errorf("expected conflict for duplicate text, got %v", err)
		}
	})

	t.Run("repeated options rejected", func(t *testing.T) {
		req := validQuestionRequest()
		req.Text = "Pick the odd one out"
		req.OptionC = req.OptionB
		_, err := service.AddQuestion(ctx, 3, 1, req)
		if !IsValidation(err) {
			t.Errorf("expected validation error for repeated options, got %v", err)
		}
	})

	t.Run("foreign test denied", func(t *testing.T) {
		tests.tests[4] = &models.Test{ID: 4, TeacherID: 2, Name: "Not Yours"}
		_, err := service.AddQuestion(ctx, 4, 1, validQuestionRequest())
		if !IsAccessDenied(err) {
			t.Errorf("expected access_denied, got %v", err)
		}
	})
}

func TestTestService_UpdateQuestion_KeepsOwnText(t *testing.T) {
	tests, _, _, service := newTestFixture()
	ctx := context.Background()
	tests.tests[3] = &models.Test{ID: 3, TeacherID: 1, Name: "Algebra Basics"}

	q, err := service.AddQuestion(ctx, 3, 1, validQuestionRequest())
	if err != nil {
		t.Fatalf("AddQuestion failed: %v", err)
	}

	// Updating a question without changing its text must not trip the
	// duplicate check against itself.
	newPoints := 10
	updated, err := service.UpdateQuestion(ctx, q.ID, 1, &UpdateQuestionRequest{PointValue: &newPoints})
	if err != nil {
		t.Fatalf("UpdateQuestion failed: %v", err)
	}
	if updated.PointValue != 10 {
		t.Errorf("expected point value 10, got %d", updated.PointValue)
	}
}

func TestTestService_GetTest_StudentAccess(t *testing.T) {
	tests, _, invites, service := newTestFixture()
	ctx := context.Background()

	testID := uint(3)
	tests.tests[3] = &models.Test{
		ID: 3, TeacherID: 1, Name: "Algebra Basics",
		Questions: []models.Question{
			{ID: 1, TestID: 3, Text: "Q1", OptionA: "a", OptionB: "b", OptionC: "c", OptionD: "d",
				CorrectAnswer: models.OptionA, PointValue: 5},
		},
	}

	t.Run("uninvited student denied", func(t *testing.T) {
		_, err := service.GetTest(ctx, 3, Actor{UserID: 7, Email: "dana@example.com", Role: models.RoleStudent})
		if !IsAccessDenied(err) {
			t.Errorf("expected access_denied, got %v", err)
		}
	})

	t.Run("invited student sees questions without answers", func(t *testing.T) {
		invites.invites[1] = &models.TestInvite{
			ID: 1, TestID: &testID, StudentEmail: "dana@example.com",
			TimeToStart: time.Now(), EndTime: time.Now().Add(time.Hour),
		}
		detail, err := service.GetTest(ctx, 3, Actor{UserID: 7, Email: "Dana@Example.com", Role: models.RoleStudent})
		if err != nil {
			t.Fatalf("GetTest failed: %v", err)
		}
		if len(detail.Questions) != 1 {
			t.Fatalf("expected 1 question, got %d", len(detail.Questions))
		}
		if detail.TotalPoints != 5 {
			t.Errorf("expected total 5 points, got %d", detail.TotalPoints)
		}
	})

	t.Run("owning teacher allowed", func(t *testing.T) {
		if _, err := service.GetTest(ctx, 3, Actor{UserID: 1, Role: models.RoleTeacher}); err != nil {
			t.Errorf("GetTest failed for owner: %v", err)
		}
	})

	t.Run("other teacher denied", func(t *testing.T) {
		_, err := service.GetTest(ctx, 3, Actor{UserID: 2, Role: models.RoleTeacher})
		if !IsAccessDenied(err) {
			t.Errorf("expected access_denied, got %v", err)
		}
	})
}
