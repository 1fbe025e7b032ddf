package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/rocket-assess/assessment-service/internal/events"
	"github.com/rocket-assess/assessment-service/internal/models"
	"github.com/rocket-assess/assessment-service/internal/repositories"
	"github.com/rocket-assess/assessment-service/internal/validator"
)

type submissionService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewSubmissionService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) SubmissionService {
	return &submissionService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

// SubmitTest scores and stores a student's single attempt at a test. The
// whole operation runs in one transaction and always reads fresh question
// state.
func (s *submissionService) SubmitTest(ctx context.Context, studentID uint, req *SubmitTestRequest) (*SubmissionResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError("", err.Error())
	}

	student, err := s.repo.Student().GetByID(ctx, nil, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("student not found")
		}
		return nil, NewInternalError("failed to get student", err)
	}

	test, err := s.repo.Test().GetByIDWithQuestions(ctx, nil, req.TestID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("test not found")
		}
		return nil, NewInternalError("failed to get test", err)
	}

	// Friendly pre-check; the unique index is the real guard.
	taken, err := s.repo.Submission().Exists(ctx, nil, test.ID, student.ID)
	if err != nil {
		return nil, NewInternalError("failed to check for existing submission", err)
	}
	if taken {
		return nil, NewConflictError("test already submitted")
	}

	earned, total, answerRows := scoreAnswers(test.Questions, req.Answers)
	score := percentScore(earned, total)

	rawAnswers, err := json.Marshal(req.Answers)
	if err != nil {
		return nil, NewInternalError("failed to encode answers", err)
	}

	submission := &models.Submission{
		TestID:     test.ID,
		StudentID:  student.ID,
		EnteredAt:  parseEnteredAt(req.EnteredAt),
		Duration:   req.Duration,
		Score:      score,
		AnswersRaw: datatypes.JSON(rawAnswers),
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.Submission().Create(ctx, nil, submission); err != nil {
			return err
		}
		for _, row := range answerRows {
			row.SubmissionID = submission.ID
		}
		return txRepo.Submission().CreateAnswers(ctx, nil, answerRows)
	})
	if err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, NewConflictError("test already submitted")
		}
		return nil, NewInternalError("failed to store submission", err)
	}

	if err := s.publisher.Publish(ctx, events.NewEvent(events.EventSubmissionScored, events.SubmissionScoredEvent{
		SubmissionID: submission.ID,
		TestID:       test.ID,
		StudentID:    student.ID,
		Score:        score,
	})); err != nil {
		s.logger.Warn("failed to publish submission.scored event", "error", err, "submission_id", submission.ID)
	}

	s.logger.Info("submission scored",
		"submission_id", submission.ID,
		"test_id", test.ID,
		"student_id", student.ID,
		"score", score)

	return &SubmissionResponse{
		Submission:   submission,
		TotalPoints:  total,
		EarnedPoints: earned,
	}, nil
}

// GetSubmission returns the graded detail. Students may only read their own
// submissions; teachers only submissions to their own tests.
func (s *submissionService) GetSubmission(ctx context.Context, id uint, actor Actor) (*SubmissionDetailResponse, error) {
	submission, err := s.repo.Submission().GetByIDWithAnswers(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("submission not found")
		}
		return nil, NewInternalError("failed to get submission", err)
	}

	switch actor.Role {
	case models.RoleStudent:
		if submission.StudentID != actor.UserID {
			return nil, NewAccessDeniedError("submission belongs to another student")
		}
	case models.RoleTeacher:
		if submission.Test.TeacherID != actor.UserID {
			return nil, NewAccessDeniedError("submission is for another teacher's test")
		}
	default:
		return nil, NewAccessDeniedError("not allowed to view submissions")
	}

	questions, err := s.repo.Question().ListByTest(ctx, nil, submission.TestID)
	if err != nil {
		return nil, NewInternalError("failed to list questions", err)
	}

	selected := make(map[uint]models.OptionKey, len(submission.Answers))
	for _, a := range submission.Answers {
		selected[a.QuestionID] = a.SelectedKey
	}

	details := make([]AnswerDetail, 0, len(questions))
	earned, total := 0, 0
	for _, q := range questions {
		total += q.PointValue
		detail := AnswerDetail{
			QuestionID:    q.ID,
			Text:          q.Text,
			CorrectAnswer: q.CorrectAnswer,
			CorrectText:   q.Option(q.CorrectAnswer),
			PointValue:    q.PointValue,
		}
		if key, ok := selected[q.ID]; ok {
			detail.Selected = key
			detail.SelectedText = q.Option(key)
			if key == q.CorrectAnswer {
				detail.IsCorrect = true
				detail.EarnedPoints = q.PointValue
				earned += q.PointValue
			}
		}
		details = append(details, detail)
	}

	return &SubmissionDetailResponse{
		Submission:   submission,
		TestName:     submission.Test.Name,
		StudentName:  submission.Student.Name,
		TotalPoints:  total,
		EarnedPoints: earned,
		Answers:      details,
	}, nil
}

// scoreAnswers walks every question of the test. Unanswered questions count
// toward the total but produce no answer row.
func scoreAnswers(questions []models.Question, answers map[uint]models.OptionKey) (earned, total int, rows []*models.SubmissionAnswer) {
	for _, q := range questions {
		total += q.PointValue
		key, answered := answers[q.ID]
		if !answered {
			continue
		}
		rows = append(rows, &models.SubmissionAnswer{
			QuestionID:  q.ID,
			SelectedKey: key,
		})
		if key == q.CorrectAnswer {
			earned += q.PointValue
		}
	}
	return earned, total, rows
}

// percentScore is earned/total as a percentage rounded to two decimals,
// zero for a test with no points.
func percentScore(earned, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(earned)/float64(total)*100*100) / 100
}

func parseEnteredAt(value *string) *time.Time {
	if value == nil {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, *value); err == nil {
		utc := t.UTC()
		return &utc
	}
	return nil
}
