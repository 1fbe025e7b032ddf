package postgres

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/rocket-assess/assessment-service/internal/cache"
	"github.com/rocket-assess/assessment-service/internal/models"
	"github.com/rocket-assess/assessment-service/internal/repositories"
)

type SubmissionPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewSubmissionPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.SubmissionRepository {
	return &SubmissionPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (s *SubmissionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

func (s *SubmissionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, submission *models.Submission) error {
	err := s.getDB(tx).WithContext(ctx).Create(submission).Error
	if repositories.IsDuplicateError(err) {
		return repositories.ErrDuplicate
	}
	if err != nil {
		return err
	}
	return s.cacheManager.InvalidateTestReports(ctx, submission.TestID)
}

func (s *SubmissionPostgreSQL) CreateAnswers(ctx context.Context, tx *gorm.DB, answers []*models.SubmissionAnswer) error {
	if len(answers) == 0 {
		return nil
	}
	return s.getDB(tx).WithContext(ctx).Create(&answers).Error
}

func (s *SubmissionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Submission, error) {
	var submission models.Submission
	if err := s.getDB(tx).WithContext(ctx).First(&submission, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &submission, nil
}

func (s *SubmissionPostgreSQL) GetByIDWithAnswers(ctx context.Context, tx *gorm.DB, id uint) (*models.Submission, error) {
	var submission models.Submission
	err := s.getDB(tx).WithContext(ctx).
		Preload("Answers").
		Preload("Answers.Question").
		Preload("Test").
		Preload("Student").
		First(&submission, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &submission, nil
}

func (s *SubmissionPostgreSQL) GetByTestAndStudent(ctx context.Context, tx *gorm.DB, testID, studentID uint) (*models.Submission, error) {
	var submission models.Submission
	err := s.getDB(tx).WithContext(ctx).
		Where("test_id = ? AND student_id = ?", testID, studentID).
		First(&submission).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &submission, nil
}

func (s *SubmissionPostgreSQL) Exists(ctx context.Context, tx *gorm.DB, testID, studentID uint) (bool, error) {
	var count int64
	err := s.getDB(tx).WithContext(ctx).
		Model(&models.Submission{}).
		Where("test_id = ? AND student_id = ?", testID, studentID).
		Count(&count).Error
	return count > 0, err
}

func (s *SubmissionPostgreSQL) ListByTest(ctx context.Context, tx *gorm.DB, testID uint) ([]*models.Submission, error) {
	var submissions []*models.Submission
	err := s.getDB(tx).WithContext(ctx).
		Where("test_id = ?", testID).
		Preload("Student").
		Order("score DESC, submitted_at ASC").
		Find(&submissions).Error
	return submissions, err
}

func (s *SubmissionPostgreSQL) ListByStudent(ctx context.Context, tx *gorm.DB, studentID uint) ([]*models.Submission, error) {
	var submissions []*models.Submission
	err := s.getDB(tx).WithContext(ctx).
		Where("student_id = ?", studentID).
		Preload("Test").
		Order("submitted_at DESC").
		Find(&submissions).Error
	return submissions, err
}

func (s *SubmissionPostgreSQL) ListByTeacher(ctx context.Context, tx *gorm.DB, teacherID uint) ([]*models.Submission, error) {
	var submissions []*models.Submission
	err := s.getDB(tx).WithContext(ctx).
		Joins("JOIN tests ON tests.id = submissions.test_id").
		Where("tests.teacher_id = ?", teacherID).
		Preload("Test").
		Preload("Student").
		Order("submissions.submitted_at DESC").
		Find(&submissions).Error
	return submissions, err
}
