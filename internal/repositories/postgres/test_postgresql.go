package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/rocket-assess/assessment-service/internal/cache"
	"github.com/rocket-assess/assessment-service/internal/models"
	"github.com/rocket-assess/assessment-service/internal/repositories"
)

// ===== TESTS =====

type TestPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewTestPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.TestRepository {
	return &TestPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (t *TestPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return t.db
}

func (t *TestPostgreSQL) Create(ctx context.Context, tx *gorm.DB, test *models.Test) error {
	if err := t.getDB(tx).WithContext(ctx).Create(test).Error; err != nil {
		return err
	}
	return t.cacheManager.Test.InvalidatePattern(ctx, fmt.Sprintf("teacher:%d:*", test.TeacherID))
}

func (t *TestPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error) {
	var test models.Test
	if err := t.getDB(tx).WithContext(ctx).First(&test, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &test, nil
}

func (t *TestPostgreSQL) GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error) {
	var test models.Test
	err := t.getDB(tx).WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.id ASC")
		}).
		Preload("Teacher").
		First(&test, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &test, nil
}

func (t *TestPostgreSQL) Update(ctx context.Context, tx *gorm.DB, test *models.Test) error {
	if err := t.getDB(tx).WithContext(ctx).Save(test).Error; err != nil {
		return err
	}
	return t.cacheManager.Test.InvalidatePattern(ctx, fmt.Sprintf("teacher:%d:*", test.TeacherID))
}

func (t *TestPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	return t.getDB(tx).WithContext(ctx).Delete(&models.Test{}, id).Error
}

func (t *TestPostgreSQL) ListByTeacher(ctx context.Context, tx *gorm.DB, teacherID uint, filters repositories.TestFilters) ([]*models.Test, int64, error) {
	db := t.getDB(tx)
	var tests []*models.Test
	var total int64

	query := db.WithContext(ctx).Model(&models.Test{}).Where("teacher_id = ?", teacherID)
	if filters.Subject != nil {
		query = query.Where("subject = ?", *filters.Subject)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)
	if err := query.Find(&tests).Error; err != nil {
		return nil, 0, err
	}
	return tests, total, nil
}

func (t *TestPostgreSQL) GetByTeacherAndName(ctx context.Context, tx *gorm.DB, teacherID uint, name string) (*models.Test, error) {
	var test models.Test
	err := t.getDB(tx).WithContext(ctx).
		Where("teacher_id = ? AND lower(name) = lower(?)", teacherID, name).
		First(&test).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &test, nil
}

func (t *TestPostgreSQL) QuestionCount(ctx context.Context, tx *gorm.DB, testID uint) (int64, error) {
	var count int64
	err := t.getDB(tx).WithContext(ctx).
		Model(&models.Question{}).
		Where("test_id = ?", testID).
		Count(&count).Error
	return count, err
}

func (t *TestPostgreSQL) TotalPoints(ctx context.Context, tx *gorm.DB, testID uint) (int, error) {
	var total *int
	err := t.getDB(tx).WithContext(ctx).
		Model(&models.Question{}).
		Where("test_id = ?", testID).
		Select("SUM(point_value)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

// ===== QUESTIONS =====

type QuestionPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewQuestionPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.QuestionRepository {
	return &QuestionPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (q *QuestionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}

func (q *QuestionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	err := q.getDB(tx).WithContext(ctx).Create(question).Error
	if repositories.IsDuplicateError(err) {
		return repositories.ErrDuplicate
	}
	return err
}

func (q *QuestionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	var question models.Question
	if err := q.getDB(tx).WithContext(ctx).First(&question, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

func (q *QuestionPostgreSQL) Update(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	err := q.getDB(tx).WithContext(ctx).Save(question).Error
	if repositories.IsDuplicateError(err) {
		return repositories.ErrDuplicate
	}
	return err
}

func (q *QuestionPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	return q.getDB(tx).WithContext(ctx).Delete(&models.Question{}, id).Error
}

func (q *QuestionPostgreSQL) ListByTest(ctx context.Context, tx *gorm.DB, testID uint) ([]*models.Question, error) {
	var questions []*models.Question
	err := q.getDB(tx).WithContext(ctx).
		Where("test_id = ?", testID).
		Order("id ASC").
		Find(&questions).Error
	return questions, err
}

func (q *QuestionPostgreSQL) ListByTeacher(ctx context.Context, tx *gorm.DB, teacherID uint, subject *string, limit, offset int) ([]*models.Question, int64, error) {
	db := q.getDB(tx)
	var questions []*models.Question
	var total int64

	query := db.WithContext(ctx).
		Model(&models.Question{}).
		Joins("JOIN tests ON tests.id = questions.test_id").
		Where("tests.teacher_id = ?", teacherID)
	if subject != nil {
		query = query.Where("tests.subject = ?", *subject)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("questions.created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Preload("Test").Find(&questions).Error; err != nil {
		return nil, 0, err
	}
	return questions, total, nil
}

func (q *QuestionPostgreSQL) ExistsByText(ctx context.Context, tx *gorm.DB, testID uint, text string, excludeID *uint) (bool, error) {
	normalized := strings.ToLower(strings.TrimSpace(text))

	query := q.getDB(tx).WithContext(ctx).
		Model(&models.Question{}).
		Where("test_id = ? AND lower(btrim(text)) = ?", testID, normalized)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}
