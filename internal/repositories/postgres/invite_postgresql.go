package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/rocket-assess/assessment-service/internal/cache"
	"github.com/rocket-assess/assessment-service/internal/models"
	"github.com/rocket-assess/assessment-service/internal/repositories"
)

type TestInvitePostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewTestInvitePostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.TestInviteRepository {
	return &TestInvitePostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (i *TestInvitePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return i.db
}

func (i *TestInvitePostgreSQL) Create(ctx context.Context, tx *gorm.DB, invite *models.TestInvite) error {
	err := i.getDB(tx).WithContext(ctx).Create(invite).Error
	if repositories.IsDuplicateError(err) {
		return repositories.ErrDuplicate
	}
	if err != nil {
		return err
	}
	return i.cacheManager.InvalidateInvites(ctx, invite.StudentEmail)
}

func (i *TestInvitePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.TestInvite, error) {
	var invite models.TestInvite
	if err := i.getDB(tx).WithContext(ctx).First(&invite, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &invite, nil
}

func (i *TestInvitePostgreSQL) ListByEmail(ctx context.Context, tx *gorm.DB, email string, filters repositories.InviteFilters) ([]*models.TestInvite, error) {
	db := i.getDB(tx)
	var invites []*models.TestInvite

	// Invite listings are read on every student dashboard load, so they are
	// cached briefly. Filtered queries bypass the cache.
	if tx == nil && filters == (repositories.InviteFilters{}) {
		cacheKey := fmt.Sprintf("email:%s:list", email)
		err := i.cacheManager.Invite.CacheOrExecute(ctx, cacheKey, &invites, cache.InviteCacheConfig.TTL, func() (interface{}, error) {
			var fresh []*models.TestInvite
			if err := db.WithContext(ctx).
				Where("student_email = ?", email).
				Order("time_to_start DESC").
				Find(&fresh).Error; err != nil {
				return nil, err
			}
			return fresh, nil
		})
		return invites, err
	}

	query := db.WithContext(ctx).Where("student_email = ?", email)
	if filters.TestID != nil {
		query = query.Where("test_id = ?", *filters.TestID)
	}
	if filters.Added != nil {
		query = query.Where("added_to_tests = ?", *filters.Added)
	}
	if filters.DateFrom != nil {
		query = query.Where("time_to_start >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("time_to_start <= ?", *filters.DateTo)
	}
	query = query.Order("time_to_start DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	err := query.Find(&invites).Error
	return invites, err
}

func (i *TestInvitePostgreSQL) ListByTest(ctx context.Context, tx *gorm.DB, testID uint) ([]*models.TestInvite, error) {
	var invites []*models.TestInvite
	err := i.getDB(tx).WithContext(ctx).
		Where("test_id = ?", testID).
		Order("student_email ASC").
		Find(&invites).Error
	return invites, err
}

func (i *TestInvitePostgreSQL) ListByTeacherName(ctx context.Context, tx *gorm.DB, teacherName string) ([]*models.TestInvite, error) {
	var invites []*models.TestInvite
	err := i.getDB(tx).WithContext(ctx).
		Where("teacher_name = ?", teacherName).
		Order("time_to_start DESC").
		Find(&invites).Error
	return invites, err
}

// FindDuplicates returns existing invites that collide with any candidate.
// Linked candidates collide on (test_id, student_email); unlinked ones on
// (lower(title), student_email, time_to_start).
func (i *TestInvitePostgreSQL) FindDuplicates(ctx context.Context, tx *gorm.DB, candidates []*models.TestInvite) ([]*models.TestInvite, error) {
	db := i.getDB(tx)
	var duplicates []*models.TestInvite

	for _, c := range candidates {
		var matches []*models.TestInvite
		query := db.WithContext(ctx)
		if c.TestID != nil {
			query = query.Where("test_id = ? AND student_email = ?", *c.TestID, c.StudentEmail)
		} else {
			query = query.Where(
				"lower(title) = lower(?) AND student_email = ? AND time_to_start = ?",
				c.Title, c.StudentEmail, c.TimeToStart,
			)
		}
		if err := query.Find(&matches).Error; err != nil {
			return nil, err
		}
		duplicates = append(duplicates, matches...)
	}
	return duplicates, nil
}

func (i *TestInvitePostgreSQL) MarkAdded(ctx context.Context, tx *gorm.DB, id uint) error {
	result := i.getDB(tx).WithContext(ctx).
		Model(&models.TestInvite{}).
		Where("id = ?", id).
		Update("added_to_tests", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}
