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

// ===== ORGANIZATIONS =====

type OrganizationPostgreSQL struct {
	db *gorm.DB
}

func NewOrganizationPostgreSQL(db *gorm.DB) repositories.OrganizationRepository {
	return &OrganizationPostgreSQL{db: db}
}

func (o *OrganizationPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return o.db
}

func (o *OrganizationPostgreSQL) Create(ctx context.Context, tx *gorm.DB, org *models.Organization) error {
	return o.getDB(tx).WithContext(ctx).Create(org).Error
}

func (o *OrganizationPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Organization, error) {
	var org models.Organization
	if err := o.getDB(tx).WithContext(ctx).First(&org, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &org, nil
}

func (o *OrganizationPostgreSQL) GetByCode(ctx context.Context, tx *gorm.DB, code string) (*models.Organization, error) {
	var org models.Organization
	err := o.getDB(tx).WithContext(ctx).
		Where("org_code = ?", code).
		First(&org).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &org, nil
}

func (o *OrganizationPostgreSQL) Update(ctx context.Context, tx *gorm.DB, org *models.Organization) error {
	return o.getDB(tx).WithContext(ctx).Save(org).Error
}

func (o *OrganizationPostgreSQL) ExistsByCode(ctx context.Context, tx *gorm.DB, code string) (bool, error) {
	var count int64
	err := o.getDB(tx).WithContext(ctx).
		Model(&models.Organization{}).
		Where("org_code = ?", code).
		Count(&count).Error
	return count > 0, err
}

// ===== TEACHERS =====

type TeacherPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewTeacherPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.TeacherRepository {
	return &TeacherPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (t *TeacherPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return t.db
}

func (t *TeacherPostgreSQL) Create(ctx context.Context, tx *gorm.DB, teacher *models.Teacher) error {
	return t.getDB(tx).WithContext(ctx).Create(teacher).Error
}

func (t *TeacherPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Teacher, error) {
	var teacher models.Teacher
	if err := t.getDB(tx).WithContext(ctx).Preload("Org").First(&teacher, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &teacher, nil
}

func (t *TeacherPostgreSQL) GetByEmail(ctx context.Context, tx *gorm.DB, orgID uint, email string) (*models.Teacher, error) {
	var teacher models.Teacher
	err := t.getDB(tx).WithContext(ctx).
		Where("org_id = ? AND email = ?", orgID, email).
		First(&teacher).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &teacher, nil
}

func (t *TeacherPostgreSQL) GetByPublicID(ctx context.Context, tx *gorm.DB, publicID string) (*models.Teacher, error) {
	var teacher models.Teacher
	err := t.getDB(tx).WithContext(ctx).
		Where("teacher_id = ?", publicID).
		First(&teacher).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &teacher, nil
}

func (t *TeacherPostgreSQL) ListByOrg(ctx context.Context, tx *gorm.DB, orgID uint) ([]*models.Teacher, error) {
	var teachers []*models.Teacher
	err := t.getDB(tx).WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("name ASC").
		Find(&teachers).Error
	return teachers, err
}

func (t *TeacherPostgreSQL) ExistsByEmail(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	var exists bool
	cacheKey := fmt.Sprintf("teacher:email:%s", email)

	err := t.cacheManager.Exists.CacheOrExecute(ctx, cacheKey, &exists, cache.ExistsCacheConfig.TTL, func() (interface{}, error) {
		var count int64
		if err := t.getDB(tx).WithContext(ctx).
			Model(&models.Teacher{}).
			Where("email = ?", email).
			Count(&count).Error; err != nil {
			return nil, err
		}
		return count > 0, nil
	})
	return exists, err
}

// ===== STUDENTS =====

type StudentPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewStudentPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.StudentRepository {
	return &StudentPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (s *StudentPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

func (s *StudentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, student *models.Student) error {
	return s.getDB(tx).WithContext(ctx).Create(student).Error
}

func (s *StudentPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Student, error) {
	var student models.Student
	if err := s.getDB(tx).WithContext(ctx).Preload("Org").First(&student, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &student, nil
}

func (s *StudentPostgreSQL) GetByEmail(ctx context.Context, tx *gorm.DB, orgID uint, email string) (*models.Student, error) {
	var student models.Student
	err := s.getDB(tx).WithContext(ctx).
		Where("org_id = ? AND email = ?", orgID, email).
		First(&student).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &student, nil
}

func (s *StudentPostgreSQL) GetByAnyEmail(ctx context.Context, tx *gorm.DB, email string) (*models.Student, error) {
	var student models.Student
	err := s.getDB(tx).WithContext(ctx).
		Where("email = ?", email).
		First(&student).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &student, nil
}

func (s *StudentPostgreSQL) ListByOrg(ctx context.Context, tx *gorm.DB, orgID uint) ([]*models.Student, error) {
	var students []*models.Student
	err := s.getDB(tx).WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("name ASC").
		Find(&students).Error
	return students, err
}

func (s *StudentPostgreSQL) ExistsByEmail(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	var count int64
	err := s.getDB(tx).WithContext(ctx).
		Model(&models.Student{}).
		Where("email = ?", email).
		Count(&count).Error
	return count > 0, err
}

// ===== STUDENT INVITES =====

type StudentInvitePostgreSQL struct {
	db *gorm.DB
}

func NewStudentInvitePostgreSQL(db *gorm.DB) repositories.StudentInviteRepository {
	return &StudentInvitePostgreSQL{db: db}
}

func (s *StudentInvitePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

func (s *StudentInvitePostgreSQL) Create(ctx context.Context, tx *gorm.DB, invite *models.StudentInvite) error {
	err := s.getDB(tx).WithContext(ctx).Create(invite).Error
	if repositories.IsDuplicateError(err) {
		return repositories.ErrDuplicate
	}
	return err
}

func (s *StudentInvitePostgreSQL) Exists(ctx context.Context, tx *gorm.DB, teacherID uint, email string) (bool, error) {
	var count int64
	err := s.getDB(tx).WithContext(ctx).
		Model(&models.StudentInvite{}).
		Where("teacher_id = ? AND email = ?", teacherID, email).
		Count(&count).Error
	return count > 0, err
}

func (s *StudentInvitePostgreSQL) ListByTeacher(ctx context.Context, tx *gorm.DB, teacherID uint) ([]*models.StudentInvite, error) {
	var invites []*models.StudentInvite
	err := s.getDB(tx).WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Order("created_at DESC").
		Find(&invites).Error
	return invites, err
}

func (s *StudentInvitePostgreSQL) FindByEmail(ctx context.Context, tx *gorm.DB, email string) ([]*models.StudentInvite, error) {
	var invites []*models.StudentInvite
	err := s.getDB(tx).WithContext(ctx).
		Where("email = ?", email).
		Order("created_at ASC").
		Find(&invites).Error
	return invites, err
}
