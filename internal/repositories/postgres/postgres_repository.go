package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/rocket-assess/assessment-service/internal/cache"
	"github.com/rocket-assess/assessment-service/internal/models"
	"github.com/rocket-assess/assessment-service/internal/repositories"
)

// PostgreSQLRepository implements the main Repository interface.
type PostgreSQLRepository struct {
	db           *gorm.DB
	redisClient  *redis.Client
	cacheManager *cache.CacheManager

	organization  repositories.OrganizationRepository
	teacher       repositories.TeacherRepository
	student       repositories.StudentRepository
	studentInvite repositories.StudentInviteRepository
	test          repositories.TestRepository
	question      repositories.QuestionRepository
	testInvite    repositories.TestInviteRepository
	submission    repositories.SubmissionRepository
}

// RepositoryConfig holds connections for repository initialization.
type RepositoryConfig struct {
	DB          *gorm.DB
	RedisClient *redis.Client
}

// NewPostgreSQLRepository wires all sub-repositories onto one handle.
func NewPostgreSQLRepository(config RepositoryConfig) repositories.Repository {
	repo := &PostgreSQLRepository{
		db:           config.DB,
		redisClient:  config.RedisClient,
		cacheManager: cache.NewCacheManager(config.RedisClient),
	}
	repo.initSubRepositories(config.DB, config.RedisClient)
	return repo
}

func (r *PostgreSQLRepository) initSubRepositories(db *gorm.DB, redisClient *redis.Client) {
	r.organization = NewOrganizationPostgreSQL(db)
	r.teacher = NewTeacherPostgreSQL(db, redisClient)
	r.student = NewStudentPostgreSQL(db, redisClient)
	r.studentInvite = NewStudentInvitePostgreSQL(db)
	r.test = NewTestPostgreSQL(db, redisClient)
	r.question = NewQuestionPostgreSQL(db, redisClient)
	r.testInvite = NewTestInvitePostgreSQL(db, redisClient)
	r.submission = NewSubmissionPostgreSQL(db, redisClient)
}

func (r *PostgreSQLRepository) Organization() repositories.OrganizationRepository {
	return r.organization
}

func (r *PostgreSQLRepository) Teacher() repositories.TeacherRepository {
	return r.teacher
}

func (r *PostgreSQLRepository) Student() repositories.StudentRepository {
	return r.student
}

func (r *PostgreSQLRepository) StudentInvite() repositories.StudentInviteRepository {
	return r.studentInvite
}

func (r *PostgreSQLRepository) Test() repositories.TestRepository {
	return r.test
}

func (r *PostgreSQLRepository) Question() repositories.QuestionRepository {
	return r.question
}

func (r *PostgreSQLRepository) TestInvite() repositories.TestInviteRepository {
	return r.testInvite
}

func (r *PostgreSQLRepository) Submission() repositories.SubmissionRepository {
	return r.submission
}

// WithTransaction executes fn with a repository bound to one transaction.
func (r *PostgreSQLRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &PostgreSQLRepository{
			db:           tx,
			redisClient:  r.redisClient,
			cacheManager: r.cacheManager,
		}
		txRepo.initSubRepositories(tx, r.redisClient)
		return fn(txRepo)
	})
}

// Ping checks the health of database and cache connections.
func (r *PostgreSQLRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if r.redisClient != nil {
		if err := r.cacheManager.HealthCheck(ctx); err != nil {
			return fmt.Errorf("cache ping failed: %w", err)
		}
	}
	return nil
}

// Close closes all connections.
func (r *PostgreSQLRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	if r.redisClient != nil {
		if err := r.redisClient.Close(); err != nil {
			return fmt.Errorf("failed to close Redis: %w", err)
		}
	}
	return nil
}

// RepositoryManager implements the RepositoryManager interface.
type RepositoryManager struct {
	config RepositoryConfig
	repo   repositories.Repository
}

func NewRepositoryManager(config RepositoryConfig) repositories.RepositoryManager {
	return &RepositoryManager{config: config}
}

// Initialize verifies connectivity, runs migrations, and builds the
// repository handle.
func (rm *RepositoryManager) Initialize() error {
	if rm.config.DB == nil {
		return fmt.Errorf("database connection is required")
	}

	sqlDB, err := rm.config.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}

	if rm.config.RedisClient != nil {
		if _, err := rm.config.RedisClient.Ping(ctx).Result(); err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
	}

	if err := rm.migrate(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	rm.repo = NewPostgreSQLRepository(rm.config)
	return nil
}

func (rm *RepositoryManager) migrate() error {
	db := rm.config.DB

	if err := db.AutoMigrate(
		&models.Organization{},
		&models.Teacher{},
		&models.Student{},
		&models.StudentInvite{},
		&models.Test{},
		&models.Question{},
		&models.TestInvite{},
		&models.Submission{},
		&models.SubmissionAnswer{},
	); err != nil {
		return err
	}

	// Functional indexes AutoMigrate cannot express. Question uniqueness is
	// case- and whitespace-insensitive per test; unlinked invites fall back
	// to the (title, email, start) identity.
	statements := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_questions_test_normalized_text
			ON questions (test_id, lower(btrim(text)))`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_test_invites_unlinked_identity
			ON test_invites (lower(title), student_email, time_to_start)
			WHERE test_id IS NULL`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetRepository returns the repository instance.
func (rm *RepositoryManager) GetRepository() repositories.Repository {
	return rm.repo
}

// HealthCheck checks the health of all repository connections.
func (rm *RepositoryManager) HealthCheck(ctx context.Context) error {
	if rm.repo == nil {
		return fmt.Errorf("repository not initialized")
	}
	return rm.repo.Ping(ctx)
}

// Shutdown gracefully shuts down all repository connections.
func (rm *RepositoryManager) Shutdown(ctx context.Context) error {
	if rm.repo == nil {
		return nil
	}
	return rm.repo.Close()
}
