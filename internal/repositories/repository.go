package repositories

import "context"

// Repository aggregates all sub-repository interfaces behind one handle.
type Repository interface {
	// Directory domain
	Organization() OrganizationRepository
	Teacher() TeacherRepository
	Student() StudentRepository
	StudentInvite() StudentInviteRepository

	// Assessment domain
	Test() TestRepository
	Question() QuestionRepository
	TestInvite() TestInviteRepository
	Submission() SubmissionRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager manages the repository lifecycle.
type RepositoryManager interface {
	// Initialize repositories with database connections and run migrations
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}
