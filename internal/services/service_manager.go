package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"gorm.io/gorm"

	"github.com/rocket-assess/assessment-service/internal/cache"
	"github.com/rocket-assess/assessment-service/internal/events"
	"github.com/rocket-assess/assessment-service/internal/repositories"
	"github.com/rocket-assess/assessment-service/internal/validator"
)

// ServiceManagerConfig carries the shared dependencies services are built
// from.
type ServiceManagerConfig struct {
	DB           *gorm.DB
	Repo         repositories.Repository
	Logger       *slog.Logger
	Validator    *validator.Validator
	Sessions     *cache.SessionStore
	CacheManager *cache.CacheManager
	Publisher    events.EventPublisher
}

type serviceManager struct {
	config ServiceManagerConfig

	authService       AuthService
	directoryService  DirectoryService
	testService       TestService
	inviteService     InviteService
	submissionService SubmissionService
	reportingService  ReportingService

	initialized bool
	mu          sync.RWMutex
}

// NewServiceManager creates a service manager; call Initialize before use.
func NewServiceManager(config ServiceManagerConfig) ServiceManager {
	return &serviceManager{config: config}
}

// Initialize builds all services and their dependencies.
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	if sm.config.Repo == nil {
		return fmt.Errorf("repository is required")
	}
	if sm.config.Publisher == nil {
		return fmt.Errorf("event publisher is required")
	}

	cfg := sm.config
	sm.authService = NewAuthService(cfg.Repo, cfg.Sessions, cfg.Logger, cfg.Validator)
	sm.directoryService = NewDirectoryService(cfg.Repo, cfg.DB, cfg.Logger, cfg.Validator, cfg.Publisher)
	sm.testService = NewTestService(cfg.Repo, cfg.DB, cfg.Logger, cfg.Validator)
	sm.inviteService = NewInviteService(cfg.Repo, cfg.DB, cfg.Logger, cfg.Validator, cfg.Publisher)
	sm.submissionService = NewSubmissionService(cfg.Repo, cfg.DB, cfg.Logger, cfg.Validator, cfg.Publisher)
	sm.reportingService = NewReportingService(cfg.Repo, cfg.DB, cfg.Logger, cfg.CacheManager)

	sm.initialized = true
	cfg.Logger.Info("service manager initialized")
	return nil
}

func (sm *serviceManager) mustBeInitialized() {
	if !sm.initialized {
		panic("service manager not initialized")
	}
}

func (sm *serviceManager) Auth() AuthService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.authService
}

func (sm *serviceManager) Directory() DirectoryService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.directoryService
}

func (sm *serviceManager) Test() TestService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.testService
}

func (sm *serviceManager) Invite() InviteService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.inviteService
}

func (sm *serviceManager) Submission() SubmissionService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.submissionService
}

func (sm *serviceManager) Reporting() ReportingService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.reportingService
}

// HealthCheck verifies the backing stores are reachable.
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	return sm.config.Repo.Ping(ctx)
}

// Shutdown releases service-owned resources.
func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.initialized {
		return nil
	}
	sm.initialized = false

	if err := sm.config.Publisher.Close(); err != nil {
		return fmt.Errorf("failed to close event publisher: %w", err)
	}
	return nil
}
