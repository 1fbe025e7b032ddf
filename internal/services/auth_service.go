package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/rocket-assess/assessment-service/internal/cache"
	"github.com/rocket-assess/assessment-service/internal/models"
	"github.com/rocket-assess/assessment-service/internal/repositories"
	"github.com/rocket-assess/assessment-service/internal/validator"
)

type authService struct {
	repo      repositories.Repository
	sessions  *cache.SessionStore
	logger    *slog.Logger
	validator *validator.Validator
}

func NewAuthService(repo repositories.Repository, sessions *cache.SessionStore, logger *slog.Logger, validator *validator.Validator) AuthService {
	return &authService{
		repo:      repo,
		sessions:  sessions,
		logger:    logger,
		validator: validator,
	}
}

// Login authenticates against the directory and issues a session token.
// Credential failures are reported uniformly so the response does not leak
// which part of the login was wrong.
func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError("", err.Error())
	}

	email := normalizeEmail(req.Email)

	org, err := s.repo.Organization().GetByCode(ctx, nil, req.OrgCode)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewAccessDeniedError("invalid credentials")
		}
		return nil, NewInternalError("failed to look up organization", err)
	}

	var (
		userID uint
		name   string
		role   models.Role
	)

	switch models.Role(req.Role) {
	case models.RoleTeacher:
		teacher, err := s.repo.Teacher().GetByEmail(ctx, nil, org.ID, email)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, NewAccessDeniedError("invalid credentials")
			}
			return nil, NewInternalError("failed to look up teacher", err)
		}
		if bcrypt.CompareHashAndPassword([]byte(teacher.Password), []byte(req.Password)) != nil {
			return nil, NewAccessDeniedError("invalid credentials")
		}
		userID, name, role = teacher.ID, teacher.Name, models.RoleTeacher

	case models.RoleStudent:
		student, err := s.repo.Student().GetByEmail(ctx, nil, org.ID, email)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, NewAccessDeniedError("invalid credentials")
			}
			return nil, NewInternalError("failed to look up student", err)
		}
		if bcrypt.CompareHashAndPassword([]byte(student.Password), []byte(req.Password)) != nil {
			return nil, NewAccessDeniedError("invalid credentials")
		}
		userID, name, role = student.ID, student.Name, models.RoleStudent

	case models.RoleOrganization:
		if org.Email == nil || normalizeEmail(*org.Email) != email {
			return nil, NewAccessDeniedError("invalid credentials")
		}
		userID, name, role = org.ID, org.Name, models.RoleOrganization

	default:
		return nil, NewValidationError("role", fmt.Sprintf("unknown role %q", req.Role))
	}

	token, err := s.sessions.Issue(ctx, cache.Session{
		Email:  email,
		Role:   string(role),
		OrgID:  org.ID,
		UserID: userID,
	})
	if err != nil {
		return nil, NewInternalError("failed to issue session", err)
	}

	s.logger.Info("login succeeded", "role", role, "org_id", org.ID, "user_id", userID)

	return &AuthResponse{
		Token:  token,
		Role:   role,
		UserID: userID,
		OrgID:  org.ID,
		Email:  email,
		Name:   name,
	}, nil
}

// Logout revokes the session token.
func (s *authService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return NewValidationError("token", "is required")
	}
	if err := s.sessions.Revoke(ctx, token); err != nil {
		return NewInternalError("failed to revoke session", err)
	}
	return nil
}

// ResolveSession maps a bearer token back to its session.
func (s *authService) ResolveSession(ctx context.Context, token string) (*cache.Session, error) {
	session, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		if err == cache.ErrSessionNotFound {
			return nil, NewAccessDeniedError("session expired or revoked")
		}
		return nil, NewInternalError("failed to resolve session", err)
	}
	return session, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
