package services

import (
	"context"
	"log/slog"
	"net/mail"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/rocket-assess/assessment-service/internal/events"
	"github.com/rocket-assess/assessment-service/internal/models"
	"github.com/rocket-assess/assessment-service/internal/repositories"
	"github.com/rocket-assess/assessment-service/internal/utils"
	"github.com/rocket-assess/assessment-service/internal/validator"
)

// Per-email outcomes for InviteStudents.
const (
	InviteStatusInvited           = "invited"
	InviteStatusAlreadyInvited    = "already_invited"
	InviteStatusAlreadyRegistered = "already_registered"
	InviteStatusInvalid           = "invalid"
	InviteStatusError             = "error"
)

type directoryService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewDirectoryService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) DirectoryService {
	return &directoryService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

// ===== ORGANIZATIONS =====

func (s *directoryService) RegisterOrganization(ctx context.Context, req *RegisterOrganizationRequest) (*models.Organization, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError("", err.Error())
	}

	exists, err := s.repo.Organization().ExistsByCode(ctx, nil, req.OrgCode)
	if err != nil {
		return nil, NewInternalError("failed to check organization code", err)
	}
	if exists {
		return nil, NewConflictError("organization code already registered")
	}

	org := &models.Organization{
		OrgCode: req.OrgCode,
		Name:    req.Name,
		Website: req.Website,
		Email:   req.Email,
		Phone:   req.Phone,
		City:    req.City,
	}

	if err := s.repo.Organization().Create(ctx, nil, org); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, NewConflictError("organization code already registered")
		}
		return nil, NewInternalError("failed to create organization", err)
	}

	s.logger.Info("organization registered", "org_id", org.ID, "org_code", org.OrgCode)
	return org, nil
}

func (s *directoryService) GetOrganization(ctx context.Context, id uint) (*models.Organization, error) {
	org, err := s.repo.Organization().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("organization not found")
		}
		return nil, NewInternalError("failed to get organization", err)
	}
	return org, nil
}

func (s *directoryService) GetOrganizationByCode(ctx context.Context, code string) (*models.Organization, error) {
	org, err := s.repo.Organization().GetByCode(ctx, nil, code)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("organization not found")
		}
		return nil, NewInternalError("failed to get organization", err)
	}
	return org, nil
}

func (s *directoryService) UpdateOrganization(ctx context.Context, id uint, req *UpdateOrganizationRequest, actor Actor) (*models.Organization, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError("", err.Error())
	}
	if actor.Role != models.RoleOrganization || actor.UserID != id {
		return nil, NewAccessDeniedError("only the organization can update its profile")
	}

	org, err := s.repo.Organization().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("organization not found")
		}
		return nil, NewInternalError("failed to get organization", err)
	}

	if req.Name != nil {
		org.Name = *req.Name
	}
	if req.Website != nil {
		org.Website = req.Website
	}
	if req.Email != nil {
		org.Email = req.Email
	}
	if req.Phone != nil {
		org.Phone = req.Phone
	}
	if req.City != nil {
		org.City = req.City
	}

	if err := s.repo.Organization().Update(ctx, nil, org); err != nil {
		return nil, NewInternalError("failed to update organization", err)
	}
	return org, nil
}

// ===== ACCOUNTS =====

func (s *directoryService) RegisterTeacher(ctx context.Context, req *RegisterTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError("", err.Error())
	}

	org, err := s.repo.Organization().GetByCode(ctx, nil, req.OrgCode)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("organization not found")
		}
		return nil, NewInternalError("failed to look up organization", err)
	}

	email := normalizeEmail(req.Email)
	taken, err := s.repo.Teacher().ExistsByEmail(ctx, nil, email)
	if err != nil {
		return nil, NewInternalError("failed to check teacher email", err)
	}
	if taken {
		return nil, NewConflictError("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, NewInternalError("failed to hash password", err)
	}

	teacher := &models.Teacher{
		OrgID:     org.ID,
		TeacherID: utils.NewPublicID("tch"),
		Name:      req.Name,
		Email:     email,
		Password:  string(hash),
		Gender:    optionalString(req.Gender),
	}

	if err := s.repo.Teacher().Create(ctx, nil, teacher); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, NewConflictError("email already registered")
		}
		return nil, NewInternalError("failed to create teacher", err)
	}

	s.logger.Info("teacher registered", "teacher_id", teacher.ID, "org_id", org.ID)
	return teacher, nil
}

func (s *directoryService) RegisterStudent(ctx context.Context, req *RegisterStudentRequest) (*models.Student, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError("", err.Error())
	}

	org, err := s.repo.Organization().GetByCode(ctx, nil, req.OrgCode)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("organization not found")
		}
		return nil, NewInternalError("failed to look up organization", err)
	}

	email := normalizeEmail(req.Email)
	taken, err := s.repo.Student().ExistsByEmail(ctx, nil, email)
	if err != nil {
		return nil, NewInternalError("failed to check student email", err)
	}
	if taken {
		return nil, NewConflictError("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, NewInternalError("failed to hash password", err)
	}

	student := &models.Student{
		OrgID:     org.ID,
		StudentID: utils.NewPublicID("stu"),
		Name:      req.Name,
		Email:     email,
		Password:  string(hash),
		Gender:    optionalString(req.Gender),
		Grade:     optionalString(req.Grade),
	}

	// A pending registration invite links the student back to the first
	// teacher who invited this address.
	invites, err := s.repo.StudentInvite().FindByEmail(ctx, nil, email)
	if err != nil {
		return nil, NewInternalError("failed to look up invites", err)
	}
	if len(invites) > 0 {
		student.InvitedBy = &invites[0].TeacherID
	}

	if err := s.repo.Student().Create(ctx, nil, student); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, NewConflictError("email already registered")
		}
		return nil, NewInternalError("failed to create student", err)
	}

	if err := s.publisher.Publish(ctx, events.NewEvent(events.EventStudentRegistered, events.StudentRegisteredEvent{
		StudentID: student.ID,
		OrgID:     org.ID,
		Email:     email,
	})); err != nil {
		s.logger.Warn("failed to publish student.registered event", "error", err)
	}

	s.logger.Info("student registered", "student_id", student.ID, "org_id", org.ID)
	return student, nil
}

func (s *directoryService) GetTeacher(ctx context.Context, id uint) (*models.Teacher, error) {
	teacher, err := s.repo.Teacher().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("teacher not found")
		}
		return nil, NewInternalError("failed to get teacher", err)
	}
	return teacher, nil
}

func (s *directoryService) GetStudent(ctx context.Context, id uint) (*models.Student, error) {
	student, err := s.repo.Student().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("student not found")
		}
		return nil, NewInternalError("failed to get student", err)
	}
	return student, nil
}

func (s *directoryService) ListTeachers(ctx context.Context, orgID uint) ([]*models.Teacher, error) {
	teachers, err := s.repo.Teacher().ListByOrg(ctx, nil, orgID)
	if err != nil {
		return nil, NewInternalError("failed to list teachers", err)
	}
	return teachers, nil
}

func (s *directoryService) ListStudents(ctx context.Context, orgID uint) ([]*models.Student, error) {
	students, err := s.repo.Student().ListByOrg(ctx, nil, orgID)
	if err != nil {
		return nil, NewInternalError("failed to list students", err)
	}
	return students, nil
}

// ===== REGISTRATION INVITES =====

// InviteStudents records a registration invite per email. Failures are
// isolated per address so one bad email never sinks the batch.
func (s *directoryService) InviteStudents(ctx context.Context, teacherID uint, req *InviteStudentsRequest) ([]StudentInviteResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError("", err.Error())
	}

	if _, err := s.repo.Teacher().GetByID(ctx, nil, teacherID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("teacher not found")
		}
		return nil, NewInternalError("failed to get teacher", err)
	}

	results := make([]StudentInviteResult, 0, len(req.Emails))
	for _, raw := range req.Emails {
		email := normalizeEmail(raw)
		if _, err := mail.ParseAddress(email); err != nil {
			results = append(results, StudentInviteResult{Email: raw, Status: InviteStatusInvalid})
			continue
		}

		registered, err := s.repo.Student().ExistsByEmail(ctx, nil, email)
		if err != nil {
			return nil, NewInternalError("failed to check student email", err)
		}
		if registered {
			results = append(results, StudentInviteResult{Email: email, Status: InviteStatusAlreadyRegistered})
			continue
		}

		err = s.repo.StudentInvite().Create(ctx, nil, &models.StudentInvite{
			TeacherID: teacherID,
			Email:     email,
		})
		switch {
		case err == nil:
			results = append(results, StudentInviteResult{Email: email, Status: InviteStatusInvited})
		case repositories.IsDuplicateError(err):
			results = append(results, StudentInviteResult{Email: email, Status: InviteStatusAlreadyInvited})
		default:
			return nil, NewInternalError("failed to create invite", err)
		}
	}

	s.logger.Info("student invites processed", "teacher_id", teacherID, "count", len(results))
	return results, nil
}

// optionalString maps an empty optional DTO field to a NULL column.
func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ListStudentInvites returns a teacher's registration invites, each flagged
// with whether the address has registered since.
func (s *directoryService) ListStudentInvites(ctx context.Context, teacherID uint) ([]StudentInviteInfo, error) {
	invites, err := s.repo.StudentInvite().ListByTeacher(ctx, nil, teacherID)
	if err != nil {
		return nil, NewInternalError("failed to list invites", err)
	}

	infos := make([]StudentInviteInfo, 0, len(invites))
	for _, invite := range invites {
		registered, err := s.repo.Student().ExistsByEmail(ctx, nil, invite.Email)
		if err != nil {
			return nil, NewInternalError("failed to check student email", err)
		}
		infos = append(infos, StudentInviteInfo{
			ID:         invite.ID,
			Email:      invite.Email,
			Registered: registered,
			CreatedAt:  invite.CreatedAt,
		})
	}
	return infos, nil
}
