package services

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/rocket-assess/assessment-service/internal/events"
	"github.com/rocket-assess/assessment-service/internal/models"
	"github.com/rocket-assess/assessment-service/internal/repositories"
	"github.com/rocket-assess/assessment-service/internal/validator"
)

type inviteService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
	now       func() time.Time
}

func NewInviteService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) InviteService {
	return &inviteService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
		now:       time.Now,
	}
}

// IssueInvites creates one invite per student email. If any candidate
// collides with an existing invite the whole batch is rejected up front and
// the response lists every collision, so the caller can fix the batch and
// retry. Once the pre-check passes, each invite is inserted on its own and a
// failed insert lands in Skipped without sinking the rest of the batch.
func (s *inviteService) IssueInvites(ctx context.Context, teacherID uint, req *IssueInvitesRequest) (*InviteBatchResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError("", err.Error())
	}

	startAt, err := parseStartTime(req.TimeToStart)
	if err != nil {
		return nil, NewValidationError("time_to_start", "must be RFC 3339 or YYYY-MM-DDTHH:MM")
	}

	teacher, err := s.repo.Teacher().GetByID(ctx, nil, teacherID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("teacher not found")
		}
		return nil, NewInternalError("failed to get teacher", err)
	}

	if req.TestID != nil {
		test, err := s.repo.Test().GetByID(ctx, nil, *req.TestID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, NewNotFoundError("test not found")
			}
			return nil, NewInternalError("failed to get test", err)
		}
		if test.TeacherID != teacherID {
			return nil, NewAccessDeniedError("test belongs to another teacher")
		}
	}

	endTime := startAt.Add(time.Duration(req.DurationMinutes) * time.Minute)

	candidates := buildInviteCandidates(req, teacher.Name, startAt, endTime)
	if len(candidates) == 0 {
		return nil, NewValidationError("student_emails", "no usable addresses in batch")
	}

	// The pre-check runs before any row is written; the unique indexes catch
	// the remaining race at insert time.
	existing, err := s.repo.TestInvite().FindDuplicates(ctx, nil, candidates)
	if err != nil {
		return nil, NewInternalError("failed to check for duplicate invites", err)
	}
	if len(existing) > 0 {
		duplicates := make([]DuplicateInvite, 0, len(existing))
		for _, d := range existing {
			duplicates = append(duplicates, DuplicateInvite{
				StudentEmail: d.StudentEmail,
				Title:        d.Title,
				TimeToStart:  d.TimeToStart,
			})
		}
		return nil, NewConflictErrorWithDetails("batch contains invites that already exist", duplicates)
	}

	created := make([]*models.TestInvite, 0, len(candidates))
	var skipped []StudentInviteResult
	for _, invite := range candidates {
		switch err := s.repo.TestInvite().Create(ctx, nil, invite); {
		case err == nil:
			created = append(created, invite)
		case repositories.IsDuplicateError(err):
			skipped = append(skipped, StudentInviteResult{Email: invite.StudentEmail, Status: InviteStatusAlreadyInvited})
		default:
			s.logger.Error("failed to create invite", "error", err, "student_email", invite.StudentEmail)
			skipped = append(skipped, StudentInviteResult{Email: invite.StudentEmail, Status: InviteStatusError})
		}
	}

	for _, invite := range created {
		if err := s.publisher.Publish(ctx, events.NewEvent(events.EventInviteIssued, events.InviteIssuedEvent{
			InviteID:     invite.ID,
			TestID:       invite.TestID,
			StudentEmail: invite.StudentEmail,
			Title:        invite.Title,
			TimeToStart:  invite.TimeToStart,
			EndTime:      invite.EndTime,
		})); err != nil {
			s.logger.Warn("failed to publish invite.issued event", "error", err, "invite_id", invite.ID)
		}
	}

	s.logger.Info("invites issued",
		"teacher_id", teacherID,
		"created", len(created),
		"skipped", len(skipped),
		"time_to_start", startAt)

	return &InviteBatchResponse{Created: created, Skipped: skipped}, nil
}

// ListForStudent returns every invite addressed to the email, flagged with
// its window state. A non-nil added narrows to acknowledged or pending
// invites.
func (s *inviteService) ListForStudent(ctx context.Context, email string, added *bool) ([]*InviteResponse, error) {
	invites, err := s.repo.TestInvite().ListByEmail(ctx, nil, normalizeEmail(email), repositories.InviteFilters{Added: added})
	if err != nil {
		return nil, NewInternalError("failed to list invites", err)
	}

	now := s.now()
	responses := make([]*InviteResponse, 0, len(invites))
	for _, invite := range invites {
		responses = append(responses, s.toInviteResponse(invite, now))
	}
	return responses, nil
}

func (s *inviteService) GetInvite(ctx context.Context, id uint, actor Actor) (*InviteResponse, error) {
	invite, err := s.repo.TestInvite().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("invite not found")
		}
		return nil, NewInternalError("failed to get invite", err)
	}

	switch actor.Role {
	case models.RoleStudent:
		if normalizeEmail(invite.StudentEmail) != normalizeEmail(actor.Email) {
			return nil, NewAccessDeniedError("invite addressed to another student")
		}
	case models.RoleTeacher:
		owned, err := s.teacherOwnsInvite(ctx, invite, actor.UserID)
		if err != nil {
			return nil, err
		}
		if !owned {
			return nil, NewAccessDeniedError("invite issued by another teacher")
		}
	default:
		return nil, NewAccessDeniedError("not allowed to view invites")
	}

	return s.toInviteResponse(invite, s.now()), nil
}

// MarkAdded flips the acknowledged flag, the invite's only mutable field.
func (s *inviteService) MarkAdded(ctx context.Context, id uint, email string) error {
	invite, err := s.repo.TestInvite().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return NewNotFoundError("invite not found")
		}
		return NewInternalError("failed to get invite", err)
	}
	if normalizeEmail(invite.StudentEmail) != normalizeEmail(email) {
		return NewAccessDeniedError("invite addressed to another student")
	}

	if err := s.repo.TestInvite().MarkAdded(ctx, nil, id); err != nil {
		return NewInternalError("failed to mark invite", err)
	}

	if err := s.publisher.Publish(ctx, events.NewEvent(events.EventInviteAdded, events.InviteIssuedEvent{
		InviteID:     invite.ID,
		TestID:       invite.TestID,
		StudentEmail: invite.StudentEmail,
		Title:        invite.Title,
		TimeToStart:  invite.TimeToStart,
		EndTime:      invite.EndTime,
	})); err != nil {
		s.logger.Warn("failed to publish invite.added event", "error", err, "invite_id", id)
	}
	return nil
}

func (s *inviteService) toInviteResponse(invite *models.TestInvite, now time.Time) *InviteResponse {
	return &InviteResponse{
		TestInvite: invite,
		Expired:    now.After(invite.EndTime),
		Active:     !now.Before(invite.TimeToStart) && !now.After(invite.EndTime),
	}
}

func (s *inviteService) teacherOwnsInvite(ctx context.Context, invite *models.TestInvite, teacherID uint) (bool, error) {
	if invite.TestID != nil {
		test, err := s.repo.Test().GetByID(ctx, nil, *invite.TestID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return false, nil
			}
			return false, NewInternalError("failed to get test", err)
		}
		return test.TeacherID == teacherID, nil
	}

	teacher, err := s.repo.Teacher().GetByID(ctx, nil, teacherID)
	if err != nil {
		return false, NewInternalError("failed to get teacher", err)
	}
	return invite.TeacherName == teacher.Name, nil
}

// buildInviteCandidates normalizes and dedupes the batch, producing the rows
// to insert. Emails repeated within one request collapse to a single invite.
func buildInviteCandidates(req *IssueInvitesRequest, teacherName string, startAt, endTime time.Time) []*models.TestInvite {
	seen := make(map[string]bool, len(req.StudentEmails))
	candidates := make([]*models.TestInvite, 0, len(req.StudentEmails))

	for _, raw := range req.StudentEmails {
		email := normalizeEmail(raw)
		if email == "" || seen[email] {
			continue
		}
		seen[email] = true

		candidates = append(candidates, &models.TestInvite{
			TestID:          req.TestID,
			TeacherName:     teacherName,
			StudentEmail:    email,
			TimeToStart:     startAt,
			DurationMinutes: req.DurationMinutes,
			Title:           req.Title,
			Description:     req.Description,
			Subject:         req.Subject,
			PointValue:      req.PointValue,
			EndTime:         endTime,
		})
	}
	return candidates
}

// parseStartTime accepts RFC 3339 or the datetime-local format without zone,
// which is interpreted as UTC.
func parseStartTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02T15:04", value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
