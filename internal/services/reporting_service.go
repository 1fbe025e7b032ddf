package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/rocket-assess/assessment-service/internal/cache"
	"github.com/rocket-assess/assessment-service/internal/models"
	"github.com/rocket-assess/assessment-service/internal/repositories"
)

type reportingService struct {
	repo         repositories.Repository
	db           *gorm.DB
	logger       *slog.Logger
	cacheManager *cache.CacheManager
}

func NewReportingService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, cacheManager *cache.CacheManager) ReportingService {
	return &reportingService{
		repo:         repo,
		db:           db,
		logger:       logger,
		cacheManager: cacheManager,
	}
}

// Attendance partitions a test's invitees into submitted and absent.
func (s *reportingService) Attendance(ctx context.Context, teacherID, testID uint) ([]AttendanceEntry, error) {
	if err := s.checkTestOwnership(ctx, teacherID, testID); err != nil {
		return nil, err
	}

	var entries []AttendanceEntry
	cacheKey := fmt.Sprintf("test:%d:attendance", testID)
	err := s.cacheManager.Report.CacheOrExecute(ctx, cacheKey, &entries, cache.ReportCacheConfig.TTL, func() (interface{}, error) {
		invites, err := s.repo.TestInvite().ListByTest(ctx, nil, testID)
		if err != nil {
			return nil, err
		}
		submissions, err := s.repo.Submission().ListByTest(ctx, nil, testID)
		if err != nil {
			return nil, err
		}
		return buildAttendance(invites, submissions), nil
	})
	if err != nil {
		return nil, NewInternalError("failed to build attendance", err)
	}
	return entries, nil
}

// Rankings orders a test's submissions best first.
func (s *reportingService) Rankings(ctx context.Context, teacherID, testID uint) ([]RankingEntry, error) {
	if err := s.checkTestOwnership(ctx, teacherID, testID); err != nil {
		return nil, err
	}

	var entries []RankingEntry
	cacheKey := fmt.Sprintf("test:%d:rankings", testID)
	err := s.cacheManager.Report.CacheOrExecute(ctx, cacheKey, &entries, cache.ReportCacheConfig.TTL, func() (interface{}, error) {
		submissions, err := s.repo.Submission().ListByTest(ctx, nil, testID)
		if err != nil {
			return nil, err
		}
		invites, err := s.repo.TestInvite().ListByTest(ctx, nil, testID)
		if err != nil {
			return nil, err
		}
		return buildRankings(submissions, invites), nil
	})
	if err != nil {
		return nil, NewInternalError("failed to build rankings", err)
	}
	return entries, nil
}

// TeacherOverview aggregates per-test averages across a teacher's tests.
// Tests with zero total points are excluded from averages, since a percent
// is undefined for them.
func (s *reportingService) TeacherOverview(ctx context.Context, teacherID uint) (*TeacherAnalytics, error) {
	teacher, err := s.repo.Teacher().GetByID(ctx, nil, teacherID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("teacher not found")
		}
		return nil, NewInternalError("failed to get teacher", err)
	}

	tests, _, err := s.repo.Test().ListByTeacher(ctx, nil, teacherID, repositories.TestFilters{})
	if err != nil {
		return nil, NewInternalError("failed to list tests", err)
	}

	analytics := &TeacherAnalytics{Tests: []TestAverage{}}

	_, questionCount, err := s.repo.Question().ListByTeacher(ctx, nil, teacherID, nil, 1, 0)
	if err != nil {
		return nil, NewInternalError("failed to count questions", err)
	}
	analytics.QuestionCount = questionCount

	students, err := s.repo.Student().ListByOrg(ctx, nil, teacher.OrgID)
	if err != nil {
		return nil, NewInternalError("failed to list students", err)
	}
	analytics.StudentCount = len(students)

	scoreSum := 0.0
	scoredCount := 0

	for _, test := range tests {
		analytics.TestCount++

		totalPoints, err := s.repo.Test().TotalPoints(ctx, nil, test.ID)
		if err != nil {
			return nil, NewInternalError("failed to sum points", err)
		}

		submissions, err := s.repo.Submission().ListByTest(ctx, nil, test.ID)
		if err != nil {
			return nil, NewInternalError("failed to list submissions", err)
		}
		analytics.SubmissionCount += len(submissions)

		avg := TestAverage{
			TestID:          test.ID,
			Name:            test.Name,
			SubmissionCount: len(submissions),
		}
		if totalPoints > 0 && len(submissions) > 0 {
			sum := 0.0
			for _, sub := range submissions {
				sum += sub.Score
			}
			avg.AverageScore = round2(sum / float64(len(submissions)))
			scoreSum += sum
			scoredCount += len(submissions)
		}
		analytics.Tests = append(analytics.Tests, avg)
	}

	if scoredCount > 0 {
		analytics.AverageScore = round2(scoreSum / float64(scoredCount))
	}
	return analytics, nil
}

// CompletedTests lists a student's scored submissions, newest first.
func (s *reportingService) CompletedTests(ctx context.Context, studentID uint) ([]CompletedTestEntry, error) {
	submissions, err := s.repo.Submission().ListByStudent(ctx, nil, studentID)
	if err != nil {
		return nil, NewInternalError("failed to list submissions", err)
	}

	entries := make([]CompletedTestEntry, 0, len(submissions))
	for _, sub := range submissions {
		entries = append(entries, CompletedTestEntry{
			SubmissionID: sub.ID,
			TestID:       sub.TestID,
			TestName:     sub.Test.Name,
			Score:        sub.Score,
			SubmittedAt:  sub.SubmittedAt,
		})
	}
	return entries, nil
}

// ExportRankings renders the ranking view as an xlsx workbook and returns
// the bytes with a suggested filename.
func (s *reportingService) ExportRankings(ctx context.Context, teacherID, testID uint) ([]byte, string, error) {
	test, err := s.repo.Test().GetByID(ctx, nil, testID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, "", NewNotFoundError("test not found")
		}
		return nil, "", NewInternalError("failed to get test", err)
	}
	if test.TeacherID != teacherID {
		return nil, "", NewAccessDeniedError("test belongs to another teacher")
	}

	rankings, err := s.Rankings(ctx, teacherID, testID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Rankings"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, "", NewInternalError("failed to create sheet", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, "", NewInternalError("failed to drop default sheet", err)
	}

	headers := []string{"Rank", "Student", "Email", "Score (%)", "Duration (s)", "Submitted At"}
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, "", NewInternalError("failed to write header", err)
		}
	}

	for i, entry := range rankings {
		row := i + 2
		values := []interface{}{
			entry.Rank,
			entry.StudentName,
			entry.StudentEmail,
			entry.Score,
			entry.Duration,
			entry.SubmittedAt.Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, "", NewInternalError("failed to write row", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", NewInternalError("failed to render workbook", err)
	}

	filename := fmt.Sprintf("rankings-test-%d.xlsx", testID)
	return buf.Bytes(), filename, nil
}

// ===== HELPERS =====

func (s *reportingService) checkTestOwnership(ctx context.Context, teacherID, testID uint) error {
	test, err := s.repo.Test().GetByID(ctx, nil, testID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return NewNotFoundError("test not found")
		}
		return NewInternalError("failed to get test", err)
	}
	if test.TeacherID != teacherID {
		return NewAccessDeniedError("test belongs to another teacher")
	}
	return nil
}

// buildAttendance marks each invite with whether its addressee submitted.
func buildAttendance(invites []*models.TestInvite, submissions []*models.Submission) []AttendanceEntry {
	submittedBy := make(map[string]*models.Submission, len(submissions))
	for _, sub := range submissions {
		submittedBy[normalizeEmail(sub.Student.Email)] = sub
	}

	entries := make([]AttendanceEntry, 0, len(invites))
	for _, invite := range invites {
		entry := AttendanceEntry{
			InviteID:     invite.ID,
			StudentEmail: invite.StudentEmail,
			Title:        invite.Title,
			Subject:      invite.Subject,
			TimeToStart:  invite.TimeToStart,
			EndTime:      invite.EndTime,
		}
		if sub, ok := submittedBy[normalizeEmail(invite.StudentEmail)]; ok {
			entry.Submitted = true
			submittedAt := sub.SubmittedAt
			entry.SubmittedAt = &submittedAt
		}
		entries = append(entries, entry)
	}
	return entries
}

// buildRankings sorts submissions by score descending, breaking ties by
// earlier submission, and assigns dense ranks. Each entry is annotated with
// the scheduled window of the submitter's invite when one exists.
func buildRankings(submissions []*models.Submission, invites []*models.TestInvite) []RankingEntry {
	windowFor := make(map[string]*models.TestInvite, len(invites))
	for _, invite := range invites {
		windowFor[normalizeEmail(invite.StudentEmail)] = invite
	}

	sorted := make([]*models.Submission, len(submissions))
	copy(sorted, submissions)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].SubmittedAt.Before(sorted[j].SubmittedAt)
	})

	entries := make([]RankingEntry, 0, len(sorted))
	for i, sub := range sorted {
		entry := RankingEntry{
			Rank:         i + 1,
			StudentID:    sub.StudentID,
			StudentName:  sub.Student.Name,
			StudentEmail: sub.Student.Email,
			Score:        sub.Score,
			Duration:     sub.Duration,
			SubmittedAt:  sub.SubmittedAt,
		}
		if invite, ok := windowFor[normalizeEmail(sub.Student.Email)]; ok {
			entry.TimeToStart = &invite.TimeToStart
			entry.EndTime = &invite.EndTime
		}
		entries = append(entries, entry)
	}
	return entries
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
