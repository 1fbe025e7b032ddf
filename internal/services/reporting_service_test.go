package services

import (
	"context"
	"testing"
	"time"

	"github.com/rocket-assess/assessment-service/internal/models"
)

func TestBuildAttendance(t *testing.T) {
	testID := uint(3)
	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

	invites := []*models.TestInvite{
		{ID: 1, TestID: &testID, StudentEmail: "a@example.com", Title: "Quiz", TimeToStart: start},
		{ID: 2, TestID: &testID, StudentEmail: "b@example.com", Title: "Quiz", TimeToStart: start},
		{ID: 3, TestID: &testID, StudentEmail: "c@example.com", Title: "Quiz", TimeToStart: start},
	}
	submissions := []*models.Submission{
		{ID: 10, TestID: 3, StudentID: 1, SubmittedAt: start.Add(30 * time.Minute),
			Student: models.Student{ID: 1, Email: "A@Example.com"}},
	}

	entries := buildAttendance(invites, submissions)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	submitted := 0
	for _, e := range entries {
		if e.Submitted {
			submitted++
			if e.StudentEmail != "a@example.com" {
				t.Errorf("wrong invitee marked submitted: %s", e.StudentEmail)
			}
			if e.SubmittedAt == nil {
				t.Error("submitted entry missing timestamp")
			}
		} else if e.SubmittedAt != nil {
			t.Errorf("absent entry %s has a timestamp", e.StudentEmail)
		}
	}
	if submitted != 1 {
		t.Errorf("expected exactly 1 submitted entry, got %d", submitted)
	}
}

func TestBuildRankings(t *testing.T) {
	base := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	submissions := []*models.Submission{
		{ID: 1, StudentID: 1, Score: 50, SubmittedAt: base.Add(10 * time.Minute),
			Student: models.Student{ID: 1, Name: "Ana", Email: "ana@example.com"}},
		{ID: 2, StudentID: 2, Score: 90, SubmittedAt: base.Add(20 * time.Minute),
			Student: models.Student{ID: 2, Name: "Ben", Email: "ben@example.com"}},
		{ID: 3, StudentID: 3, Score: 90, SubmittedAt: base.Add(5 * time.Minute),
			Student: models.Student{ID: 3, Name: "Cal", Email: "cal@example.com"}},
	}

	testID := uint(3)
	invites := []*models.TestInvite{
		{ID: 1, TestID: &testID, StudentEmail: "CAL@example.com",
			TimeToStart: base, EndTime: base.Add(time.Hour)},
	}

	entries := buildRankings(submissions, invites)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	// Ties on score break by earlier submission.
	if entries[0].StudentName != "Cal" || entries[0].Rank != 1 {
		t.Errorf("expected Cal first, got %s rank %d", entries[0].StudentName, entries[0].Rank)
	}
	if entries[1].StudentName != "Ben" || entries[1].Rank != 2 {
		t.Errorf("expected Ben second, got %s rank %d", entries[1].StudentName, entries[1].Rank)
	}
	if entries[2].StudentName != "Ana" || entries[2].Rank != 3 {
		t.Errorf("expected Ana third, got %s rank %d", entries[2].StudentName, entries[2].Rank)
	}

	// Window annotation comes from the invite, matched case-insensitively.
	if entries[0].TimeToStart == nil || !entries[0].TimeToStart.Equal(base) {
		t.Errorf("expected Cal's window start %v, got %v", base, entries[0].TimeToStart)
	}
	if entries[1].TimeToStart != nil {
		t.Errorf("expected no window for Ben, got %v", entries[1].TimeToStart)
	}
}

func TestBuildRankings_Empty(t *testing.T) {
	if entries := buildRankings(nil, nil); len(entries) != 0 {
		t.Errorf("expected empty rankings, got %d entries", len(entries))
	}
}

func TestReportingService_TeacherOverview_Counts(t *testing.T) {
	teachers := &fakeTeacherRepo{teachers: map[uint]*models.Teacher{
		1: {ID: 1, OrgID: 1, Name: "Ms. Rivera"},
	}}
	// Two students share the teacher's org; the third belongs elsewhere and
	// must not be counted.
	students := &fakeStudentRepo{students: map[uint]*models.Student{
		1: {ID: 1, OrgID: 1, Email: "a@example.com"},
		2: {ID: 2, OrgID: 1, Email: "b@example.com"},
		3: {ID: 3, OrgID: 2, Email: "elsewhere@example.com"},
	}}
	questions := &fakeQuestionRepo{questions: map[uint]*models.Question{
		1: {ID: 1, TestID: 10, Text: "q1", PointValue: 5},
		2: {ID: 2, TestID: 10, Text: "q2", PointValue: 5},
		3: {ID: 3, TestID: 11, Text: "q3", PointValue: 5},
	}}
	tests := &fakeTestRepo{tests: map[uint]*models.Test{
		10: {ID: 10, TeacherID: 1, Name: "Scored", Questions: []models.Question{{PointValue: 10}}},
		11: {ID: 11, TeacherID: 1, Name: "Empty"},
	}}
	submissions := &fakeSubmissionRepo{submissions: map[uint]*models.Submission{
		1: {ID: 1, TestID: 10, StudentID: 1, Score: 80},
		2: {ID: 2, TestID: 10, StudentID: 2, Score: 90},
		3: {ID: 3, TestID: 11, StudentID: 1, Score: 0},
	}}

	repo := &mockRepository{
		teacher:    teachers,
		student:    students,
		question:   questions,
		test:       tests,
		submission: submissions,
	}
	service := NewReportingService(repo, nil, testLogger(), nil)

	analytics, err := service.TeacherOverview(context.Background(), 1)
	if err != nil {
		t.Fatalf("TeacherOverview failed: %v", err)
	}

	if analytics.TestCount != 2 {
		t.Errorf("expected 2 tests, got %d", analytics.TestCount)
	}
	if analytics.QuestionCount != 3 {
		t.Errorf("expected 3 questions, got %d", analytics.QuestionCount)
	}
	if analytics.StudentCount != 2 {
		t.Errorf("expected 2 students in the org, got %d", analytics.StudentCount)
	}
	if analytics.SubmissionCount != 3 {
		t.Errorf("expected 3 submissions, got %d", analytics.SubmissionCount)
	}
	// The zero-point test is excluded from averages.
	if analytics.AverageScore != 85 {
		t.Errorf("expected average 85, got %v", analytics.AverageScore)
	}
	for _, avg := range analytics.Tests {
		switch avg.TestID {
		case 10:
			if avg.AverageScore != 85 {
				t.Errorf("expected test 10 average 85, got %v", avg.AverageScore)
			}
		case 11:
			if avg.AverageScore != 0 {
				t.Errorf("expected test 11 excluded from averages, got %v", avg.AverageScore)
			}
		}
	}

	if _, err := service.TeacherOverview(context.Background(), 42); !IsNotFound(err) {
		t.Errorf("expected not_found for unknown teacher, got %v", err)
	}
}

func TestRound2(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{33.333333, 33.33},
		{66.666666, 66.67},
		{100, 100},
		{0, 0},
	}
	for _, tc := range cases {
		if got := round2(tc.in); got != tc.want {
			t.Errorf("round2(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
