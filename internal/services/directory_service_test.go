package services

import (
	"context"
	"testing"

	"github.com/rocket-assess/assessment-service/internal/events"
	"github.com/rocket-assess/assessment-service/internal/models"
	"github.com/rocket-assess/assessment-service/internal/validator"
)

func TestDirectoryService_InviteStudents(t *testing.T) {
	logger := testLogger()
	publisher := events.NewMockEventPublisher(logger)

	teachers := &fakeTeacherRepo{teachers: map[uint]*models.Teacher{
		1: {ID: 1, OrgID: 1, Name: "Ms. Rivera", Email: "rivera@example.com"},
	}}
	students := &fakeStudentRepo{students: map[uint]*models.Student{
		7: {ID: 7, OrgID: 1, Name: "Dana", Email: "dana@example.com"},
	}}
	invites := &fakeStudentInviteRepo{}

	repo := &mockRepository{teacher: teachers, student: students, studentInvite: invites}
	service := NewDirectoryService(repo, nil, logger, validator.New(), publisher)
	ctx := context.Background()

	results, err := service.InviteStudents(ctx, 1, &InviteStudentsRequest{
		Emails: []string{"new@example.com", "dana@example.com", "new@example.com"},
	})
	if err != nil {
		t.Fatalf("InviteStudents failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	byStatus := map[string]int{}
	for _, r := range results {
		byStatus[r.Status]++
	}
	if byStatus[InviteStatusInvited] != 1 {
		t.Errorf("expected 1 invited, got %d", byStatus[InviteStatusInvited])
	}
	if byStatus[InviteStatusAlreadyRegistered] != 1 {
		t.Errorf("expected 1 already_registered, got %d", byStatus[InviteStatusAlreadyRegistered])
	}
	if byStatus[InviteStatusAlreadyInvited] != 1 {
		t.Errorf("expected 1 already_invited for the repeated address, got %d", byStatus[InviteStatusAlreadyInvited])
	}
}

func TestDirectoryService_RegisterStudent_LinksInviter(t *testing.T) {
	logger := testLogger()
	publisher := events.NewMockEventPublisher(logger)

	orgs := &fakeOrganizationRepo{orgs: map[uint]*models.Organization{
		1: {ID: 1, OrgCode: "SCH001", Name: "Rocket High"},
	}}
	students := &fakeStudentRepo{students: map[uint]*models.Student{}}
	invites := &fakeStudentInviteRepo{invites: []*models.StudentInvite{
		{ID: 1, TeacherID: 9, Email: "newkid@example.com"},
	}}

	repo := &mockRepository{organization: orgs, student: students, studentInvite: invites}
	service := NewDirectoryService(repo, nil, logger, validator.New(), publisher)

	student, err := service.RegisterStudent(context.Background(), &RegisterStudentRequest{
		OrgCode:  "SCH001",
		Name:     "New Kid",
		Email:    "NewKid@Example.com",
		Password: "longenough",
	})
	if err != nil {
		t.Fatalf("RegisterStudent failed: %v", err)
	}

	if student.Email != "newkid@example.com" {
		t.Errorf("expected normalized email, got %q", student.Email)
	}
	if student.InvitedBy == nil || *student.InvitedBy != 9 {
		t.Errorf("expected inviter teacher 9, got %v", student.InvitedBy)
	}
	if student.Password == "longenough" {
		t.Error("password stored unhashed")
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 || published[0].Type != events.EventStudentRegistered {
		t.Errorf("expected one student.registered event, got %+v", published)
	}
}

func TestDirectoryService_Register_OptionalProfileFields(t *testing.T) {
	logger := testLogger()
	publisher := events.NewMockEventPublisher(logger)

	orgs := &fakeOrganizationRepo{orgs: map[uint]*models.Organization{
		1: {ID: 1, OrgCode: "SCH001", Name: "Rocket High"},
	}}
	teachers := &fakeTeacherRepo{teachers: map[uint]*models.Teacher{}}
	students := &fakeStudentRepo{students: map[uint]*models.Student{}}
	invites := &fakeStudentInviteRepo{}

	repo := &mockRepository{organization: orgs, teacher: teachers, student: students, studentInvite: invites}
	service := NewDirectoryService(repo, nil, logger, validator.New(), publisher)
	ctx := context.Background()

	t.Run("omitted fields stay unset", func(t *testing.T) {
		student, err := service.RegisterStudent(ctx, &RegisterStudentRequest{
			OrgCode:  "SCH001",
			Name:     "Plain",
			Email:    "plain@example.com",
			Password: "longenough",
		})
		if err != nil {
			t.Fatalf("RegisterStudent failed: %v", err)
		}
		if student.Gender != nil || student.Grade != nil {
			t.Errorf("expected nil gender and grade, got %v %v", student.Gender, student.Grade)
		}
	})

	t.Run("provided fields round-trip", func(t *testing.T) {
		student, err := service.RegisterStudent(ctx, &RegisterStudentRequest{
			OrgCode:  "SCH001",
			Name:     "Full",
			Email:    "full@example.com",
			Password: "longenough",
			Gender:   "female",
			Grade:    "10",
		})
		if err != nil {
			t.Fatalf("RegisterStudent failed: %v", err)
		}
		if student.Gender == nil || *student.Gender != "female" {
			t.Errorf("expected gender female, got %v", student.Gender)
		}
		if student.Grade == nil || *student.Grade != "10" {
			t.Errorf("expected grade 10, got %v", student.Grade)
		}

		teacher, err := service.RegisterTeacher(ctx, &RegisterTeacherRequest{
			OrgCode:  "SCH001",
			Name:     "Mr. Ito",
			Email:    "ito@example.com",
			Password: "longenough",
			Gender:   "male",
		})
		if err != nil {
			t.Fatalf("RegisterTeacher failed: %v", err)
		}
		if teacher.Gender == nil || *teacher.Gender != "male" {
			t.Errorf("expected gender male, got %v", teacher.Gender)
		}
	})
}

func TestDirectoryService_RegisterOrganization_DuplicateCode(t *testing.T) {
	logger := testLogger()
	publisher := events.NewMockEventPublisher(logger)
	orgs := &fakeOrganizationRepo{orgs: map[uint]*models.Organization{
		1: {ID: 1, OrgCode: "SCH001", Name: "Rocket High"},
	}}

	repo := &mockRepository{organization: orgs}
	service := NewDirectoryService(repo, nil, logger, validator.New(), publisher)

	_, err := service.RegisterOrganization(context.Background(), &RegisterOrganizationRequest{
		OrgCode: "SCH001",
		Name:    "Another School",
	})
	if !IsConflict(err) {
		t.Errorf("expected conflict, got %v", err)
	}
}
