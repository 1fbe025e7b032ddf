package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/rocket-assess/assessment-service/internal/cache"
	"github.com/rocket-assess/assessment-service/internal/models"
	"github.com/rocket-assess/assessment-service/internal/validator"
)

func newAuthFixture(t *testing.T) (AuthService, *cache.SessionStore) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt failed: %v", err)
	}

	orgEmail := "office@school.example"
	orgs := &fakeOrganizationRepo{orgs: map[uint]*models.Organization{
		1: {ID: 1, OrgCode: "SCH001", Name: "Rocket High", Email: &orgEmail},
	}}
	teachers := &fakeTeacherRepo{teachers: map[uint]*models.Teacher{
		5: {ID: 5, OrgID: 1, Name: "Ms. Rivera", Email: "rivera@example.com", Password: string(hash)},
	}}
	students := &fakeStudentRepo{students: map[uint]*models.Student{
		7: {ID: 7, OrgID: 1, Name: "Dana", Email: "dana@example.com", Password: string(hash)},
	}}

	sessions := cache.NewSessionStore(client, time.Hour)
	repo := &mockRepository{organization: orgs, teacher: teachers, student: students}
	return NewAuthService(repo, sessions, testLogger(), validator.New()), sessions
}

func TestAuthService_Login(t *testing.T) {
	service, _ := newAuthFixture(t)
	ctx := context.Background()

	t.Run("teacher login issues token", func(t *testing.T) {
		resp, err := service.Login(ctx, &LoginRequest{
			OrgCode:  "SCH001",
			Email:    "Rivera@Example.com",
			Password: "correct horse",
			Role:     "teacher",
		})
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if resp.Token == "" {
			t.Error("expected session token")
		}
		if resp.Role != models.RoleTeacher || resp.UserID != 5 {
			t.Errorf("unexpected identity: %+v", resp)
		}

		session, err := service.ResolveSession(ctx, resp.Token)
		if err != nil {
			t.Fatalf("ResolveSession failed: %v", err)
		}
		if session.Email != "rivera@example.com" || session.Role != "teacher" {
			t.Errorf("unexpected session: %+v", session)
		}
	})

	t.Run("wrong password denied", func(t *testing.T) {
		_, err := service.Login(ctx, &LoginRequest{
			OrgCode:  "SCH001",
			Email:    "rivera@example.com",
			Password: "wrong",
			Role:     "teacher",
		})
		if !IsAccessDenied(err) {
			t.Errorf("expected access_denied, got %v", err)
		}
	})

	t.Run("unknown org denied", func(t *testing.T) {
		_, err := service.Login(ctx, &LoginRequest{
			OrgCode:  "NOPE99",
			Email:    "rivera@example.com",
			Password: "correct horse",
			Role:     "teacher",
		})
		if !IsAccessDenied(err) {
			t.Errorf("expected access_denied, got %v", err)
		}
	})

	t.Run("student login", func(t *testing.T) {
		resp, err := service.Login(ctx, &LoginRequest{
			OrgCode:  "SCH001",
			Email:    "dana@example.com",
			Password: "correct horse",
			Role:     "student",
		})
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if resp.Role != models.RoleStudent || resp.UserID != 7 {
			t.Errorf("unexpected identity: %+v", resp)
		}
	})

	t.Run("organization login by code and email", func(t *testing.T) {
		resp, err := service.Login(ctx, &LoginRequest{
			OrgCode:  "SCH001",
			Email:    "office@school.example",
			Password: "ignored",
			Role:     "organization",
		})
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if resp.Role != models.RoleOrganization || resp.UserID != 1 {
			t.Errorf("unexpected identity: %+v", resp)
		}
	})
}

func TestAuthService_Logout(t *testing.T) {
	service, _ := newAuthFixture(t)
	ctx := context.Background()

	resp, err := service.Login(ctx, &LoginRequest{
		OrgCode:  "SCH001",
		Email:    "dana@example.com",
		Password: "correct horse",
		Role:     "student",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := service.Logout(ctx, resp.Token); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	if _, err := service.ResolveSession(ctx, resp.Token); !IsAccessDenied(err) {
		t.Errorf("expected access_denied after logout, got %v", err)
	}
}
