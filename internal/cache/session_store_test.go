package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

func TestSessionStore_IssueAndResolve(t *testing.T) {
	client, _ := setupRedis(t)
	store := NewSessionStore(client, time.Hour)
	ctx := context.Background()

	token, err := store.Issue(ctx, Session{
		Email:  "teacher@example.com",
		Role:   "teacher",
		OrgID:  1,
		UserID: 42,
	})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	session, err := store.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if session.Email != "teacher@example.com" {
		t.Errorf("expected email teacher@example.com, got %s", session.Email)
	}
	if session.Role != "teacher" {
		t.Errorf("expected role teacher, got %s", session.Role)
	}
	if session.UserID != 42 {
		t.Errorf("expected user id 42, got %d", session.UserID)
	}
}

func TestSessionStore_ResolveUnknownToken(t *testing.T) {
	client, _ := setupRedis(t)
	store := NewSessionStore(client, time.Hour)

	_, err := store.Resolve(context.Background(), "no-such-token")
	if err != ErrSessionNotFound {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSessionStore_Revoke(t *testing.T) {
	client, _ := setupRedis(t)
	store := NewSessionStore(client, time.Hour)
	ctx := context.Background()

	token, err := store.Issue(ctx, Session{Email: "s@example.com", Role: "student"})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if err := store.Revoke(ctx, token); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	if _, err := store.Resolve(ctx, token); err != ErrSessionNotFound {
		t.Errorf("expected ErrSessionNotFound after revoke, got %v", err)
	}
}

func TestSessionStore_Expiry(t *testing.T) {
	client, mr := setupRedis(t)
	store := NewSessionStore(client, time.Minute)
	ctx := context.Background()

	token, err := store.Issue(ctx, Session{Email: "s@example.com", Role: "student"})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if _, err := store.Resolve(ctx, token); err != ErrSessionNotFound {
		t.Errorf("expected ErrSessionNotFound after TTL, got %v", err)
	}
}

func TestCacheHelper_CacheOrExecute(t *testing.T) {
	client, _ := setupRedis(t)
	helper := NewCacheHelper(client, InviteCacheConfig.Prefix)
	ctx := context.Background()

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return []string{"a@example.com", "b@example.com"}, nil
	}

	var first []string
	if err := helper.CacheOrExecute(ctx, "email:x", &first, InviteCacheConfig.TTL, fetch); err != nil {
		t.Fatalf("first CacheOrExecute failed: %v", err)
	}

	var second []string
	if err := helper.CacheOrExecute(ctx, "email:x", &second, InviteCacheConfig.TTL, fetch); err != nil {
		t.Fatalf("second CacheOrExecute failed: %v", err)
	}

	if calls != 1 {
		t.Errorf("expected 1 fetch call, got %d", calls)
	}
	if len(second) != 2 || second[0] != "a@example.com" {
		t.Errorf("unexpected cached value: %v", second)
	}
}

func TestCacheHelper_InvalidatePattern(t *testing.T) {
	client, _ := setupRedis(t)
	helper := NewCacheHelper(client, InviteCacheConfig.Prefix)
	ctx := context.Background()

	if err := helper.Set(ctx, "email:x:list", 1, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := helper.Set(ctx, "email:y:list", 2, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if err := helper.InvalidatePattern(ctx, "email:x*"); err != nil {
		t.Fatalf("InvalidatePattern failed: %v", err)
	}

	var got int
	if err := helper.Get(ctx, "email:x:list", &got); err != ErrCacheNotFound {
		t.Errorf("expected ErrCacheNotFound for invalidated key, got %v", err)
	}
	if err := helper.Get(ctx, "email:y:list", &got); err != nil {
		t.Errorf("expected surviving key, got error %v", err)
	}
}

func TestCacheHelper_NilClientDegradesGracefully(t *testing.T) {
	helper := NewCacheHelper(nil, "")
	ctx := context.Background()

	calls := 0
	var out int
	err := helper.CacheOrExecute(ctx, "k", &out, time.Minute, func() (interface{}, error) {
		calls++
		return 7, nil
	})
	if err != nil {
		t.Fatalf("CacheOrExecute with nil client failed: %v", err)
	}
	if out != 7 || calls != 1 {
		t.Errorf("expected fetch result 7 with 1 call, got %d with %d calls", out, calls)
	}
}
