package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/simmerapp/simmer-server/internal/domain"
	"github.com/simmerapp/simmer-server/internal/store"
)

func makeTestUser(id, email string) *domain.User {
	now := time.Now()
	return &domain.User{
		ID:           id,
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		Name:         "Test User",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestCreateAndGetUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := makeTestUser("user-1", "cook@example.com")
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	got, err := s.GetUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}

	if got.Email != u.Email {
		t.Errorf("Email: got %q, want %q", got.Email, u.Email)
	}
	if got.PasswordHash != u.PasswordHash {
		t.Errorf("PasswordHash: got %q, want %q", got.PasswordHash, u.PasswordHash)
	}
	if !got.IsActive {
		t.Error("IsActive: expected true")
	}
	if got.IsStaff {
		t.Error("IsStaff: expected false")
	}
	if !got.LastLoginAt.IsZero() {
		t.Errorf("LastLoginAt: expected zero, got %v", got.LastLoginAt)
	}
	if got.CreatedAt.Unix() != u.CreatedAt.Unix() {
		t.Errorf("CreatedAt: got %v, want %v", got.CreatedAt, u.CreatedAt)
	}
}

func TestGetUserByEmail_CaseInsensitive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := makeTestUser("user-ci", "Cook@Example.COM")
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	got, err := s.GetUserByEmail(ctx, "cook@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if got.ID != "user-ci" {
		t.Errorf("ID: got %q, want %q", got.ID, "user-ci")
	}
	// Original casing is preserved in the email field.
	if got.Email != "Cook@Example.COM" {
		t.Errorf("Email: got %q, want %q", got.Email, "Cook@Example.COM")
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u1 := makeTestUser("user-d1", "dup@example.com")
	if err := s.CreateUser(ctx, u1); err != nil {
		t.Fatalf("CreateUser u1: %v", err)
	}

	// Same email in different case should still collide.
	u2 := makeTestUser("user-d2", "DUP@example.com")
	err := s.CreateUser(ctx, u2)
	if err == nil {
		t.Fatal("expected error for duplicate email, got nil")
	}
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetUser(ctx, "nonexistent")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	_, err = s.GetUserByEmail(ctx, "ghost@example.com")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound by email, got %v", err)
	}
}

func TestUpdateUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := makeTestUser("user-up", "before@example.com")
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	u.Email = "after@example.com"
	u.Name = "Updated Name"
	u.LastLoginAt = time.Now()
	u.Touch()
	if err := s.UpdateUser(ctx, u); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	got, err := s.GetUser(ctx, "user-up")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Email != "after@example.com" {
		t.Errorf("Email: got %q, want %q", got.Email, "after@example.com")
	}
	if got.Name != "Updated Name" {
		t.Errorf("Name: got %q, want %q", got.Name, "Updated Name")
	}
	if got.LastLoginAt.IsZero() {
		t.Error("LastLoginAt: expected non-zero after update")
	}

	// Old email no longer resolves.
	if _, err := s.GetUserByEmail(ctx, "before@example.com"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for old email, got %v", err)
	}
}

func TestUpdateUser_EmailCollision(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u1 := makeTestUser("user-c1", "one@example.com")
	u2 := makeTestUser("user-c2", "two@example.com")
	if err := s.CreateUser(ctx, u1); err != nil {
		t.Fatalf("CreateUser u1: %v", err)
	}
	if err := s.CreateUser(ctx, u2); err != nil {
		t.Fatalf("CreateUser u2: %v", err)
	}

	u2.Email = "one@example.com"
	err := s.UpdateUser(ctx, u2)
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestUpdateUser_NotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := makeTestUser("user-missing", "missing@example.com")
	err := s.UpdateUser(ctx, u)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i, email := range []string{"a@example.com", "b@example.com"} {
		u := makeTestUser([]string{"user-l1", "user-l2"}[i], email)
		if err := s.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
	}

	users, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
}
