package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/simmerapp/simmer-server/internal/domain"
	"github.com/simmerapp/simmer-server/internal/store"
)

// makeTestTag creates a domain.Tag with sensible defaults for testing.
func makeTestTag(id, userID, name string) *domain.Tag {
	now := time.Now()
	return &domain.Tag{
		ID:        id,
		UserID:    userID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCreateAndGetTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestUser(t, s, "user-t1", "tags@example.com")

	tag := makeTestTag("tag-1", "user-t1", "Vegan")
	if err := s.CreateTag(ctx, tag); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	got, err := s.GetTag(ctx, "user-t1", "tag-1")
	if err != nil {
		t.Fatalf("GetTag: %v", err)
	}

	if got.Name != "Vegan" {
		t.Errorf("Name: got %q, want %q", got.Name, "Vegan")
	}
	if got.UserID != "user-t1" {
		t.Errorf("UserID: got %q, want %q", got.UserID, "user-t1")
	}

	// Timestamps should round-trip through RFC3339Nano.
	if got.CreatedAt.Unix() != tag.CreatedAt.Unix() {
		t.Errorf("CreatedAt: got %v, want %v", got.CreatedAt, tag.CreatedAt)
	}
}

func TestGetTag_WrongOwner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestUser(t, s, "user-own1", "own1@example.com")
	insertTestUser(t, s, "user-own2", "own2@example.com")

	tag := makeTestTag("tag-own", "user-own1", "Dessert")
	if err := s.CreateTag(ctx, tag); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	// Another user's lookup behaves as if the tag does not exist.
	_, err := s.GetTag(ctx, "user-own2", "tag-own")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for other owner, got %v", err)
	}
}

func TestCreateTag_DuplicateName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestUser(t, s, "user-dup", "dup@example.com")
	insertTestUser(t, s, "user-other", "other@example.com")

	t1 := makeTestTag("tag-dup-1", "user-dup", "Comfort Food")
	if err := s.CreateTag(ctx, t1); err != nil {
		t.Fatalf("CreateTag t1: %v", err)
	}

	// Same name for the same user should fail.
	t2 := makeTestTag("tag-dup-2", "user-dup", "Comfort Food")
	err := s.CreateTag(ctx, t2)
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}

	// Same name for a different user is fine.
	t3 := makeTestTag("tag-dup-3", "user-other", "Comfort Food")
	if err := s.CreateTag(ctx, t3); err != nil {
		t.Errorf("CreateTag for other user: %v", err)
	}
}

func TestListTags_OrderAndScope(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestUser(t, s, "user-lt", "lt@example.com")
	insertTestUser(t, s, "user-lt2", "lt2@example.com")

	names := []struct {
		id   string
		name string
	}{
		{"tag-l1", "Breakfast"},
		{"tag-l2", "Vegan"},
		{"tag-l3", "Dessert"},
	}
	for _, td := range names {
		if err := s.CreateTag(ctx, makeTestTag(td.id, "user-lt", td.name)); err != nil {
			t.Fatalf("CreateTag(%s): %v", td.id, err)
		}
	}
	// Another user's tag must not leak into the listing.
	if err := s.CreateTag(ctx, makeTestTag("tag-l4", "user-lt2", "Zucchini")); err != nil {
		t.Fatalf("CreateTag other user: %v", err)
	}

	got, err := s.ListTags(ctx, "user-lt", false)
	if err != nil {
		t.Fatalf("ListTags: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("expected 3 tags, got %d", len(got))
	}

	// Sorted by name DESC: Vegan, Dessert, Breakfast.
	want := []string{"Vegan", "Dessert", "Breakfast"}
	for i, w := range want {
		if got[i].Name != w {
			t.Errorf("item %d: got name %q, want %q", i, got[i].Name, w)
		}
	}
}

func TestListTags_Empty(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestUser(t, s, "user-empty", "empty@example.com")

	got, err := s.ListTags(ctx, "user-empty", false)
	if err != nil {
		t.Fatalf("ListTags: %v", err)
	}
	if got == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(got) != 0 {
		t.Fatalf("expected 0 tags, got %d", len(got))
	}
}

func TestUpdateTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestUser(t, s, "user-ut", "ut@example.com")

	tag := makeTestTag("tag-ut", "user-ut", "Brekafast")
	if err := s.CreateTag(ctx, tag); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	tag.Name = "Breakfast"
	tag.Touch()
	if err := s.UpdateTag(ctx, tag); err != nil {
		t.Fatalf("UpdateTag: %v", err)
	}

	got, err := s.GetTag(ctx, "user-ut", "tag-ut")
	if err != nil {
		t.Fatalf("GetTag: %v", err)
	}
	if got.Name != "Breakfast" {
		t.Errorf("Name: got %q, want %q", got.Name, "Breakfast")
	}
}

func TestDeleteTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestUser(t, s, "user-dt", "dt@example.com")

	tag := makeTestTag("tag-dt", "user-dt", "Obsolete")
	if err := s.CreateTag(ctx, tag); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	if err := s.DeleteTag(ctx, "user-dt", "tag-dt"); err != nil {
		t.Fatalf("DeleteTag: %v", err)
	}

	if _, err := s.GetTag(ctx, "user-dt", "tag-dt"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	// Deleting again reports not found.
	if err := s.DeleteTag(ctx, "user-dt", "tag-dt"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestFindOrCreateTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestUser(t, s, "user-foc", "foc@example.com")

	// First call should create a new tag.
	tag1, created, err := s.FindOrCreateTag(ctx, "user-foc", "Thai")
	if err != nil {
		t.Fatalf("FindOrCreateTag (create): %v", err)
	}
	if !created {
		t.Error("expected created=true for new tag")
	}
	if tag1.ID == "" {
		t.Error("expected non-empty ID for created tag")
	}
	if tag1.Name != "Thai" {
		t.Errorf("Name: got %q, want %q", tag1.Name, "Thai")
	}

	// Second call with the same name should find the existing tag.
	tag2, created2, err := s.FindOrCreateTag(ctx, "user-foc", "Thai")
	if err != nil {
		t.Fatalf("FindOrCreateTag (find): %v", err)
	}
	if created2 {
		t.Error("expected created=false for existing tag")
	}
	if tag2.ID != tag1.ID {
		t.Errorf("expected same ID %q, got %q", tag1.ID, tag2.ID)
	}
}
