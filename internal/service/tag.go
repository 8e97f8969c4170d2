package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/simmerapp/simmer-server/internal/domain"
	domainerrors "github.com/simmerapp/simmer-server/internal/errors"
	"github.com/simmerapp/simmer-server/internal/normalize"
	"github.com/simmerapp/simmer-server/internal/store"
)

// TagService orchestrates tag operations. Tags are owned per user; one
// user's "Vegan" is a different entity from another's.
type TagService struct {
	store  store.Store
	logger *slog.Logger
}

// NewTagService creates a new tag service.
func NewTagService(store store.Store, logger *slog.Logger) *TagService {
	return &TagService{
		store:  store,
		logger: logger,
	}
}

// ListTags returns the user's tags ordered by name descending.
// With assignedOnly, only tags attached to at least one of the user's
// recipes are returned.
func (s *TagService) ListTags(ctx context.Context, userID string, assignedOnly bool) ([]*domain.Tag, error) {
	tags, err := s.store.ListTags(ctx, userID, assignedOnly)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// GetTag returns a tag owned by the user.
func (s *TagService) GetTag(ctx context.Context, userID, tagID string) (*domain.Tag, error) {
	tag, err := s.store.GetTag(ctx, userID, tagID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("tag not found")
		}
		return nil, fmt.Errorf("get tag: %w", err)
	}
	return tag, nil
}

// UpdateTag renames a tag. The new name is normalized like nested recipe
// descriptors and must not collide with another of the user's tags.
func (s *TagService) UpdateTag(ctx context.Context, userID, tagID, rawName string) (*domain.Tag, error) {
	name := normalize.Name(rawName)
	if name == "" {
		return nil, domainerrors.Validation("name must not be empty")
	}

	tag, err := s.store.GetTag(ctx, userID, tagID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("tag not found")
		}
		return nil, fmt.Errorf("get tag: %w", err)
	}

	tag.Name = name
	tag.Touch()

	if err := s.store.UpdateTag(ctx, tag); err != nil {
		if domainerrors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("a tag with this name already exists")
		}
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("tag not found")
		}
		return nil, fmt.Errorf("update tag: %w", err)
	}

	s.logger.Info("tag renamed", "tag_id", tagID, "user_id", userID, "name", name)

	return tag, nil
}

// DeleteTag removes a tag. Join rows cascade, so recipes simply lose the
// tag and keep their other relations.
func (s *TagService) DeleteTag(ctx context.Context, userID, tagID string) error {
	if err := s.store.DeleteTag(ctx, userID, tagID); err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("tag not found")
		}
		return fmt.Errorf("delete tag: %w", err)
	}

	s.logger.Info("tag deleted", "tag_id", tagID, "user_id", userID)

	return nil
}
