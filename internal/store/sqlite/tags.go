package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/simmerapp/simmer-server/internal/domain"
	"github.com/simmerapp/simmer-server/internal/id"
	"github.com/simmerapp/simmer-server/internal/store"
)

// tagColumns is the ordered list of columns selected in tag queries.
// Must match the scan order in scanTag.
const tagColumns = `id, user_id, name, created_at, updated_at`

// scanTag scans a sql.Row (or sql.Rows via its Scan method) into a domain.Tag.
func scanTag(scanner interface{ Scan(dest ...any) error }) (*domain.Tag, error) {
	var t domain.Tag

	var (
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&t.ID,
		&t.UserID,
		&t.Name,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	t.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// CreateTag inserts a new tag into the database.
// Returns store.ErrAlreadyExists on a duplicate name for the same user.
func (s *Store) CreateTag(ctx context.Context, t *domain.Tag) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tags (id, user_id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		t.ID,
		t.UserID,
		t.Name,
		formatTime(t.CreatedAt),
		formatTime(t.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetTag retrieves a tag owned by the given user.
// Returns store.ErrNotFound if the tag does not exist or belongs to
// another user.
func (s *Store) GetTag(ctx context.Context, userID, tagID string) (*domain.Tag, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE id = ? AND user_id = ?`, tagID, userID)

	t, err := scanTag(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetTagByName retrieves a tag by its canonical name for the given user.
// Returns store.ErrNotFound if the tag does not exist.
func (s *Store) GetTagByName(ctx context.Context, userID, name string) (*domain.Tag, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE user_id = ? AND name = ?`, userID, name)

	t, err := scanTag(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListTags returns the user's tags ordered by name descending.
// When assignedOnly is true, only tags attached to at least one recipe
// are returned.
func (s *Store) ListTags(ctx context.Context, userID string, assignedOnly bool) ([]*domain.Tag, error) {
	query := `SELECT ` + tagColumns + ` FROM tags WHERE user_id = ?`
	if assignedOnly {
		query += ` AND EXISTS (SELECT 1 FROM recipe_tags WHERE recipe_tags.tag_id = tags.id)`
	}
	query += ` ORDER BY name DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*domain.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if tags == nil {
		tags = []*domain.Tag{}
	}

	return tags, nil
}

// UpdateTag performs a full row update on an existing tag.
// Returns store.ErrNotFound if the tag does not exist for its owner, or
// store.ErrAlreadyExists if the new name collides with another tag.
func (s *Store) UpdateTag(ctx context.Context, t *domain.Tag) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE tags SET name = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		t.Name,
		formatTime(t.UpdatedAt),
		t.ID,
		t.UserID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteTag removes a tag owned by the given user. Join rows cascade.
// Returns store.ErrNotFound if the tag does not exist.
func (s *Store) DeleteTag(ctx context.Context, userID, tagID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM tags WHERE id = ? AND user_id = ?`, tagID, userID)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// FindOrCreateTag finds an existing tag by canonical name or creates a new one.
// Returns (tag, created, error) where created is true if a new tag was made.
func (s *Store) FindOrCreateTag(ctx context.Context, userID, name string) (*domain.Tag, bool, error) {
	// Try to find existing tag first.
	existing, err := s.GetTagByName(ctx, userID, name)
	if err == nil {
		return existing, false, nil
	}
	if err != store.ErrNotFound {
		return nil, false, err
	}

	// Tag doesn't exist, create it.
	tagID, err := id.Generate("tag")
	if err != nil {
		return nil, false, fmt.Errorf("generate tag id: %w", err)
	}

	now := time.Now().UTC()
	t := &domain.Tag{
		ID:        tagID,
		UserID:    userID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.CreateTag(ctx, t); err != nil {
		if err == store.ErrAlreadyExists {
			// Race: another request created it between lookup and insert.
			existing, err := s.GetTagByName(ctx, userID, name)
			if err != nil {
				return nil, false, err
			}
			return existing, false, nil
		}
		return nil, false, err
	}

	return t, true, nil
}

// findOrCreateTagTx is the in-transaction variant of FindOrCreateTag used
// during recipe writes so the whole reconciliation commits atomically.
func findOrCreateTagTx(ctx context.Context, tx *sql.Tx, userID, name string) (*domain.Tag, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE user_id = ? AND name = ?`, userID, name)

	t, err := scanTag(row)
	if err == nil {
		return t, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	tagID, err := id.Generate("tag")
	if err != nil {
		return nil, fmt.Errorf("generate tag id: %w", err)
	}

	now := time.Now().UTC()
	t = &domain.Tag{
		ID:        tagID,
		UserID:    userID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tags (id, user_id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Name, formatTime(t.CreatedAt), formatTime(t.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert tag: %w", err)
	}

	return t, nil
}
