package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/linkbio/internal/models"
)

const linkColumns = `id, user_id, title, url, thumbnail_url, display_order, is_active, click_count, created_at, updated_at`

// LinkRepository handles link persistence
type LinkRepository struct {
	db *PostgresDB
}

// NewLinkRepository creates a new link repository
func NewLinkRepository(db *PostgresDB) *LinkRepository {
	return &LinkRepository{db: db}
}

// Create inserts a new link
func (r *LinkRepository) Create(ctx context.Context, link *models.Link) error {
	if link.ID == "" {
		link.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	link.CreatedAt = now
	link.UpdatedAt = now

	query := `
		INSERT INTO links (id, user_id, title, url, thumbnail_url, display_order, is_active, click_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Pool().Exec(ctx, query,
		link.ID,
		link.UserID,
		link.Title,
		link.URL,
		nullable(link.ThumbnailURL),
		link.DisplayOrder,
		link.IsActive,
		link.ClickCount,
		link.CreatedAt,
		link.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create link: %w", err)
	}

	return nil
}

// GetByID retrieves a link by ID
func (r *LinkRepository) GetByID(ctx context.Context, id string) (*models.Link, error) {
	query := fmt.Sprintf(`SELECT %s FROM links WHERE id = $1`, linkColumns)

	link, err := scanLink(r.db.Pool().QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	return link, nil
}

// ListByUser returns all of a user's links ordered by display order,
// optionally restricted to active ones.
func (r *LinkRepository) ListByUser(ctx context.Context, userID string, activeOnly bool) ([]models.Link, error) {
	query := fmt.Sprintf(`SELECT %s FROM links WHERE user_id = $1`, linkColumns)
	if activeOnly {
		query += ` AND is_active = true`
	}
	query += ` ORDER BY display_order ASC`

	rows, err := r.db.Pool().Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	defer rows.Close()

	links := []models.Link{}
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, *link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating links: %w", err)
	}

	return links, nil
}

// Update applies the non-nil fields of the update and returns the updated link
func (r *LinkRepository) Update(ctx context.Context, linkID string, update *models.LinkUpdate) (*models.Link, error) {
	query := `
		UPDATE links SET
			title = COALESCE($2, title),
			url = COALESCE($3, url),
			thumbnail_url = COALESCE($4, thumbnail_url),
			is_active = COALESCE($5, is_active),
			updated_at = $6
		WHERE id = $1
	`

	result, err := r.db.Pool().Exec(ctx, query,
		linkID,
		update.Title,
		update.URL,
		update.ThumbnailURL,
		update.IsActive,
		time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update link: %w", err)
	}

	if result.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	return r.GetByID(ctx, linkID)
}

// Delete removes a link permanently
func (r *LinkRepository) Delete(ctx context.Context, linkID string) error {
	result, err := r.db.Pool().Exec(ctx, `DELETE FROM links WHERE id = $1`, linkID)
	if err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// MaxDisplayOrder returns the greatest display order among a user's links,
// or -1 when the user has none.
func (r *LinkRepository) MaxDisplayOrder(ctx context.Context, userID string) (int, error) {
	var max int
	query := `SELECT COALESCE(MAX(display_order), -1) FROM links WHERE user_id = $1`

	if err := r.db.Pool().QueryRow(ctx, query, userID).Scan(&max); err != nil {
		return 0, fmt.Errorf("failed to get max display order: %w", err)
	}

	return max, nil
}

// SetDisplayOrder updates one link's position, scoped to the owner
func (r *LinkRepository) SetDisplayOrder(ctx context.Context, userID, linkID string, order int) error {
	query := `UPDATE links SET display_order = $3, updated_at = $4 WHERE id = $1 AND user_id = $2`

	_, err := r.db.Pool().Exec(ctx, query, linkID, userID, order, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set display order: %w", err)
	}

	return nil
}

// CountByUser counts all of a user's links, active and inactive
func (r *LinkRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM links WHERE user_id = $1`

	if err := r.db.Pool().QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count links: %w", err)
	}

	return count, nil
}

// IncrementClickCount atomically increments the authoritative click counter.
func (r *LinkRepository) IncrementClickCount(ctx context.Context, linkID string) error {
	query := `UPDATE links SET click_count = click_count + 1 WHERE id = $1`

	result, err := r.db.Pool().Exec(ctx, query, linkID)
	if err != nil {
		return fmt.Errorf("failed to increment click count: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// CountAll returns the total number of links in the system
func (r *LinkRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.Pool().QueryRow(ctx, `SELECT COUNT(*) FROM links`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count links: %w", err)
	}

	return count, nil
}

// SumClickCounts sums the authoritative click counters across all links
func (r *LinkRepository) SumClickCounts(ctx context.Context) (int64, error) {
	var sum int64
	if err := r.db.Pool().QueryRow(ctx, `SELECT COALESCE(SUM(click_count), 0) FROM links`).Scan(&sum); err != nil {
		return 0, fmt.Errorf("failed to sum click counts: %w", err)
	}

	return sum, nil
}

func scanLink(row rowScanner) (*models.Link, error) {
	var link models.Link
	var thumbnailURL *string

	err := row.Scan(
		&link.ID,
		&link.UserID,
		&link.Title,
		&link.URL,
		&thumbnailURL,
		&link.DisplayOrder,
		&link.IsActive,
		&link.ClickCount,
		&link.CreatedAt,
		&link.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	link.ThumbnailURL = deref(thumbnailURL)
	return &link, nil
}

// nullable maps an empty string to NULL for optional columns.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
