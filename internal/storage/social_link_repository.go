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

const socialLinkColumns = `id, user_id, platform, url, display_order, is_active, created_at, updated_at`

// SocialLinkRepository handles social link persistence
type SocialLinkRepository struct {
	db *PostgresDB
}

// NewSocialLinkRepository creates a new social link repository
func NewSocialLinkRepository(db *PostgresDB) *SocialLinkRepository {
	return &SocialLinkRepository{db: db}
}

// Create inserts a new social link
func (r *SocialLinkRepository) Create(ctx context.Context, link *models.SocialLink) error {
	if link.ID == "" {
		link.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	link.CreatedAt = now
	link.UpdatedAt = now

	query := `
		INSERT INTO social_links (id, user_id, platform, url, display_order, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Pool().Exec(ctx, query,
		link.ID,
		link.UserID,
		link.Platform,
		link.URL,
		link.DisplayOrder,
		link.IsActive,
		link.CreatedAt,
		link.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create social link: %w", err)
	}

	return nil
}

// GetByID retrieves a social link by ID
func (r *SocialLinkRepository) GetByID(ctx context.Context, id string) (*models.SocialLink, error) {
	query := fmt.Sprintf(`SELECT %s FROM social_links WHERE id = $1`, socialLinkColumns)

	link, err := scanSocialLink(r.db.Pool().QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get social link: %w", err)
	}

	return link, nil
}

// ListByUser returns a user's social links ordered by display order
func (r *SocialLinkRepository) ListByUser(ctx context.Context, userID string, activeOnly bool) ([]models.SocialLink, error) {
	query := fmt.Sprintf(`SELECT %s FROM social_links WHERE user_id = $1`, socialLinkColumns)
	if activeOnly {
		query += ` AND is_active = true`
	}
	query += ` ORDER BY display_order ASC`

	rows, err := r.db.Pool().Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list social links: %w", err)
	}
	defer rows.Close()

	links := []models.SocialLink{}
	for rows.Next() {
		link, err := scanSocialLink(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan social link: %w", err)
		}
		links = append(links, *link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating social links: %w", err)
	}

	return links, nil
}

// Update applies the non-nil fields of the update and returns the updated row
func (r *SocialLinkRepository) Update(ctx context.Context, id string, update *models.SocialLinkUpdate) (*models.SocialLink, error) {
	query := `
		UPDATE social_links SET
			url = COALESCE($2, url),
			is_active = COALESCE($3, is_active),
			updated_at = $4
		WHERE id = $1
	`

	result, err := r.db.Pool().Exec(ctx, query, id, update.URL, update.IsActive, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to update social link: %w", err)
	}

	if result.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	return r.GetByID(ctx, id)
}

// Delete removes a social link permanently
func (r *SocialLinkRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Pool().Exec(ctx, `DELETE FROM social_links WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete social link: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// MaxDisplayOrder returns the greatest display order among a user's social
// links, or -1 when the user has none.
func (r *SocialLinkRepository) MaxDisplayOrder(ctx context.Context, userID string) (int, error) {
	var max int
	query := `SELECT COALESCE(MAX(display_order), -1) FROM social_links WHERE user_id = $1`

	if err := r.db.Pool().QueryRow(ctx, query, userID).Scan(&max); err != nil {
		return 0, fmt.Errorf("failed to get max display order: %w", err)
	}

	return max, nil
}

// CountByUser counts all of a user's social links, active and inactive
func (r *SocialLinkRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM social_links WHERE user_id = $1`

	if err := r.db.Pool().QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count social links: %w", err)
	}

	return count, nil
}

func scanSocialLink(row rowScanner) (*models.SocialLink, error) {
	var link models.SocialLink

	err := row.Scan(
		&link.ID,
		&link.UserID,
		&link.Platform,
		&link.URL,
		&link.DisplayOrder,
		&link.IsActive,
		&link.CreatedAt,
		&link.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &link, nil
}
