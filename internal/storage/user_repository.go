package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/linkbio/internal/models"
)

// ErrNotFound is returned by repositories when a row does not exist.
var ErrNotFound = errors.New("storage: not found")

const userColumns = `id, user_seq, public_link_id, username, email, display_name, bio,
		profile_image_url, background_image_url, background_color, theme, button_style,
		is_active, is_admin, created_at, updated_at`

// UserRepository handles user data persistence
type UserRepository struct {
	db *PostgresDB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *PostgresDB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user. The store assigns user_seq; the caller derives
// and persists public_link_id afterwards via SetPublicLinkID.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users (id, username, email, display_name, theme, button_style, is_active, is_admin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING user_seq
	`

	err := r.db.Pool().QueryRow(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.DisplayName,
		user.Theme,
		user.ButtonStyle,
		user.IsActive,
		user.IsAdmin,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.UserSeq)

	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// SetPublicLinkID persists the derived public link identifier. Assigned once;
// callers must not change an existing identifier.
func (r *UserRepository) SetPublicLinkID(ctx context.Context, userID, publicLinkID string) error {
	query := `UPDATE users SET public_link_id = $2, updated_at = $3 WHERE id = $1 AND public_link_id IS NULL`

	result, err := r.db.Pool().Exec(ctx, query, userID, publicLinkID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set public link id: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("public link id already assigned for user %s", userID)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	return r.scanUserRow(r.db.Pool().QueryRow(ctx, query, id))
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE username = $1`, userColumns)
	return r.scanUserRow(r.db.Pool().QueryRow(ctx, query, username))
}

// GetActiveByPublicLinkID retrieves an active user by their public link
// identifier. Lookup is by the stored identifier string directly; the codec
// is not involved.
func (r *UserRepository) GetActiveByPublicLinkID(ctx context.Context, publicLinkID string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE public_link_id = $1 AND is_active = true`, userColumns)
	return r.scanUserRow(r.db.Pool().QueryRow(ctx, query, publicLinkID))
}

// UsernameExists checks whether a username is already taken
func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`

	if err := r.db.Pool().QueryRow(ctx, query, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check username existence: %w", err)
	}

	return exists, nil
}

// UpdateProfile applies the non-nil fields of the update to the user row
// and returns the updated record.
func (r *UserRepository) UpdateProfile(ctx context.Context, userID string, update *models.ProfileUpdate) (*models.User, error) {
	query := `
		UPDATE users SET
			display_name = COALESCE($2, display_name),
			bio = COALESCE($3, bio),
			profile_image_url = COALESCE($4, profile_image_url),
			background_image_url = COALESCE($5, background_image_url),
			background_color = COALESCE($6, background_color),
			theme = COALESCE($7, theme),
			button_style = COALESCE($8, button_style),
			updated_at = $9
		WHERE id = $1
	`

	result, err := r.db.Pool().Exec(ctx, query,
		userID,
		update.DisplayName,
		update.Bio,
		update.ProfileImageURL,
		update.BackgroundImageURL,
		update.BackgroundColor,
		update.Theme,
		update.ButtonStyle,
		time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	if result.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	return r.GetByID(ctx, userID)
}

// SetActive soft-activates or soft-deactivates a user
func (r *UserRepository) SetActive(ctx context.Context, userID string, active bool) error {
	query := `UPDATE users SET is_active = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.Pool().Exec(ctx, query, userID, active, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set user active state: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// List retrieves users ordered by creation time descending, newest first,
// with optional ILIKE search over username and email. Returns the page and
// the total match count.
func (r *UserRepository) List(ctx context.Context, limit, offset int, search string) ([]*models.User, int64, error) {
	where := ""
	args := []interface{}{limit, offset}
	if search != "" {
		where = `WHERE username ILIKE $3 OR email ILIKE $3`
		args = append(args, "%"+search+"%")
	}

	query := fmt.Sprintf(`
		SELECT %s FROM users
		%s
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, userColumns, where)

	rows, err := r.db.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := r.scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating users: %w", err)
	}

	countQuery := `SELECT COUNT(*) FROM users`
	countArgs := []interface{}{}
	if search != "" {
		countQuery += ` WHERE username ILIKE $1 OR email ILIKE $1`
		countArgs = append(countArgs, "%"+search+"%")
	}

	var total int64
	if err := r.db.Pool().QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	return users, total, nil
}

// Count returns the total number of users, optionally restricted to active ones.
func (r *UserRepository) Count(ctx context.Context, activeOnly bool) (int64, error) {
	query := `SELECT COUNT(*) FROM users`
	if activeOnly {
		query += ` WHERE is_active = true`
	}

	var count int64
	if err := r.db.Pool().QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}

	return count, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *UserRepository) scanUserRow(row pgx.Row) (*models.User, error) {
	user, err := r.scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	var publicLinkID, displayName, bio, profileImageURL, backgroundImageURL, backgroundColor *string

	err := row.Scan(
		&user.ID,
		&user.UserSeq,
		&publicLinkID,
		&user.Username,
		&user.Email,
		&displayName,
		&bio,
		&profileImageURL,
		&backgroundImageURL,
		&backgroundColor,
		&user.Theme,
		&user.ButtonStyle,
		&user.IsActive,
		&user.IsAdmin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.PublicLinkID = deref(publicLinkID)
	user.DisplayName = deref(displayName)
	user.Bio = deref(bio)
	user.ProfileImageURL = deref(profileImageURL)
	user.BackgroundImageURL = deref(backgroundImageURL)
	user.BackgroundColor = deref(backgroundColor)

	return &user, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
