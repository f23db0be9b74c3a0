package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/linkbio/internal/models"
)

// ClickEventRepository stores and aggregates click events in ClickHouse.
// Writes are best effort: callers treat failures as non-fatal because the
// authoritative click totals live in Postgres.
type ClickEventRepository struct {
	db *ClickHouseDB
}

// NewClickEventRepository creates a new click event repository
func NewClickEventRepository(db *ClickHouseDB) *ClickEventRepository {
	return &ClickEventRepository{db: db}
}

// Insert appends a single click event
func (r *ClickEventRepository) Insert(ctx context.Context, event *models.ClickEvent) error {
	query := `
		INSERT INTO click_events (link_id, clicked_at, user_agent, ip_address)
		VALUES (?, ?, ?, ?)
	`

	err := r.db.Exec(ctx, query,
		event.LinkID,
		event.ClickedAt,
		event.UserAgent,
		event.IPAddress,
	)
	if err != nil {
		return fmt.Errorf("failed to insert click event: %w", err)
	}

	return nil
}

// CountSince counts events across the given links recorded at or after since
func (r *ClickEventRepository) CountSince(ctx context.Context, linkIDs []string, since time.Time) (int64, error) {
	if len(linkIDs) == 0 {
		return 0, nil
	}

	query := `
		SELECT COUNT(*)
		FROM click_events
		WHERE link_id IN (?) AND clicked_at >= ?
	`

	var count uint64
	if err := r.db.Conn().QueryRow(ctx, query, linkIDs, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count click events: %w", err)
	}

	return int64(count), nil
}

// CountForLinkSince counts events for a single link recorded at or after since
func (r *ClickEventRepository) CountForLinkSince(ctx context.Context, linkID string, since time.Time) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM click_events
		WHERE link_id = ? AND clicked_at >= ?
	`

	var count uint64
	if err := r.db.Conn().QueryRow(ctx, query, linkID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count link click events: %w", err)
	}

	return int64(count), nil
}

// DailyCounts returns per-day event counts across the given links, keyed by
// date in YYYY-MM-DD form. Days with no events are absent from the map.
func (r *ClickEventRepository) DailyCounts(ctx context.Context, linkIDs []string, since time.Time) (map[string]int64, error) {
	counts := make(map[string]int64)
	if len(linkIDs) == 0 {
		return counts, nil
	}

	query := `
		SELECT toDate(clicked_at) AS day, COUNT(*) AS clicks
		FROM click_events
		WHERE link_id IN (?) AND clicked_at >= ?
		GROUP BY day
		ORDER BY day ASC
	`

	rows, err := r.db.Conn().Query(ctx, query, linkIDs, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily click counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var day time.Time
		var clicks uint64
		if err := rows.Scan(&day, &clicks); err != nil {
			return nil, fmt.Errorf("failed to scan daily click count: %w", err)
		}
		counts[day.Format("2006-01-02")] = int64(clicks)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily click counts: %w", err)
	}

	return counts, nil
}
