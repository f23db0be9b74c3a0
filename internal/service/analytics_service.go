package service

import (
	"context"
	"time"

	"github.com/linkbio/internal/logging"
	"github.com/linkbio/internal/models"
)

// LinkReader lists a user's links
type LinkReader interface {
	ListByUser(ctx context.Context, userID string, activeOnly bool) ([]models.Link, error)
}

// ClickEventStore is the append-only click-event log
type ClickEventStore interface {
	Insert(ctx context.Context, event *models.ClickEvent) error
	CountSince(ctx context.Context, linkIDs []string, since time.Time) (int64, error)
	CountForLinkSince(ctx context.Context, linkID string, since time.Time) (int64, error)
	DailyCounts(ctx context.Context, linkIDs []string, since time.Time) (map[string]int64, error)
}

// dailySeriesDays is the length of the zero-filled daily series and the
// month window in days.
const dailySeriesDays = 30

// AnalyticsService aggregates click analytics. Lifetime totals come from the
// authoritative per-link counters in Postgres; everything windowed comes from
// the event log. The event log is optional and best effort, so any failure
// there degrades the windowed numbers to zero instead of failing the summary.
type AnalyticsService struct {
	links  LinkReader
	events ClickEventStore
	logger *logging.Logger

	// overridable in tests
	now func() time.Time
}

// NewAnalyticsService creates a new analytics service. events may be nil when
// no event store is configured.
func NewAnalyticsService(links LinkReader, events ClickEventStore, logger *logging.Logger) *AnalyticsService {
	return &AnalyticsService{
		links:  links,
		events: events,
		logger: logger,
		now:    time.Now,
	}
}

// GetSummary builds the full analytics payload for a user
func (s *AnalyticsService) GetSummary(ctx context.Context, userID string) (*models.AnalyticsSummary, error) {
	links, err := s.links.ListByUser(ctx, userID, false)
	if err != nil {
		return nil, err
	}

	summary := &models.AnalyticsSummary{
		LinkStats:   make([]models.LinkClickStats, 0, len(links)),
		DailyClicks: make([]models.DailyClicks, 0, dailySeriesDays),
	}

	linkIDs := make([]string, 0, len(links))
	for _, link := range links {
		summary.Overview.TotalClicks += link.ClickCount
		linkIDs = append(linkIDs, link.ID)
	}
	summary.Overview.TotalLinks = len(links)

	todayStart := s.now().UTC().Truncate(24 * time.Hour)
	weekStart := todayStart.AddDate(0, 0, -7)
	monthStart := todayStart.AddDate(0, 0, -dailySeriesDays)

	summary.Overview.TodayClicks = s.countSince(ctx, linkIDs, todayStart)
	summary.Overview.WeekClicks = s.countSince(ctx, linkIDs, weekStart)
	summary.Overview.MonthClicks = s.countSince(ctx, linkIDs, monthStart)

	for _, link := range links {
		summary.LinkStats = append(summary.LinkStats, models.LinkClickStats{
			LinkID:      link.ID,
			Title:       link.Title,
			URL:         link.URL,
			ClickCount:  link.ClickCount,
			TodayClicks: s.countForLinkSince(ctx, link.ID, todayStart),
			WeekClicks:  s.countForLinkSince(ctx, link.ID, weekStart),
			MonthClicks: s.countForLinkSince(ctx, link.ID, monthStart),
		})
	}

	summary.DailyClicks = s.dailySeries(ctx, linkIDs, todayStart)

	return summary, nil
}

// RecordClickEvent appends a click event. Failures are logged and swallowed;
// the caller has already bumped the authoritative counter.
func (s *AnalyticsService) RecordClickEvent(ctx context.Context, linkID, userAgent, ipAddress string) {
	if s.events == nil {
		return
	}

	event := &models.ClickEvent{
		LinkID:    linkID,
		ClickedAt: s.now().UTC(),
		UserAgent: userAgent,
		IPAddress: ipAddress,
	}

	if err := s.events.Insert(ctx, event); err != nil {
		s.logger.WithError(err).WithField("link_id", linkID).Warn("failed to record click event")
	}
}

func (s *AnalyticsService) countSince(ctx context.Context, linkIDs []string, since time.Time) int64 {
	if s.events == nil || len(linkIDs) == 0 {
		return 0
	}

	count, err := s.events.CountSince(ctx, linkIDs, since)
	if err != nil {
		s.logger.WithError(err).Warn("click event count failed, reading as zero")
		return 0
	}
	return count
}

func (s *AnalyticsService) countForLinkSince(ctx context.Context, linkID string, since time.Time) int64 {
	if s.events == nil {
		return 0
	}

	count, err := s.events.CountForLinkSince(ctx, linkID, since)
	if err != nil {
		s.logger.WithError(err).WithField("link_id", linkID).Warn("per-link click count failed, reading as zero")
		return 0
	}
	return count
}

// dailySeries returns exactly dailySeriesDays entries, oldest first, with
// zeroes for days that have no events.
func (s *AnalyticsService) dailySeries(ctx context.Context, linkIDs []string, todayStart time.Time) []models.DailyClicks {
	seriesStart := todayStart.AddDate(0, 0, -(dailySeriesDays - 1))

	var counts map[string]int64
	if s.events != nil && len(linkIDs) > 0 {
		var err error
		counts, err = s.events.DailyCounts(ctx, linkIDs, seriesStart)
		if err != nil {
			s.logger.WithError(err).Warn("daily click counts failed, reading as zero")
			counts = nil
		}
	}

	series := make([]models.DailyClicks, 0, dailySeriesDays)
	for day := 0; day < dailySeriesDays; day++ {
		date := seriesStart.AddDate(0, 0, day).Format("2006-01-02")
		series = append(series, models.DailyClicks{
			Date:   date,
			Clicks: counts[date],
		})
	}

	return series
}
