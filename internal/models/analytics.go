package models

// OverviewStats summarizes all of a user's links. TotalClicks is the sum of
// the authoritative per-link counters; the windowed counts come from the
// event log and read as zero when it is unavailable.
type OverviewStats struct {
	TotalClicks int64 `json:"totalClicks"`
	TotalLinks  int   `json:"totalLinks"`
	TodayClicks int64 `json:"todayClicks"`
	WeekClicks  int64 `json:"weekClicks"`
	MonthClicks int64 `json:"monthClicks"`
}

// LinkClickStats is the per-link breakdown of the analytics summary.
type LinkClickStats struct {
	LinkID      string `json:"linkId"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	ClickCount  int64  `json:"clickCount"`
	TodayClicks int64  `json:"todayClicks"`
	WeekClicks  int64  `json:"weekClicks"`
	MonthClicks int64  `json:"monthClicks"`
}

// DailyClicks is one day of the 30-day series, date formatted as YYYY-MM-DD.
type DailyClicks struct {
	Date   string `json:"date"`
	Clicks int64  `json:"clicks"`
}

// AnalyticsSummary is the full analytics payload for a user.
type AnalyticsSummary struct {
	Overview    OverviewStats    `json:"overview"`
	LinkStats   []LinkClickStats `json:"linkStats"`
	DailyClicks []DailyClicks    `json:"dailyClicks"`
}
