package storage

import (
	"context"
	"time"
)

// clickhouseSchema holds the click-event log DDL. Statements are idempotent
// so the runner can apply them on every boot.
var clickhouseSchema = []string{
	`CREATE TABLE IF NOT EXISTS click_events (
		link_id    String,
		clicked_at DateTime64(3, 'UTC'),
		user_agent String,
		ip_address String
	)
	ENGINE = MergeTree()
	PARTITION BY toYYYYMM(clicked_at)
	ORDER BY (link_id, clicked_at)
	TTL toDateTime(clicked_at) + INTERVAL 13 MONTH`,
}

func clickhouseMigrationContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
