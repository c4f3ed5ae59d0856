package database

import (
	"time"
)

// LinkPreview is a cached description for a URL shared in chat. Previews are
// keyed by the exact URL; re-running the gatherer reuses the cached entry
// instead of refetching the page.
type LinkPreview struct {
	URL         string    `db:"url"`
	Description string    `db:"description"`
	FetchedAt   time.Time `db:"fetched_at"`
}

// Campaign records a campaign created on the campaign service. The record is
// local bookkeeping only; re-running the sender creates a new campaign on the
// service regardless.
type Campaign struct {
	ID         uint      `db:"id"`
	RunID      string    `db:"run_id"`
	CampaignID int       `db:"campaign_id"`
	Subject    string    `db:"subject"`
	ListID     int       `db:"list_id"`
	CreatedAt  time.Time `db:"created_at"`
}
