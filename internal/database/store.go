package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the interface for database operations. Methods accept a
// context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// GetLinkPreview retrieves a cached preview by URL. Returns nil, nil
	// when the URL has no cached preview.
	GetLinkPreview(ctx context.Context, url string) (*LinkPreview, error)

	// SaveLinkPreview inserts or replaces a cached preview.
	SaveLinkPreview(ctx context.Context, preview *LinkPreview) error

	// SaveCampaign records a campaign created on the campaign service.
	SaveCampaign(ctx context.Context, campaign *Campaign) error

	// CountCampaignsBySubject returns how many recorded campaigns share the
	// given subject. Used to warn about likely duplicate sends.
	CountCampaignsBySubject(ctx context.Context, subject string) (int, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) GetLinkPreview(ctx context.Context, url string) (*LinkPreview, error) {
	if url == "" {
		return nil, fmt.Errorf("cannot look up preview for empty URL")
	}

	var preview LinkPreview
	err := s.db.GetContext(ctx, &preview,
		`SELECT url, description, fetched_at FROM link_previews WHERE url = ?`, url)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query link preview: %w", err)
	}
	return &preview, nil
}

func (s *sqlxStore) SaveLinkPreview(ctx context.Context, preview *LinkPreview) error {
	if preview == nil {
		return fmt.Errorf("cannot save nil preview")
	}
	if preview.URL == "" {
		return fmt.Errorf("preview must have a non-empty url")
	}
	if preview.FetchedAt.IsZero() {
		preview.FetchedAt = time.Now().UTC()
	}

	_, err := s.db.NamedExecContext(ctx,
		`INSERT OR REPLACE INTO link_previews (url, description, fetched_at)
		 VALUES (:url, :description, :fetched_at)`, preview)
	if err != nil {
		return fmt.Errorf("failed to save link preview: %w", err)
	}

	s.logger.DebugContext(ctx, "Saved link preview", "url", preview.URL)
	return nil
}

func (s *sqlxStore) SaveCampaign(ctx context.Context, campaign *Campaign) error {
	if campaign == nil {
		return fmt.Errorf("cannot save nil campaign")
	}
	if campaign.Subject == "" {
		return fmt.Errorf("campaign must have a non-empty subject")
	}
	if campaign.CreatedAt.IsZero() {
		campaign.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO campaigns (run_id, campaign_id, subject, list_id, created_at)
		 VALUES (:run_id, :campaign_id, :subject, :list_id, :created_at)`, campaign)
	if err != nil {
		return fmt.Errorf("failed to save campaign record: %w", err)
	}

	s.logger.InfoContext(ctx, "Recorded campaign",
		"campaign_id", campaign.CampaignID,
		"subject", campaign.Subject,
		"list_id", campaign.ListID)
	return nil
}

func (s *sqlxStore) CountCampaignsBySubject(ctx context.Context, subject string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM campaigns WHERE subject = ?`, subject)
	if err != nil {
		return 0, fmt.Errorf("failed to count campaigns: %w", err)
	}
	return count, nil
}

// RunSQLMaintenance performs VACUUM and ANALYZE to keep the database compact.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("failed to vacuum database: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "ANALYZE"); err != nil {
		return fmt.Errorf("failed to analyze database: %w", err)
	}
	s.logger.InfoContext(ctx, "Database maintenance completed")
	return nil
}
