package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/planaxis/planaxis/internal/ir"
)

// Site is the persisted site-context record for a project: the address
// candidate the caller chose to keep.
type Site struct {
	ID         int64
	ProjectKey string
	Candidate  ir.SiteCandidate
	UpdatedAt  time.Time
}

// UpsertSite stores or replaces the chosen candidate for a project key.
func (s *Store) UpsertSite(ctx context.Context, projectKey string, c ir.SiteCandidate, now time.Time) error {
	var lat, lng any
	if c.Lat != nil {
		lat = *c.Lat
	}
	if c.Lng != nil {
		lng = *c.Lng
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sites
		(project_key, candidate_id, formatted_address, lga_name, lga_code,
		 lot, plan_number, lat, lng, zone, confidence, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_key) DO UPDATE SET
			candidate_id = excluded.candidate_id,
			formatted_address = excluded.formatted_address,
			lga_name = excluded.lga_name,
			lga_code = excluded.lga_code,
			lot = excluded.lot,
			plan_number = excluded.plan_number,
			lat = excluded.lat,
			lng = excluded.lng,
			zone = excluded.zone,
			confidence = excluded.confidence,
			updated_at = excluded.updated_at
	`, projectKey, c.ID, c.FormattedAddress, c.LGAName, c.LGACode,
		c.Lot, c.PlanNumber, lat, lng, c.Zone, c.Confidence, now)
	if err != nil {
		return fmt.Errorf("upsert site %s: %w", projectKey, err)
	}
	return nil
}

// SiteByProject retrieves the stored site for a project key.
// Returns sql.ErrNoRows if none has been chosen.
func (s *Store) SiteByProject(ctx context.Context, projectKey string) (Site, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, project_key, candidate_id, formatted_address, lga_name, lga_code,
		       lot, plan_number, lat, lng, zone, confidence, updated_at
		FROM sites
		WHERE project_key = ?
	`, projectKey)

	var (
		site Site
		lat  sql.NullFloat64
		lng  sql.NullFloat64
	)
	err := row.Scan(&site.ID, &site.ProjectKey, &site.Candidate.ID,
		&site.Candidate.FormattedAddress, &site.Candidate.LGAName, &site.Candidate.LGACode,
		&site.Candidate.Lot, &site.Candidate.PlanNumber, &lat, &lng,
		&site.Candidate.Zone, &site.Candidate.Confidence, &site.UpdatedAt)
	if err != nil {
		return Site{}, fmt.Errorf("scan site: %w", err)
	}
	if lat.Valid {
		site.Candidate.Lat = &lat.Float64
	}
	if lng.Valid {
		site.Candidate.Lng = &lng.Float64
	}
	site.UpdatedAt = site.UpdatedAt.UTC()
	return site, nil
}
