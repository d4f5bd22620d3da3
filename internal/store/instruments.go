package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/planaxis/planaxis/internal/ir"
)

// UpsertInstrument registers an instrument config, keyed by slug.
// Existing rows keep their id and last_synced_at; display fields are
// refreshed from the config.
func (s *Store) UpsertInstrument(ctx context.Context, cfg ir.InstrumentConfig) (ir.Instrument, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO instruments (slug, name, short_name, kind, jurisdiction, source_url)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			name = excluded.name,
			short_name = excluded.short_name,
			kind = excluded.kind,
			jurisdiction = excluded.jurisdiction,
			source_url = excluded.source_url
	`, cfg.Slug, cfg.Name, cfg.ShortName, string(cfg.Kind), cfg.Jurisdiction, cfg.SourceURL)
	if err != nil {
		return ir.Instrument{}, fmt.Errorf("upsert instrument %s: %w", cfg.Slug, err)
	}

	return s.InstrumentBySlug(ctx, cfg.Slug)
}

// InstrumentBySlug retrieves an instrument row.
// Returns sql.ErrNoRows if the slug is not registered.
func (s *Store) InstrumentBySlug(ctx context.Context, slug string) (ir.Instrument, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, slug, name, short_name, kind, jurisdiction, source_url, last_synced_at
		FROM instruments
		WHERE slug = ?
	`, slug)
	return scanInstrument(row)
}

// Instruments returns all registered instruments ordered by slug.
func (s *Store) Instruments(ctx context.Context) ([]ir.Instrument, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, slug, name, short_name, kind, jurisdiction, source_url, last_synced_at
		FROM instruments
		ORDER BY slug ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query instruments: %w", err)
	}
	defer rows.Close()

	instruments := []ir.Instrument{}
	for rows.Next() {
		inst, err := scanInstrument(rows)
		if err != nil {
			return nil, err
		}
		instruments = append(instruments, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate instruments: %w", err)
	}
	return instruments, nil
}

// scannable covers *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanInstrument(row scannable) (ir.Instrument, error) {
	var (
		inst     ir.Instrument
		kind     string
		lastSync sql.NullTime
	)
	err := row.Scan(&inst.ID, &inst.Slug, &inst.Name, &inst.ShortName, &kind,
		&inst.Jurisdiction, &inst.SourceURL, &lastSync)
	if err != nil {
		return ir.Instrument{}, fmt.Errorf("scan instrument: %w", err)
	}
	inst.Kind = ir.InstrumentKind(kind)
	inst.LastSyncedAt = timePtr(lastSync)
	return inst, nil
}
