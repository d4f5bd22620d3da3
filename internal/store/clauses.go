package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/planaxis/planaxis/internal/ir"
)

// Supersession pairs the current row to close with the parsed clause
// that replaces it at version NewVersion.
type Supersession struct {
	OldID      int64
	Parsed     ir.ParsedClause
	NewVersion int
}

// Batch is the complete diff for one instrument's sync. ApplyClauseBatch
// commits all of it or none of it.
type Batch struct {
	// Creates are first sightings, inserted at version 1.
	Creates []ir.ParsedClause

	// Supersessions close the old row and insert the new version.
	Supersessions []Supersession

	// RetireIDs are current rows whose clause key disappeared.
	RetireIDs []int64
}

// Empty reports whether the batch contains no writes. The instrument's
// last_synced_at is still stamped for an empty batch: an unchanged
// document is a successful sync.
func (b Batch) Empty() bool {
	return len(b.Creates) == 0 && len(b.Supersessions) == 0 && len(b.RetireIDs) == 0
}

const clauseColumns = `
	id, instrument_id, clause_key, number, title, body_html, body_text,
	hierarchy_path, content_hash, version, is_current,
	effective_from, effective_to, retrieved_at`

// CurrentClauses returns the current clause set for an instrument,
// ordered by clause key for deterministic diffing.
func (s *Store) CurrentClauses(ctx context.Context, instrumentID int64) ([]ir.Clause, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+clauseColumns+`
		FROM clauses
		WHERE instrument_id = ? AND is_current = 1
		ORDER BY clause_key ASC
	`, instrumentID)
	if err != nil {
		return nil, fmt.Errorf("query current clauses: %w", err)
	}
	defer rows.Close()
	return collectClauses(rows)
}

// ApplyClauseBatch applies one sync's diff in a single transaction and
// stamps the instrument's last_synced_at. A failed batch leaves the
// instrument untouched: clause state never mixes two documents.
func (s *Store) ApplyClauseBatch(ctx context.Context, instrumentID int64, b Batch, now time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("apply batch: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for _, p := range b.Creates {
		if err := insertClause(ctx, tx, instrumentID, p, 1, now); err != nil {
			return fmt.Errorf("apply batch: create %s: %w", p.ClauseKey, err)
		}
	}

	for _, sup := range b.Supersessions {
		if err := closeClause(ctx, tx, sup.OldID, now); err != nil {
			return fmt.Errorf("apply batch: supersede %s: %w", sup.Parsed.ClauseKey, err)
		}
		if err := insertClause(ctx, tx, instrumentID, sup.Parsed, sup.NewVersion, now); err != nil {
			return fmt.Errorf("apply batch: insert v%d of %s: %w", sup.NewVersion, sup.Parsed.ClauseKey, err)
		}
	}

	for _, id := range b.RetireIDs {
		if err := closeClause(ctx, tx, id, now); err != nil {
			return fmt.Errorf("apply batch: retire clause row %d: %w", id, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE instruments SET last_synced_at = ? WHERE id = ?
	`, now, instrumentID); err != nil {
		return fmt.Errorf("apply batch: stamp last_synced_at: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("apply batch: commit: %w", err)
	}
	return nil
}

func insertClause(ctx context.Context, tx *sql.Tx, instrumentID int64, p ir.ParsedClause, version int, now time.Time) error {
	pathJSON, err := marshalPath(p.HierarchyPath)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO clauses
		(instrument_id, clause_key, number, title, body_html, body_text,
		 hierarchy_path, content_hash, version, is_current, effective_from, retrieved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
	`, instrumentID, p.ClauseKey, p.Number, p.Title, p.BodyHTML, p.BodyText,
		pathJSON, p.ContentHash, version, now, now)
	return err
}

// closeClause marks a row non-current with its effective_to set.
func closeClause(ctx context.Context, tx *sql.Tx, id int64, now time.Time) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE clauses SET is_current = 0, effective_to = ?
		WHERE id = ? AND is_current = 1
	`, now, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("clause row %d is not current", id)
	}
	return nil
}

// ClauseHistory returns every version of a clause, oldest first.
// History is complete: superseded and retired rows are never deleted.
func (s *Store) ClauseHistory(ctx context.Context, instrumentID int64, clauseKey string) ([]ir.Clause, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+clauseColumns+`
		FROM clauses
		WHERE instrument_id = ? AND clause_key = ?
		ORDER BY version ASC
	`, instrumentID, clauseKey)
	if err != nil {
		return nil, fmt.Errorf("query clause history: %w", err)
	}
	defer rows.Close()
	return collectClauses(rows)
}

// ClauseAt returns the clause version in force at the given time.
// Returns sql.ErrNoRows when no version's effective range covers it.
func (s *Store) ClauseAt(ctx context.Context, instrumentID int64, clauseKey string, at time.Time) (ir.Clause, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+clauseColumns+`
		FROM clauses
		WHERE instrument_id = ? AND clause_key = ?
		  AND (effective_from IS NULL OR effective_from <= ?)
		  AND (effective_to IS NULL OR effective_to > ?)
		ORDER BY version DESC
		LIMIT 1
	`, instrumentID, clauseKey, at, at)
	return scanClause(row)
}

// ClauseWithInstrument joins a clause with its owning instrument's slug
// and kind for search filtering.
type ClauseWithInstrument struct {
	ir.Clause
	InstrumentSlug string
	InstrumentKind ir.InstrumentKind
}

// CurrentClausesFiltered returns current clauses across instruments,
// optionally restricted by instrument slugs and kinds. Ordering is
// deterministic: instrument slug, then clause key.
func (s *Store) CurrentClausesFiltered(ctx context.Context, slugs []string, kinds []ir.InstrumentKind) ([]ClauseWithInstrument, error) {
	query := `
		SELECT c.id, c.instrument_id, c.clause_key, c.number, c.title, c.body_html,
		       c.body_text, c.hierarchy_path, c.content_hash, c.version, c.is_current,
		       c.effective_from, c.effective_to, c.retrieved_at, i.slug, i.kind
		FROM clauses c
		JOIN instruments i ON c.instrument_id = i.id
		WHERE c.is_current = 1`
	var args []any

	if len(slugs) > 0 {
		query += " AND i.slug IN (" + placeholders(len(slugs)) + ")"
		for _, slug := range slugs {
			args = append(args, slug)
		}
	}
	if len(kinds) > 0 {
		query += " AND i.kind IN (" + placeholders(len(kinds)) + ")"
		for _, kind := range kinds {
			args = append(args, string(kind))
		}
	}
	query += " ORDER BY i.slug ASC, c.clause_key ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query filtered clauses: %w", err)
	}
	defer rows.Close()

	out := []ClauseWithInstrument{}
	for rows.Next() {
		var (
			c    ir.Clause
			path string
			from sql.NullTime
			to   sql.NullTime
			slug string
			kind string
		)
		err := rows.Scan(&c.ID, &c.InstrumentID, &c.ClauseKey, &c.Number, &c.Title,
			&c.BodyHTML, &c.BodyText, &path, &c.ContentHash, &c.Version, &c.IsCurrent,
			&from, &to, &c.RetrievedAt, &slug, &kind)
		if err != nil {
			return nil, fmt.Errorf("scan filtered clause: %w", err)
		}
		if c.HierarchyPath, err = unmarshalPath(path); err != nil {
			return nil, err
		}
		c.EffectiveFrom = timePtr(from)
		c.EffectiveTo = timePtr(to)
		c.RetrievedAt = c.RetrievedAt.UTC()
		out = append(out, ClauseWithInstrument{
			Clause:         c,
			InstrumentSlug: slug,
			InstrumentKind: ir.InstrumentKind(kind),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate filtered clauses: %w", err)
	}
	return out, nil
}

func placeholders(n int) string {
	out := make([]byte, 0, n*2)
	for i := 0; i < n; i++ {
		if i > 0 {
			out = append(out, ',')
		}
		out = append(out, '?')
	}
	return string(out)
}

func collectClauses(rows *sql.Rows) ([]ir.Clause, error) {
	clauses := []ir.Clause{}
	for rows.Next() {
		c, err := scanClause(rows)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clauses: %w", err)
	}
	return clauses, nil
}

func scanClause(row scannable) (ir.Clause, error) {
	var (
		c    ir.Clause
		path string
		from sql.NullTime
		to   sql.NullTime
	)
	err := row.Scan(&c.ID, &c.InstrumentID, &c.ClauseKey, &c.Number, &c.Title,
		&c.BodyHTML, &c.BodyText, &path, &c.ContentHash, &c.Version, &c.IsCurrent,
		&from, &to, &c.RetrievedAt)
	if err != nil {
		return ir.Clause{}, fmt.Errorf("scan clause: %w", err)
	}
	if c.HierarchyPath, err = unmarshalPath(path); err != nil {
		return ir.Clause{}, err
	}
	c.EffectiveFrom = timePtr(from)
	c.EffectiveTo = timePtr(to)
	c.RetrievedAt = c.RetrievedAt.UTC()
	return c, nil
}
