package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/zachtilly/childcare-api/policy"
)

// =============================================================================
// POLICY DATA
// =============================================================================

const recordColumns = `id, state_id, metric_id, value, effective_date, end_date, data_source,
	source_url, confidence_level, notes, created_by, created_at, updated_at`

const recordColumnsPD = `pd.id, pd.state_id, pd.metric_id, pd.value, pd.effective_date, pd.end_date, pd.data_source,
	pd.source_url, pd.confidence_level, pd.notes, pd.created_by, pd.created_at, pd.updated_at`

// scanRecord reads recordColumns followed by any extra destinations.
func scanRecord(sc interface{ Scan(...any) error }, extra ...any) (policy.Record, error) {
	var (
		r                policy.Record
		value            string
		endDate          sql.NullString
		created, updated string
	)
	dest := append([]any{&r.ID, &r.StateID, &r.MetricID, &value, &r.EffectiveDate, &endDate, &r.DataSource,
		&r.SourceURL, &r.ConfidenceLevel, &r.Notes, &r.CreatedBy, &created, &updated}, extra...)
	if err := sc.Scan(dest...); err != nil {
		return r, err
	}
	if err := json.Unmarshal([]byte(value), &r.Value); err != nil {
		return r, fmt.Errorf("record %s: bad value: %w", r.ID, err)
	}
	if endDate.Valid {
		end := endDate.String
		r.EndDate = &end
	}
	r.CreatedAt, r.UpdatedAt = parseTime(created), parseTime(updated)
	return r, nil
}

func recordArgs(r policy.Record) ([]any, error) {
	value, err := json.Marshal(r.Value)
	if err != nil {
		return nil, err
	}
	var end any
	if r.EndDate != nil {
		end = *r.EndDate
	}
	return []any{r.ID, r.StateID, r.MetricID, string(value), r.EffectiveDate, end, r.DataSource,
		r.SourceURL, string(r.ConfidenceLevel), r.Notes, r.CreatedBy, formatTime(r.CreatedAt), formatTime(r.UpdatedAt)}, nil
}

func (s *Store) GetRecord(ctx context.Context, id string) (*policy.Record, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+recordColumns+` FROM policy_data WHERE id = ?`), id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) insertRecord(ctx context.Context, q queryer, r policy.Record) error {
	args, err := recordArgs(r)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, s.rebind(`INSERT INTO policy_data (`+recordColumns+`) VALUES (`+placeholders(13)+`)`), args...)
	if isUniqueConstraintError(err) {
		return policy.ErrOpenRecordExists
	}
	return err
}

func (s *Store) InsertRecord(ctx context.Context, r policy.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertRecord(ctx, s.db, r)
}

// InsertRecords writes all records in one transaction.
func (s *Store) InsertRecords(ctx context.Context, rs []policy.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, r := range rs {
			if err := s.insertRecord(ctx, tx, r); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) UpdateRecord(ctx context.Context, r policy.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	args, err := recordArgs(r)
	if err != nil {
		return err
	}
	query := `
		UPDATE policy_data SET
			state_id = ?, metric_id = ?, value = ?, effective_date = ?, end_date = ?, data_source = ?,
			source_url = ?, confidence_level = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`
	res, err := s.db.ExecContext(ctx, s.rebind(query),
		args[1], args[2], args[3], args[4], args[5], args[6], args[7], args[8], args[9], args[12], r.ID,
	)
	if isUniqueConstraintError(err) {
		return policy.ErrOpenRecordExists
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return policy.ErrRecordNotFound
	}
	return nil
}

func (s *Store) DeleteRecord(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM policy_data WHERE id = ?`), id)
	return err
}

func (s *Store) currentRecord(ctx context.Context, q queryer, stateID, metricID string) (*policy.Record, error) {
	row := q.QueryRowContext(ctx,
		s.rebind(`SELECT `+recordColumns+` FROM policy_data WHERE state_id = ? AND metric_id = ? AND end_date IS NULL`),
		stateID, metricID,
	)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) CurrentRecord(ctx context.Context, stateID, metricID string) (*policy.Record, error) {
	return s.currentRecord(ctx, s.db, stateID, metricID)
}

// UpsertCurrent inserts r as the open record for its pair, or, when one is
// already open, updates that record's value and source fields in place.
// effective_date and created_* of an existing open record never change.
func (s *Store) UpsertCurrent(ctx context.Context, r policy.Record) (*policy.Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r.EndDate = nil
	args, err := recordArgs(r)
	if err != nil {
		return nil, false, err
	}

	var stored *policy.Record
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO policy_data (` + recordColumns + `)
			VALUES (` + placeholders(13) + `)
			ON CONFLICT (state_id, metric_id) WHERE end_date IS NULL DO UPDATE SET
				value = excluded.value,
				data_source = excluded.data_source,
				source_url = excluded.source_url,
				confidence_level = excluded.confidence_level,
				notes = excluded.notes,
				updated_at = excluded.updated_at
		`
		if _, err := tx.ExecContext(ctx, s.rebind(query), args...); err != nil {
			return err
		}
		var err error
		stored, err = s.currentRecord(ctx, tx, r.StateID, r.MetricID)
		if err == nil && stored == nil {
			err = fmt.Errorf("open record for %s/%s vanished after upsert", r.StateID, r.MetricID)
		}
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return stored, stored.ID == r.ID, nil
}

// SupersedeCurrent closes the open record at r.EffectiveDate and inserts
// r as the new open record.
func (s *Store) SupersedeCurrent(ctx context.Context, r policy.Record) (*policy.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r.EndDate = nil
	var closed *policy.Record
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		cur, err := s.currentRecord(ctx, tx, r.StateID, r.MetricID)
		if err != nil {
			return err
		}
		if cur != nil {
			_, err := tx.ExecContext(ctx,
				s.rebind(`UPDATE policy_data SET end_date = ?, updated_at = ? WHERE id = ?`),
				r.EffectiveDate, formatTime(r.UpdatedAt), cur.ID,
			)
			if err != nil {
				return err
			}
			end := r.EffectiveDate
			cur.EndDate = &end
			cur.UpdatedAt = r.UpdatedAt
			closed = cur
		}
		return s.insertRecord(ctx, tx, r)
	})
	if err != nil {
		return nil, err
	}
	return closed, nil
}

// Timeline returns every record for the pair, oldest first.
func (s *Store) Timeline(ctx context.Context, stateID, metricID string) ([]policy.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT `+recordColumns+` FROM policy_data WHERE state_id = ? AND metric_id = ? ORDER BY effective_date, created_at`),
		stateID, metricID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []policy.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListCurrentValues joins open records with their state, metric and
// category, ordered by state name, category name, metric name.
func (s *Store) ListCurrentValues(ctx context.Context, f policy.CurrentFilter) ([]policy.CurrentValue, error) {
	var (
		where = []string{"pd.end_date IS NULL"}
		args  []any
	)
	if len(f.StateCodes) > 0 {
		where = append(where, "s.code IN ("+placeholders(len(f.StateCodes))+")")
		for _, c := range f.StateCodes {
			args = append(args, c)
		}
	}
	if len(f.MetricSlugs) > 0 {
		where = append(where, "m.slug IN ("+placeholders(len(f.MetricSlugs))+")")
		for _, slug := range f.MetricSlugs {
			args = append(args, slug)
		}
	}
	if f.CategorySlug != "" {
		where = append(where, "c.slug = ?")
		args = append(args, f.CategorySlug)
	}

	query := `
		SELECT ` + recordColumnsPD + `,
		       s.code, s.name, m.slug, m.name, m.data_type, m.unit, c.name, c.slug
		FROM policy_data pd
		JOIN states s ON s.id = pd.state_id
		JOIN policy_metrics m ON m.id = pd.metric_id
		JOIN policy_categories c ON c.id = m.category_id
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY s.name, c.name, m.name
	`
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []policy.CurrentValue
	for rows.Next() {
		var cv policy.CurrentValue
		rec, err := scanRecord(rows,
			&cv.StateCode, &cv.StateName, &cv.MetricSlug, &cv.MetricName, &cv.DataType, &cv.Unit, &cv.Category, &cv.CategorySlug)
		if err != nil {
			return nil, err
		}
		cv.Record = rec
		out = append(out, cv)
	}
	return out, rows.Err()
}

func (s *Store) ListCurrentRecords(ctx context.Context) ([]policy.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+recordColumns+` FROM policy_data WHERE end_date IS NULL ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []policy.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
