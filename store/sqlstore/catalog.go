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
// STATES
// =============================================================================

const stateColumns = `id, code, name, region, population, median_household_income, created_at`

func scanState(sc interface{ Scan(...any) error }) (policy.State, error) {
	var (
		st      policy.State
		created string
	)
	err := sc.Scan(&st.ID, &st.Code, &st.Name, &st.Region, &st.Population, &st.MedianHouseholdIncome, &created)
	st.CreatedAt = parseTime(created)
	return st, err
}

func (s *Store) ListStates(ctx context.Context) ([]policy.State, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+stateColumns+` FROM states ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []policy.State
	for rows.Next() {
		st, err := scanState(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) getState(ctx context.Context, where string, arg any) (*policy.State, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+stateColumns+` FROM states WHERE `+where), arg)
	st, err := scanState(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Store) GetState(ctx context.Context, id string) (*policy.State, error) {
	return s.getState(ctx, `id = ?`, id)
}

func (s *Store) GetStateByCode(ctx context.Context, code string) (*policy.State, error) {
	return s.getState(ctx, `code = ?`, strings.ToUpper(code))
}

// SaveState inserts a state or refreshes the reference fields of the
// state with the same code.
func (s *Store) SaveState(ctx context.Context, st policy.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO states (` + stateColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			name = excluded.name,
			region = excluded.region,
			population = excluded.population,
			median_household_income = excluded.median_household_income
	`
	_, err := s.db.ExecContext(ctx, s.rebind(query),
		st.ID, st.Code, st.Name, st.Region, st.Population, st.MedianHouseholdIncome, formatTime(st.CreatedAt),
	)
	return err
}

// =============================================================================
// CATEGORIES
// =============================================================================

const categoryColumns = `id, name, slug, description, sort_order, created_at, updated_at`

func scanCategory(sc interface{ Scan(...any) error }) (policy.Category, error) {
	var (
		c                policy.Category
		created, updated string
	)
	err := sc.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.SortOrder, &created, &updated)
	c.CreatedAt, c.UpdatedAt = parseTime(created), parseTime(updated)
	return c, err
}

func (s *Store) ListCategories(ctx context.Context) ([]policy.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+categoryColumns+` FROM policy_categories ORDER BY sort_order, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []policy.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetCategory looks a category up by id or slug.
func (s *Store) GetCategory(ctx context.Context, identifier string) (*policy.Category, error) {
	row := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT `+categoryColumns+` FROM policy_categories WHERE id = ? OR slug = ?`),
		identifier, identifier,
	)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) SaveCategory(ctx context.Context, c policy.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO policy_categories (` + categoryColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			slug = excluded.slug,
			description = excluded.description,
			sort_order = excluded.sort_order,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, s.rebind(query),
		c.ID, c.Name, c.Slug, c.Description, c.SortOrder, formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
	)
	if isUniqueConstraintError(err) {
		return policy.ErrSlugTaken
	}
	return err
}

func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM policy_categories WHERE id = ?`), id)
	return err
}

// =============================================================================
// METRICS
// =============================================================================

const metricSelect = `
	SELECT m.id, m.category_id, m.name, m.slug, m.description, m.data_type, m.unit,
	       m.allowed_values, m.higher_is_better, m.sort_order, m.created_at, m.updated_at,
	       COALESCE(c.name, ''), COALESCE(c.slug, '')
	FROM policy_metrics m
	LEFT JOIN policy_categories c ON c.id = m.category_id
`

func scanMetric(sc interface{ Scan(...any) error }) (policy.Metric, error) {
	var (
		m                policy.Metric
		allowed          string
		created, updated string
	)
	err := sc.Scan(&m.ID, &m.CategoryID, &m.Name, &m.Slug, &m.Description, &m.DataType, &m.Unit,
		&allowed, &m.HigherIsBetter, &m.SortOrder, &created, &updated,
		&m.CategoryName, &m.CategorySlug)
	if err != nil {
		return m, err
	}
	if allowed != "" {
		if err := json.Unmarshal([]byte(allowed), &m.AllowedValues); err != nil {
			return m, fmt.Errorf("metric %s: bad allowed_values: %w", m.Slug, err)
		}
	}
	m.CreatedAt, m.UpdatedAt = parseTime(created), parseTime(updated)
	return m, nil
}

func (s *Store) listMetrics(ctx context.Context, where string, args ...any) ([]policy.Metric, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(metricSelect+where+` ORDER BY c.sort_order, m.category_id, m.sort_order, m.name`), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []policy.Metric
	for rows.Next() {
		m, err := scanMetric(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) ListMetrics(ctx context.Context) ([]policy.Metric, error) {
	return s.listMetrics(ctx, "")
}

func (s *Store) ListMetricsByCategory(ctx context.Context, categoryID string) ([]policy.Metric, error) {
	return s.listMetrics(ctx, `WHERE m.category_id = ?`, categoryID)
}

// GetMetric looks a metric up by id or slug.
func (s *Store) GetMetric(ctx context.Context, identifier string) (*policy.Metric, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(metricSelect+`WHERE m.id = ? OR m.slug = ?`), identifier, identifier)
	m, err := scanMetric(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) SaveMetric(ctx context.Context, m policy.Metric) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	allowed := m.AllowedValues
	if allowed == nil {
		allowed = []string{}
	}
	allowedJSON, err := json.Marshal(allowed)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO policy_metrics (id, category_id, name, slug, description, data_type, unit,
			allowed_values, higher_is_better, sort_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			category_id = excluded.category_id,
			name = excluded.name,
			slug = excluded.slug,
			description = excluded.description,
			data_type = excluded.data_type,
			unit = excluded.unit,
			allowed_values = excluded.allowed_values,
			higher_is_better = excluded.higher_is_better,
			sort_order = excluded.sort_order,
			updated_at = excluded.updated_at
	`
	_, err = s.db.ExecContext(ctx, s.rebind(query),
		m.ID, m.CategoryID, m.Name, m.Slug, m.Description, string(m.DataType), m.Unit,
		string(allowedJSON), m.HigherIsBetter, m.SortOrder, formatTime(m.CreatedAt), formatTime(m.UpdatedAt),
	)
	if isUniqueConstraintError(err) {
		return policy.ErrSlugTaken
	}
	return err
}

func (s *Store) DeleteMetric(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM policy_metrics WHERE id = ?`), id)
	return err
}

func (s *Store) CountRecordsByMetric(ctx context.Context, metricID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM policy_data WHERE metric_id = ?`), metricID).Scan(&n)
	return n, err
}
