package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/zachtilly/childcare-api/policy"
)

// =============================================================================
// STATE CHILDCARE CONTEXT
// =============================================================================

const contextColumns = `id, state_id, as_of_date,
	total_licensed_capacity, infant_capacity, toddler_capacity, preschool_capacity, school_age_capacity,
	infant_cost_weekly, toddler_cost_weekly, preschool_cost_weekly, school_age_cost_weekly,
	total_workers, lead_teachers, assistant_teachers, aides,
	data_source, notes, created_at, updated_at`

func scanContext(sc interface{ Scan(...any) error }) (policy.StateContext, error) {
	var (
		c                                            policy.StateContext
		total, infant, toddler, preschool, schoolAge sql.NullInt64
		infantCost, toddlerCost, preCost, schoolCost sql.NullFloat64
		workers, leads, assistants, aides            sql.NullInt64
		created, updated                             string
	)
	err := sc.Scan(&c.ID, &c.StateID, &c.AsOfDate,
		&total, &infant, &toddler, &preschool, &schoolAge,
		&infantCost, &toddlerCost, &preCost, &schoolCost,
		&workers, &leads, &assistants, &aides,
		&c.DataSource, &c.Notes, &created, &updated)
	if err != nil {
		return c, err
	}
	c.TotalLicensedCapacity = intPtr(total)
	c.InfantCapacity = intPtr(infant)
	c.ToddlerCapacity = intPtr(toddler)
	c.PreschoolCapacity = intPtr(preschool)
	c.SchoolAgeCapacity = intPtr(schoolAge)
	c.InfantCostWeekly = floatPtr(infantCost)
	c.ToddlerCostWeekly = floatPtr(toddlerCost)
	c.PreschoolCostWeekly = floatPtr(preCost)
	c.SchoolAgeCostWeekly = floatPtr(schoolCost)
	c.TotalWorkers = intPtr(workers)
	c.LeadTeachers = intPtr(leads)
	c.AssistantTeachers = intPtr(assistants)
	c.Aides = intPtr(aides)
	c.CreatedAt, c.UpdatedAt = parseTime(created), parseTime(updated)
	return c, nil
}

func (s *Store) GetStateContext(ctx context.Context, id string) (*policy.StateContext, error) {
	return s.oneContext(ctx, `SELECT `+contextColumns+` FROM state_childcare_context WHERE id = ?`, id)
}

func (s *Store) oneContext(ctx context.Context, query string, args ...any) (*policy.StateContext, error) {
	c, err := scanContext(s.db.QueryRowContext(ctx, s.rebind(query), args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpsertStateContext writes the snapshot, replacing the measurements of an
// existing (state_id, as_of_date) row while keeping its id and created_at.
func (s *Store) UpsertStateContext(ctx context.Context, c policy.StateContext) (*policy.StateContext, error) {
	s.mu.Lock()
	query := `
		INSERT INTO state_childcare_context (` + contextColumns + `)
		VALUES (` + placeholders(20) + `)
		ON CONFLICT(state_id, as_of_date) DO UPDATE SET
			total_licensed_capacity = excluded.total_licensed_capacity,
			infant_capacity = excluded.infant_capacity,
			toddler_capacity = excluded.toddler_capacity,
			preschool_capacity = excluded.preschool_capacity,
			school_age_capacity = excluded.school_age_capacity,
			infant_cost_weekly = excluded.infant_cost_weekly,
			toddler_cost_weekly = excluded.toddler_cost_weekly,
			preschool_cost_weekly = excluded.preschool_cost_weekly,
			school_age_cost_weekly = excluded.school_age_cost_weekly,
			total_workers = excluded.total_workers,
			lead_teachers = excluded.lead_teachers,
			assistant_teachers = excluded.assistant_teachers,
			aides = excluded.aides,
			data_source = excluded.data_source,
			notes = excluded.notes,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, s.rebind(query),
		c.ID, c.StateID, c.AsOfDate,
		nullInt(c.TotalLicensedCapacity), nullInt(c.InfantCapacity), nullInt(c.ToddlerCapacity),
		nullInt(c.PreschoolCapacity), nullInt(c.SchoolAgeCapacity),
		nullFloat(c.InfantCostWeekly), nullFloat(c.ToddlerCostWeekly),
		nullFloat(c.PreschoolCostWeekly), nullFloat(c.SchoolAgeCostWeekly),
		nullInt(c.TotalWorkers), nullInt(c.LeadTeachers), nullInt(c.AssistantTeachers), nullInt(c.Aides),
		c.DataSource, c.Notes, formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
	)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.oneContext(ctx,
		`SELECT `+contextColumns+` FROM state_childcare_context WHERE state_id = ? AND as_of_date = ?`,
		c.StateID, c.AsOfDate)
}

func (s *Store) LatestStateContext(ctx context.Context, stateID string) (*policy.StateContext, error) {
	return s.oneContext(ctx,
		`SELECT `+contextColumns+` FROM state_childcare_context WHERE state_id = ? ORDER BY as_of_date DESC LIMIT 1`,
		stateID)
}

// StateContextHistory returns every snapshot for the state, newest first.
func (s *Store) StateContextHistory(ctx context.Context, stateID string) ([]policy.StateContext, error) {
	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT `+contextColumns+` FROM state_childcare_context WHERE state_id = ? ORDER BY as_of_date DESC`),
		stateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []policy.StateContext
	for rows.Next() {
		c, err := scanContext(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) DeleteStateContext(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM state_childcare_context WHERE id = ?`), id)
	return err
}

// =============================================================================
// NULLABLE COLUMNS
// =============================================================================

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func intPtr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
