/*
catalog.go - Category and metric writes

RULES:
  Category  name, slug, description required; slug matches ^[a-z0-9-]+$
            and is unique across categories.
  Metric    name, slug, category_id, data_type, description required;
            data_type in the closed set; slug format and uniqueness as
            above; category must exist; enum metrics need allowed_values.

DELETE GUARDS:
  A category with metrics, or a metric with policy data, cannot be
  deleted. The refusal is a *DependentsError naming the count (and for
  categories the blocking metric names).
*/
package policy

import (
	"context"
	"fmt"
	"strings"
)

// =============================================================================
// CATEGORIES
// =============================================================================

func validateCategory(c Category) []string {
	var errs []string
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, "name is required")
	}
	if c.Slug == "" {
		errs = append(errs, "slug is required")
	} else if !ValidSlug(c.Slug) {
		errs = append(errs, "slug must be lowercase alphanumeric with hyphens only")
	}
	if strings.TrimSpace(c.Description) == "" {
		errs = append(errs, "description is required")
	}
	return errs
}

func (s *Service) categorySlugTaken(ctx context.Context, slug, selfID string) (bool, error) {
	if slug == "" {
		return false, nil
	}
	other, err := s.store.GetCategory(ctx, slug)
	if err != nil {
		return false, err
	}
	return other != nil && other.Slug == slug && other.ID != selfID, nil
}

func (s *Service) CreateCategory(ctx context.Context, c Category) (*Category, error) {
	errs := validateCategory(c)
	taken, err := s.categorySlugTaken(ctx, c.Slug, "")
	if err != nil {
		return nil, err
	}
	if taken {
		errs = append(errs, "slug must be unique")
	}
	if err := newValidationError(errs); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	c.ID = newID()
	c.CreatedAt, c.UpdatedAt = now, now
	if err := s.store.SaveCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	s.log.Info("category created", "slug", c.Slug)
	return &c, nil
}

func (s *Service) UpdateCategory(ctx context.Context, identifier string, p CategoryPatch) (*Category, error) {
	existing, err := s.store.GetCategory(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrCategoryNotFound
	}

	merged, errs := p.Apply(*existing)
	errs = append(errs, validateCategory(merged)...)
	taken, err := s.categorySlugTaken(ctx, merged.Slug, existing.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		errs = append(errs, "slug must be unique")
	}
	if err := newValidationError(errs); err != nil {
		return nil, err
	}

	merged.UpdatedAt = s.now().UTC()
	if err := s.store.SaveCategory(ctx, merged); err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return &merged, nil
}

// DeleteCategory removes the category identified by id or slug and returns
// it.
func (s *Service) DeleteCategory(ctx context.Context, identifier string) (*Category, error) {
	c, err := s.store.GetCategory(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCategoryNotFound
	}

	metrics, err := s.store.ListMetricsByCategory(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if len(metrics) > 0 {
		names := make([]string, len(metrics))
		for i, m := range metrics {
			names[i] = m.Name
		}
		return nil, &DependentsError{Kind: "category", Count: len(metrics), Names: names}
	}

	if err := s.store.DeleteCategory(ctx, c.ID); err != nil {
		return nil, fmt.Errorf("failed to delete category: %w", err)
	}
	s.log.Info("category deleted", "slug", c.Slug)
	return c, nil
}

// =============================================================================
// METRICS
// =============================================================================

func validateMetric(m Metric) []string {
	var errs []string
	if strings.TrimSpace(m.Name) == "" {
		errs = append(errs, "name is required")
	}
	if m.Slug == "" {
		errs = append(errs, "slug is required")
	} else if !ValidSlug(m.Slug) {
		errs = append(errs, "slug must be lowercase alphanumeric with hyphens only")
	}
	if m.CategoryID == "" {
		errs = append(errs, "category_id is required")
	}
	if m.DataType == "" {
		errs = append(errs, "data_type is required")
	} else if !m.DataType.Valid() {
		names := make([]string, len(DataTypes))
		for i, d := range DataTypes {
			names[i] = string(d)
		}
		errs = append(errs, "data_type must be one of: "+strings.Join(names, ", "))
	}
	if strings.TrimSpace(m.Description) == "" {
		errs = append(errs, "description is required")
	}
	if m.DataType == DataEnum && len(m.AllowedValues) == 0 {
		errs = append(errs, "allowed_values is required and must be a non-empty array for enum data type")
	}
	return errs
}

// checkMetricRefs resolves the category (accepting an id or slug, storing
// the id) and checks slug uniqueness.
func (s *Service) checkMetricRefs(ctx context.Context, m *Metric, selfID string) ([]string, error) {
	var errs []string
	if m.Slug != "" {
		other, err := s.store.GetMetric(ctx, m.Slug)
		if err != nil {
			return nil, err
		}
		if other != nil && other.Slug == m.Slug && other.ID != selfID {
			errs = append(errs, "slug must be unique")
		}
	}
	if m.CategoryID != "" {
		c, err := s.store.GetCategory(ctx, m.CategoryID)
		if err != nil {
			return nil, err
		}
		if c == nil {
			errs = append(errs, "Invalid category_id")
		} else {
			m.CategoryID = c.ID
		}
	}
	return errs, nil
}

func (s *Service) CreateMetric(ctx context.Context, m Metric) (*Metric, error) {
	errs := validateMetric(m)
	refErrs, err := s.checkMetricRefs(ctx, &m, "")
	if err != nil {
		return nil, err
	}
	if err := newValidationError(append(errs, refErrs...)); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	m.ID = newID()
	m.CreatedAt, m.UpdatedAt = now, now
	if err := s.store.SaveMetric(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to create metric: %w", err)
	}
	s.log.Info("metric created", "slug", m.Slug, "data_type", m.DataType)
	return &m, nil
}

func (s *Service) UpdateMetric(ctx context.Context, identifier string, p MetricPatch) (*Metric, error) {
	existing, err := s.store.GetMetric(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrMetricNotFound
	}

	merged, errs := p.Apply(*existing)
	errs = append(errs, validateMetric(merged)...)
	refErrs, err := s.checkMetricRefs(ctx, &merged, existing.ID)
	if err != nil {
		return nil, err
	}
	if err := newValidationError(append(errs, refErrs...)); err != nil {
		return nil, err
	}

	merged.UpdatedAt = s.now().UTC()
	if err := s.store.SaveMetric(ctx, merged); err != nil {
		return nil, fmt.Errorf("failed to update metric: %w", err)
	}
	return &merged, nil
}

func (s *Service) DeleteMetric(ctx context.Context, identifier string) (*Metric, error) {
	m, err := s.store.GetMetric(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrMetricNotFound
	}

	n, err := s.store.CountRecordsByMetric(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, &DependentsError{Kind: "metric", Count: n}
	}

	if err := s.store.DeleteMetric(ctx, m.ID); err != nil {
		return nil, fmt.Errorf("failed to delete metric: %w", err)
	}
	s.log.Info("metric deleted", "slug", m.Slug)
	return m, nil
}
