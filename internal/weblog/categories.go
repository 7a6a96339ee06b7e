package weblog

import (
	"context"
	"fmt"

	"github.com/UkralStul/weblog-service/internal/domain"
)

func (s *Service) prepareCategory(c *domain.Category) error {
	if c.Slug == "" {
		c.Slug = domain.Slugify(c.Title)
	}
	if err := c.Render(s.render); err != nil {
		return fmt.Errorf("render category: %w", err)
	}
	return domain.Validate(c)
}

func (s *Service) CreateCategory(ctx context.Context, c *domain.Category) (*domain.Category, error) {
	if err := s.prepareCategory(c); err != nil {
		return nil, err
	}
	created, err := s.store.CreateCategory(ctx, c)
	if err != nil {
		return nil, storeError(err)
	}
	return created, nil
}

func (s *Service) UpdateCategory(ctx context.Context, c *domain.Category) (*domain.Category, error) {
	if err := s.prepareCategory(c); err != nil {
		return nil, err
	}
	updated, err := s.store.UpdateCategory(ctx, c)
	if err != nil {
		return nil, storeError(err)
	}
	return updated, nil
}

// DeleteCategory удаляет категорию и убирает ее из всех записей.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	return s.store.DeleteCategory(ctx, id)
}

func (s *Service) Category(ctx context.Context, id string) (*domain.Category, error) {
	return s.store.GetCategoryByID(ctx, id)
}

func (s *Service) CategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	return s.store.GetCategoryBySlug(ctx, slug)
}

func (s *Service) Categories(ctx context.Context) ([]*domain.Category, error) {
	return s.store.ListCategories(ctx)
}
