package repository

import (
	"context"
	"fmt"

	"github.com/sudanchapagain/event-booking-system/internal/models"

	"gorm.io/gorm"
)

// CategoryRepositoryImpl handles event categories
type CategoryRepositoryImpl struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepositoryImpl {
	return &CategoryRepositoryImpl{db: db}
}

// List returns all categories ordered by name
func (r *CategoryRepositoryImpl) List(ctx context.Context) ([]*models.Category, error) {
	var categories []*models.Category
	if err := r.db.WithContext(ctx).Order("name").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// GetByIDs silently ignores unknown IDs
func (r *CategoryRepositoryImpl) GetByIDs(ctx context.Context, ids []string) ([]models.Category, error) {
	var categories []models.Category
	if len(ids) == 0 {
		return categories, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("name").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	return categories, nil
}

// GetOrCreate finds a category by name, creating it with slug when missing
func (r *CategoryRepositoryImpl) GetOrCreate(ctx context.Context, name, slug string) (*models.Category, error) {
	category := models.Category{}
	err := r.db.WithContext(ctx).
		Where(models.Category{Name: name}).
		Attrs(models.Category{Slug: slug}).
		FirstOrCreate(&category).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get or create category: %w", err)
	}
	return &category, nil
}
