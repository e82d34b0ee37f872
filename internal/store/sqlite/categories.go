package sqlite

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dvloznov/nett/internal/domain"
	"github.com/dvloznov/nett/internal/store"
)

var _ store.CategoryRepository = (*Repository)(nil)

// CreateCategory stores c after the existing categories.
func (r *Repository) CreateCategory(ctx context.Context, c *domain.Category) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&Category{}).Count(&n).Error; err != nil {
			return err
		}
		return tx.Create(&Category{ID: c.ID, Name: c.Name, Position: int(n)}).Error
	})
	if err != nil {
		return fmt.Errorf("CreateCategory: %w", err)
	}
	c.Subcategories = []domain.Subcategory{}
	return nil
}

// UpdateCategory renames a category.
func (r *Repository) UpdateCategory(ctx context.Context, c domain.Category) error {
	res := r.db.WithContext(ctx).Model(&Category{ID: c.ID}).Update("name", c.Name)
	if res.Error != nil {
		return fmt.Errorf("UpdateCategory: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("UpdateCategory %s: %w", c.ID, store.ErrNotFound)
	}
	return nil
}

// DeleteCategory removes a category and its subcategories.
func (r *Repository) DeleteCategory(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&Category{}).Error; err != nil {
			return err
		}
		if err := unused(tx, "category_id", id); err != nil {
			return err
		}
		if err := tx.Where("category_id = ?", id).Delete(&Subcategory{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Category{}, "id = ?", id).Error
	})
	if err != nil {
		return fmt.Errorf("DeleteCategory %s: %w", id, notFound(err))
	}
	return nil
}

// GetSubcategory returns one subcategory or store.ErrNotFound.
func (r *Repository) GetSubcategory(ctx context.Context, id string) (*domain.Subcategory, error) {
	var row Subcategory
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, fmt.Errorf("GetSubcategory %s: %w", id, notFound(err))
	}
	s := subcategoryToDomain(&row)
	return &s, nil
}

// CreateSubcategory stores s after its category's existing subcategories.
func (r *Repository) CreateSubcategory(ctx context.Context, s *domain.Subcategory) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", s.CategoryID).First(&Category{}).Error; err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&Subcategory{}).Where("category_id = ?", s.CategoryID).Count(&n).Error; err != nil {
			return err
		}
		return tx.Create(&Subcategory{
			ID:          s.ID,
			Name:        s.Name,
			Description: s.Description,
			CategoryID:  s.CategoryID,
			Position:    int(n),
		}).Error
	})
	if err != nil {
		return fmt.Errorf("CreateSubcategory: %w", notFound(err))
	}
	return nil
}

// UpdateSubcategory changes a subcategory's name and description.
func (r *Repository) UpdateSubcategory(ctx context.Context, s domain.Subcategory) error {
	res := r.db.WithContext(ctx).Model(&Subcategory{ID: s.ID}).Updates(map[string]interface{}{
		"name":        s.Name,
		"description": s.Description,
	})
	if res.Error != nil {
		return fmt.Errorf("UpdateSubcategory: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("UpdateSubcategory %s: %w", s.ID, store.ErrNotFound)
	}
	return nil
}

// DeleteSubcategory removes one subcategory.
func (r *Repository) DeleteSubcategory(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&Subcategory{}).Error; err != nil {
			return err
		}
		if err := unused(tx, "subcategory_id", id); err != nil {
			return err
		}
		return tx.Delete(&Subcategory{}, "id = ?", id).Error
	})
	if err != nil {
		return fmt.Errorf("DeleteSubcategory %s: %w", id, notFound(err))
	}
	return nil
}

// unused returns store.ErrInUse when a transaction has id in column.
func unused(tx *gorm.DB, column, id string) error {
	var n int64
	if err := tx.Model(&Transaction{}).Where(column+" = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%d transaction(s): %w", n, store.ErrInUse)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	return err
}
