package gormstore

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"github.com/gastaldl/lojaflow/internal/storage"
	"github.com/gastaldl/lojaflow/pkg/db/models"
)

func (r repository) CreateCategory(ctx context.Context, category *models.Category) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(category).Error)
}

func (r repository) FindCategory(ctx context.Context, id int64) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &category, nil
}

func (r repository) CategoryNameExists(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("lower(name) = lower(?)", name).
		Count(&count).
		Error
	return count > 0, translate(err)
}

type categoryRow struct {
	ID           int64
	Name         string
	Description  *string
	CreatedAt    time.Time
	ProductCount int64
}

const listCategoriesQuery = `
SELECT c.id, c.name, c.description, c.created_at, COUNT(p.id) AS product_count
FROM categories c
LEFT JOIN products p ON p.category_id = c.id
GROUP BY c.id, c.name, c.description, c.created_at
ORDER BY c.name
`

func (r repository) ListCategories(ctx context.Context) ([]storage.CategorySummary, error) {
	var rows []categoryRow
	if err := r.db.WithContext(ctx).Raw(listCategoriesQuery).Scan(&rows).Error; err != nil {
		return nil, translate(err)
	}
	out := make([]storage.CategorySummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, storage.CategorySummary{
			Category: models.Category{
				ID:          row.ID,
				Name:        row.Name,
				Description: row.Description,
				CreatedAt:   row.CreatedAt,
			},
			ProductCount: row.ProductCount,
		})
	}
	return out, nil
}

func (r repository) DeleteCategory(ctx context.Context, id int64) error {
	return affected(r.db.WithContext(ctx).Delete(&models.Category{}, "id = ?", id))
}

func (r repository) CreateProduct(ctx context.Context, product *models.Product) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error)
}

func (r repository) FindProduct(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Preload("Category").First(&product, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (r repository) ListProducts(ctx context.Context, filter storage.ProductFilter) ([]models.Product, error) {
	q := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Select("products.*").
		Preload("Category").
		Joins("JOIN categories ON categories.id = products.category_id")
	if filter.CategoryID != 0 {
		q = q.Where("products.category_id = ?", filter.CategoryID)
	}
	if filter.ActiveOnly {
		q = q.Where("products.active = ?", true)
	}

	var products []models.Product
	if err := q.Order("categories.name, products.name, products.id").Find(&products).Error; err != nil {
		return nil, translate(err)
	}
	return products, nil
}

// UpdateProduct writes the descriptive columns. Stock only moves through the Tx stock methods.
func (r repository) UpdateProduct(ctx context.Context, product *models.Product) error {
	return affected(r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]any{
			"name":        product.Name,
			"description": product.Description,
			"price":       product.Price,
			"active":      product.Active,
			"category_id": product.CategoryID,
		}))
}

func (r repository) DeleteProduct(ctx context.Context, id int64) error {
	return affected(r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id))
}

func (r repository) ListStockMovements(ctx context.Context, productID int64) ([]models.StockMovement, error) {
	var movements []models.StockMovement
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("id").
		Find(&movements).
		Error
	return movements, translate(err)
}
