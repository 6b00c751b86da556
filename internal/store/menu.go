package store

import (
	"context"
	"time"

	"restaurant-service/internal/models"

	"github.com/jmoiron/sqlx"
)

const categoryColumns = `category_id, name, is_active, created_at`

// ListCategories retrieves menu categories, newest first
func (s *Store) ListCategories(ctx context.Context, activeOnly bool) ([]models.MenuCategory, error) {
	query := "SELECT " + categoryColumns + " FROM restaurant.menu_category"
	if activeOnly {
		query += " WHERE is_active"
	}
	query += " ORDER BY created_at DESC"

	categories := []models.MenuCategory{}
	err := s.q.SelectContext(ctx, &categories, query)
	return categories, translate(err)
}

// CreateCategory creates a menu category
func (s *Store) CreateCategory(ctx context.Context, c *models.MenuCategory) error {
	query := `
		INSERT INTO restaurant.menu_category (name, is_active)
		VALUES ($1, $2)
		RETURNING ` + categoryColumns

	return translate(s.q.GetContext(ctx, c, query, c.Name, c.IsActive))
}

// UpdateCategory renames or toggles a category
func (s *Store) UpdateCategory(ctx context.Context, c *models.MenuCategory) error {
	query := `
		UPDATE restaurant.menu_category SET name = $1, is_active = $2
		WHERE category_id = $3
		RETURNING ` + categoryColumns

	return s.get(ctx, c, query, c.Name, c.IsActive, c.ID)
}

// DeleteCategory removes a category; its items lose their category
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	return s.exec(ctx, "DELETE FROM restaurant.menu_category WHERE category_id = $1", id)
}

// menuItemRow carries the joined category relation as raw JSON until it is
// normalised by models.DecodeCategoryRelation.
type menuItemRow struct {
	ID          string    `db:"menu_id"`
	CategoryID  *string   `db:"category_id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Price       int64     `db:"price"`
	ImageURL    string    `db:"image_url"`
	IsActive    bool      `db:"is_active"`
	CreatedAt   time.Time `db:"created_at"`
	Category    []byte    `db:"menu_category"`
}

func (r menuItemRow) toModel() (models.MenuItem, error) {
	categories, err := models.DecodeCategoryRelation(r.Category)
	if err != nil {
		return models.MenuItem{}, err
	}
	return models.MenuItem{
		ID:          r.ID,
		CategoryID:  r.CategoryID,
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		ImageURL:    r.ImageURL,
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt,
		Categories:  categories,
	}, nil
}

const menuItemSelect = `
	SELECT m.menu_id, m.category_id, m.name, m.description, m.price, m.image_url,
	       m.is_active, m.created_at,
	       CASE WHEN c.category_id IS NULL THEN NULL
	            ELSE json_build_object('category_id', c.category_id, 'name', c.name, 'is_active', c.is_active)
	       END AS menu_category
	FROM restaurant.menu_items m
	LEFT JOIN restaurant.menu_category c ON c.category_id = m.category_id`

// ListMenuItems retrieves menu items with their category relation
func (s *Store) ListMenuItems(ctx context.Context, categoryID string, activeOnly bool) ([]models.MenuItem, error) {
	query := menuItemSelect + " WHERE ($1 = '' OR m.category_id::text = $1)"
	if activeOnly {
		query += " AND m.is_active"
	}
	query += " ORDER BY m.created_at DESC"

	var rows []menuItemRow
	if err := s.q.SelectContext(ctx, &rows, query, categoryID); err != nil {
		return nil, translate(err)
	}
	return rowsToItems(rows)
}

// GetMenuItem retrieves a menu item by ID
func (s *Store) GetMenuItem(ctx context.Context, id string) (*models.MenuItem, error) {
	var row menuItemRow
	if err := s.get(ctx, &row, menuItemSelect+" WHERE m.menu_id = $1", id); err != nil {
		return nil, err
	}
	item, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetMenuItemsByIDs retrieves multiple menu items by IDs
func (s *Store) GetMenuItemsByIDs(ctx context.Context, ids []string) ([]models.MenuItem, error) {
	if len(ids) == 0 {
		return []models.MenuItem{}, nil
	}

	query, args, err := sqlx.In(menuItemSelect+" WHERE m.menu_id::text IN (?)", ids)
	if err != nil {
		return nil, err
	}
	query = s.q.Rebind(query)

	var rows []menuItemRow
	if err := s.q.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, translate(err)
	}
	return rowsToItems(rows)
}

func rowsToItems(rows []menuItemRow) ([]models.MenuItem, error) {
	items := make([]models.MenuItem, 0, len(rows))
	for _, r := range rows {
		item, err := r.toModel()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// CreateMenuItem creates a menu item
func (s *Store) CreateMenuItem(ctx context.Context, m *models.MenuItem) error {
	query := `
		INSERT INTO restaurant.menu_items (category_id, name, description, price, image_url, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING menu_id, created_at`

	return translate(s.q.GetContext(ctx, m, query,
		m.CategoryID, m.Name, m.Description, m.Price, m.ImageURL, m.IsActive))
}

// UpdateMenuItem overwrites the editable fields of a menu item
func (s *Store) UpdateMenuItem(ctx context.Context, m *models.MenuItem) error {
	return s.exec(ctx, `
		UPDATE restaurant.menu_items
		SET category_id = $1, name = $2, description = $3, price = $4, image_url = $5, is_active = $6
		WHERE menu_id = $7`,
		m.CategoryID, m.Name, m.Description, m.Price, m.ImageURL, m.IsActive, m.ID)
}

// DeleteMenuItem removes a menu item
func (s *Store) DeleteMenuItem(ctx context.Context, id string) error {
	return s.exec(ctx, "DELETE FROM restaurant.menu_items WHERE menu_id = $1", id)
}
