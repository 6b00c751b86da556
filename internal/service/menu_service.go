package service

import (
	"context"
	"io"
	"strings"

	"restaurant-service/internal/models"
	"restaurant-service/internal/util"

	"go.uber.org/zap"
)

// MenuService serves the customer menu and the dashboard menu editor
type MenuService struct {
	repo     Repository
	uploader ImageUploader
	logger   *zap.Logger
}

// NewMenuService creates a new menu service. uploader may be nil when image
// storage is not configured.
func NewMenuService(repo Repository, uploader ImageUploader) *MenuService {
	return &MenuService{
		repo:     repo,
		uploader: uploader,
		logger:   util.GetLogger(),
	}
}

// VisibleItems lists the items customers may order: active items whose
// category is active, optionally narrowed to one category.
func (s *MenuService) VisibleItems(ctx context.Context, categoryID string) ([]models.MenuItem, error) {
	ctx, span := util.StartSpan(ctx, "MenuService.VisibleItems")
	defer span.End()

	items, err := s.repo.ListMenuItems(ctx, categoryID, false)
	if err != nil {
		return nil, fromStore(err, "Failed to fetch menu items")
	}
	return models.FilterVisible(items), nil
}

// ActiveCategories lists categories shown to customers
func (s *MenuService) ActiveCategories(ctx context.Context) ([]models.MenuCategory, error) {
	categories, err := s.repo.ListCategories(ctx, true)
	if err != nil {
		return nil, fromStore(err, "Failed to fetch menu categories")
	}
	return categories, nil
}

// AllCategories lists every category for the dashboard
func (s *MenuService) AllCategories(ctx context.Context) ([]models.MenuCategory, error) {
	categories, err := s.repo.ListCategories(ctx, false)
	if err != nil {
		return nil, fromStore(err, "Failed to fetch menu categories")
	}
	return categories, nil
}

// AllItems lists every menu item for the dashboard, including hidden ones
func (s *MenuService) AllItems(ctx context.Context, categoryID string) ([]models.MenuItem, error) {
	items, err := s.repo.ListMenuItems(ctx, categoryID, false)
	if err != nil {
		return nil, fromStore(err, "Failed to fetch menu items")
	}
	return items, nil
}

// CategoryRequest creates or edits a category
type CategoryRequest struct {
	Name     string `json:"name"`
	IsActive *bool  `json:"is_active"`
}

// CreateCategory creates a category, active unless stated otherwise
func (s *MenuService) CreateCategory(ctx context.Context, req *CategoryRequest) (*models.MenuCategory, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validationError(`Field "name" is required`)
	}

	category := &models.MenuCategory{Name: name, IsActive: true}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, fromStore(err, "Failed to create category")
	}
	return category, nil
}

// UpdateCategory renames a category or toggles its visibility
func (s *MenuService) UpdateCategory(ctx context.Context, id string, req *CategoryRequest) (*models.MenuCategory, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || req.IsActive == nil {
		return nil, validationError(`Fields "name" and "is_active" are required`)
	}

	category := &models.MenuCategory{ID: id, Name: name, IsActive: *req.IsActive}
	if err := s.repo.UpdateCategory(ctx, category); err != nil {
		return nil, fromStore(err, "Category not found")
	}
	return category, nil
}

// DeleteCategory removes a category
func (s *MenuService) DeleteCategory(ctx context.Context, id string) error {
	return fromStore(s.repo.DeleteCategory(ctx, id), "Category not found")
}

// MenuItemRequest creates or edits a menu item
type MenuItemRequest struct {
	CategoryID  *string `json:"category_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       int64   `json:"price"`
	ImageURL    string  `json:"image_url"`
	IsActive    *bool   `json:"is_active"`
}

func (r *MenuItemRequest) toModel(id string) (*models.MenuItem, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" || r.Price <= 0 {
		return nil, validationError(`Fields "name" and "price" are required`)
	}

	item := &models.MenuItem{
		ID:          id,
		CategoryID:  r.CategoryID,
		Name:        name,
		Description: r.Description,
		Price:       r.Price,
		ImageURL:    r.ImageURL,
		IsActive:    true,
	}
	if item.CategoryID != nil && *item.CategoryID == "" {
		item.CategoryID = nil
	}
	if r.IsActive != nil {
		item.IsActive = *r.IsActive
	}
	return item, nil
}

// CreateMenuItem adds a dish to the menu
func (s *MenuService) CreateMenuItem(ctx context.Context, req *MenuItemRequest) (*models.MenuItem, error) {
	item, err := req.toModel("")
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateMenuItem(ctx, item); err != nil {
		return nil, fromStore(err, "Failed to create menu item")
	}
	return item, nil
}

// UpdateMenuItem overwrites a dish's fields
func (s *MenuService) UpdateMenuItem(ctx context.Context, id string, req *MenuItemRequest) (*models.MenuItem, error) {
	item, err := req.toModel(id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateMenuItem(ctx, item); err != nil {
		return nil, fromStore(err, "Menu item not found")
	}
	return s.GetMenuItem(ctx, id)
}

// GetMenuItem retrieves one menu item with its category
func (s *MenuService) GetMenuItem(ctx context.Context, id string) (*models.MenuItem, error) {
	item, err := s.repo.GetMenuItem(ctx, id)
	if err != nil {
		return nil, fromStore(err, "Menu item not found")
	}
	return item, nil
}

// DeleteMenuItem removes a dish
func (s *MenuService) DeleteMenuItem(ctx context.Context, id string) error {
	return fromStore(s.repo.DeleteMenuItem(ctx, id), "Menu item not found")
}

// UploadImage stores an image for a menu item and saves its URL on the item
func (s *MenuService) UploadImage(ctx context.Context, id string, r io.Reader) (*models.MenuItem, error) {
	ctx, span := util.StartSpan(ctx, "MenuService.UploadImage")
	defer span.End()

	if s.uploader == nil {
		return nil, upstream("Image storage is not configured", nil)
	}

	item, err := s.repo.GetMenuItem(ctx, id)
	if err != nil {
		return nil, fromStore(err, "Menu item not found")
	}

	url, err := s.uploader.UploadMenuImage(ctx, id, r)
	if err != nil {
		util.RecordError(span, err)
		return nil, upstream("Failed to upload image", err)
	}

	item.ImageURL = url
	if err := s.repo.UpdateMenuItem(ctx, item); err != nil {
		return nil, fromStore(err, "Failed to save image URL")
	}

	s.logger.Info("Menu image uploaded", zap.String("menu_id", id))
	return item, nil
}
