package testutil

import (
	"context"
	"testing"

	"restaurant-service/internal/models"

	"github.com/stretchr/testify/require"
)

// SeedTable creates a table with the given number and status
func SeedTable(t *testing.T, repo *MemoryRepo, number, status string) *models.Table {
	t.Helper()
	table := &models.Table{TableNumber: number, Status: status}
	require.NoError(t, repo.CreateTable(context.Background(), table))
	return table
}

// SeedCategory creates a menu category
func SeedCategory(t *testing.T, repo *MemoryRepo, name string, active bool) *models.MenuCategory {
	t.Helper()
	c := &models.MenuCategory{Name: name, IsActive: active}
	require.NoError(t, repo.CreateCategory(context.Background(), c))
	return c
}

// SeedMenuItem creates a menu item, in category when it is non-nil
func SeedMenuItem(t *testing.T, repo *MemoryRepo, category *models.MenuCategory, name string, price int64, active bool) *models.MenuItem {
	t.Helper()
	item := &models.MenuItem{Name: name, Price: price, IsActive: active}
	if category != nil {
		item.CategoryID = &category.ID
	}
	require.NoError(t, repo.CreateMenuItem(context.Background(), item))
	return item
}

// SeedSession creates an active session and marks its table Occupied
func SeedSession(t *testing.T, repo *MemoryRepo, table *models.Table, name string) *models.Session {
	t.Helper()
	ctx := context.Background()
	sess := &models.Session{TableID: table.ID, NameCustomer: name, Status: models.SessionStatusActive, IsActive: true}
	require.NoError(t, repo.CreateSession(ctx, sess))
	require.NoError(t, repo.UpdateTableStatus(ctx, table.ID, models.TableStatusOccupied))
	return sess
}

// SeedStaff creates a staff member with an already hashed password
func SeedStaff(t *testing.T, repo *MemoryRepo, name, email, hash string, active bool) *models.Staff {
	t.Helper()
	s := &models.Staff{Name: name, Email: email, Role: "admin", PasswordHash: hash, IsActive: active}
	require.NoError(t, repo.CreateStaff(context.Background(), s))
	return s
}
