package store

import (
	"context"

	"restaurant-service/internal/models"
)

const staffColumns = `staff_id, staff_name, email, role, password, is_active, created_at`

// CreateStaff creates a dashboard user
func (s *Store) CreateStaff(ctx context.Context, staff *models.Staff) error {
	query := `
		INSERT INTO restaurant.staff_profiles (staff_name, email, role, password, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + staffColumns

	return translate(s.q.GetContext(ctx, staff, query,
		staff.Name, staff.Email, staff.Role, staff.PasswordHash, staff.IsActive))
}

// ListStaff retrieves all staff, newest first
func (s *Store) ListStaff(ctx context.Context) ([]models.Staff, error) {
	staff := []models.Staff{}
	err := s.q.SelectContext(ctx, &staff,
		"SELECT "+staffColumns+" FROM restaurant.staff_profiles ORDER BY created_at DESC")
	return staff, translate(err)
}

// GetStaff retrieves a staff member by ID
func (s *Store) GetStaff(ctx context.Context, id string) (*models.Staff, error) {
	var staff models.Staff
	if err := s.get(ctx, &staff,
		"SELECT "+staffColumns+" FROM restaurant.staff_profiles WHERE staff_id = $1", id); err != nil {
		return nil, err
	}
	return &staff, nil
}

// GetStaffByEmail retrieves a staff member by login email
func (s *Store) GetStaffByEmail(ctx context.Context, email string) (*models.Staff, error) {
	var staff models.Staff
	if err := s.get(ctx, &staff,
		"SELECT "+staffColumns+" FROM restaurant.staff_profiles WHERE email = $1", email); err != nil {
		return nil, err
	}
	return &staff, nil
}

// UpdateStaff overwrites profile fields and the password hash
func (s *Store) UpdateStaff(ctx context.Context, staff *models.Staff) error {
	query := `
		UPDATE restaurant.staff_profiles
		SET staff_name = $1, email = $2, role = $3, password = $4, is_active = $5
		WHERE staff_id = $6
		RETURNING ` + staffColumns

	return s.get(ctx, staff, query,
		staff.Name, staff.Email, staff.Role, staff.PasswordHash, staff.IsActive, staff.ID)
}

// SetStaffActive toggles whether a staff member may sign in
func (s *Store) SetStaffActive(ctx context.Context, id string, active bool) error {
	return s.exec(ctx,
		"UPDATE restaurant.staff_profiles SET is_active = $1 WHERE staff_id = $2", active, id)
}

// DeleteStaff removes a staff member
func (s *Store) DeleteStaff(ctx context.Context, id string) error {
	return s.exec(ctx, "DELETE FROM restaurant.staff_profiles WHERE staff_id = $1", id)
}
