package service

import (
	"context"
	"errors"
	"strings"

	"restaurant-service/internal/auth"
	"restaurant-service/internal/models"
	"restaurant-service/internal/store"
	"restaurant-service/internal/util"

	"go.uber.org/zap"
)

// StaffService manages dashboard accounts and sign-in
type StaffService struct {
	repo   Repository
	tokens *auth.TokenIssuer
	logger *zap.Logger
}

// NewStaffService creates a new staff service
func NewStaffService(repo Repository, tokens *auth.TokenIssuer) *StaffService {
	return &StaffService{
		repo:   repo,
		tokens: tokens,
		logger: util.GetLogger(),
	}
}

// LoginRequest carries dashboard credentials
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is a signed token and the signed-in staff member
type LoginResult struct {
	Token string        `json:"token"`
	Staff *models.Staff `json:"user"`
}

// Login checks credentials and issues an access token
func (s *StaffService) Login(ctx context.Context, req *LoginRequest) (*LoginResult, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		return nil, validationError("Email and password are required")
	}

	staff, err := s.repo.GetStaffByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, newError(KindUnauthorized, "Email not found", nil)
	}
	if err != nil {
		return nil, fromStore(err, "Failed to load staff")
	}
	if !auth.CheckPassword(staff.PasswordHash, req.Password) {
		return nil, newError(KindUnauthorized, "Invalid password", nil)
	}
	if !staff.IsActive {
		return nil, newError(KindForbidden, "Account is disabled", nil)
	}

	token, err := s.tokens.Issue(staff.ID, staff.Name, staff.Email, staff.Role)
	if err != nil {
		return nil, upstream("Failed to issue token", err)
	}

	s.logger.Info("Staff signed in", zap.String("staff_id", staff.ID))
	return &LoginResult{Token: token, Staff: staff}, nil
}

// StaffRequest creates or edits a staff account. An empty password on
// update keeps the current one.
type StaffRequest struct {
	Name     string `json:"staff_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Password string `json:"password"`
	IsActive *bool  `json:"is_active"`
}

// CreateStaff creates an active staff account
func (s *StaffService) CreateStaff(ctx context.Context, req *StaffRequest) (*models.Staff, error) {
	if req.Email == "" || req.Password == "" || req.Name == "" || req.Role == "" {
		return nil, validationError("All fields are required")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, upstream("Failed to hash password", err)
	}

	staff := &models.Staff{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.TrimSpace(strings.ToLower(req.Email)),
		Role:         req.Role,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.repo.CreateStaff(ctx, staff); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, conflict("Email is already registered")
		}
		return nil, fromStore(err, "Failed to create staff")
	}
	return staff, nil
}

// ListStaff lists all staff accounts
func (s *StaffService) ListStaff(ctx context.Context) ([]models.Staff, error) {
	staff, err := s.repo.ListStaff(ctx)
	if err != nil {
		return nil, fromStore(err, "Failed to fetch staff")
	}
	return staff, nil
}

// UpdateStaff edits a staff account
func (s *StaffService) UpdateStaff(ctx context.Context, id string, req *StaffRequest) (*models.Staff, error) {
	if req.Name == "" || req.Email == "" || req.Role == "" {
		return nil, validationError("staff_name, email and role are required")
	}

	var staff *models.Staff
	err := s.repo.WithTx(ctx, func(tx Repository) error {
		var err error
		staff, err = tx.GetStaff(ctx, id)
		if err != nil {
			return fromStore(err, "Staff not found")
		}

		staff.Name = strings.TrimSpace(req.Name)
		staff.Email = strings.TrimSpace(strings.ToLower(req.Email))
		staff.Role = req.Role
		if req.IsActive != nil {
			staff.IsActive = *req.IsActive
		}
		if strings.TrimSpace(req.Password) != "" {
			hash, err := auth.HashPassword(req.Password)
			if err != nil {
				return upstream("Failed to hash password", err)
			}
			staff.PasswordHash = hash
		}
		return fromStore(tx.UpdateStaff(ctx, staff), "Failed to update staff")
	})
	if err != nil {
		return nil, err
	}
	return staff, nil
}

// SetActive enables or disables a staff account
func (s *StaffService) SetActive(ctx context.Context, id string, active bool) error {
	return fromStore(s.repo.SetStaffActive(ctx, id, active), "Staff not found")
}

// DeleteStaff removes a staff account
func (s *StaffService) DeleteStaff(ctx context.Context, id string) error {
	if id == "" {
		return validationError("Missing staff id")
	}
	return fromStore(s.repo.DeleteStaff(ctx, id), "Staff not found")
}
