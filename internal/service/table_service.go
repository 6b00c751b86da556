package service

import (
	"context"
	"strings"

	"restaurant-service/internal/models"
	"restaurant-service/internal/qr"
)

// TableService manages restaurant tables and their QR codes
type TableService struct {
	repo          Repository
	publicBaseURL string
}

// NewTableService creates a new table service
func NewTableService(repo Repository, publicBaseURL string) *TableService {
	return &TableService{repo: repo, publicBaseURL: publicBaseURL}
}

// ListTables lists tables, optionally only those with the given status
func (s *TableService) ListTables(ctx context.Context, status string) ([]models.Table, error) {
	if status != "" && !models.ValidTableStatus(status) {
		return nil, validationError("invalid table status")
	}
	tables, err := s.repo.ListTables(ctx, status)
	if err != nil {
		return nil, fromStore(err, "Failed to fetch restaurant tables")
	}
	return tables, nil
}

// GetTable retrieves a table by ID
func (s *TableService) GetTable(ctx context.Context, id string) (*models.Table, error) {
	if id == "" {
		return nil, validationError("table_id is required")
	}
	table, err := s.repo.GetTable(ctx, id)
	if err != nil {
		return nil, fromStore(err, "Table not found")
	}
	return table, nil
}

// CreateTableRequest registers a table
type CreateTableRequest struct {
	TableNumber string `json:"table_number"`
	Status      string `json:"status"`
}

// CreateTable registers a table, Available unless a status is given
func (s *TableService) CreateTable(ctx context.Context, req *CreateTableRequest) (*models.Table, error) {
	number := strings.TrimSpace(req.TableNumber)
	if number == "" {
		return nil, validationError(`Field "table_number" is required`)
	}
	status := req.Status
	if status == "" {
		status = models.TableStatusAvailable
	}
	if !models.ValidTableStatus(status) {
		return nil, validationError("invalid table status")
	}

	table := &models.Table{TableNumber: number, Status: status}
	if err := s.repo.CreateTable(ctx, table); err != nil {
		return nil, fromStore(err, "Table number already exists")
	}
	return table, nil
}

// SetStatus changes a table's status, e.g. after cleaning
func (s *TableService) SetStatus(ctx context.Context, id, status string) (*models.Table, error) {
	if !models.ValidTableStatus(status) {
		return nil, validationError("invalid table status")
	}
	if err := s.repo.UpdateTableStatus(ctx, id, status); err != nil {
		return nil, fromStore(err, "Table not found")
	}
	table, err := s.repo.GetTable(ctx, id)
	if err != nil {
		return nil, fromStore(err, "Table not found")
	}
	return table, nil
}

// QRCode renders the PNG customers scan to open a session at the table
func (s *TableService) QRCode(ctx context.Context, id string, size int) ([]byte, error) {
	table, err := s.repo.GetTable(ctx, id)
	if err != nil {
		return nil, fromStore(err, "Table not found")
	}
	png, err := qr.TablePNG(s.publicBaseURL, table.ID, size)
	if err != nil {
		return nil, upstream("Failed to render QR code", err)
	}
	return png, nil
}
