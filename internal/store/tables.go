package store

import (
	"context"

	"restaurant-service/internal/models"
)

const tableColumns = `table_id, table_number, status, created_at`

// CreateTable registers a new table
func (s *Store) CreateTable(ctx context.Context, t *models.Table) error {
	query := `
		INSERT INTO restaurant.table_restaurant (table_number, status)
		VALUES ($1, $2)
		RETURNING ` + tableColumns

	return translate(s.q.GetContext(ctx, t, query, t.TableNumber, t.Status))
}

// GetTable retrieves a table by ID
func (s *Store) GetTable(ctx context.Context, id string) (*models.Table, error) {
	var t models.Table
	err := s.get(ctx, &t,
		"SELECT "+tableColumns+" FROM restaurant.table_restaurant WHERE table_id = $1", id)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTableForUpdate retrieves a table and locks its row until the transaction ends
func (s *Store) GetTableForUpdate(ctx context.Context, id string) (*models.Table, error) {
	var t models.Table
	err := s.get(ctx, &t,
		"SELECT "+tableColumns+" FROM restaurant.table_restaurant WHERE table_id = $1 FOR UPDATE", id)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTables retrieves tables, optionally filtered by status
func (s *Store) ListTables(ctx context.Context, status string) ([]models.Table, error) {
	tables := []models.Table{}
	var err error
	if status != "" {
		err = s.q.SelectContext(ctx, &tables,
			"SELECT "+tableColumns+" FROM restaurant.table_restaurant WHERE status = $1 ORDER BY created_at DESC", status)
	} else {
		err = s.q.SelectContext(ctx, &tables,
			"SELECT "+tableColumns+" FROM restaurant.table_restaurant ORDER BY created_at DESC")
	}
	return tables, translate(err)
}

// UpdateTableStatus updates table status
func (s *Store) UpdateTableStatus(ctx context.Context, id, status string) error {
	return s.exec(ctx,
		"UPDATE restaurant.table_restaurant SET status = $1 WHERE table_id = $2", status, id)
}

const sessionColumns = `session_id, table_id, name_customer, status, is_active, created_at`

// CreateSession opens a session at a table
func (s *Store) CreateSession(ctx context.Context, sess *models.Session) error {
	query := `
		INSERT INTO restaurant.table_session (table_id, name_customer, status, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + sessionColumns

	return translate(s.q.GetContext(ctx, sess, query,
		sess.TableID, sess.NameCustomer, sess.Status, sess.IsActive))
}

// GetSession retrieves a session by ID
func (s *Store) GetSession(ctx context.Context, id string) (*models.Session, error) {
	var sess models.Session
	err := s.get(ctx, &sess,
		"SELECT "+sessionColumns+" FROM restaurant.table_session WHERE session_id = $1", id)
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// GetActiveSessionByTable returns the active session of a table, or nil if none
func (s *Store) GetActiveSessionByTable(ctx context.Context, tableID string) (*models.Session, error) {
	var sess models.Session
	err := s.get(ctx, &sess,
		"SELECT "+sessionColumns+" FROM restaurant.table_session WHERE table_id = $1 AND is_active LIMIT 1", tableID)
	if err == ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// CloseSession deactivates a session
func (s *Store) CloseSession(ctx context.Context, id string) error {
	return s.exec(ctx,
		"UPDATE restaurant.table_session SET is_active = FALSE, status = $1 WHERE session_id = $2",
		models.SessionStatusClosed, id)
}
