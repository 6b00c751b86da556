package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"restaurant-service/internal/broker"
	"restaurant-service/internal/models"
	"restaurant-service/internal/redisclient"
	"restaurant-service/internal/store"
	"restaurant-service/internal/util"

	"go.uber.org/zap"
)

// SessionService opens customer sessions at tables
type SessionService struct {
	repo      Repository
	locker    Locker
	publisher EventPublisher
	lockTTL   time.Duration
	logger    *zap.Logger
}

// NewSessionService creates a new session service. locker may be nil, in
// which case the store's unique index is the only guard against two
// concurrent sessions on one table.
func NewSessionService(repo Repository, locker Locker, publisher EventPublisher, lockTTL time.Duration) *SessionService {
	return &SessionService{
		repo:      repo,
		locker:    locker,
		publisher: publisher,
		lockTTL:   lockTTL,
		logger:    util.GetLogger(),
	}
}

// StartSessionRequest represents a customer starting to order at a table
type StartSessionRequest struct {
	NameCustomer string `json:"name_customer"`
	TableID      string `json:"table_id"`
}

// StartSession creates an active session for an Available table and marks
// the table Occupied.
func (s *SessionService) StartSession(ctx context.Context, req *StartSessionRequest) (*models.Session, error) {
	ctx, span := util.StartSpan(ctx, "SessionService.StartSession")
	defer span.End()

	req.NameCustomer = strings.TrimSpace(req.NameCustomer)
	if req.NameCustomer == "" || req.TableID == "" {
		return nil, validationError("name_customer and table_id are required")
	}

	if s.locker != nil {
		release, err := s.locker.Lock(ctx, "table:"+req.TableID, s.lockTTL)
		if errors.Is(err, redisclient.ErrLockHeld) {
			util.SessionsRejectedTotal.WithLabelValues("locked").Inc()
			return nil, conflict("Table is being claimed by another session")
		}
		if err != nil {
			return nil, upstream("Failed to lock table", err)
		}
		defer release()
	}

	var session *models.Session
	err := s.repo.WithTx(ctx, func(tx Repository) error {
		table, err := tx.GetTableForUpdate(ctx, req.TableID)
		if err != nil {
			return fromStore(err, "Table not found")
		}
		if table.Status != models.TableStatusAvailable {
			util.SessionsRejectedTotal.WithLabelValues("table_unavailable").Inc()
			return conflict("Table is not available")
		}

		active, err := tx.GetActiveSessionByTable(ctx, table.ID)
		if err != nil {
			return fromStore(err, "Failed to check active session")
		}
		if active != nil {
			util.SessionsRejectedTotal.WithLabelValues("active_session").Inc()
			return conflict("Table already has an active session")
		}

		session = &models.Session{
			TableID:      table.ID,
			NameCustomer: req.NameCustomer,
			Status:       models.SessionStatusActive,
			IsActive:     true,
		}
		if err := tx.CreateSession(ctx, session); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return conflict("Table already has an active session")
			}
			return fromStore(err, "Failed to create session")
		}

		if err := tx.UpdateTableStatus(ctx, table.ID, models.TableStatusOccupied); err != nil {
			return fromStore(err, "Failed to update table status")
		}
		return nil
	})
	if err != nil {
		util.RecordError(span, err)
		return nil, err
	}

	util.SessionsStartedTotal.Inc()
	s.logger.Info("Session started",
		zap.String("session_id", session.ID),
		zap.String("table_id", session.TableID))

	event := &models.SessionStartedEvent{
		BaseEvent:    broker.NewBaseEvent(models.EventTypeSessionStarted),
		SessionID:    session.ID,
		TableID:      session.TableID,
		NameCustomer: session.NameCustomer,
	}
	if err := s.publisher.PublishSessionStarted(ctx, event); err != nil {
		s.logger.Error("Failed to publish SessionStarted event", zap.Error(err))
	}

	return session, nil
}

// GetSession retrieves a session by ID
func (s *SessionService) GetSession(ctx context.Context, id string) (*models.Session, error) {
	if id == "" {
		return nil, validationError("id is required")
	}
	session, err := s.repo.GetSession(ctx, id)
	if err != nil {
		return nil, fromStore(err, "Session not found")
	}
	return session, nil
}
