package testutil

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"restaurant-service/internal/gateway"
	"restaurant-service/internal/models"
	"restaurant-service/internal/redisclient"
)

// FakeGateway records transaction requests and returns a canned token
type FakeGateway struct {
	mu       sync.Mutex
	Requests []gateway.TransactionRequest
	Err      error
}

func (g *FakeGateway) CreateTransaction(ctx context.Context, req gateway.TransactionRequest) (*gateway.Transaction, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.Requests = append(g.Requests, req)
	if g.Err != nil {
		return nil, g.Err
	}
	return &gateway.Transaction{
		Token:       "snap-token-" + req.OrderID,
		RedirectURL: "https://app.sandbox.midtrans.com/snap/v4/redirection/" + req.OrderID,
	}, nil
}

// Calls returns the number of transactions requested so far
func (g *FakeGateway) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Requests)
}

// FakePublisher records published events by type
type FakePublisher struct {
	mu     sync.Mutex
	events map[string][]interface{}
	Err    error
}

func NewFakePublisher() *FakePublisher {
	return &FakePublisher{events: map[string][]interface{}{}}
}

func (p *FakePublisher) record(eventType string, event interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.events[eventType] = append(p.events[eventType], event)
	return nil
}

// Events returns the events published with the given type
func (p *FakePublisher) Events(eventType string) []interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]interface{}(nil), p.events[eventType]...)
}

// Count returns how many events of the given type were published
func (p *FakePublisher) Count(eventType string) int {
	return len(p.Events(eventType))
}

func (p *FakePublisher) PublishSessionStarted(ctx context.Context, e *models.SessionStartedEvent) error {
	return p.record(models.EventTypeSessionStarted, e)
}

func (p *FakePublisher) PublishOrderPlaced(ctx context.Context, e *models.OrderPlacedEvent) error {
	return p.record(models.EventTypeOrderPlaced, e)
}

func (p *FakePublisher) PublishOrderUpdated(ctx context.Context, e *models.OrderUpdatedEvent) error {
	return p.record(models.EventTypeOrderUpdated, e)
}

func (p *FakePublisher) PublishPaymentInitiated(ctx context.Context, e *models.PaymentInitiatedEvent) error {
	return p.record(models.EventTypePaymentInitiated, e)
}

func (p *FakePublisher) PublishPaymentSettled(ctx context.Context, e *models.PaymentSettledEvent) error {
	return p.record(models.EventTypePaymentSettled, e)
}

func (p *FakePublisher) PublishPaymentUpdated(ctx context.Context, e *models.PaymentUpdatedEvent) error {
	return p.record(models.EventTypePaymentUpdated, e)
}

func (p *FakePublisher) PublishTableReleased(ctx context.Context, e *models.TableReleasedEvent) error {
	return p.record(models.EventTypeTableReleased, e)
}

// FakeLocker is an in-process lock table with the same contract as the
// Redis lock: a held key fails fast with redisclient.ErrLockHeld.
type FakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewFakeLocker() *FakeLocker {
	return &FakeLocker{held: map[string]bool{}}
}

func (l *FakeLocker) Lock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held[key] {
		return nil, redisclient.ErrLockHeld
	}
	l.held[key] = true
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
	}, nil
}

// Hold marks key as locked by someone else
func (l *FakeLocker) Hold(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held[key] = true
}

// FakeFeed keeps the notification feed in memory, newest first
type FakeFeed struct {
	mu      sync.Mutex
	entries [][]byte
}

func (f *FakeFeed) PushNotification(ctx context.Context, payload []byte, size int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.entries = append([][]byte{payload}, f.entries...)
	if len(f.entries) > size {
		f.entries = f.entries[:size]
	}
	return nil
}

func (f *FakeFeed) RecentNotifications(ctx context.Context, limit int) ([][]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if limit > len(f.entries) {
		limit = len(f.entries)
	}
	return append([][]byte(nil), f.entries[:limit]...), nil
}

// FakeUploader returns a deterministic URL for every upload
type FakeUploader struct {
	Err error
}

func (u *FakeUploader) UploadMenuImage(ctx context.Context, menuID string, r io.Reader) (string, error) {
	if u.Err != nil {
		return "", u.Err
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	return fmt.Sprintf("https://res.cloudinary.com/demo/image/upload/restaurant/menu/%s.jpg", menuID), nil
}
