package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"restaurant-service/internal/models"
	"restaurant-service/internal/service"
	"restaurant-service/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionService(repo *testutil.MemoryRepo, locker service.Locker) (*service.SessionService, *testutil.FakePublisher) {
	pub := testutil.NewFakePublisher()
	return service.NewSessionService(repo, locker, pub, 5*time.Second), pub
}

func TestStartSession(t *testing.T) {
	repo := testutil.NewMemoryRepo()
	svc, pub := newSessionService(repo, testutil.NewFakeLocker())
	ctx := context.Background()
	table := testutil.SeedTable(t, repo, "T1", models.TableStatusAvailable)

	sess, err := svc.StartSession(ctx, &service.StartSessionRequest{NameCustomer: "  Alice ", TableID: table.ID})
	require.NoError(t, err)

	assert.Equal(t, "Alice", sess.NameCustomer)
	assert.Equal(t, models.SessionStatusActive, sess.Status)
	assert.True(t, sess.IsActive)

	got, err := repo.GetTable(ctx, table.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusOccupied, got.Status)
	assert.Equal(t, 1, pub.Count(models.EventTypeSessionStarted))

	fetched, err := svc.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, fetched.ID)
}

func TestStartSessionRejected(t *testing.T) {
	ctx := context.Background()

	t.Run("missing fields", func(t *testing.T) {
		repo := testutil.NewMemoryRepo()
		svc, _ := newSessionService(repo, nil)

		_, err := svc.StartSession(ctx, &service.StartSessionRequest{TableID: uuid.NewString()})
		assert.Equal(t, service.KindValidation, service.KindOf(err))
	})

	t.Run("unknown table", func(t *testing.T) {
		repo := testutil.NewMemoryRepo()
		svc, _ := newSessionService(repo, nil)

		_, err := svc.StartSession(ctx, &service.StartSessionRequest{NameCustomer: "Bob", TableID: uuid.NewString()})
		assert.Equal(t, service.KindNotFound, service.KindOf(err))
	})

	for _, status := range []string{models.TableStatusOccupied, models.TableStatusReserved, models.TableStatusCleaning} {
		t.Run("table "+status, func(t *testing.T) {
			repo := testutil.NewMemoryRepo()
			svc, pub := newSessionService(repo, nil)
			table := testutil.SeedTable(t, repo, "T9", status)

			_, err := svc.StartSession(ctx, &service.StartSessionRequest{NameCustomer: "Bob", TableID: table.ID})
			assert.Equal(t, service.KindConflict, service.KindOf(err))

			got, err := repo.GetTable(ctx, table.ID)
			require.NoError(t, err)
			assert.Equal(t, status, got.Status)
			assert.Zero(t, pub.Count(models.EventTypeSessionStarted))
		})
	}

	t.Run("active session on available table", func(t *testing.T) {
		repo := testutil.NewMemoryRepo()
		svc, _ := newSessionService(repo, nil)
		table := testutil.SeedTable(t, repo, "T2", models.TableStatusAvailable)
		require.NoError(t, repo.CreateSession(ctx, &models.Session{
			TableID: table.ID, NameCustomer: "Carol", Status: models.SessionStatusActive, IsActive: true,
		}))

		_, err := svc.StartSession(ctx, &service.StartSessionRequest{NameCustomer: "Bob", TableID: table.ID})
		assert.Equal(t, service.KindConflict, service.KindOf(err))

		got, err := repo.GetTable(ctx, table.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TableStatusAvailable, got.Status)
	})

	t.Run("table locked", func(t *testing.T) {
		repo := testutil.NewMemoryRepo()
		locker := testutil.NewFakeLocker()
		svc, _ := newSessionService(repo, locker)
		table := testutil.SeedTable(t, repo, "T3", models.TableStatusAvailable)
		locker.Hold("table:" + table.ID)

		_, err := svc.StartSession(ctx, &service.StartSessionRequest{NameCustomer: "Bob", TableID: table.ID})
		assert.Equal(t, service.KindConflict, service.KindOf(err))
	})
}

func TestStartSessionConcurrent(t *testing.T) {
	repo := testutil.NewMemoryRepo()
	svc, _ := newSessionService(repo, testutil.NewFakeLocker())
	table := testutil.SeedTable(t, repo, "T1", models.TableStatusAvailable)

	const attempts = 10
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.StartSession(context.Background(), &service.StartSessionRequest{
				NameCustomer: "Guest", TableID: table.ID,
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, service.KindConflict, service.KindOf(err))
	}
	assert.Equal(t, 1, succeeded)
}
