package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/helixir/paper-discovery-service/internal/domain"
	"github.com/helixir/paper-discovery-service/internal/observability"
	"github.com/helixir/paper-discovery-service/internal/repository"
)

type mockPurger struct {
	mock.Mock
}

func (m *mockPurger) PurgeRecentSearches(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

var fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func TestNew(t *testing.T) {
	t.Run("registers retention job", func(t *testing.T) {
		s, err := New(Config{Retention: time.Hour, Schedule: "@hourly"}, new(mockPurger), nil, zerolog.Nop())
		require.NoError(t, err)
		assert.Len(t, s.cron.Entries(), 1)
		assert.Equal(t, defaultJobTimeout, s.jobTimeout)
	})

	t.Run("zero retention registers nothing", func(t *testing.T) {
		s, err := New(Config{Retention: 0, Schedule: "not a spec"}, new(mockPurger), nil, zerolog.Nop())
		require.NoError(t, err)
		assert.Empty(t, s.cron.Entries())
	})

	t.Run("invalid schedule", func(t *testing.T) {
		_, err := New(Config{Retention: time.Hour, Schedule: "every tuesday"}, new(mockPurger), nil, zerolog.Nop())
		assert.ErrorContains(t, err, "invalid retention schedule")
	})
}

func TestScheduler_PurgeOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("purges before now minus retention", func(t *testing.T) {
		metrics := observability.NewMetrics("test_scheduler_purge")
		purger := new(mockPurger)
		purger.On("PurgeRecentSearches", mock.Anything, fixedNow.Add(-720*time.Hour)).Return(int64(3), nil).Once()

		s, err := New(Config{Retention: 720 * time.Hour, Schedule: "@hourly"}, purger, metrics, zerolog.Nop())
		require.NoError(t, err)
		s.now = func() time.Time { return fixedNow }

		removed, err := s.PurgeOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), removed)
		purger.AssertExpectations(t)
		assert.Equal(t, float64(3), testutil.ToFloat64(metrics.RecentSearchesPurged))
	})

	t.Run("propagates purge errors", func(t *testing.T) {
		purger := new(mockPurger)
		purger.On("PurgeRecentSearches", mock.Anything, mock.Anything).Return(int64(0), errors.New("db down")).Once()

		s, err := New(Config{Retention: time.Hour, Schedule: "@hourly"}, purger, nil, zerolog.Nop())
		require.NoError(t, err)

		_, err = s.PurgeOnce(ctx)
		assert.ErrorContains(t, err, "db down")
	})

	t.Run("disabled retention does not touch the store", func(t *testing.T) {
		purger := new(mockPurger)
		s, err := New(Config{}, purger, nil, zerolog.Nop())
		require.NoError(t, err)

		removed, err := s.PurgeOnce(ctx)
		require.NoError(t, err)
		assert.Zero(t, removed)
		purger.AssertNotCalled(t, "PurgeRecentSearches", mock.Anything, mock.Anything)
	})

	t.Run("against the memory store", func(t *testing.T) {
		clock := fixedNow.Add(-48 * time.Hour)
		store := repository.NewMemoryStore(repository.WithClock(func() time.Time { return clock }))
		_, err := repository.Seed(ctx, store, repository.SeedOptions{})
		require.NoError(t, err)

		_, err = store.RecentSearches.Add(ctx, domain.DefaultUserID, "old", domain.SearchFilter{})
		require.NoError(t, err)
		clock = fixedNow
		_, err = store.RecentSearches.Add(ctx, domain.DefaultUserID, "fresh", domain.SearchFilter{})
		require.NoError(t, err)

		s, err := New(Config{Retention: 24 * time.Hour, Schedule: "@daily"}, store, nil, zerolog.Nop())
		require.NoError(t, err)
		s.now = func() time.Time { return fixedNow }

		removed, err := s.PurgeOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)

		remaining, err := store.RecentSearches.List(ctx, domain.DefaultUserID)
		require.NoError(t, err)
		require.Len(t, remaining, 1)
		assert.Equal(t, "fresh", remaining[0].Query)
	})
}

func TestScheduler_StartStop(t *testing.T) {
	s, err := New(Config{Retention: time.Hour, Schedule: "@hourly"}, new(mockPurger), nil, zerolog.Nop())
	require.NoError(t, err)

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}
