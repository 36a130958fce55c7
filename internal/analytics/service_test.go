package analytics

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newAnalytics(t *testing.T) *Service {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return &Service{
		R:   client,
		Now: func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func TestRecordAndRankViews(t *testing.T) {
	svc := newAnalytics(t)
	ctx := context.Background()
	hot := uuid.New()
	cold := uuid.New()

	for i := 0; i < 3; i++ {
		svc.RecordView(ctx, hot)
	}
	svc.RecordView(ctx, cold)

	ranked, err := svc.TopViewed(ctx, 10)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	require.Equal(t, hot, ranked[0].ProductID)
	require.EqualValues(t, 3, ranked[0].Views)
	require.Equal(t, cold, ranked[1].ProductID)
}

func TestTopViewedOnScopesToDay(t *testing.T) {
	svc := newAnalytics(t)
	ctx := context.Background()
	p := uuid.New()
	svc.RecordView(ctx, p)

	ranked, err := svc.TopViewedOn(ctx, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), 10)
	require.NoError(t, err)
	require.Len(t, ranked, 1)

	ranked, err = svc.TopViewedOn(ctx, time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC), 10)
	require.NoError(t, err)
	require.Empty(t, ranked)
}

func TestNilClientDisablesTracking(t *testing.T) {
	var svc *Service
	svc.RecordView(context.Background(), uuid.New())

	ranked, err := svc.TopViewed(context.Background(), 10)
	require.NoError(t, err)
	require.Empty(t, ranked)
}
