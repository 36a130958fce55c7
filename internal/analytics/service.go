// Package analytics tracks product view counts in Redis sorted sets.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const viewsKey = "analytics:product_views"

// ProductViews is one product's view count.
type ProductViews struct {
	ProductID uuid.UUID `json:"productId"`
	Views     int64     `json:"views"`
}

// Service accumulates and ranks product views. A nil client disables tracking.
type Service struct {
	R   *redis.Client
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func dailyKey(day time.Time) string {
	return fmt.Sprintf("%s:%s", viewsKey, day.Format("2006-01-02"))
}

// RecordView bumps the product's all-time and daily counters. The daily key
// expires after 30 days.
func (s *Service) RecordView(ctx context.Context, productID uuid.UUID) {
	if s == nil || s.R == nil {
		return
	}
	member := productID.String()
	day := dailyKey(s.now().UTC())
	pipe := s.R.Pipeline()
	pipe.ZIncrBy(ctx, viewsKey, 1, member)
	pipe.ZIncrBy(ctx, day, 1, member)
	pipe.Expire(ctx, day, 30*24*time.Hour)
	_, _ = pipe.Exec(ctx)
}

// TopViewed returns the most viewed products of all time, highest first.
func (s *Service) TopViewed(ctx context.Context, limit int) ([]ProductViews, error) {
	if s == nil || s.R == nil {
		return []ProductViews{}, nil
	}
	if limit <= 0 {
		limit = 10
	}
	return s.topOf(ctx, viewsKey, limit)
}

// TopViewedOn returns the most viewed products for one day.
func (s *Service) TopViewedOn(ctx context.Context, day time.Time, limit int) ([]ProductViews, error) {
	if s == nil || s.R == nil {
		return []ProductViews{}, nil
	}
	if limit <= 0 {
		limit = 10
	}
	return s.topOf(ctx, dailyKey(day.UTC()), limit)
}

func (s *Service) topOf(ctx context.Context, key string, limit int) ([]ProductViews, error) {
	members, err := s.R.ZRevRangeWithScores(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("rank product views: %w", err)
	}
	out := make([]ProductViews, 0, len(members))
	for _, m := range members {
		raw, ok := m.Member.(string)
		if !ok {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		out = append(out, ProductViews{ProductID: id, Views: int64(m.Score)})
	}
	return out, nil
}
