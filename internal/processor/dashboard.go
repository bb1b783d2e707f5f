package processor

import (
	"context"
	"errors"

	"resume-match-go/internal/constants"
	"resume-match-go/internal/storage"
)

// Dashboard 看板统计，配置了缓存时优先读缓存
func (s *Service) Dashboard(ctx context.Context) (*storage.DashboardStats, error) {
	var cached storage.DashboardStats
	if s.readCache(ctx, constants.KeyDashboardStats, &cached) {
		return &cached, nil
	}

	stats, err := s.db.DashboardStats(ctx)
	if err != nil {
		return nil, err
	}
	s.writeCache(ctx, constants.KeyDashboardStats, stats)
	return stats, nil
}

// QuickStats 首页统计
func (s *Service) QuickStats(ctx context.Context) (*storage.QuickStats, error) {
	var cached storage.QuickStats
	if s.readCache(ctx, constants.KeyQuickStats, &cached) {
		return &cached, nil
	}

	stats, err := s.db.QuickStats(ctx)
	if err != nil {
		return nil, err
	}
	s.writeCache(ctx, constants.KeyQuickStats, stats)
	return stats, nil
}

func (s *Service) readCache(ctx context.Context, key string, dest any) bool {
	if s.cache == nil {
		return false
	}
	err := s.cache.GetJSON(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, storage.ErrCacheMiss) {
		s.logger.Warn().Err(err).Str("key", key).Msg("读取统计缓存失败")
	}
	return false
}

func (s *Service) writeCache(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, key, value, constants.DashboardCacheTTL); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("写入统计缓存失败")
	}
}

// invalidateStats 数据变更后清除统计缓存
func (s *Service) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, constants.KeyDashboardStats, constants.KeyQuickStats); err != nil {
		s.logger.Warn().Err(err).Msg("清除统计缓存失败")
	}
}
