package service

import (
	"context"

	"github.com/MKris124/poultry-manager/internal/analytics"
	"github.com/MKris124/poultry-manager/internal/metrics"
	"github.com/MKris124/poultry-manager/internal/repository"

	"go.uber.org/zap"
)

// AnalyticsService 每次调用都从存储重新计算，不缓存
type AnalyticsService struct {
	store   repository.Store
	metrics *metrics.ImportMetrics
	logger  *zap.Logger
}

func NewAnalyticsService(store repository.Store, m *metrics.ImportMetrics, logger *zap.Logger) *AnalyticsService {
	return &AnalyticsService{store: store, metrics: m, logger: logger}
}

// Overview partnerID -> 统计（只含有发货记录的合作方）
func (s *AnalyticsService) Overview(ctx context.Context) (map[int64]analytics.PartnerStats, error) {
	shipments, err := s.store.ListShipments(ctx, repository.ShipmentFilter{})
	if err != nil {
		return nil, err
	}
	return analytics.Overview(shipments), nil
}

func (s *AnalyticsService) PartnerStats(ctx context.Context, partnerID int64) (analytics.PartnerStats, error) {
	return s.stats(ctx, repository.ShipmentFilter{PartnerIDs: []int64{partnerID}})
}

func (s *AnalyticsService) LocationStats(ctx context.Context, locationID int64) (analytics.PartnerStats, error) {
	return s.stats(ctx, repository.ShipmentFilter{LocationID: &locationID})
}

func (s *AnalyticsService) GrowerStats(ctx context.Context, growerID int64) (analytics.PartnerStats, error) {
	return s.stats(ctx, repository.ShipmentFilter{GrowerID: &growerID})
}

func (s *AnalyticsService) stats(ctx context.Context, filter repository.ShipmentFilter) (analytics.PartnerStats, error) {
	shipments, err := s.store.ListShipments(ctx, filter)
	if err != nil {
		return analytics.PartnerStats{}, err
	}
	return analytics.CalculateStats(shipments), nil
}

// Leaderboard 分组在前，其后为未分组的合作方
func (s *AnalyticsService) Leaderboard(ctx context.Context) ([]analytics.LeaderboardEntry, error) {
	partners, err := s.store.ListPartners(ctx)
	if err != nil {
		return nil, err
	}
	groups, err := s.store.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	shipments, err := s.store.ListShipments(ctx, repository.ShipmentFilter{})
	if err != nil {
		return nil, err
	}

	board := analytics.BuildLeaderboard(partners, groups, shipments)
	s.metrics.ObserveLeaderboard()
	s.logger.Debug("Leaderboard built", zap.Int("entries", len(board)), zap.Int("shipments", len(shipments)))
	return board, nil
}
