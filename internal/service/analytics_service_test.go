package service

import (
	"context"
	"testing"

	"github.com/MKris124/poultry-manager/internal/analytics"
	"github.com/MKris124/poultry-manager/internal/domain"
	"github.com/MKris124/poultry-manager/internal/repository"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAnalyticsService_StatsAndLeaderboard(t *testing.T) {
	ctx := context.Background()
	s := repository.NewMemoryStore()
	acme := seedPartnerWithLocation(t, s, 7, "Acme", "Szeged")
	beta := seedPartnerWithLocation(t, s, 8, "Beta", "Pécs")
	seedPartnerWithLocation(t, s, 9, "Idle", "Győr")

	require.NoError(t, s.SaveShipments(ctx, []*domain.Shipment{
		{LocationID: acme.ID, DeliveryCode: "001/24", LiverWeight: domain.Float(0.8), KosherPercent: domain.Float(60)},
		{LocationID: acme.ID, DeliveryCode: "002/24", LiverWeight: domain.Float(0.6)},
		{LocationID: beta.ID, DeliveryCode: "001/24", KosherPercent: domain.Float(50), MortalityRate: domain.Float(2)},
	}))

	svc := NewAnalyticsService(s, nil, zap.NewNop())

	overview, err := svc.Overview(ctx)
	require.NoError(t, err)
	require.Len(t, overview, 2)
	require.InDelta(t, 0.7, overview[7].AvgLiverWeight, 1e-9)
	require.InDelta(t, 60, overview[7].AvgKosherPercent, 1e-9)

	stats, err := svc.PartnerStats(ctx, 8)
	require.NoError(t, err)
	require.InDelta(t, 2, stats.AvgMortalityRate, 1e-9)

	stats, err = svc.LocationStats(ctx, acme.ID)
	require.NoError(t, err)
	require.InDelta(t, 0.7, stats.AvgLiverWeight, 1e-9)

	stats, err = svc.PartnerStats(ctx, 9)
	require.NoError(t, err)
	require.False(t, stats.HasData())

	board, err := svc.Leaderboard(ctx)
	require.NoError(t, err)
	require.Len(t, board, 2)
	for _, e := range board {
		require.Equal(t, analytics.KindPartner, e.Kind)
	}
}
