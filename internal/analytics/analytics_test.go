package analytics

import (
	"math"
	"testing"

	"github.com/MKris124/poultry-manager/internal/domain"

	"github.com/stretchr/testify/require"
)

func shipmentFor(partnerID int64, liver, kosher, mortality *float64) domain.Shipment {
	return domain.Shipment{
		Location:      &domain.PartnerLocation{PartnerID: partnerID},
		LiverWeight:   liver,
		KosherPercent: kosher,
		MortalityRate: mortality,
	}
}

func TestCalculateStats_SparseAverages(t *testing.T) {
	stats := CalculateStats([]domain.Shipment{
		{LiverWeight: domain.Float(0.4), KosherPercent: domain.Float(97)},
		{LiverWeight: domain.Float(0.5)},
		{FatteningRate: domain.Float(-0.123)},
		{},
	})
	require.Equal(t, 0.45, stats.AvgLiverWeight)
	require.Equal(t, 97.0, stats.AvgKosherPercent, "missing values are not zero-filled")
	require.Equal(t, -0.12, stats.AvgFatteningRate)
	require.Equal(t, 0.0, stats.AvgMortalityRate)
}

func TestCalculateStats_EmptyIsZero(t *testing.T) {
	require.Equal(t, PartnerStats{}, CalculateStats(nil))
	require.False(t, CalculateStats(nil).HasData())
}

func TestCalculateStats_NaNNormalizesToZero(t *testing.T) {
	stats := CalculateStats([]domain.Shipment{{LiverWeight: domain.Float(math.NaN())}})
	require.Equal(t, 0.0, stats.AvgLiverWeight)
}

func TestScore(t *testing.T) {
	tests := []struct {
		name  string
		stats PartnerStats
		want  float64
	}{
		{"baseline example", PartnerStats{AvgKosherPercent: 98, AvgLiverWeight: 0.42, AvgMortalityRate: 3}, 690.90},
		{"mortality at baseline", PartnerStats{AvgKosherPercent: 100, AvgMortalityRate: 5}, 500},
		{"floor at 45%", PartnerStats{AvgKosherPercent: 100, AvgMortalityRate: 45}, 0},
		{"never negative", PartnerStats{AvgKosherPercent: 100, AvgMortalityRate: 80}, 0},
		{"no data", PartnerStats{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.InDelta(t, tt.want, Score(tt.stats), 1e-9)
		})
	}
}

func TestScore_MultiplierDecreasesWithMortality(t *testing.T) {
	prev := math.Inf(1)
	for m := 0.0; m <= 60; m += 2.5 {
		s := Score(PartnerStats{AvgKosherPercent: 90, AvgLiverWeight: 0.4, AvgMortalityRate: m})
		require.LessOrEqual(t, s, prev)
		require.GreaterOrEqual(t, s, 0.0)
		prev = s
	}
}

func TestOverview(t *testing.T) {
	out := Overview([]domain.Shipment{
		shipmentFor(1, domain.Float(0.4), nil, nil),
		shipmentFor(1, domain.Float(0.6), nil, nil),
		shipmentFor(2, nil, domain.Float(90), nil),
		{LiverWeight: domain.Float(9)}, // 未加载站点
	})
	require.Len(t, out, 2)
	require.Equal(t, 0.5, out[1].AvgLiverWeight)
	require.Equal(t, 90.0, out[2].AvgKosherPercent)
}

func TestBuildLeaderboard_GroupsFirstWithPlaceholders(t *testing.T) {
	partners := []domain.Partner{
		{ID: 1, Name: "Alpha"},
		{ID: 2, Name: "Beta"},
		{ID: 3, Name: "Gamma"},
		{ID: 4, Name: "Delta"},
	}
	groups := []domain.PartnerGroup{
		{ID: 1, Name: "North", Color: "#00f", Members: []domain.Partner{{ID: 1, Name: "Alpha"}, {ID: 2, Name: "Beta"}}},
	}
	shipments := []domain.Shipment{
		shipmentFor(1, domain.Float(0.42), domain.Float(98), domain.Float(3)),
		shipmentFor(3, domain.Float(0.5), domain.Float(90), domain.Float(5)),
	}

	board := BuildLeaderboard(partners, groups, shipments)
	require.Len(t, board, 2, "Delta has no data and is omitted")

	group := board[0]
	require.Equal(t, KindGroup, group.Kind)
	require.True(t, group.IsGroup)
	require.Equal(t, int64(1), group.ID, "group ids are not sign-encoded")
	require.Equal(t, "#00f", group.GroupColor)
	require.InDelta(t, 690.90, group.TotalScore, 1e-9)
	require.Len(t, group.Members, 2)
	require.Equal(t, int64(1), group.Members[0].ID)
	require.InDelta(t, 690.90, group.Members[0].TotalScore, 1e-9)
	require.Equal(t, int64(2), group.Members[1].ID)
	require.Equal(t, 0.0, group.Members[1].TotalScore)
	require.Equal(t, KindPartner, group.Members[1].Kind)

	require.Equal(t, KindPartner, board[1].Kind)
	require.Equal(t, int64(3), board[1].ID)
	require.False(t, board[1].IsGroup)
	require.Nil(t, board[1].Members)
}

func TestBuildLeaderboard_GroupWithMembersButNoData(t *testing.T) {
	groups := []domain.PartnerGroup{
		{ID: 5, Name: "Empty", Members: []domain.Partner{{ID: 9, Name: "Idle"}}},
		{ID: 6, Name: "No members"},
	}
	board := BuildLeaderboard([]domain.Partner{{ID: 9, Name: "Idle"}}, groups, nil)

	require.Len(t, board, 1)
	require.Equal(t, int64(5), board[0].ID)
	require.Equal(t, 0.0, board[0].TotalScore)
	require.Len(t, board[0].Members, 1)
	require.Equal(t, "Idle", board[0].Members[0].Name)
}

func TestBuildLeaderboard_PartnerAndGroupIDsCanCoincide(t *testing.T) {
	partners := []domain.Partner{{ID: 1, Name: "Alpha"}, {ID: 2, Name: "Beta"}}
	groups := []domain.PartnerGroup{{ID: 1, Name: "G", Members: []domain.Partner{{ID: 2, Name: "Beta"}}}}
	shipments := []domain.Shipment{
		shipmentFor(1, domain.Float(0.4), nil, nil),
		shipmentFor(2, domain.Float(0.5), nil, nil),
	}

	board := BuildLeaderboard(partners, groups, shipments)
	require.Len(t, board, 2)
	require.Equal(t, board[0].ID, board[1].ID)
	require.NotEqual(t, board[0].Kind, board[1].Kind)
}
