package analytics

import (
	"math"

	"github.com/MKris124/poultry-manager/internal/domain"
)

// 综合得分参数
const (
	kosherWeight        = 5.0
	liverWeightFactor   = 400.0
	mortalityBaseline   = 5.0 // 百分比，低于此值加分
	mortalityMultiplier = 0.025
)

// EntryKind 排行条目类型
type EntryKind string

const (
	KindPartner EntryKind = "partner"
	KindGroup   EntryKind = "group"
)

// LeaderboardEntry 合作方或分组的排行条目
//
// Kind 区分 ID 的含义：partner 时为合作方 ID，group 时为分组 ID。
// IsGroup 与 Kind 一致，保留给前端使用。
type LeaderboardEntry struct {
	Kind             EntryKind          `json:"kind"`
	ID               int64              `json:"id"`
	Name             string             `json:"name"`
	AvgLiverWeight   float64            `json:"avgLiverWeight"`
	AvgKosherPercent float64            `json:"avgKosherPercent"`
	AvgMortalityRate float64            `json:"avgMortalityRate"`
	TotalScore       float64            `json:"totalScore"`
	IsGroup          bool               `json:"isGroup"`
	GroupColor       string             `json:"groupColor,omitempty"`
	Members          []LeaderboardEntry `json:"members,omitempty"`
}

// Score 综合得分：(kosher×5 + 肝重×400) × max(0, 1 + (5 − 死亡率)×0.025)，两位小数
func Score(stats PartnerStats) float64 {
	base := stats.AvgKosherPercent*kosherWeight + stats.AvgLiverWeight*liverWeightFactor
	multiplier := math.Max(0, 1+(mortalityBaseline-stats.AvgMortalityRate)*mortalityMultiplier)
	return domain.Round2(base * multiplier)
}

func newEntry(kind EntryKind, id int64, name string, stats PartnerStats) LeaderboardEntry {
	return LeaderboardEntry{
		Kind:             kind,
		ID:               id,
		Name:             name,
		AvgLiverWeight:   stats.AvgLiverWeight,
		AvgKosherPercent: stats.AvgKosherPercent,
		AvgMortalityRate: stats.AvgMortalityRate,
		TotalScore:       Score(stats),
		IsGroup:          kind == KindGroup,
	}
}

// BuildLeaderboard 先输出分组（按 groups 顺序），再输出未分组且有数据的合作方（按 partners 顺序）
//
// 分组成员总是全部列出，没有数据的成员得分为 0；
// 分组本身在有数据或至少有一个成员时输出。
// shipments 需已加载站点（用于得到合作方 ID）。
func BuildLeaderboard(partners []domain.Partner, groups []domain.PartnerGroup, shipments []domain.Shipment) []LeaderboardEntry {
	byPartner := GroupByPartner(shipments)
	grouped := map[int64]bool{}

	board := []LeaderboardEntry{}
	for _, g := range groups {
		var groupShipments []domain.Shipment
		members := make([]LeaderboardEntry, 0, len(g.Members))
		for _, m := range g.Members {
			grouped[m.ID] = true
			list := byPartner[m.ID]
			groupShipments = append(groupShipments, list...)

			stats := CalculateStats(list)
			if !stats.HasData() {
				// 成员没有有效数据时也保留占位，避免名单缺人
				members = append(members, newEntry(KindPartner, m.ID, m.Name, PartnerStats{}))
				continue
			}
			members = append(members, newEntry(KindPartner, m.ID, m.Name, stats))
		}

		stats := CalculateStats(groupShipments)
		if !stats.HasData() && len(members) == 0 {
			continue
		}
		entry := newEntry(KindGroup, g.ID, g.Name, stats)
		entry.GroupColor = g.Color
		entry.Members = members
		board = append(board, entry)
	}

	for _, p := range partners {
		if grouped[p.ID] {
			continue
		}
		stats := CalculateStats(byPartner[p.ID])
		if !stats.HasData() {
			continue
		}
		board = append(board, newEntry(KindPartner, p.ID, p.Name, stats))
	}
	return board
}
