// Package analytics 基于发货历史的统计与排行，纯计算，不访问存储
package analytics

import "github.com/MKris124/poultry-manager/internal/domain"

// PartnerStats 四项稀疏平均值（两位小数）
type PartnerStats struct {
	AvgLiverWeight   float64 `json:"avgLiverWeight"`
	AvgKosherPercent float64 `json:"avgKosherPercent"`
	AvgFatteningRate float64 `json:"avgFatteningRate"`
	AvgMortalityRate float64 `json:"avgMortalityRate"`
}

// HasData 肝重或 kosher 平均值非零
func (s PartnerStats) HasData() bool {
	return s.AvgLiverWeight > 0 || s.AvgKosherPercent > 0
}

// sparseMean 只统计非 nil 的值
type sparseMean struct {
	sum   float64
	count int
}

func (m *sparseMean) add(v *float64) {
	if v == nil {
		return
	}
	m.sum += *v
	m.count++
}

func (m sparseMean) value() float64 {
	if m.count == 0 {
		return 0
	}
	return domain.Round2(m.sum / float64(m.count))
}

// CalculateStats 每个字段只在有值的发货记录上求平均；空集合全部为 0
func CalculateStats(shipments []domain.Shipment) PartnerStats {
	var liver, kosher, fattening, mortality sparseMean
	for i := range shipments {
		s := &shipments[i]
		liver.add(s.LiverWeight)
		kosher.add(s.KosherPercent)
		fattening.add(s.FatteningRate)
		mortality.add(s.MortalityRate)
	}
	return PartnerStats{
		AvgLiverWeight:   liver.value(),
		AvgKosherPercent: kosher.value(),
		AvgFatteningRate: fattening.value(),
		AvgMortalityRate: mortality.value(),
	}
}

// GroupByPartner 按站点所属合作方分组；未加载站点的记录被忽略
func GroupByPartner(shipments []domain.Shipment) map[int64][]domain.Shipment {
	out := map[int64][]domain.Shipment{}
	for _, s := range shipments {
		if s.Location == nil {
			continue
		}
		out[s.Location.PartnerID] = append(out[s.Location.PartnerID], s)
	}
	return out
}

// Overview partnerID -> 统计；只包含有发货记录的合作方
func Overview(shipments []domain.Shipment) map[int64]PartnerStats {
	out := map[int64]PartnerStats{}
	for partnerID, list := range GroupByPartner(shipments) {
		out[partnerID] = CalculateStats(list)
	}
	return out
}
