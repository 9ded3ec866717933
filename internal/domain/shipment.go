package domain

// Shipment 一次交付 + 屠宰记录
type Shipment struct {
	ID int64 `json:"id"`

	LocationID int64            `json:"locationId"`
	Location   *PartnerLocation `json:"location,omitempty"` // 查询时 JOIN 填充

	GrowerID *int64  `json:"growerId,omitempty"`
	Grower   *Grower `json:"grower,omitempty"` // 查询时 JOIN 填充

	// 格式 SEQ/YY，在同一站点内唯一
	DeliveryCode   string `json:"deliveryCode"`
	DeliveryDate   *Date  `json:"deliveryDate,omitempty"`
	ProcessingDate *Date  `json:"processingDate,omitempty"`
	ProcessingWeek int    `json:"processingWeek"`

	// 毛（收购时）
	Quantity    int     `json:"quantity"`
	TotalWeight float64 `json:"totalWeight"`

	// 净（交付时，扣除途中死亡）
	NetQuantity int     `json:"netQuantity"`
	NetWeight   float64 `json:"netWeight"`

	TransportMortality   int     `json:"transportMortality"`
	TransportMortalityKg float64 `json:"transportMortalityKg"`

	// 质量指标：nil 表示缺失，统计时不计入分母
	LiverWeight   *float64 `json:"liverWeight"`
	KosherPercent *float64 `json:"kosherPercent"`
	FatteningRate *float64 `json:"fatteningRate"`
	MortalityRate *float64 `json:"mortalityRate"` // 百分比

	MortalityCount int `json:"mortalityCount"`
	FatteningDays  int `json:"fatteningDays"`
}

// PartnerID 通过站点得到的合作方 ID；未加载站点时为 0
func (s *Shipment) PartnerID() int64 {
	if s.Location == nil {
		return 0
	}
	return s.Location.PartnerID
}

// CopyFieldsFrom 覆盖业务字段，保留 ID（导入时按交付码原地更新）
func (s *Shipment) CopyFieldsFrom(src *Shipment) {
	id := s.ID
	*s = *src
	s.ID = id
}

// Float 便于构造可空指标
func Float(v float64) *float64 {
	return &v
}

// Int64 便于构造可空 ID
func Int64(v int64) *int64 {
	return &v
}
