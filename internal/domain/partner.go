package domain

// Partner 合作方（供货方），ID 由外部分配，不自增
type Partner struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`

	// 旧版字段，已由 Locations 取代，仅保留读写
	City   string `json:"city,omitempty"`
	County string `json:"county,omitempty"`

	GroupID *int64 `json:"groupId,omitempty"`

	// TotalQuantity 由发货历史汇总得出，不落库
	TotalQuantity int64 `json:"totalQuantity"`

	Locations []PartnerLocation `json:"locations,omitempty"`
	Growers   []Grower          `json:"growers,omitempty"`
}

// HasGrower 是否已关联指定养殖户
func (p *Partner) HasGrower(growerID int64) bool {
	for _, g := range p.Growers {
		if g.ID == growerID {
			return true
		}
	}
	return false
}

// PartnerLocation 合作方的站点；自然键 (PartnerID, City)
type PartnerLocation struct {
	ID        int64  `json:"id"`
	PartnerID int64  `json:"partnerId"`
	City      string `json:"city"`
	County    string `json:"county"`

	// 查询时 JOIN 得到，不存储在 partner_locations 表
	PartnerName string `json:"partnerName,omitempty"`
}

// Grower 养殖户；自然键 (Name, City)，与 Partner 多对多
type Grower struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	City string `json:"city"`

	Partners []GrowerPartner `json:"partners,omitempty"`
}

// GrowerPartner 养殖户视角下的合作方及其累计数量
type GrowerPartner struct {
	PartnerID     int64  `json:"id"`
	Name          string `json:"name"`
	TotalQuantity int64  `json:"totalQuantity"`
}

// PartnerGroup 合作方分组；一个 Partner 同时最多属于一个分组
type PartnerGroup struct {
	ID      int64     `json:"id"`
	Name    string    `json:"name"`
	Color   string    `json:"color"`
	Members []Partner `json:"members"`
}
