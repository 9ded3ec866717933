package repository

import (
	"context"

	"github.com/MKris124/poultry-manager/internal/domain"
)

// Store 持久化协作方：导入、分析与手工维护共用
// 查不到时返回 domain.ErrNotFound（包装后），调用方用 errors.Is 判断
type Store interface {
	// ========== Partner ==========
	// GetPartner 按外部 ID 查询，附带站点与养殖户
	GetPartner(ctx context.Context, id int64) (*domain.Partner, error)
	// ListPartners 全部合作方（按 ID 升序），附带站点与养殖户；TotalQuantity 不在此计算
	ListPartners(ctx context.Context) ([]domain.Partner, error)
	// SavePartner 按 ID upsert（name/city/county/group_id）
	SavePartner(ctx context.Context, p *domain.Partner) error
	// DeletePartner 连带删除站点、发货记录与养殖户关联
	DeletePartner(ctx context.Context, id int64) error
	// LinkGrower 幂等
	LinkGrower(ctx context.Context, partnerID, growerID int64) error
	// SetPartnerGroup groupID 为 nil 表示移出分组
	SetPartnerGroup(ctx context.Context, partnerID int64, groupID *int64) error

	// ========== Location ==========
	FindLocation(ctx context.Context, partnerID int64, city string) (*domain.PartnerLocation, error)
	GetLocation(ctx context.Context, id int64) (*domain.PartnerLocation, error)
	ListLocations(ctx context.Context, partnerID int64) ([]domain.PartnerLocation, error)
	// SaveLocation ID 为 0 时插入并回填 ID
	SaveLocation(ctx context.Context, l *domain.PartnerLocation) error
	// DeleteLocation 连带删除该站点的发货记录
	DeleteLocation(ctx context.Context, id int64) error

	// ========== Grower ==========
	FindGrower(ctx context.Context, name, city string) (*domain.Grower, error)
	GetGrower(ctx context.Context, id int64) (*domain.Grower, error)
	ListGrowers(ctx context.Context) ([]domain.Grower, error)
	// SaveGrower ID 为 0 时插入并回填 ID
	SaveGrower(ctx context.Context, g *domain.Grower) error
	// DeleteGrower 同时删除合作方关联；是否有发货记录由调用方先检查
	DeleteGrower(ctx context.Context, id int64) error
	CountGrowerShipments(ctx context.Context, growerID int64) (int, error)

	// ========== Group ==========
	// ListGroups 附带成员（成员只含基本字段）
	ListGroups(ctx context.Context) ([]domain.PartnerGroup, error)
	GetGroup(ctx context.Context, id int64) (*domain.PartnerGroup, error)
	// SaveGroup ID 为 0 时插入并回填 ID；成员关系通过 SetPartnerGroup 维护
	SaveGroup(ctx context.Context, g *domain.PartnerGroup) error
	// DeleteGroup 成员被释放（group_id 置空），不删除合作方
	DeleteGroup(ctx context.Context, id int64) error

	// ========== Shipment ==========
	FindShipmentByCode(ctx context.Context, deliveryCode string, locationID int64) (*domain.Shipment, error)
	GetShipment(ctx context.Context, id int64) (*domain.Shipment, error)
	// ListShipments 按加工日期倒序（无日期的排最后），附带站点与养殖户
	ListShipments(ctx context.Context, filter ShipmentFilter) ([]domain.Shipment, error)
	// SaveShipments 批量保存：ID 为 0 插入并回填，否则按 ID 覆盖
	SaveShipments(ctx context.Context, shipments []*domain.Shipment) error
	DeleteShipment(ctx context.Context, id int64) error

	// DeleteAll 清空所有业务数据
	DeleteAll(ctx context.Context) error

	// WithTx fn 内的所有操作在同一事务中执行；fn 返回错误时整体回滚
	WithTx(ctx context.Context, fn func(tx Store) error) error
}

// ShipmentFilter 查询条件，字段之间为 AND；全部为空表示不过滤
type ShipmentFilter struct {
	PartnerIDs []int64
	LocationID *int64
	GrowerID   *int64
}

// Empty 是否不带任何条件
func (f ShipmentFilter) Empty() bool {
	return f.PartnerIDs == nil && f.LocationID == nil && f.GrowerID == nil
}
