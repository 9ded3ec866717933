package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKris124/poultry-manager/internal/domain"
	"github.com/MKris124/poultry-manager/internal/repository"

	"go.uber.org/zap"
)

// ShipmentService 手工录入与查询
type ShipmentService struct {
	store  repository.Store
	logger *zap.Logger
}

func NewShipmentService(store repository.Store, logger *zap.Logger) *ShipmentService {
	return &ShipmentService{store: store, logger: logger}
}

// ShipmentRequest 创建/更新请求；质量指标为 nil 表示未填写
type ShipmentRequest struct {
	LocationID *int64 `json:"locationId"`
	GrowerID   *int64 `json:"growerId"`

	DeliveryCode   string       `json:"deliveryCode"`
	DeliveryDate   *domain.Date `json:"deliveryDate"`
	ProcessingDate *domain.Date `json:"processingDate"`
	ProcessingWeek int          `json:"processingWeek"`

	Quantity             int     `json:"quantity"`
	TotalWeight          float64 `json:"totalWeight"`
	NetQuantity          int     `json:"netQuantity"`
	NetWeight            float64 `json:"netWeight"`
	TransportMortality   int     `json:"transportMortality"`
	TransportMortalityKg float64 `json:"transportMortalityKg"`

	LiverWeight   *float64 `json:"liverWeight"`
	KosherPercent *float64 `json:"kosherPercent"`
	FatteningRate *float64 `json:"fatteningRate"`
	MortalityRate *float64 `json:"mortalityRate"`

	MortalityCount int `json:"mortalityCount"`
	FatteningDays  int `json:"fatteningDays"`
}

// toShipment 校验并补全派生字段
func (r *ShipmentRequest) toShipment() (*domain.Shipment, error) {
	code, err := domain.NormalizeDeliveryCode(r.DeliveryCode, r.DeliveryDate)
	if err != nil {
		return nil, err
	}
	sh := &domain.Shipment{
		GrowerID:             r.GrowerID,
		DeliveryCode:         code,
		DeliveryDate:         r.DeliveryDate,
		ProcessingDate:       r.ProcessingDate,
		ProcessingWeek:       r.ProcessingWeek,
		Quantity:             r.Quantity,
		TotalWeight:          r.TotalWeight,
		NetQuantity:          r.NetQuantity,
		NetWeight:            r.NetWeight,
		TransportMortality:   r.TransportMortality,
		TransportMortalityKg: r.TransportMortalityKg,
		LiverWeight:          r.LiverWeight,
		KosherPercent:        r.KosherPercent,
		FatteningRate:        r.FatteningRate,
		MortalityRate:        r.MortalityRate,
		MortalityCount:       r.MortalityCount,
		FatteningDays:        r.FatteningDays,
	}
	// 先校验录入值，再补全（补全结果可能为负，例如途中死亡多于毛数）
	if err := sh.Validate(); err != nil {
		return nil, err
	}
	sh.ApplyDerivedFields()
	return sh, nil
}

// Create 站点必填
func (s *ShipmentService) Create(ctx context.Context, req ShipmentRequest) (*domain.Shipment, error) {
	sh, err := req.toShipment()
	if err != nil {
		return nil, err
	}
	if req.LocationID == nil {
		return nil, domain.Invalidf("location id is required")
	}
	if err := s.attach(ctx, sh, *req.LocationID); err != nil {
		return nil, err
	}
	if err := s.store.SaveShipments(ctx, []*domain.Shipment{sh}); err != nil {
		return nil, fmt.Errorf("create shipment: %w", err)
	}
	s.logger.Info("Shipment created", zap.Int64("shipment_id", sh.ID), zap.Int64("location_id", sh.LocationID))
	return s.store.GetShipment(ctx, sh.ID)
}

// Update 未提供站点时保留原站点
func (s *ShipmentService) Update(ctx context.Context, id int64, req ShipmentRequest) (*domain.Shipment, error) {
	sh, err := req.toShipment()
	if err != nil {
		return nil, err
	}
	existing, err := s.store.GetShipment(ctx, id)
	if err != nil {
		return nil, err
	}
	locationID := existing.LocationID
	if req.LocationID != nil {
		locationID = *req.LocationID
	}
	if err := s.attach(ctx, sh, locationID); err != nil {
		return nil, err
	}
	existing.CopyFieldsFrom(sh)
	if err := s.store.SaveShipments(ctx, []*domain.Shipment{existing}); err != nil {
		return nil, fmt.Errorf("update shipment %d: %w", id, err)
	}
	return s.store.GetShipment(ctx, id)
}

// attach 检查站点与养殖户存在
func (s *ShipmentService) attach(ctx context.Context, sh *domain.Shipment, locationID int64) error {
	loc, err := s.store.GetLocation(ctx, locationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NotFoundf("location %d not found", locationID)
		}
		return err
	}
	sh.LocationID = loc.ID
	sh.Location = loc
	if sh.GrowerID != nil {
		g, err := s.store.GetGrower(ctx, *sh.GrowerID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.NotFoundf("grower %d not found", *sh.GrowerID)
			}
			return err
		}
		sh.Grower = g
	}
	return nil
}

func (s *ShipmentService) Delete(ctx context.Context, id int64) error {
	return s.store.DeleteShipment(ctx, id)
}

func (s *ShipmentService) List(ctx context.Context) ([]domain.Shipment, error) {
	return s.store.ListShipments(ctx, repository.ShipmentFilter{})
}

// HistoryByPartners 多个合作方的发货历史（按加工日期倒序）
func (s *ShipmentService) HistoryByPartners(ctx context.Context, partnerIDs []int64) ([]domain.Shipment, error) {
	if partnerIDs == nil {
		partnerIDs = []int64{}
	}
	return s.store.ListShipments(ctx, repository.ShipmentFilter{PartnerIDs: partnerIDs})
}

func (s *ShipmentService) HistoryByPartner(ctx context.Context, partnerID int64) ([]domain.Shipment, error) {
	return s.HistoryByPartners(ctx, []int64{partnerID})
}

func (s *ShipmentService) HistoryByLocation(ctx context.Context, locationID int64) ([]domain.Shipment, error) {
	return s.store.ListShipments(ctx, repository.ShipmentFilter{LocationID: &locationID})
}

func (s *ShipmentService) HistoryByGrower(ctx context.Context, growerID int64) ([]domain.Shipment, error) {
	return s.store.ListShipments(ctx, repository.ShipmentFilter{GrowerID: &growerID})
}
