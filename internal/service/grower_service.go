package service

import (
	"context"
	"strings"

	"github.com/MKris124/poultry-manager/internal/domain"
	"github.com/MKris124/poultry-manager/internal/ingest"
	"github.com/MKris124/poultry-manager/internal/repository"

	"go.uber.org/zap"
)

// GrowerService 养殖户维护
type GrowerService struct {
	store  repository.Store
	logger *zap.Logger
}

func NewGrowerService(store repository.Store, logger *zap.Logger) *GrowerService {
	return &GrowerService{store: store, logger: logger}
}

// GrowerRequest 创建/更新
type GrowerRequest struct {
	Name string `json:"name"`
	City string `json:"city"`
}

func (r GrowerRequest) normalize() (GrowerRequest, error) {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return r, domain.Invalidf("grower name cannot be empty")
	}
	// 与导入/导出的 "<名称> <城市>" 列格式保持一致，否则导出后无法原样导回
	city, ok := ingest.NormalizeGrowerCity(r.City)
	if !ok {
		return r, domain.Invalidf("grower city must be a single word of letters: '%s'", r.City)
	}
	r.City = city
	return r, nil
}

func (s *GrowerService) List(ctx context.Context) ([]domain.Grower, error) {
	return s.store.ListGrowers(ctx)
}

// ListWithStats 每个养殖户附带供货过的合作方及对应的毛数量合计
func (s *GrowerService) ListWithStats(ctx context.Context) ([]domain.Grower, error) {
	growers, err := s.store.ListGrowers(ctx)
	if err != nil {
		return nil, err
	}
	partners, err := s.store.ListPartners(ctx)
	if err != nil {
		return nil, err
	}
	shipments, err := s.store.ListShipments(ctx, repository.ShipmentFilter{})
	if err != nil {
		return nil, err
	}

	type pair struct{ grower, partner int64 }
	totals := map[pair]int64{}
	for i := range shipments {
		sh := &shipments[i]
		if sh.GrowerID != nil {
			totals[pair{*sh.GrowerID, sh.PartnerID()}] += int64(sh.Quantity)
		}
	}

	byGrower := map[int64][]domain.GrowerPartner{}
	for _, p := range partners {
		for _, g := range p.Growers {
			byGrower[g.ID] = append(byGrower[g.ID], domain.GrowerPartner{
				PartnerID:     p.ID,
				Name:          p.Name,
				TotalQuantity: totals[pair{g.ID, p.ID}],
			})
		}
	}
	for i := range growers {
		growers[i].Partners = byGrower[growers[i].ID]
		if growers[i].Partners == nil {
			growers[i].Partners = []domain.GrowerPartner{}
		}
	}
	return growers, nil
}

func (s *GrowerService) Create(ctx context.Context, req GrowerRequest) (*domain.Grower, error) {
	req, err := req.normalize()
	if err != nil {
		return nil, err
	}
	g := &domain.Grower{Name: req.Name, City: req.City}
	if err := s.store.SaveGrower(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *GrowerService) Update(ctx context.Context, id int64, req GrowerRequest) (*domain.Grower, error) {
	req, err := req.normalize()
	if err != nil {
		return nil, err
	}
	g, err := s.store.GetGrower(ctx, id)
	if err != nil {
		return nil, err
	}
	g.Name, g.City = req.Name, req.City
	if err := s.store.SaveGrower(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// Delete 已有发货记录的养殖户不能删除
func (s *GrowerService) Delete(ctx context.Context, id int64) error {
	return s.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := tx.GetGrower(ctx, id); err != nil {
			return err
		}
		n, err := tx.CountGrowerShipments(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.Conflictf("grower %d has %d shipments; delete them first", id, n)
		}
		if err := tx.DeleteGrower(ctx, id); err != nil {
			return err
		}
		s.logger.Info("Grower deleted", zap.Int64("grower_id", id))
		return nil
	})
}
