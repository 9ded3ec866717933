package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MKris124/poultry-manager/internal/domain"
	"github.com/MKris124/poultry-manager/internal/repository"

	"go.uber.org/zap"
)

// PartnerService 合作方、站点与分组维护
type PartnerService struct {
	store  repository.Store
	logger *zap.Logger
}

func NewPartnerService(store repository.Store, logger *zap.Logger) *PartnerService {
	return &PartnerService{store: store, logger: logger}
}

// List 附带站点、养殖户和累计净数量
func (s *PartnerService) List(ctx context.Context) ([]domain.Partner, error) {
	partners, err := s.store.ListPartners(ctx)
	if err != nil {
		return nil, err
	}
	shipments, err := s.store.ListShipments(ctx, repository.ShipmentFilter{})
	if err != nil {
		return nil, err
	}
	totals := map[int64]int64{}
	for i := range shipments {
		totals[shipments[i].PartnerID()] += int64(shipments[i].NetQuantity)
	}
	for i := range partners {
		partners[i].TotalQuantity = totals[partners[i].ID]
	}
	return partners, nil
}

// CreatePartnerRequest ID 由外部分配
type CreatePartnerRequest struct {
	ID        int64             `json:"id"`
	Name      string            `json:"name"`
	Locations []LocationRequest `json:"locations"`
}

// LocationRequest ID 为空表示新增
type LocationRequest struct {
	ID     *int64 `json:"id"`
	City   string `json:"city"`
	County string `json:"county"`
}

func (s *PartnerService) Create(ctx context.Context, req CreatePartnerRequest) (*domain.Partner, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.Invalidf("partner name cannot be empty")
	}
	if req.ID <= 0 {
		return nil, domain.Invalidf("partner id must be positive")
	}

	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := tx.GetPartner(ctx, req.ID); err == nil {
			return domain.Conflictf("partner id %d is already taken", req.ID)
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if err := tx.SavePartner(ctx, &domain.Partner{ID: req.ID, Name: name}); err != nil {
			return err
		}
		for _, l := range req.Locations {
			if err := saveLocation(ctx, tx, req.ID, nil, l); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Partner created", zap.Int64("partner_id", req.ID))
	return s.store.GetPartner(ctx, req.ID)
}

// UpdatePartnerRequest Locations 为 nil 时不改动站点；否则替换为给定集合
type UpdatePartnerRequest struct {
	Name      string             `json:"name"`
	Locations *[]LocationRequest `json:"locations"`
}

// Update 站点集合替换：无 ID 的新增，有 ID 的更新，未列出的连同发货记录删除
func (s *PartnerService) Update(ctx context.Context, id int64, req UpdatePartnerRequest) (*domain.Partner, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.Invalidf("partner name cannot be empty")
	}

	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		p, err := tx.GetPartner(ctx, id)
		if err != nil {
			return err
		}
		p.Name = name
		if err := tx.SavePartner(ctx, p); err != nil {
			return err
		}
		if req.Locations == nil {
			return nil
		}

		current := map[int64]domain.PartnerLocation{}
		for _, l := range p.Locations {
			current[l.ID] = l
		}
		keep := map[int64]bool{}
		for _, l := range *req.Locations {
			if l.ID != nil {
				existing, ok := current[*l.ID]
				if !ok {
					return domain.NotFoundf("location %d does not belong to partner %d", *l.ID, id)
				}
				keep[existing.ID] = true
			}
		}
		// 先删除再保存，避免被移除的站点与新城市名冲突
		for lid := range current {
			if !keep[lid] {
				if err := tx.DeleteLocation(ctx, lid); err != nil {
					return err
				}
			}
		}
		for _, l := range *req.Locations {
			if err := saveLocation(ctx, tx, id, l.ID, l); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.store.GetPartner(ctx, id)
}

func saveLocation(ctx context.Context, tx repository.Store, partnerID int64, id *int64, l LocationRequest) error {
	city := strings.TrimSpace(l.City)
	if city == "" {
		return domain.Invalidf("location city cannot be empty")
	}
	loc := &domain.PartnerLocation{PartnerID: partnerID, City: city, County: strings.TrimSpace(l.County)}
	if id != nil {
		loc.ID = *id
	}
	if err := tx.SaveLocation(ctx, loc); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return domain.Conflictf("partner %d already has a location in %s", partnerID, city)
		}
		return err
	}
	return nil
}

// Delete 连带删除站点与发货记录
func (s *PartnerService) Delete(ctx context.Context, id int64) error {
	if err := s.store.WithTx(ctx, func(tx repository.Store) error {
		return tx.DeletePartner(ctx, id)
	}); err != nil {
		return err
	}
	s.logger.Info("Partner deleted", zap.Int64("partner_id", id))
	return nil
}

// DeleteAll 清空全部数据
func (s *PartnerService) DeleteAll(ctx context.Context) error {
	if err := s.store.WithTx(ctx, func(tx repository.Store) error {
		return tx.DeleteAll(ctx)
	}); err != nil {
		return fmt.Errorf("delete all data: %w", err)
	}
	s.logger.Warn("All data deleted")
	return nil
}

// ---- groups ----

// CreateGroupRequest 分组及其成员
type CreateGroupRequest struct {
	Name       string  `json:"name"`
	Color      string  `json:"color"`
	PartnerIDs []int64 `json:"partnerIds"`
}

// CreateGroup 任一成员已属于其他分组时整体失败，不写入任何数据
func (s *PartnerService) CreateGroup(ctx context.Context, req CreateGroupRequest) (*domain.PartnerGroup, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.Invalidf("group name cannot be empty")
	}

	var groupID int64
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		members := make([]*domain.Partner, 0, len(req.PartnerIDs))
		for _, pid := range req.PartnerIDs {
			p, err := tx.GetPartner(ctx, pid)
			if err != nil {
				return err
			}
			if p.GroupID != nil {
				return domain.Conflictf("partner %s is already a member of another group", p.Name)
			}
			members = append(members, p)
		}

		g := &domain.PartnerGroup{Name: name, Color: req.Color}
		if err := tx.SaveGroup(ctx, g); err != nil {
			return err
		}
		for _, p := range members {
			if err := tx.SetPartnerGroup(ctx, p.ID, &g.ID); err != nil {
				return err
			}
		}
		groupID = g.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Partner group created", zap.Int64("group_id", groupID), zap.Int("members", len(req.PartnerIDs)))
	return s.store.GetGroup(ctx, groupID)
}

// DeleteGroup 成员恢复为独立合作方
func (s *PartnerService) DeleteGroup(ctx context.Context, id int64) error {
	return s.store.WithTx(ctx, func(tx repository.Store) error {
		return tx.DeleteGroup(ctx, id)
	})
}

func (s *PartnerService) ListGroups(ctx context.Context) ([]domain.PartnerGroup, error) {
	return s.store.ListGroups(ctx)
}
