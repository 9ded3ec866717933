package service

import (
	"context"
	"errors"
	"strings"

	"github.com/MKris124/poultry-manager/internal/domain"
	"github.com/MKris124/poultry-manager/internal/ingest"
	"github.com/MKris124/poultry-manager/internal/repository"
)

// UnknownCity 城市列为空时使用的站点名
const UnknownCity = "Unknown"

// identityResolver 按自然键查找或创建合作方、站点、养殖户
// 每次导入在事务内新建一个，所有写入走同一个 tx store
type identityResolver struct {
	store repository.Store
}

func newIdentityResolver(store repository.Store) *identityResolver {
	return &identityResolver{store: store}
}

// resolvedIdentity 一行数据对应的实体
type resolvedIdentity struct {
	Partner  *domain.Partner
	Location *domain.PartnerLocation
	Grower   *domain.Grower // 养殖户列为空时为 nil
}

// Resolve 先校验合作方名称，再依次解析养殖户、合作方、站点，避免冲突行留下孤立的养殖户
func (r *identityResolver) Resolve(ctx context.Context, row *ingest.ParsedRow) (*resolvedIdentity, error) {
	existing, err := r.lookupPartner(ctx, row.PartnerID)
	if err != nil {
		return nil, err
	}
	if existing != nil && !sameName(existing.Name, row.PartnerName) {
		return nil, domain.IdentityConflictf("partner %d is already registered as '%s', row says '%s'",
			row.PartnerID, existing.Name, row.PartnerName)
	}

	grower, _, err := r.resolveGrower(ctx, row.Grower)
	if err != nil {
		return nil, err
	}
	partner, _, err := r.resolvePartner(ctx, existing, row.PartnerID, row.PartnerName, grower)
	if err != nil {
		return nil, err
	}
	location, _, err := r.resolveLocation(ctx, partner, row.City, row.County)
	if err != nil {
		return nil, err
	}
	return &resolvedIdentity{Partner: partner, Location: location, Grower: grower}, nil
}

func (r *identityResolver) lookupPartner(ctx context.Context, id int64) (*domain.Partner, error) {
	p, err := r.store.GetPartner(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return p, err
}

// resolveGrower key 为 nil 表示这一行没有养殖户
func (r *identityResolver) resolveGrower(ctx context.Context, key *ingest.GrowerKey) (*domain.Grower, bool, error) {
	if key == nil {
		return nil, false, nil
	}
	g, err := r.store.FindGrower(ctx, key.Name, key.City)
	if err == nil {
		return g, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}
	g = &domain.Grower{Name: key.Name, City: key.City}
	if err := r.store.SaveGrower(ctx, g); err != nil {
		return nil, false, err
	}
	return g, true, nil
}

// resolvePartner existing 为 nil 时按给定 ID 创建；养殖户关联幂等
func (r *identityResolver) resolvePartner(ctx context.Context, existing *domain.Partner, id int64, name string, grower *domain.Grower) (*domain.Partner, bool, error) {
	created := false
	p := existing
	if p == nil {
		p = &domain.Partner{ID: id, Name: name}
		if err := r.store.SavePartner(ctx, p); err != nil {
			return nil, false, err
		}
		created = true
	}
	if grower != nil && !p.HasGrower(grower.ID) {
		if err := r.store.LinkGrower(ctx, p.ID, grower.ID); err != nil {
			return nil, false, err
		}
		p.Growers = append(p.Growers, *grower)
	}
	return p, created, nil
}

// resolveLocation 城市为空时归入 UnknownCity；county 非空且有变化时更新
func (r *identityResolver) resolveLocation(ctx context.Context, partner *domain.Partner, city, county string) (*domain.PartnerLocation, bool, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		city = UnknownCity
	}
	county = strings.TrimSpace(county)

	loc, err := r.store.FindLocation(ctx, partner.ID, city)
	if err == nil {
		if county != "" && county != loc.County {
			loc.County = county
			if err := r.store.SaveLocation(ctx, loc); err != nil {
				return nil, false, err
			}
		}
		return loc, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}

	loc = &domain.PartnerLocation{PartnerID: partner.ID, City: city, County: county, PartnerName: partner.Name}
	if err := r.store.SaveLocation(ctx, loc); err != nil {
		return nil, false, err
	}
	partner.Locations = append(partner.Locations, *loc)
	return loc, true, nil
}

// sameName 忽略大小写与多余空白
func sameName(a, b string) bool {
	return strings.EqualFold(strings.Join(strings.Fields(a), " "), strings.Join(strings.Fields(b), " "))
}
