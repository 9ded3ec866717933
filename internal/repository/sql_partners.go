package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/MKris124/poultry-manager/internal/domain"

	sq "github.com/Masterminds/squirrel"
)

var partnerColumns = []string{"id", "name", "city", "county", "group_id"}

func scanPartner(row interface{ Scan(...any) error }) (domain.Partner, error) {
	var p domain.Partner
	var groupID sql.NullInt64
	if err := row.Scan(&p.ID, &p.Name, &p.City, &p.County, &groupID); err != nil {
		return p, err
	}
	p.GroupID = int64Ptr(groupID)
	return p, nil
}

// GetPartner 按外部 ID 查询，附带站点与养殖户
func (s *SQLStore) GetPartner(ctx context.Context, id int64) (*domain.Partner, error) {
	query, args, err := s.dialect.builder.Select(partnerColumns...).From("partners").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	p, err := scanPartner(s.q.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, notFound(err, "partner", id)
	}

	if p.Locations, err = s.ListLocations(ctx, id); err != nil {
		return nil, err
	}
	links, err := s.partnerGrowers(ctx, sq.Eq{"pg.partner_id": id})
	if err != nil {
		return nil, err
	}
	p.Growers = links[id]
	return &p, nil
}

// ListPartners 三次查询拼装，避免逐个合作方加载
func (s *SQLStore) ListPartners(ctx context.Context) ([]domain.Partner, error) {
	rows, err := s.query(ctx, s.dialect.builder.Select(partnerColumns...).From("partners").OrderBy("id"))
	if err != nil {
		return nil, fmt.Errorf("list partners: %w", err)
	}
	defer rows.Close()

	partners := []domain.Partner{}
	for rows.Next() {
		p, err := scanPartner(rows)
		if err != nil {
			return nil, fmt.Errorf("scan partner: %w", err)
		}
		partners = append(partners, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	locations, err := s.listLocations(ctx, nil)
	if err != nil {
		return nil, err
	}
	byPartner := map[int64][]domain.PartnerLocation{}
	for _, l := range locations {
		byPartner[l.PartnerID] = append(byPartner[l.PartnerID], l)
	}
	links, err := s.partnerGrowers(ctx, nil)
	if err != nil {
		return nil, err
	}
	for i := range partners {
		partners[i].Locations = byPartner[partners[i].ID]
		partners[i].Growers = links[partners[i].ID]
	}
	return partners, nil
}

// partnerGrowers partner_id -> 关联的养殖户
func (s *SQLStore) partnerGrowers(ctx context.Context, where sq.Sqlizer) (map[int64][]domain.Grower, error) {
	b := s.dialect.builder.
		Select("pg.partner_id", "g.id", "g.name", "g.city").
		From("partner_growers pg").
		Join("growers g ON g.id = pg.grower_id").
		OrderBy("pg.partner_id", "g.name", "g.id")
	if where != nil {
		b = b.Where(where)
	}
	rows, err := s.query(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("list partner growers: %w", err)
	}
	defer rows.Close()

	out := map[int64][]domain.Grower{}
	for rows.Next() {
		var partnerID int64
		var g domain.Grower
		if err := rows.Scan(&partnerID, &g.ID, &g.Name, &g.City); err != nil {
			return nil, fmt.Errorf("scan partner grower: %w", err)
		}
		out[partnerID] = append(out[partnerID], g)
	}
	return out, rows.Err()
}

// SavePartner 按 ID upsert
func (s *SQLStore) SavePartner(ctx context.Context, p *domain.Partner) error {
	b := s.dialect.builder.Insert("partners").
		Columns(partnerColumns...).
		Values(p.ID, p.Name, p.City, p.County, int64Arg(p.GroupID)).
		Suffix("ON CONFLICT (id) DO UPDATE SET name = excluded.name, city = excluded.city, county = excluded.county, group_id = excluded.group_id")
	if err := s.exec(ctx, b); err != nil {
		return fmt.Errorf("save partner %d: %w", p.ID, err)
	}
	return nil
}

// DeletePartner 显式级联，不依赖外键是否开启
func (s *SQLStore) DeletePartner(ctx context.Context, id int64) error {
	b := s.dialect.builder
	steps := []sq.Sqlizer{
		b.Delete("shipments").Where(sq.Expr("location_id IN (SELECT id FROM partner_locations WHERE partner_id = ?)", id)),
		b.Delete("partner_locations").Where(sq.Eq{"partner_id": id}),
		b.Delete("partner_growers").Where(sq.Eq{"partner_id": id}),
	}
	for _, step := range steps {
		if err := s.exec(ctx, step); err != nil {
			return fmt.Errorf("delete partner %d: %w", id, err)
		}
	}
	res, err := s.execResult(ctx, b.Delete("partners").Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("delete partner %d: %w", id, err)
	}
	return requireAffected(res, "partner", id)
}

// LinkGrower 幂等
func (s *SQLStore) LinkGrower(ctx context.Context, partnerID, growerID int64) error {
	b := s.dialect.builder.Insert("partner_growers").
		Columns("partner_id", "grower_id").
		Values(partnerID, growerID).
		Suffix("ON CONFLICT DO NOTHING")
	if err := s.exec(ctx, b); err != nil {
		return fmt.Errorf("link grower %d to partner %d: %w", growerID, partnerID, err)
	}
	return nil
}

func (s *SQLStore) SetPartnerGroup(ctx context.Context, partnerID int64, groupID *int64) error {
	res, err := s.execResult(ctx, s.dialect.builder.Update("partners").
		Set("group_id", int64Arg(groupID)).
		Where(sq.Eq{"id": partnerID}))
	if err != nil {
		return fmt.Errorf("set partner group: %w", err)
	}
	return requireAffected(res, "partner", partnerID)
}

// ---- locations ----

func (s *SQLStore) locationSelect() sq.SelectBuilder {
	return s.dialect.builder.
		Select("l.id", "l.partner_id", "l.city", "l.county", "p.name").
		From("partner_locations l").
		Join("partners p ON p.id = l.partner_id")
}

func scanLocation(row interface{ Scan(...any) error }) (domain.PartnerLocation, error) {
	var l domain.PartnerLocation
	err := row.Scan(&l.ID, &l.PartnerID, &l.City, &l.County, &l.PartnerName)
	return l, err
}

func (s *SQLStore) FindLocation(ctx context.Context, partnerID int64, city string) (*domain.PartnerLocation, error) {
	query, args, err := s.locationSelect().Where(sq.Eq{"l.partner_id": partnerID, "l.city": city}).ToSql()
	if err != nil {
		return nil, err
	}
	l, err := scanLocation(s.q.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, notFound(err, "location", fmt.Sprintf("%d/%s", partnerID, city))
	}
	return &l, nil
}

func (s *SQLStore) GetLocation(ctx context.Context, id int64) (*domain.PartnerLocation, error) {
	query, args, err := s.locationSelect().Where(sq.Eq{"l.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	l, err := scanLocation(s.q.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, notFound(err, "location", id)
	}
	return &l, nil
}

func (s *SQLStore) ListLocations(ctx context.Context, partnerID int64) ([]domain.PartnerLocation, error) {
	return s.listLocations(ctx, sq.Eq{"l.partner_id": partnerID})
}

func (s *SQLStore) listLocations(ctx context.Context, where sq.Sqlizer) ([]domain.PartnerLocation, error) {
	b := s.locationSelect().OrderBy("l.partner_id", "l.id")
	if where != nil {
		b = b.Where(where)
	}
	rows, err := s.query(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	var out []domain.PartnerLocation
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *SQLStore) SaveLocation(ctx context.Context, l *domain.PartnerLocation) error {
	b := s.dialect.builder
	if l.ID == 0 {
		id, err := s.insertReturningID(ctx, b.Insert("partner_locations").
			Columns("partner_id", "city", "county").
			Values(l.PartnerID, l.City, l.County))
		if err != nil {
			return fmt.Errorf("insert location: %w", err)
		}
		l.ID = id
		return nil
	}
	res, err := s.execResult(ctx, b.Update("partner_locations").
		Set("partner_id", l.PartnerID).
		Set("city", l.City).
		Set("county", l.County).
		Where(sq.Eq{"id": l.ID}))
	if err != nil {
		return fmt.Errorf("update location: %w", err)
	}
	return requireAffected(res, "location", l.ID)
}

func (s *SQLStore) DeleteLocation(ctx context.Context, id int64) error {
	b := s.dialect.builder
	if err := s.exec(ctx, b.Delete("shipments").Where(sq.Eq{"location_id": id})); err != nil {
		return fmt.Errorf("delete location shipments: %w", err)
	}
	res, err := s.execResult(ctx, b.Delete("partner_locations").Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("delete location: %w", err)
	}
	return requireAffected(res, "location", id)
}

// ---- growers ----

func (s *SQLStore) FindGrower(ctx context.Context, name, city string) (*domain.Grower, error) {
	return s.getGrower(ctx, sq.Eq{"name": name, "city": city}, name+"/"+city)
}

func (s *SQLStore) GetGrower(ctx context.Context, id int64) (*domain.Grower, error) {
	return s.getGrower(ctx, sq.Eq{"id": id}, id)
}

func (s *SQLStore) getGrower(ctx context.Context, where sq.Sqlizer, key any) (*domain.Grower, error) {
	var g domain.Grower
	err := s.queryRow(ctx, s.dialect.builder.Select("id", "name", "city").From("growers").Where(where),
		&g.ID, &g.Name, &g.City)
	if err != nil {
		return nil, notFound(err, "grower", key)
	}
	return &g, nil
}

func (s *SQLStore) ListGrowers(ctx context.Context) ([]domain.Grower, error) {
	rows, err := s.query(ctx, s.dialect.builder.Select("id", "name", "city").From("growers").OrderBy("name", "id"))
	if err != nil {
		return nil, fmt.Errorf("list growers: %w", err)
	}
	defer rows.Close()

	growers := []domain.Grower{}
	for rows.Next() {
		var g domain.Grower
		if err := rows.Scan(&g.ID, &g.Name, &g.City); err != nil {
			return nil, fmt.Errorf("scan grower: %w", err)
		}
		growers = append(growers, g)
	}
	return growers, rows.Err()
}

func (s *SQLStore) SaveGrower(ctx context.Context, g *domain.Grower) error {
	b := s.dialect.builder
	if g.ID == 0 {
		id, err := s.insertReturningID(ctx, b.Insert("growers").Columns("name", "city").Values(g.Name, g.City))
		if err != nil {
			return fmt.Errorf("insert grower: %w", err)
		}
		g.ID = id
		return nil
	}
	res, err := s.execResult(ctx, b.Update("growers").
		Set("name", g.Name).
		Set("city", g.City).
		Where(sq.Eq{"id": g.ID}))
	if err != nil {
		return fmt.Errorf("update grower: %w", err)
	}
	return requireAffected(res, "grower", g.ID)
}

func (s *SQLStore) DeleteGrower(ctx context.Context, id int64) error {
	b := s.dialect.builder
	if err := s.exec(ctx, b.Delete("partner_growers").Where(sq.Eq{"grower_id": id})); err != nil {
		return fmt.Errorf("unlink grower: %w", err)
	}
	res, err := s.execResult(ctx, b.Delete("growers").Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("delete grower: %w", err)
	}
	return requireAffected(res, "grower", id)
}

func (s *SQLStore) CountGrowerShipments(ctx context.Context, growerID int64) (int, error) {
	var n int
	err := s.queryRow(ctx, s.dialect.builder.Select("COUNT(*)").From("shipments").Where(sq.Eq{"grower_id": growerID}), &n)
	if err != nil {
		return 0, fmt.Errorf("count grower shipments: %w", err)
	}
	return n, nil
}

// ---- groups ----

func (s *SQLStore) ListGroups(ctx context.Context) ([]domain.PartnerGroup, error) {
	rows, err := s.query(ctx, s.dialect.builder.Select("id", "name", "color").From("partner_groups").OrderBy("id"))
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	groups := []domain.PartnerGroup{}
	for rows.Next() {
		g := domain.PartnerGroup{Members: []domain.Partner{}}
		if err := rows.Scan(&g.ID, &g.Name, &g.Color); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	members, err := s.groupMembers(ctx, sq.NotEq{"group_id": nil})
	if err != nil {
		return nil, err
	}
	for i := range groups {
		if m, ok := members[groups[i].ID]; ok {
			groups[i].Members = m
		}
	}
	return groups, nil
}

func (s *SQLStore) GetGroup(ctx context.Context, id int64) (*domain.PartnerGroup, error) {
	g := domain.PartnerGroup{Members: []domain.Partner{}}
	err := s.queryRow(ctx, s.dialect.builder.Select("id", "name", "color").From("partner_groups").Where(sq.Eq{"id": id}),
		&g.ID, &g.Name, &g.Color)
	if err != nil {
		return nil, notFound(err, "group", id)
	}
	members, err := s.groupMembers(ctx, sq.Eq{"group_id": id})
	if err != nil {
		return nil, err
	}
	if m, ok := members[id]; ok {
		g.Members = m
	}
	return &g, nil
}

func (s *SQLStore) groupMembers(ctx context.Context, where sq.Sqlizer) (map[int64][]domain.Partner, error) {
	rows, err := s.query(ctx, s.dialect.builder.Select(partnerColumns...).From("partners").Where(where).OrderBy("id"))
	if err != nil {
		return nil, fmt.Errorf("list group members: %w", err)
	}
	defer rows.Close()

	out := map[int64][]domain.Partner{}
	for rows.Next() {
		p, err := scanPartner(rows)
		if err != nil {
			return nil, fmt.Errorf("scan group member: %w", err)
		}
		out[*p.GroupID] = append(out[*p.GroupID], p)
	}
	return out, rows.Err()
}

func (s *SQLStore) SaveGroup(ctx context.Context, g *domain.PartnerGroup) error {
	b := s.dialect.builder
	if g.ID == 0 {
		id, err := s.insertReturningID(ctx, b.Insert("partner_groups").Columns("name", "color").Values(g.Name, g.Color))
		if err != nil {
			return fmt.Errorf("insert group: %w", err)
		}
		g.ID = id
		return nil
	}
	res, err := s.execResult(ctx, b.Update("partner_groups").
		Set("name", g.Name).
		Set("color", g.Color).
		Where(sq.Eq{"id": g.ID}))
	if err != nil {
		return fmt.Errorf("update group: %w", err)
	}
	return requireAffected(res, "group", g.ID)
}

func (s *SQLStore) DeleteGroup(ctx context.Context, id int64) error {
	b := s.dialect.builder
	if err := s.exec(ctx, b.Update("partners").Set("group_id", nil).Where(sq.Eq{"group_id": id})); err != nil {
		return fmt.Errorf("release group members: %w", err)
	}
	res, err := s.execResult(ctx, b.Delete("partner_groups").Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	return requireAffected(res, "group", id)
}
