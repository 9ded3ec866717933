package repository

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"

	"github.com/MKris124/poultry-manager/internal/domain"
)

// MemoryStore supports the API when DB is disabled (local dev / tests).
// WithTx 通过快照实现回滚。
type MemoryStore struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	state memoryState
}

type memoryState struct {
	partners  map[int64]domain.Partner // 只存基本字段
	locations map[int64]domain.PartnerLocation
	growers   map[int64]domain.Grower
	links     map[int64]map[int64]bool // partnerID -> growerID set
	groups    map[int64]domain.PartnerGroup
	shipments map[int64]domain.Shipment

	nextLocationID int64
	nextGrowerID   int64
	nextGroupID    int64
	nextShipmentID int64
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemoryState()}
}

func newMemoryState() memoryState {
	return memoryState{
		partners:  map[int64]domain.Partner{},
		locations: map[int64]domain.PartnerLocation{},
		growers:   map[int64]domain.Grower{},
		links:     map[int64]map[int64]bool{},
		groups:    map[int64]domain.PartnerGroup{},
		shipments: map[int64]domain.Shipment{},
	}
}

func (st memoryState) clone() memoryState {
	c := st
	c.partners = maps.Clone(st.partners)
	c.locations = maps.Clone(st.locations)
	c.growers = maps.Clone(st.growers)
	c.groups = maps.Clone(st.groups)
	c.shipments = maps.Clone(st.shipments)
	c.links = make(map[int64]map[int64]bool, len(st.links))
	for k, v := range st.links {
		c.links[k] = maps.Clone(v)
	}
	return c
}

// WithTx 同一时刻只允许一个事务；fn 出错时恢复快照
func (m *MemoryStore) WithTx(_ context.Context, fn func(tx Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.RLock()
	snapshot := m.state.clone()
	m.mu.RUnlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.state = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *MemoryStore) DeleteAll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = newMemoryState()
	return nil
}

// ---- partners ----

func (m *MemoryStore) GetPartner(_ context.Context, id int64) (*domain.Partner, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.state.partners[id]
	if !ok {
		return nil, fmt.Errorf("partner %d: %w", id, domain.ErrNotFound)
	}
	p = m.hydratePartner(p)
	return &p, nil
}

func (m *MemoryStore) ListPartners(_ context.Context) ([]domain.Partner, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Partner, 0, len(m.state.partners))
	for _, p := range m.state.partners {
		out = append(out, m.hydratePartner(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// hydratePartner 调用方需持有读锁
func (m *MemoryStore) hydratePartner(p domain.Partner) domain.Partner {
	p.Locations = m.locationsOf(p.ID)
	p.Growers = nil
	for gid := range m.state.links[p.ID] {
		if g, ok := m.state.growers[gid]; ok {
			p.Growers = append(p.Growers, g)
		}
	}
	sort.Slice(p.Growers, func(i, j int) bool {
		if p.Growers[i].Name != p.Growers[j].Name {
			return p.Growers[i].Name < p.Growers[j].Name
		}
		return p.Growers[i].ID < p.Growers[j].ID
	})
	return p
}

func (m *MemoryStore) SavePartner(_ context.Context, p *domain.Partner) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.partners[p.ID] = domain.Partner{
		ID:      p.ID,
		Name:    p.Name,
		City:    p.City,
		County:  p.County,
		GroupID: copyInt64(p.GroupID),
	}
	return nil
}

func (m *MemoryStore) DeletePartner(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.state.partners[id]; !ok {
		return fmt.Errorf("partner %d: %w", id, domain.ErrNotFound)
	}
	for lid, l := range m.state.locations {
		if l.PartnerID == id {
			m.deleteLocationLocked(lid)
		}
	}
	delete(m.state.links, id)
	delete(m.state.partners, id)
	return nil
}

func (m *MemoryStore) LinkGrower(_ context.Context, partnerID, growerID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.state.partners[partnerID]; !ok {
		return fmt.Errorf("partner %d: %w", partnerID, domain.ErrNotFound)
	}
	if _, ok := m.state.growers[growerID]; !ok {
		return fmt.Errorf("grower %d: %w", growerID, domain.ErrNotFound)
	}
	if m.state.links[partnerID] == nil {
		m.state.links[partnerID] = map[int64]bool{}
	}
	m.state.links[partnerID][growerID] = true
	return nil
}

func (m *MemoryStore) SetPartnerGroup(_ context.Context, partnerID int64, groupID *int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.state.partners[partnerID]
	if !ok {
		return fmt.Errorf("partner %d: %w", partnerID, domain.ErrNotFound)
	}
	p.GroupID = copyInt64(groupID)
	m.state.partners[partnerID] = p
	return nil
}

// ---- locations ----

func (m *MemoryStore) FindLocation(_ context.Context, partnerID int64, city string) (*domain.PartnerLocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, l := range m.state.locations {
		if l.PartnerID == partnerID && l.City == city {
			l = m.withPartnerName(l)
			return &l, nil
		}
	}
	return nil, fmt.Errorf("location %d/%s: %w", partnerID, city, domain.ErrNotFound)
}

func (m *MemoryStore) GetLocation(_ context.Context, id int64) (*domain.PartnerLocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l, ok := m.state.locations[id]
	if !ok {
		return nil, fmt.Errorf("location %d: %w", id, domain.ErrNotFound)
	}
	l = m.withPartnerName(l)
	return &l, nil
}

func (m *MemoryStore) ListLocations(_ context.Context, partnerID int64) ([]domain.PartnerLocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.locationsOf(partnerID), nil
}

func (m *MemoryStore) locationsOf(partnerID int64) []domain.PartnerLocation {
	var out []domain.PartnerLocation
	for _, l := range m.state.locations {
		if l.PartnerID == partnerID {
			out = append(out, m.withPartnerName(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *MemoryStore) withPartnerName(l domain.PartnerLocation) domain.PartnerLocation {
	l.PartnerName = m.state.partners[l.PartnerID].Name
	return l
}

func (m *MemoryStore) SaveLocation(_ context.Context, l *domain.PartnerLocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.state.partners[l.PartnerID]; !ok {
		return fmt.Errorf("partner %d: %w", l.PartnerID, domain.ErrNotFound)
	}
	for id, other := range m.state.locations {
		if id != l.ID && other.PartnerID == l.PartnerID && other.City == l.City {
			return fmt.Errorf("%w: location %s already exists for partner %d", domain.ErrConflict, l.City, l.PartnerID)
		}
	}
	if l.ID == 0 {
		m.state.nextLocationID++
		l.ID = m.state.nextLocationID
	} else if _, ok := m.state.locations[l.ID]; !ok {
		return fmt.Errorf("location %d: %w", l.ID, domain.ErrNotFound)
	}
	m.state.locations[l.ID] = domain.PartnerLocation{ID: l.ID, PartnerID: l.PartnerID, City: l.City, County: l.County}
	return nil
}

func (m *MemoryStore) DeleteLocation(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.state.locations[id]; !ok {
		return fmt.Errorf("location %d: %w", id, domain.ErrNotFound)
	}
	m.deleteLocationLocked(id)
	return nil
}

func (m *MemoryStore) deleteLocationLocked(id int64) {
	for sid, sh := range m.state.shipments {
		if sh.LocationID == id {
			delete(m.state.shipments, sid)
		}
	}
	delete(m.state.locations, id)
}

// ---- growers ----

func (m *MemoryStore) FindGrower(_ context.Context, name, city string) (*domain.Grower, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, g := range m.state.growers {
		if g.Name == name && g.City == city {
			return &g, nil
		}
	}
	return nil, fmt.Errorf("grower %s/%s: %w", name, city, domain.ErrNotFound)
}

func (m *MemoryStore) GetGrower(_ context.Context, id int64) (*domain.Grower, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.state.growers[id]
	if !ok {
		return nil, fmt.Errorf("grower %d: %w", id, domain.ErrNotFound)
	}
	return &g, nil
}

func (m *MemoryStore) ListGrowers(_ context.Context) ([]domain.Grower, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Grower, 0, len(m.state.growers))
	for _, g := range m.state.growers {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryStore) SaveGrower(_ context.Context, g *domain.Grower) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, other := range m.state.growers {
		if id != g.ID && other.Name == g.Name && other.City == g.City {
			return fmt.Errorf("%w: grower %s (%s) already exists", domain.ErrConflict, g.Name, g.City)
		}
	}
	if g.ID == 0 {
		m.state.nextGrowerID++
		g.ID = m.state.nextGrowerID
	} else if _, ok := m.state.growers[g.ID]; !ok {
		return fmt.Errorf("grower %d: %w", g.ID, domain.ErrNotFound)
	}
	m.state.growers[g.ID] = domain.Grower{ID: g.ID, Name: g.Name, City: g.City}
	return nil
}

func (m *MemoryStore) DeleteGrower(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.state.growers[id]; !ok {
		return fmt.Errorf("grower %d: %w", id, domain.ErrNotFound)
	}
	for _, set := range m.state.links {
		delete(set, id)
	}
	delete(m.state.growers, id)
	return nil
}

func (m *MemoryStore) CountGrowerShipments(_ context.Context, growerID int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, sh := range m.state.shipments {
		if sh.GrowerID != nil && *sh.GrowerID == growerID {
			n++
		}
	}
	return n, nil
}

// ---- groups ----

func (m *MemoryStore) ListGroups(_ context.Context) ([]domain.PartnerGroup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.PartnerGroup, 0, len(m.state.groups))
	for _, g := range m.state.groups {
		out = append(out, m.withMembers(g))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) GetGroup(_ context.Context, id int64) (*domain.PartnerGroup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.state.groups[id]
	if !ok {
		return nil, fmt.Errorf("group %d: %w", id, domain.ErrNotFound)
	}
	g = m.withMembers(g)
	return &g, nil
}

func (m *MemoryStore) withMembers(g domain.PartnerGroup) domain.PartnerGroup {
	g.Members = []domain.Partner{}
	for _, p := range m.state.partners {
		if p.GroupID != nil && *p.GroupID == g.ID {
			g.Members = append(g.Members, p)
		}
	}
	sort.Slice(g.Members, func(i, j int) bool { return g.Members[i].ID < g.Members[j].ID })
	return g
}

func (m *MemoryStore) SaveGroup(_ context.Context, g *domain.PartnerGroup) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if g.ID == 0 {
		m.state.nextGroupID++
		g.ID = m.state.nextGroupID
	} else if _, ok := m.state.groups[g.ID]; !ok {
		return fmt.Errorf("group %d: %w", g.ID, domain.ErrNotFound)
	}
	m.state.groups[g.ID] = domain.PartnerGroup{ID: g.ID, Name: g.Name, Color: g.Color}
	return nil
}

func (m *MemoryStore) DeleteGroup(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.state.groups[id]; !ok {
		return fmt.Errorf("group %d: %w", id, domain.ErrNotFound)
	}
	for pid, p := range m.state.partners {
		if p.GroupID != nil && *p.GroupID == id {
			p.GroupID = nil
			m.state.partners[pid] = p
		}
	}
	delete(m.state.groups, id)
	return nil
}

// ---- shipments ----

func (m *MemoryStore) FindShipmentByCode(_ context.Context, deliveryCode string, locationID int64) (*domain.Shipment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var found *domain.Shipment
	for _, sh := range m.state.shipments {
		if sh.LocationID == locationID && sh.DeliveryCode == deliveryCode {
			if found == nil || sh.ID < found.ID {
				h := m.hydrateShipment(sh)
				found = &h
			}
		}
	}
	if found == nil {
		return nil, fmt.Errorf("shipment %s: %w", deliveryCode, domain.ErrNotFound)
	}
	return found, nil
}

func (m *MemoryStore) GetShipment(_ context.Context, id int64) (*domain.Shipment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sh, ok := m.state.shipments[id]
	if !ok {
		return nil, fmt.Errorf("shipment %d: %w", id, domain.ErrNotFound)
	}
	sh = m.hydrateShipment(sh)
	return &sh, nil
}

func (m *MemoryStore) ListShipments(_ context.Context, filter ShipmentFilter) ([]domain.Shipment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var partnerSet map[int64]bool
	if filter.PartnerIDs != nil {
		partnerSet = make(map[int64]bool, len(filter.PartnerIDs))
		for _, id := range filter.PartnerIDs {
			partnerSet[id] = true
		}
	}

	out := []domain.Shipment{}
	for _, sh := range m.state.shipments {
		if filter.LocationID != nil && sh.LocationID != *filter.LocationID {
			continue
		}
		if filter.GrowerID != nil && (sh.GrowerID == nil || *sh.GrowerID != *filter.GrowerID) {
			continue
		}
		if partnerSet != nil && !partnerSet[m.state.locations[sh.LocationID].PartnerID] {
			continue
		}
		out = append(out, m.hydrateShipment(sh))
	}
	sortByProcessingDateDesc(out)
	return out, nil
}

// sortByProcessingDateDesc 与 SQL 实现的排序一致
func sortByProcessingDateDesc(list []domain.Shipment) {
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i].ProcessingDate, list[j].ProcessingDate
		switch {
		case a == nil && b == nil:
			return list[i].ID > list[j].ID
		case a == nil:
			return false
		case b == nil:
			return true
		case !a.Equal(b.Time):
			return a.After(b.Time)
		default:
			return list[i].ID > list[j].ID
		}
	})
}

func (m *MemoryStore) hydrateShipment(sh domain.Shipment) domain.Shipment {
	sh = cloneShipment(sh)
	if l, ok := m.state.locations[sh.LocationID]; ok {
		l = m.withPartnerName(l)
		sh.Location = &l
	}
	if sh.GrowerID != nil {
		if g, ok := m.state.growers[*sh.GrowerID]; ok {
			sh.Grower = &g
		}
	}
	return sh
}

func (m *MemoryStore) SaveShipments(_ context.Context, shipments []*domain.Shipment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, sh := range shipments {
		if _, ok := m.state.locations[sh.LocationID]; !ok {
			return fmt.Errorf("location %d: %w", sh.LocationID, domain.ErrNotFound)
		}
		if sh.GrowerID != nil {
			if _, ok := m.state.growers[*sh.GrowerID]; !ok {
				return fmt.Errorf("grower %d: %w", *sh.GrowerID, domain.ErrNotFound)
			}
		}
		if sh.ID == 0 {
			m.state.nextShipmentID++
			sh.ID = m.state.nextShipmentID
		} else if _, ok := m.state.shipments[sh.ID]; !ok {
			return fmt.Errorf("shipment %d: %w", sh.ID, domain.ErrNotFound)
		}
		stored := cloneShipment(*sh)
		stored.Location = nil
		stored.Grower = nil
		m.state.shipments[sh.ID] = stored
	}
	return nil
}

func (m *MemoryStore) DeleteShipment(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.state.shipments[id]; !ok {
		return fmt.Errorf("shipment %d: %w", id, domain.ErrNotFound)
	}
	delete(m.state.shipments, id)
	return nil
}

// cloneShipment 复制指针字段，避免调用方修改已存储的数据
func cloneShipment(sh domain.Shipment) domain.Shipment {
	sh.GrowerID = copyInt64(sh.GrowerID)
	sh.DeliveryDate = copyDate(sh.DeliveryDate)
	sh.ProcessingDate = copyDate(sh.ProcessingDate)
	sh.LiverWeight = copyFloat(sh.LiverWeight)
	sh.KosherPercent = copyFloat(sh.KosherPercent)
	sh.FatteningRate = copyFloat(sh.FatteningRate)
	sh.MortalityRate = copyFloat(sh.MortalityRate)
	return sh
}

func copyInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyDate(v *domain.Date) *domain.Date {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
