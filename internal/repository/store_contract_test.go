package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MKris124/poultry-manager/internal/domain"

	"github.com/stretchr/testify/require"
)

// runStoreContract 两种实现共用的行为测试
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("partner upsert and lookup", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		_, err := s.GetPartner(ctx, 1002)
		require.True(t, errors.Is(err, domain.ErrNotFound))

		require.NoError(t, s.SavePartner(ctx, &domain.Partner{ID: 1002, Name: "Acme Farms"}))
		require.NoError(t, s.SavePartner(ctx, &domain.Partner{ID: 1002, Name: "Acme Farms Kft"}))

		p, err := s.GetPartner(ctx, 1002)
		require.NoError(t, err)
		require.Equal(t, "Acme Farms Kft", p.Name)
		require.Empty(t, p.Locations)

		list, err := s.ListPartners(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
	})

	t.Run("locations by natural key", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.SavePartner(ctx, &domain.Partner{ID: 7, Name: "Acme"}))

		loc := &domain.PartnerLocation{PartnerID: 7, City: "Kecskemét", County: "Bács"}
		require.NoError(t, s.SaveLocation(ctx, loc))
		require.NotZero(t, loc.ID)

		found, err := s.FindLocation(ctx, 7, "Kecskemét")
		require.NoError(t, err)
		require.Equal(t, loc.ID, found.ID)
		require.Equal(t, "Acme", found.PartnerName)

		found.County = "Bács-Kiskun"
		require.NoError(t, s.SaveLocation(ctx, found))
		again, err := s.GetLocation(ctx, loc.ID)
		require.NoError(t, err)
		require.Equal(t, "Bács-Kiskun", again.County)

		dup := &domain.PartnerLocation{PartnerID: 7, City: "Kecskemét"}
		require.True(t, errors.Is(s.SaveLocation(ctx, dup), domain.ErrConflict))

		_, err = s.FindLocation(ctx, 7, "Szeged")
		require.True(t, errors.Is(err, domain.ErrNotFound))
	})

	t.Run("grower links are idempotent", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.SavePartner(ctx, &domain.Partner{ID: 7, Name: "Acme"}))
		g := &domain.Grower{Name: "Kovács János", City: "BUGAC"}
		require.NoError(t, s.SaveGrower(ctx, g))

		require.NoError(t, s.LinkGrower(ctx, 7, g.ID))
		require.NoError(t, s.LinkGrower(ctx, 7, g.ID))

		p, err := s.GetPartner(ctx, 7)
		require.NoError(t, err)
		require.Len(t, p.Growers, 1)
		require.True(t, p.HasGrower(g.ID))

		found, err := s.FindGrower(ctx, "Kovács János", "BUGAC")
		require.NoError(t, err)
		require.Equal(t, g.ID, found.ID)

		require.NoError(t, s.DeleteGrower(ctx, g.ID))
		p, err = s.GetPartner(ctx, 7)
		require.NoError(t, err)
		require.Empty(t, p.Growers)
	})

	t.Run("shipments round trip and ordering", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		loc, grower := seedLocation(t, s)

		older := domain.NewDate(2024, time.May, 6)
		newer := domain.NewDate(2024, time.June, 3)
		shipments := []*domain.Shipment{
			{LocationID: loc.ID, DeliveryCode: "001/24", ProcessingDate: &older, Quantity: 1000, TotalWeight: 5200.5,
				KosherPercent: domain.Float(98), GrowerID: domain.Int64(grower.ID)},
			{LocationID: loc.ID, DeliveryCode: "002/24"},
			{LocationID: loc.ID, DeliveryCode: "003/24", ProcessingDate: &newer, LiverWeight: domain.Float(0.42)},
		}
		require.NoError(t, s.SaveShipments(ctx, shipments))
		for _, sh := range shipments {
			require.NotZero(t, sh.ID)
		}

		list, err := s.ListShipments(ctx, ShipmentFilter{})
		require.NoError(t, err)
		require.Len(t, list, 3)
		require.Equal(t, "003/24", list[0].DeliveryCode)
		require.Equal(t, "001/24", list[1].DeliveryCode)
		require.Equal(t, "002/24", list[2].DeliveryCode, "undated shipments sort last")

		first := list[1]
		require.Equal(t, "2024-05-06", first.ProcessingDate.String())
		require.Nil(t, first.DeliveryDate)
		require.Equal(t, 98.0, *first.KosherPercent)
		require.Nil(t, first.LiverWeight)
		require.Equal(t, 5200.5, first.TotalWeight)
		require.Equal(t, int64(7), first.PartnerID())
		require.Equal(t, "Acme", first.Location.PartnerName)
		require.NotNil(t, first.Grower)
		require.Equal(t, "Kovács János", first.Grower.Name)

		found, err := s.FindShipmentByCode(ctx, "001/24", loc.ID)
		require.NoError(t, err)
		require.Equal(t, shipments[0].ID, found.ID)

		found.Quantity = 2000
		require.NoError(t, s.SaveShipments(ctx, []*domain.Shipment{found}))
		reloaded, err := s.GetShipment(ctx, found.ID)
		require.NoError(t, err)
		require.Equal(t, 2000, reloaded.Quantity)

		n, err := s.CountGrowerShipments(ctx, grower.ID)
		require.NoError(t, err)
		require.Equal(t, 1, n)
	})

	t.Run("shipment filters", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		loc, grower := seedLocation(t, s)
		require.NoError(t, s.SavePartner(ctx, &domain.Partner{ID: 8, Name: "Other"}))
		other := &domain.PartnerLocation{PartnerID: 8, City: "Szeged"}
		require.NoError(t, s.SaveLocation(ctx, other))

		require.NoError(t, s.SaveShipments(ctx, []*domain.Shipment{
			{LocationID: loc.ID, DeliveryCode: "001/24", GrowerID: domain.Int64(grower.ID)},
			{LocationID: other.ID, DeliveryCode: "001/24"},
		}))

		byPartner, err := s.ListShipments(ctx, ShipmentFilter{PartnerIDs: []int64{8}})
		require.NoError(t, err)
		require.Len(t, byPartner, 1)
		require.Equal(t, other.ID, byPartner[0].LocationID)

		none, err := s.ListShipments(ctx, ShipmentFilter{PartnerIDs: []int64{}})
		require.NoError(t, err)
		require.Empty(t, none)

		byLocation, err := s.ListShipments(ctx, ShipmentFilter{LocationID: &loc.ID})
		require.NoError(t, err)
		require.Len(t, byLocation, 1)

		byGrower, err := s.ListShipments(ctx, ShipmentFilter{GrowerID: &grower.ID})
		require.NoError(t, err)
		require.Len(t, byGrower, 1)
		require.Equal(t, loc.ID, byGrower[0].LocationID)
	})

	t.Run("delete partner cascades", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		loc, _ := seedLocation(t, s)
		require.NoError(t, s.SaveShipments(ctx, []*domain.Shipment{{LocationID: loc.ID, DeliveryCode: "001/24"}}))

		require.NoError(t, s.DeletePartner(ctx, 7))
		_, err := s.GetLocation(ctx, loc.ID)
		require.True(t, errors.Is(err, domain.ErrNotFound))
		list, err := s.ListShipments(ctx, ShipmentFilter{})
		require.NoError(t, err)
		require.Empty(t, list)

		require.True(t, errors.Is(s.DeletePartner(ctx, 7), domain.ErrNotFound))
	})

	t.Run("groups", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.SavePartner(ctx, &domain.Partner{ID: 1, Name: "A"}))
		require.NoError(t, s.SavePartner(ctx, &domain.Partner{ID: 2, Name: "B"}))

		g := &domain.PartnerGroup{Name: "North", Color: "#ff0000"}
		require.NoError(t, s.SaveGroup(ctx, g))
		require.NoError(t, s.SetPartnerGroup(ctx, 1, &g.ID))
		require.NoError(t, s.SetPartnerGroup(ctx, 2, &g.ID))

		groups, err := s.ListGroups(ctx)
		require.NoError(t, err)
		require.Len(t, groups, 1)
		require.Len(t, groups[0].Members, 2)
		require.Equal(t, "#ff0000", groups[0].Color)

		require.NoError(t, s.DeleteGroup(ctx, g.ID))
		p, err := s.GetPartner(ctx, 1)
		require.NoError(t, err)
		require.Nil(t, p.GroupID)
		_, err = s.GetGroup(ctx, g.ID)
		require.True(t, errors.Is(err, domain.ErrNotFound))
	})

	t.Run("WithTx rolls back on error", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		loc, _ := seedLocation(t, s)

		boom := errors.New("boom")
		err := s.WithTx(ctx, func(tx Store) error {
			if err := tx.SaveShipments(ctx, []*domain.Shipment{{LocationID: loc.ID, DeliveryCode: "001/24"}}); err != nil {
				return err
			}
			if err := tx.SavePartner(ctx, &domain.Partner{ID: 99, Name: "Ghost"}); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		list, err := s.ListShipments(ctx, ShipmentFilter{})
		require.NoError(t, err)
		require.Empty(t, list)
		_, err = s.GetPartner(ctx, 99)
		require.True(t, errors.Is(err, domain.ErrNotFound))

		require.NoError(t, s.WithTx(ctx, func(tx Store) error {
			return tx.SaveShipments(ctx, []*domain.Shipment{{LocationID: loc.ID, DeliveryCode: "001/24"}})
		}))
		list, err = s.ListShipments(ctx, ShipmentFilter{})
		require.NoError(t, err)
		require.Len(t, list, 1)
	})

	t.Run("delete all", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		seedLocation(t, s)
		require.NoError(t, s.DeleteAll(ctx))

		partners, err := s.ListPartners(ctx)
		require.NoError(t, err)
		require.Empty(t, partners)
		growers, err := s.ListGrowers(ctx)
		require.NoError(t, err)
		require.Empty(t, growers)
	})
}

// seedLocation 合作方 7 + 一个站点 + 一个关联养殖户
func seedLocation(t *testing.T, s Store) (*domain.PartnerLocation, *domain.Grower) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.SavePartner(ctx, &domain.Partner{ID: 7, Name: "Acme"}))
	loc := &domain.PartnerLocation{PartnerID: 7, City: "Kecskemét"}
	require.NoError(t, s.SaveLocation(ctx, loc))
	g := &domain.Grower{Name: "Kovács János", City: "BUGAC"}
	require.NoError(t, s.SaveGrower(ctx, g))
	require.NoError(t, s.LinkGrower(ctx, 7, g.ID))
	return loc, g
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		return NewMemoryStore()
	})
}
