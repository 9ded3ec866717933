package service

import (
	"context"
	"testing"

	"github.com/MKris124/poultry-manager/internal/domain"
	"github.com/MKris124/poultry-manager/internal/repository"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGrowerService_CRUD(t *testing.T) {
	ctx := context.Background()
	svc := NewGrowerService(repository.NewMemoryStore(), zap.NewNop())

	g, err := svc.Create(ctx, GrowerRequest{Name: " Kovács János ", City: "BUGAC"})
	require.NoError(t, err)
	require.Equal(t, "Kovács János", g.Name)

	_, err = svc.Create(ctx, GrowerRequest{Name: "Kovács János", City: "BUGAC"})
	require.ErrorIs(t, err, domain.ErrConflict)
	_, err = svc.Create(ctx, GrowerRequest{City: "BUGAC"})
	require.ErrorIs(t, err, domain.ErrInvalid)

	g, err = svc.Update(ctx, g.ID, GrowerRequest{Name: "Kovács J.", City: "BUGAC"})
	require.NoError(t, err)
	require.Equal(t, "Kovács J.", g.Name)
	_, err = svc.Update(ctx, 999, GrowerRequest{Name: "x"})
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, g.ID))
	require.ErrorIs(t, svc.Delete(ctx, g.ID), domain.ErrNotFound)
}

func TestGrowerService_CityIsNormalizedForTheGrowerColumn(t *testing.T) {
	ctx := context.Background()
	svc := NewGrowerService(repository.NewMemoryStore(), zap.NewNop())

	g, err := svc.Create(ctx, GrowerRequest{Name: "Nagy Péter", City: " Székesfehérvár "})
	require.NoError(t, err)
	require.Equal(t, "SZÉKESFEHÉRVÁR", g.City)

	_, err = svc.Create(ctx, GrowerRequest{Name: "Nagy Péter", City: "székesfehérvár"})
	require.ErrorIs(t, err, domain.ErrConflict, "same natural key after normalization")

	_, err = svc.Create(ctx, GrowerRequest{Name: "Tóth Anna", City: "Kiskun Félegyháza"})
	require.ErrorIs(t, err, domain.ErrInvalid)
	_, err = svc.Update(ctx, g.ID, GrowerRequest{Name: "Nagy Péter", City: "Bács-Kiskun"})
	require.ErrorIs(t, err, domain.ErrInvalid)

	g, err = svc.Create(ctx, GrowerRequest{Name: "Kis Éva"})
	require.NoError(t, err)
	require.Empty(t, g.City)
}

func TestGrowerService_DeleteWithShipmentsConflicts(t *testing.T) {
	ctx := context.Background()
	s := repository.NewMemoryStore()
	svc := NewGrowerService(s, zap.NewNop())
	loc := seedPartnerWithLocation(t, s, 7, "Acme", "Szeged")

	g, err := svc.Create(ctx, GrowerRequest{Name: "Nagy Péter", City: "SZEGED"})
	require.NoError(t, err)
	require.NoError(t, s.SaveShipments(ctx, []*domain.Shipment{
		{LocationID: loc.ID, GrowerID: domain.Int64(g.ID), DeliveryCode: "001/24"},
	}))

	require.ErrorIs(t, svc.Delete(ctx, g.ID), domain.ErrConflict)
}

func TestGrowerService_ListWithStats(t *testing.T) {
	ctx := context.Background()
	s := repository.NewMemoryStore()
	svc := NewGrowerService(s, zap.NewNop())
	acme := seedPartnerWithLocation(t, s, 7, "Acme", "Szeged")
	beta := seedPartnerWithLocation(t, s, 8, "Beta", "Pécs")

	g, err := svc.Create(ctx, GrowerRequest{Name: "Nagy Péter", City: "SZEGED"})
	require.NoError(t, err)
	idle, err := svc.Create(ctx, GrowerRequest{Name: "Tóth Anna", City: "PECS"})
	require.NoError(t, err)
	require.NoError(t, s.LinkGrower(ctx, 7, g.ID))
	require.NoError(t, s.LinkGrower(ctx, 8, g.ID))
	require.NoError(t, s.SaveShipments(ctx, []*domain.Shipment{
		{LocationID: acme.ID, GrowerID: domain.Int64(g.ID), DeliveryCode: "001/24", Quantity: 300},
		{LocationID: acme.ID, GrowerID: domain.Int64(g.ID), DeliveryCode: "002/24", Quantity: 200},
		{LocationID: beta.ID, GrowerID: domain.Int64(g.ID), DeliveryCode: "001/24", Quantity: 50},
	}))

	list, err := svc.ListWithStats(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	byID := map[int64]domain.Grower{}
	for _, gr := range list {
		byID[gr.ID] = gr
	}
	require.Empty(t, byID[idle.ID].Partners)

	totals := map[int64]int64{}
	for _, p := range byID[g.ID].Partners {
		totals[p.PartnerID] = p.TotalQuantity
	}
	require.Equal(t, map[int64]int64{7: 500, 8: 50}, totals)
}
