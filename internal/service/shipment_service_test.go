package service

import (
	"context"
	"testing"

	"github.com/MKris124/poultry-manager/internal/domain"
	"github.com/MKris124/poultry-manager/internal/repository"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestShipmentService_CreateDerivesLikeImport(t *testing.T) {
	ctx := context.Background()
	s := repository.NewMemoryStore()
	loc := seedPartnerWithLocation(t, s, 7, "Acme", "Szeged")
	svc := NewShipmentService(s, zap.NewNop())

	processed := domain.NewDate(2024, 3, 10)
	sh, err := svc.Create(ctx, ShipmentRequest{
		LocationID:         domain.Int64(loc.ID),
		DeliveryCode:       " 001/24 ",
		ProcessingDate:     &processed,
		Quantity:           1000,
		TotalWeight:        5000,
		TransportMortality: 10,
		MortalityCount:     20,
	})
	require.NoError(t, err)
	require.Equal(t, "001/24", sh.DeliveryCode)
	require.Equal(t, 990, sh.NetQuantity)
	require.Equal(t, 10, sh.ProcessingWeek)
	require.InDelta(t, 2.0, *sh.MortalityRate, 1e-9)
	require.NotNil(t, sh.Location)
	require.Equal(t, "Acme", sh.Location.PartnerName)
}

func TestShipmentService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	s := repository.NewMemoryStore()
	loc := seedPartnerWithLocation(t, s, 7, "Acme", "Szeged")
	svc := NewShipmentService(s, zap.NewNop())

	_, err := svc.Create(ctx, ShipmentRequest{DeliveryCode: "001/24"})
	require.ErrorIs(t, err, domain.ErrInvalid)

	_, err = svc.Create(ctx, ShipmentRequest{LocationID: domain.Int64(loc.ID), Quantity: -1})
	require.ErrorIs(t, err, domain.ErrInvalid)

	delivered := domain.NewDate(2025, 1, 2)
	_, err = svc.Create(ctx, ShipmentRequest{LocationID: domain.Int64(loc.ID), DeliveryCode: "001/24", DeliveryDate: &delivered})
	require.ErrorIs(t, err, domain.ErrInvalid)

	_, err = svc.Create(ctx, ShipmentRequest{LocationID: domain.Int64(999), DeliveryCode: "001/24"})
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Create(ctx, ShipmentRequest{LocationID: domain.Int64(loc.ID), GrowerID: domain.Int64(999)})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestShipmentService_UpdateKeepsLocation(t *testing.T) {
	ctx := context.Background()
	s := repository.NewMemoryStore()
	loc := seedPartnerWithLocation(t, s, 7, "Acme", "Szeged")
	svc := NewShipmentService(s, zap.NewNop())

	sh, err := svc.Create(ctx, ShipmentRequest{LocationID: domain.Int64(loc.ID), DeliveryCode: "001/24", Quantity: 100})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, sh.ID, ShipmentRequest{DeliveryCode: "001/24", Quantity: 120, LiverWeight: domain.Float(0.8)})
	require.NoError(t, err)
	require.Equal(t, sh.ID, updated.ID)
	require.Equal(t, loc.ID, updated.LocationID)
	require.Equal(t, 120, updated.Quantity)

	_, err = svc.Update(ctx, 999, ShipmentRequest{})
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, sh.ID))
	require.ErrorIs(t, svc.Delete(ctx, sh.ID), domain.ErrNotFound)
}

func TestShipmentService_History(t *testing.T) {
	ctx := context.Background()
	s := repository.NewMemoryStore()
	acme := seedPartnerWithLocation(t, s, 7, "Acme", "Szeged")
	beta := seedPartnerWithLocation(t, s, 8, "Beta", "Pécs")
	svc := NewShipmentService(s, zap.NewNop())

	early, late := domain.NewDate(2024, 1, 5), domain.NewDate(2024, 6, 1)
	require.NoError(t, s.SaveShipments(ctx, []*domain.Shipment{
		{LocationID: acme.ID, DeliveryCode: "001/24", ProcessingDate: &early},
		{LocationID: acme.ID, DeliveryCode: "002/24", ProcessingDate: &late},
		{LocationID: beta.ID, DeliveryCode: "001/24"},
	}))

	history, err := svc.HistoryByPartner(ctx, 7)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, "002/24", history[0].DeliveryCode)

	both, err := svc.HistoryByPartners(ctx, []int64{7, 8})
	require.NoError(t, err)
	require.Len(t, both, 3)

	none, err := svc.HistoryByPartners(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, none)

	byLoc, err := svc.HistoryByLocation(ctx, beta.ID)
	require.NoError(t, err)
	require.Len(t, byLoc, 1)
}
