package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/MKris124/poultry-manager/internal/domain"

	sq "github.com/Masterminds/squirrel"
)

// shipmentWriteColumns 写入列，顺序与 shipmentValues 一致
var shipmentWriteColumns = []string{
	"location_id", "grower_id", "delivery_code", "delivery_date", "processing_date", "processing_week",
	"quantity", "total_weight", "net_quantity", "net_weight",
	"transport_mortality", "transport_mortality_kg",
	"liver_weight", "kosher_percent", "fattening_rate", "mortality_rate",
	"mortality_count", "fattening_days",
}

func shipmentValues(sh *domain.Shipment) []any {
	return []any{
		sh.LocationID, int64Arg(sh.GrowerID), sh.DeliveryCode, dateArg(sh.DeliveryDate), dateArg(sh.ProcessingDate), sh.ProcessingWeek,
		sh.Quantity, sh.TotalWeight, sh.NetQuantity, sh.NetWeight,
		sh.TransportMortality, sh.TransportMortalityKg,
		floatArg(sh.LiverWeight), floatArg(sh.KosherPercent), floatArg(sh.FatteningRate), floatArg(sh.MortalityRate),
		sh.MortalityCount, sh.FatteningDays,
	}
}

func (s *SQLStore) shipmentSelect() sq.SelectBuilder {
	return s.dialect.builder.
		Select(
			"s.id", "s.location_id", "s.grower_id", "s.delivery_code", "s.delivery_date", "s.processing_date", "s.processing_week",
			"s.quantity", "s.total_weight", "s.net_quantity", "s.net_weight",
			"s.transport_mortality", "s.transport_mortality_kg",
			"s.liver_weight", "s.kosher_percent", "s.fattening_rate", "s.mortality_rate",
			"s.mortality_count", "s.fattening_days",
			"l.partner_id", "l.city", "l.county", "p.name",
			"g.name", "g.city",
		).
		From("shipments s").
		Join("partner_locations l ON l.id = s.location_id").
		Join("partners p ON p.id = l.partner_id").
		LeftJoin("growers g ON g.id = s.grower_id")
}

func scanShipment(row interface{ Scan(...any) error }) (domain.Shipment, error) {
	var (
		sh                   domain.Shipment
		loc                  domain.PartnerLocation
		growerID             sql.NullInt64
		deliveryDate, procDt nullDate
		liver, kosher        sql.NullFloat64
		fattening, mortality sql.NullFloat64
		growerName           sql.NullString
		growerCity           sql.NullString
	)
	err := row.Scan(
		&sh.ID, &sh.LocationID, &growerID, &sh.DeliveryCode, &deliveryDate, &procDt, &sh.ProcessingWeek,
		&sh.Quantity, &sh.TotalWeight, &sh.NetQuantity, &sh.NetWeight,
		&sh.TransportMortality, &sh.TransportMortalityKg,
		&liver, &kosher, &fattening, &mortality,
		&sh.MortalityCount, &sh.FatteningDays,
		&loc.PartnerID, &loc.City, &loc.County, &loc.PartnerName,
		&growerName, &growerCity,
	)
	if err != nil {
		return sh, err
	}
	loc.ID = sh.LocationID
	sh.Location = &loc
	sh.GrowerID = int64Ptr(growerID)
	if sh.GrowerID != nil {
		sh.Grower = &domain.Grower{ID: *sh.GrowerID, Name: growerName.String, City: growerCity.String}
	}
	sh.DeliveryDate = deliveryDate.ptr()
	sh.ProcessingDate = procDt.ptr()
	sh.LiverWeight = floatPtr(liver)
	sh.KosherPercent = floatPtr(kosher)
	sh.FatteningRate = floatPtr(fattening)
	sh.MortalityRate = floatPtr(mortality)
	return sh, nil
}

func (s *SQLStore) FindShipmentByCode(ctx context.Context, deliveryCode string, locationID int64) (*domain.Shipment, error) {
	query, args, err := s.shipmentSelect().
		Where(sq.Eq{"s.delivery_code": deliveryCode, "s.location_id": locationID}).
		OrderBy("s.id").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}
	sh, err := scanShipment(s.q.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, notFound(err, "shipment", deliveryCode)
	}
	return &sh, nil
}

func (s *SQLStore) GetShipment(ctx context.Context, id int64) (*domain.Shipment, error) {
	query, args, err := s.shipmentSelect().Where(sq.Eq{"s.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	sh, err := scanShipment(s.q.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, notFound(err, "shipment", id)
	}
	return &sh, nil
}

// ListShipments 按加工日期倒序，无日期的排最后
func (s *SQLStore) ListShipments(ctx context.Context, filter ShipmentFilter) ([]domain.Shipment, error) {
	if filter.PartnerIDs != nil && len(filter.PartnerIDs) == 0 {
		return []domain.Shipment{}, nil
	}

	b := s.shipmentSelect().OrderBy("s.processing_date IS NULL", "s.processing_date DESC", "s.id DESC")
	if filter.PartnerIDs != nil {
		b = b.Where(sq.Eq{"l.partner_id": filter.PartnerIDs})
	}
	if filter.LocationID != nil {
		b = b.Where(sq.Eq{"s.location_id": *filter.LocationID})
	}
	if filter.GrowerID != nil {
		b = b.Where(sq.Eq{"s.grower_id": *filter.GrowerID})
	}

	rows, err := s.query(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("list shipments: %w", err)
	}
	defer rows.Close()

	shipments := []domain.Shipment{}
	for rows.Next() {
		sh, err := scanShipment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shipment: %w", err)
		}
		shipments = append(shipments, sh)
	}
	return shipments, rows.Err()
}

// SaveShipments 任一条失败即返回错误；原子性由外层 WithTx 保证
func (s *SQLStore) SaveShipments(ctx context.Context, shipments []*domain.Shipment) error {
	b := s.dialect.builder
	for _, sh := range shipments {
		if sh.ID == 0 {
			id, err := s.insertReturningID(ctx, b.Insert("shipments").Columns(shipmentWriteColumns...).Values(shipmentValues(sh)...))
			if err != nil {
				return fmt.Errorf("insert shipment %s: %w", sh.DeliveryCode, err)
			}
			sh.ID = id
			continue
		}

		values := shipmentValues(sh)
		upd := b.Update("shipments").Where(sq.Eq{"id": sh.ID})
		for i, col := range shipmentWriteColumns {
			upd = upd.Set(col, values[i])
		}
		res, err := s.execResult(ctx, upd)
		if err != nil {
			return fmt.Errorf("update shipment %d: %w", sh.ID, err)
		}
		if err := requireAffected(res, "shipment", sh.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLStore) DeleteShipment(ctx context.Context, id int64) error {
	res, err := s.execResult(ctx, s.dialect.builder.Delete("shipments").Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("delete shipment: %w", err)
	}
	return requireAffected(res, "shipment", id)
}
