package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/MKris124/poultry-manager/internal/domain"
	"github.com/MKris124/poultry-manager/internal/ingest"
	"github.com/MKris124/poultry-manager/internal/repository"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// sampleRow 一行完整的上传数据；调用方按列常量修改
func sampleRow(nameCode string) []any {
	row := make([]any, len(ingest.Columns))
	row[ingest.ColGrower] = "Kovács János BUGAC"
	row[ingest.ColNameCode] = nameCode
	row[ingest.ColCity] = "Kecskemét"
	row[ingest.ColCounty] = "Bács-Kiskun"
	row[ingest.ColDeliveryDate] = "2024.03.04"
	row[ingest.ColQuantity] = 1000
	row[ingest.ColTotalWeight] = 5000
	row[ingest.ColProcessingDate] = "2024.03.10"
	row[ingest.ColTransportMortality] = 10
	row[ingest.ColTransportMortalityKg] = 50
	row[ingest.ColKosherPercent] = 62.5
	row[ingest.ColLiverWeight] = 0.7
	row[ingest.ColMortalityCount] = 20
	row[ingest.ColFatteningDays] = 14
	return row
}

// buildWorkbook 表头 + 数据行，写入内存
func buildWorkbook(t *testing.T, rows ...[]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	header := make([]any, len(ingest.Columns))
	for i, h := range ingest.Columns {
		header[i] = h
	}
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &header))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}

	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	return &buf
}

func seedPartnerWithLocation(t *testing.T, s repository.Store, id int64, name, city string) *domain.PartnerLocation {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.SavePartner(ctx, &domain.Partner{ID: id, Name: name}))
	loc := &domain.PartnerLocation{PartnerID: id, City: city}
	require.NoError(t, s.SaveLocation(ctx, loc))
	return loc
}

var errDiskFull = errors.New("disk full")

// failingStore SaveShipments 总是失败，用于验证回滚
type failingStore struct {
	repository.Store
}

func (f *failingStore) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return f.Store.WithTx(ctx, func(tx repository.Store) error {
		return fn(&failingStore{Store: tx})
	})
}

func (f *failingStore) SaveShipments(context.Context, []*domain.Shipment) error {
	return errDiskFull
}
