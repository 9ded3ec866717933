package service

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/MKris124/poultry-manager/internal/domain"
	"github.com/MKris124/poultry-manager/internal/ingest"
	"github.com/MKris124/poultry-manager/internal/repository"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	// ExportFileName 导出文件的下载名
	ExportFileName = "szallitmanyok_export.xlsx"
	// TemplateFileName 空白导入模板的下载名
	TemplateFileName = "szallitmanyok_sablon.xlsx"

	exportSheetName = "Adatok"
	exportDateFmt   = "2006.01.02"

	// excelize 内置数字格式
	numFmtDecimal = 2  // 0.00
	numFmtPercent = 10 // 0.00%
)

// 列宽与 ingest.Columns 一一对应
var exportColumnWidths = []float64{
	28, 30, 16, 16, 14, 10, 12, 12, 10, 14,
	10, 12, 12, 12, 12, 10, 10, 12, 12, 12, 12,
}

// 需要两位小数格式的列
var decimalColumns = []int{
	ingest.ColTotalWeight,
	ingest.ColAvgGrossWeight,
	ingest.ColNetWeight,
	ingest.ColAvgNetWeight,
	ingest.ColTransportMortalityKg,
	ingest.ColKosherPercent,
	ingest.ColLiverWeight,
	ingest.ColFatteningRate,
}

// ExportService 生成与导入模板列布局一致的 xlsx，导出文件可原样重新导入
type ExportService struct {
	store  repository.Store
	logger *zap.Logger
}

func NewExportService(store repository.Store, logger *zap.Logger) *ExportService {
	return &ExportService{store: store, logger: logger}
}

// ExportSelectedPartners 导出指定合作方的全部发货记录；空列表只生成表头
func (s *ExportService) ExportSelectedPartners(ctx context.Context, partnerIDs []int64) ([]byte, error) {
	if partnerIDs == nil {
		partnerIDs = []int64{}
	}
	shipments, err := s.store.ListShipments(ctx, repository.ShipmentFilter{PartnerIDs: partnerIDs})
	if err != nil {
		return nil, err
	}
	data, err := generateShipmentExcel(shipments)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Shipments exported",
		zap.Int("partners", len(partnerIDs)),
		zap.Int("shipments", len(shipments)),
		zap.Int("bytes", len(data)),
	)
	return data, nil
}

// Template 只含表头的导入模板
func (s *ExportService) Template() ([]byte, error) {
	return generateShipmentExcel(nil)
}

func generateShipmentExcel(shipments []domain.Shipment) ([]byte, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(exportSheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"#E6E6FA"}, Pattern: 1},
		Border: border,
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
			WrapText:   true,
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	decimalStyle, err := f.NewStyle(&excelize.Style{NumFmt: numFmtDecimal})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create decimal style: %w", err)
	}
	percentStyle, err := f.NewStyle(&excelize.Style{NumFmt: numFmtPercent})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create percent style: %w", err)
	}

	header := make([]any, len(ingest.Columns))
	for i, h := range ingest.Columns {
		header[i] = h
	}
	if err := f.SetSheetRow(exportSheetName, "A1", &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(ingest.Columns))
	if err := f.SetCellStyle(exportSheetName, "A1", lastCol+"1", headerStyle); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}

	for i, width := range exportColumnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(exportSheetName, col, col, width); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i := range shipments {
		row := i + 2 // 第 1 行是表头
		values := exportRow(&shipments[i])
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(exportSheetName, cell, &values); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write row %d: %w", row, err)
		}
	}

	if n := len(shipments); n > 0 {
		last := n + 1
		for _, col := range decimalColumns {
			if err := setColumnStyle(f, col, last, decimalStyle); err != nil {
				f.Close()
				return nil, err
			}
		}
		if err := setColumnStyle(f, ingest.ColMortalityRate, last, percentStyle); err != nil {
			f.Close()
			return nil, err
		}
	}

	if err := f.SetPanes(exportSheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}

// setColumnStyle col 为 0 起始列号，样式作用于第 2 行到 lastRow
func setColumnStyle(f *excelize.File, col, lastRow, style int) error {
	top, err := excelize.CoordinatesToCellName(col+1, 2)
	if err != nil {
		return fmt.Errorf("failed to convert coordinates: %w", err)
	}
	bottom, err := excelize.CoordinatesToCellName(col+1, lastRow)
	if err != nil {
		return fmt.Errorf("failed to convert coordinates: %w", err)
	}
	if err := f.SetCellStyle(exportSheetName, top, bottom, style); err != nil {
		return fmt.Errorf("failed to set style %s:%s: %w", top, bottom, err)
	}
	return nil
}

// exportRow 按 ingest 列常量排列一行；缺失值留空
func exportRow(sh *domain.Shipment) []any {
	values := make([]any, len(ingest.Columns))

	var partnerID int64
	var partnerName, city, county string
	if sh.Location != nil {
		partnerID = sh.Location.PartnerID
		partnerName = sh.Location.PartnerName
		city = sh.Location.City
		county = sh.Location.County
	}

	if sh.Grower != nil {
		values[ingest.ColGrower] = strings.TrimSpace(sh.Grower.Name + " " + sh.Grower.City)
	}
	values[ingest.ColNameCode] = exportNameCode(partnerName, partnerID, sh.DeliveryCode)
	values[ingest.ColCity] = city
	values[ingest.ColCounty] = county
	values[ingest.ColDeliveryDate] = exportDate(sh.DeliveryDate)
	values[ingest.ColQuantity] = sh.Quantity
	values[ingest.ColTotalWeight] = sh.TotalWeight
	if sh.Quantity > 0 {
		values[ingest.ColAvgGrossWeight] = sh.TotalWeight / float64(sh.Quantity)
	}
	week := sh.ProcessingWeek
	if sh.ProcessingDate != nil {
		week = sh.ProcessingDate.ISOWeek()
	}
	if week > 0 {
		values[ingest.ColProcessingWeek] = week
	}
	values[ingest.ColProcessingDate] = exportDate(sh.ProcessingDate)
	values[ingest.ColNetQuantity] = sh.NetQuantity
	values[ingest.ColNetWeight] = sh.NetWeight
	if sh.NetQuantity > 0 {
		values[ingest.ColAvgNetWeight] = sh.NetWeight / float64(sh.NetQuantity)
	}
	values[ingest.ColTransportMortality] = sh.TransportMortality
	values[ingest.ColTransportMortalityKg] = sh.TransportMortalityKg
	values[ingest.ColKosherPercent] = optValue(sh.KosherPercent)
	values[ingest.ColLiverWeight] = optValue(sh.LiverWeight)
	values[ingest.ColFatteningRate] = optValue(sh.FatteningRate)
	values[ingest.ColMortalityCount] = sh.MortalityCount
	if sh.MortalityRate != nil {
		values[ingest.ColMortalityRate] = *sh.MortalityRate / 100
	}
	values[ingest.ColFatteningDays] = sh.FatteningDays
	return values
}

// exportNameCode "<合作方名称> <partnerId>/<序号>/<年>"，与 ingest.ParseNameCode 互逆
// 序号可能与 partnerId 相同（"7/24"），因此总是加前缀
func exportNameCode(partnerName string, partnerID int64, code string) string {
	return strings.TrimSpace(partnerName + " " + strconv.FormatInt(partnerID, 10) + "/" + code)
}

func exportDate(d *domain.Date) any {
	if d == nil {
		return nil
	}
	return d.Format(exportDateFmt)
}

func optValue(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
