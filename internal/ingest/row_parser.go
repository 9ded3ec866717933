package ingest

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/MKris124/poultry-manager/internal/domain"

	"github.com/xuri/excelize/v2"
)

// 上传模板的固定列位置（0 起始）
const (
	ColGrower = iota
	ColNameCode
	ColCity
	ColCounty
	ColDeliveryDate
	ColQuantity
	ColTotalWeight
	ColAvgGrossWeight // 仅导出，导入时忽略
	ColProcessingWeek
	ColProcessingDate
	ColNetQuantity
	ColNetWeight
	ColAvgNetWeight // 仅导出，导入时忽略
	ColTransportMortality
	ColTransportMortalityKg
	ColKosherPercent
	ColLiverWeight
	ColFatteningRate
	ColMortalityCount
	ColMortalityRate // 小数形式（0.023 = 2.3%）
	ColFatteningDays
)

// Columns 模板表头，顺序与上面的列常量一致
var Columns = []string{
	"Grower",
	"Name / Code",
	"City",
	"County",
	"Delivery Date",
	"Gross Qty",
	"Gross Kg",
	"Avg Gross Kg",
	"Processing Week",
	"Processing Date",
	"Net Qty",
	"Net Kg",
	"Avg Net Kg",
	"Transport Mortality Qty",
	"Transport Mortality Kg",
	"Kosher %",
	"Liver Kg",
	"Fattening Rate",
	"Mortality Qty",
	"Mortality %",
	"Fattening Days",
}

var (
	// "<合作方名称> <partnerId>/<序号>/<年>"
	nameCodePattern = regexp.MustCompile(`^(.*)\s+(\d+)/(\d+)/(\d+)$`)
	// "<养殖户名称> <大写城市名>"
	growerPattern = regexp.MustCompile(`^(.*)\s+(\p{Lu}+)$`)
	cityPattern   = regexp.MustCompile(`^\p{Lu}+$`)
)

// ErrSkipRow 名称/编码列为空，整行静默跳过（不计成功也不计失败）
var ErrSkipRow = errors.New("blank name/code column")

// GrowerKey 养殖户自然键
type GrowerKey struct {
	Name string
	City string
}

// ParsedRow 一行解析结果；Shipment 只含表格中的原始字段，尚未补全派生字段
type ParsedRow struct {
	Number      int
	Grower      *GrowerKey // 养殖户列为空时为 nil
	PartnerID   int64
	PartnerName string
	City        string
	County      string
	Shipment    domain.Shipment
}

// ParseGrower 解析养殖户列；末尾不是纯大写单词时整段作为名称，城市为空
func ParseGrower(raw string) *GrowerKey {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil
	}
	if m := growerPattern.FindStringSubmatch(text); m != nil {
		return &GrowerKey{Name: strings.TrimSpace(m[1]), City: strings.TrimSpace(m[2])}
	}
	return &GrowerKey{Name: text}
}

// NormalizeGrowerCity 转为大写；返回 false 表示该城市无法写进养殖户列（必须是单个大写单词）
func NormalizeGrowerCity(raw string) (string, bool) {
	city := strings.ToUpper(strings.TrimSpace(raw))
	if city == "" {
		return "", true
	}
	return city, cityPattern.MatchString(city)
}

// ParseNameCode 解析 "<名称> <partnerId>/<序号>/<年>"，返回合作方 ID、名称和交付码 "序号/年"
func ParseNameCode(raw string) (partnerID int64, partnerName, deliveryCode string, err error) {
	text := strings.TrimSpace(raw)
	m := nameCodePattern.FindStringSubmatch(text)
	if m == nil {
		return 0, "", "", domain.Invalidf("invalid name/code format in column B: '%s'", raw)
	}
	partnerID, err = strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return 0, "", "", domain.Invalidf("partner id out of range in column B: '%s'", raw)
	}
	return partnerID, strings.TrimSpace(m[1]), m[3] + "/" + m[4], nil
}

// ParseRow 按固定列位置解析一行
func ParseRow(row Row) (*ParsedRow, error) {
	rawNameCode := row.Text(ColNameCode)
	if rawNameCode == "" {
		return nil, ErrSkipRow
	}

	partnerID, partnerName, deliveryCode, err := ParseNameCode(rawNameCode)
	if err != nil {
		return nil, err
	}

	p := &ParsedRow{
		Number:      row.Number,
		Grower:      ParseGrower(row.Text(ColGrower)),
		PartnerID:   partnerID,
		PartnerName: partnerName,
		City:        row.Text(ColCity),
		County:      row.Text(ColCounty),
	}

	s := &p.Shipment
	s.DeliveryCode = deliveryCode
	s.DeliveryDate = row.Date(ColDeliveryDate)
	s.ProcessingDate = row.Date(ColProcessingDate)

	cols := numericReader{row: row}
	s.ProcessingWeek = cols.intCol(ColProcessingWeek, "processing week")
	s.Quantity = cols.intCol(ColQuantity, "gross quantity")
	s.TotalWeight = cols.floatCol(ColTotalWeight, "gross weight")
	s.NetQuantity = cols.intCol(ColNetQuantity, "net quantity")
	s.NetWeight = cols.floatCol(ColNetWeight, "net weight")
	s.TransportMortality = cols.intCol(ColTransportMortality, "transport mortality")
	s.TransportMortalityKg = cols.floatCol(ColTransportMortalityKg, "transport mortality weight")
	s.KosherPercent = cols.optCol(ColKosherPercent, "kosher percent")
	s.LiverWeight = cols.optCol(ColLiverWeight, "liver weight")
	s.FatteningRate = cols.optCol(ColFatteningRate, "fattening rate")
	s.MortalityCount = cols.intCol(ColMortalityCount, "mortality count")
	if rate := cols.optCol(ColMortalityRate, "mortality rate"); rate != nil {
		s.MortalityRate = domain.Float(*rate * 100)
	}
	s.FatteningDays = cols.intCol(ColFatteningDays, "fattening days")

	if cols.err != nil {
		return nil, cols.err
	}
	return p, nil
}

// numericReader 顺序读取数值列，记住第一个出错的列
type numericReader struct {
	row Row
	err error
}

func (n *numericReader) optCol(col int, field string) *float64 {
	if n.err != nil {
		return nil
	}
	v, err := n.row.OptNum(col)
	if err != nil {
		letter, _ := excelize.ColumnNumberToName(col + 1)
		n.err = domain.Invalidf("invalid value for '%s' (column %s): '%s'", field, letter, n.row.Text(col))
		return nil
	}
	return v
}

func (n *numericReader) floatCol(col int, field string) float64 {
	if v := n.optCol(col, field); v != nil {
		return *v
	}
	return 0
}

func (n *numericReader) intCol(col int, field string) int {
	return int(n.floatCol(col, field))
}
