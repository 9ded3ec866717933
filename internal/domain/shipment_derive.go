package domain

import (
	"fmt"
	"math"
	"strings"
)

// ApplyDerivedFields 补全缺失的派生字段；导入与手工录入共用
//
// 除加工周外，所有规则都只在字段缺失（nil 或 0）时生效，不覆盖已有值。
// 有加工日期时，加工周总是按 ISO 周重新计算。
func (s *Shipment) ApplyDerivedFields() {
	if s.NetQuantity == 0 && s.Quantity > 0 {
		s.NetQuantity = s.Quantity - s.TransportMortality
	}
	if s.NetWeight == 0 && s.TotalWeight > 0 {
		s.NetWeight = s.TotalWeight - s.TransportMortalityKg
	}
	if isAbsent(s.FatteningRate) && s.Quantity > 0 && s.NetQuantity > 0 {
		avgNet := s.NetWeight / float64(s.NetQuantity)
		avgGross := s.TotalWeight / float64(s.Quantity)
		s.FatteningRate = Float(avgNet - avgGross)
	}
	if isAbsent(s.MortalityRate) && s.Quantity > 0 && s.MortalityCount > 0 {
		rate := float64(s.MortalityCount) / float64(s.Quantity) * 100
		s.MortalityRate = Float(Round2(rate))
	}
	if s.ProcessingDate != nil {
		s.ProcessingWeek = s.ProcessingDate.ISOWeek()
	}
}

// Validate 校验录入值：计数/重量非负，kosher 百分比在 0-100 之间
func (s *Shipment) Validate() error {
	ints := []struct {
		name string
		v    int
	}{
		{"quantity", s.Quantity},
		{"processing week", s.ProcessingWeek},
		{"transport mortality", s.TransportMortality},
		{"fattening days", s.FatteningDays},
		{"net quantity", s.NetQuantity},
		{"mortality count", s.MortalityCount},
	}
	for _, f := range ints {
		if f.v < 0 {
			return Invalidf("%s cannot be negative", f.name)
		}
	}

	floats := []struct {
		name string
		v    float64
	}{
		{"total weight", s.TotalWeight},
		{"net weight", s.NetWeight},
		{"transport mortality weight", s.TransportMortalityKg},
		{"liver weight", deref(s.LiverWeight)},
	}
	for _, f := range floats {
		if f.v < 0 {
			return Invalidf("%s cannot be negative", f.name)
		}
	}

	if s.KosherPercent != nil && (*s.KosherPercent < 0 || *s.KosherPercent > 100) {
		return Invalidf("kosher percent must be between 0 and 100")
	}
	return nil
}

// NormalizeDeliveryCode 校验 SEQ/YY 格式；有交付日期时 YY 必须与其年份后两位一致
func NormalizeDeliveryCode(code string, deliveryDate *Date) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", nil
	}
	parts := strings.Split(code, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", Invalidf("delivery code must look like SEQ/YY (e.g. 001/25)")
	}
	if deliveryDate != nil && !deliveryDate.IsZero() {
		suffix := fmt.Sprintf("%02d", deliveryDate.Year()%100)
		if parts[1] != suffix {
			return "", Invalidf("delivery code year (%s) must match the delivery date (%s)", parts[1], suffix)
		}
	}
	return code, nil
}

// Round2 四舍五入到两位小数；NaN/Inf 归零
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}

func isAbsent(v *float64) bool {
	return v == nil || *v == 0
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
