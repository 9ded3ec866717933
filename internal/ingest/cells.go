package ingest

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/MKris124/poultry-manager/internal/domain"

	"github.com/xuri/excelize/v2"
)

// Excel 日期序列号的有效范围（1900-01-01 .. 9999-12-31）
const maxExcelSerial = 2958465

// Row 表格中的一行，单元格为原始值（日期为序列号，数字未格式化）
type Row struct {
	Number  int // 1 起始的表格行号
	cells   []string
	numeric map[int]bool // 以数值类型存储的单元格
}

// NewRow 构造一行；number 为 1 起始行号
func NewRow(number int, cells []string) Row {
	return Row{Number: number, cells: cells}
}

// ReadWorkbook 读取工作簿第一个工作表，跳过表头（第 1 行）
func ReadWorkbook(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Excel file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("Excel file has no sheets")
	}

	raw, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(raw) < 2 {
		return []Row{}, nil
	}

	rows := make([]Row, 0, len(raw)-1)
	for i := 1; i < len(raw); i++ {
		row := NewRow(i+1, raw[i])
		for col, v := range raw[i] {
			if strings.TrimSpace(v) == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, i+1)
			if err != nil {
				return nil, fmt.Errorf("failed to read rows: %w", err)
			}
			typ, err := f.GetCellType(sheetName, cell)
			if err != nil {
				return nil, fmt.Errorf("failed to read cell %s: %w", cell, err)
			}
			if typ == excelize.CellTypeUnset || typ == excelize.CellTypeNumber {
				row.markNumeric(col)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (r *Row) markNumeric(col int) {
	if r.numeric == nil {
		r.numeric = map[int]bool{}
	}
	r.numeric[col] = true
}

// Text 单元格文本（去首尾空白）；缺失为空串
func (r Row) Text(col int) string {
	if col < 0 || col >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[col])
}

// OptNum 可空数值：空单元格返回 nil，非数字文本返回错误
func (r Row) OptNum(col int) (*float64, error) {
	text := r.Text(col)
	if text == "" {
		return nil, nil
	}
	v, err := parseNumber(text)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Date 单元格日期；数值单元格按 Excel 日期序列号读取，
// 文本按 "." "/" "-" 分隔解析。任何解析失败都返回 nil，由调用方决定是否可接受
func (r Row) Date(col int) *domain.Date {
	text := r.Text(col)
	if text == "" {
		return nil
	}

	if r.numeric[col] {
		serial, err := strconv.ParseFloat(text, 64)
		if err != nil || serial <= 0 || serial > maxExcelSerial {
			return nil
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return nil
		}
		d := domain.DateOf(t)
		return &d
	}

	normalized := strings.NewReplacer(".", "-", "/", "-").Replace(text)
	normalized = strings.TrimRight(normalized, "- ")
	if i := strings.IndexAny(normalized, " T"); i > 0 {
		normalized = normalized[:i] // 去掉时间部分
	}
	t, err := time.Parse("2006-1-2", normalized)
	if err != nil {
		return nil
	}
	d := domain.DateOf(t)
	return &d
}

// IsBlank 整行无内容
func (r Row) IsBlank() bool {
	for i := range r.cells {
		if r.Text(i) != "" {
			return false
		}
	}
	return true
}

// parseNumber 兼容千位空格和逗号小数点（"1 000", "0,42"）
// 逗号后恰好三位数字时无法区分千位分隔与小数点（"1,000"），按无效值处理
func parseNumber(text string) (float64, error) {
	s := strings.Map(func(r rune) rune {
		if r == ' ' || r == '\u00a0' {
			return -1
		}
		return r
	}, text)
	if strings.Contains(s, ",") {
		if strings.Contains(s, ".") || strings.Count(s, ",") > 1 {
			return 0, domain.Invalidf("ambiguous number: %q", text)
		}
		i := strings.IndexByte(s, ',')
		if frac := s[i+1:]; len(frac) == 3 && isDigits(frac) {
			return 0, domain.Invalidf("ambiguous number: %q", text)
		}
		s = s[:i] + "." + s[i+1:]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, domain.Invalidf("not a number: %q", text)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, domain.Invalidf("not a finite number: %q", text)
	}
	return v, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
