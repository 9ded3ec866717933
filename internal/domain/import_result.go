package domain

import "fmt"

// rowLabel 上传模板约定的行号后缀
const rowLabel = "sor"

// ImportResult 一次 Excel 导入的结果报告
type ImportResult struct {
	SuccessCount  int      `json:"successCount"`
	FailedCount   int      `json:"failedCount"`
	ErrorMessages []string `json:"errorMessages"`
}

// NewImportResult 空报告（ErrorMessages 序列化为 [] 而不是 null）
func NewImportResult() *ImportResult {
	return &ImportResult{ErrorMessages: []string{}}
}

// AddError 记录一行失败；rowNum 为 1 起始的表格行号
func (r *ImportResult) AddError(rowNum int, message string) {
	r.FailedCount++
	r.ErrorMessages = append(r.ErrorMessages, fmt.Sprintf("%d. %s: %s", rowNum, rowLabel, message))
}

// IncrementSuccess 记录一行成功
func (r *ImportResult) IncrementSuccess() {
	r.SuccessCount++
}
