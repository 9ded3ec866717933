package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/MKris124/poultry-manager/internal/domain"
	"github.com/MKris124/poultry-manager/internal/store"
)

const importReportKeyPrefix = "import:report:"

// ImportReport 一次导入的结果及元数据；JSON 中 ImportResult 的字段平铺在顶层
type ImportReport struct {
	ID           string    `json:"id"`
	FileName     string    `json:"fileName,omitempty"`
	ImportedAt   time.Time `json:"importedAt"`
	SkippedCount int       `json:"skippedCount"`
	domain.ImportResult
}

// ImportReportStore 导入报告历史（Redis 或内存 KV，带过期时间）
type ImportReportStore struct {
	kv  store.KV
	ttl time.Duration
}

func NewImportReportStore(kv store.KV, ttl time.Duration) *ImportReportStore {
	return &ImportReportStore{kv: kv, ttl: ttl}
}

func (s *ImportReportStore) Save(ctx context.Context, r *ImportReport) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode import report: %w", err)
	}
	return s.kv.Set(ctx, importReportKeyPrefix+r.ID, string(raw), s.ttl)
}

func (s *ImportReportStore) Get(ctx context.Context, id string) (*ImportReport, error) {
	raw, err := s.kv.Get(ctx, importReportKeyPrefix+id)
	if err != nil {
		if errors.Is(err, store.ErrMiss) {
			return nil, domain.NotFoundf("import report %s not found", id)
		}
		return nil, fmt.Errorf("get import report: %w", err)
	}
	var r ImportReport
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, fmt.Errorf("decode import report %s: %w", id, err)
	}
	return &r, nil
}

// List 最新的在前；扫描期间过期的报告被跳过
func (s *ImportReportStore) List(ctx context.Context) ([]ImportReport, error) {
	keys, err := s.kv.ScanKeys(ctx, importReportKeyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan import reports: %w", err)
	}
	reports := make([]ImportReport, 0, len(keys))
	for _, key := range keys {
		r, err := s.Get(ctx, strings.TrimPrefix(key, importReportKeyPrefix))
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		reports = append(reports, *r)
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].ImportedAt.After(reports[j].ImportedAt) })
	return reports, nil
}
