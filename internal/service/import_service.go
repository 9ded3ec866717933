package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/MKris124/poultry-manager/internal/domain"
	"github.com/MKris124/poultry-manager/internal/ingest"
	"github.com/MKris124/poultry-manager/internal/metrics"
	"github.com/MKris124/poultry-manager/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ImportService Excel 批量导入
//
// 所有行在一个事务内处理：行级错误（格式、数值、身份冲突）记入报告并跳过该行，
// 存储错误中止整个导入并回滚，包括已解析的实体。
type ImportService struct {
	store   repository.Store
	reports *ImportReportStore // 可为 nil
	metrics *metrics.ImportMetrics
	logger  *zap.Logger
	now     func() time.Time
}

func NewImportService(store repository.Store, reports *ImportReportStore, m *metrics.ImportMetrics, logger *zap.Logger) *ImportService {
	return &ImportService{store: store, reports: reports, metrics: m, logger: logger, now: time.Now}
}

// ImportWorkbookRequest 上传的文件
type ImportWorkbookRequest struct {
	FileName string
	Body     io.Reader
}

// rowOutcome 单行处理结果
type rowOutcome struct {
	number   int
	shipment *domain.Shipment
	skipped  bool
	err      error // 行级错误
}

// ImportWorkbook 读取第一张工作表并导入；文件结构错误和存储错误以 error 返回
func (s *ImportService) ImportWorkbook(ctx context.Context, req ImportWorkbookRequest) (*ImportReport, error) {
	started := s.now()
	rows, err := ingest.ReadWorkbook(req.Body)
	if err != nil {
		s.metrics.ObserveRun(metrics.RunError, s.now().Sub(started))
		return nil, domain.Invalidf("cannot read workbook: %v", err)
	}

	var outcomes []rowOutcome
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		outcomes, err = s.processRows(ctx, tx, rows)
		if err != nil {
			return err
		}
		return tx.SaveShipments(ctx, queuedShipments(outcomes))
	})
	if err != nil {
		s.metrics.ObserveRun(metrics.RunError, s.now().Sub(started))
		s.logger.Error("Import aborted", zap.String("file", req.FileName), zap.Error(err))
		return nil, fmt.Errorf("import aborted: %w", err)
	}

	report := &ImportReport{
		ID:           uuid.NewString(),
		FileName:     req.FileName,
		ImportedAt:   started.UTC(),
		ImportResult: *domain.NewImportResult(),
	}
	for _, o := range outcomes {
		switch {
		case o.skipped:
			report.SkippedCount++
		case o.err != nil:
			report.AddError(o.number, o.err.Error())
			s.logger.Debug("Import row failed", zap.String("import_id", report.ID), zap.Int("row", o.number), zap.Error(o.err))
		default:
			report.IncrementSuccess()
		}
	}

	elapsed := s.now().Sub(started)
	s.metrics.ObserveRows(metrics.RowSuccess, report.SuccessCount)
	s.metrics.ObserveRows(metrics.RowFailed, report.FailedCount)
	s.metrics.ObserveRows(metrics.RowSkipped, report.SkippedCount)
	s.metrics.ObserveRun(metrics.RunOK, elapsed)
	s.logger.Info("Import finished",
		zap.String("import_id", report.ID),
		zap.String("file", req.FileName),
		zap.Int("success", report.SuccessCount),
		zap.Int("failed", report.FailedCount),
		zap.Int("skipped", report.SkippedCount),
		zap.Duration("duration", elapsed),
	)

	if s.reports != nil {
		if err := s.reports.Save(ctx, report); err != nil {
			// 数据已提交，报告保存失败不影响结果
			s.logger.Warn("Failed to save import report", zap.String("import_id", report.ID), zap.Error(err))
		}
	}
	return report, nil
}

// processRows 逐行解析、补全、解析身份；返回的 error 只代表存储故障
func (s *ImportService) processRows(ctx context.Context, tx repository.Store, rows []ingest.Row) ([]rowOutcome, error) {
	resolver := newIdentityResolver(tx)
	queue := newShipmentQueue()
	outcomes := make([]rowOutcome, 0, len(rows))

	for _, row := range rows {
		shipment, err := s.processRow(ctx, tx, resolver, queue, row)
		switch {
		case errors.Is(err, ingest.ErrSkipRow):
			outcomes = append(outcomes, rowOutcome{number: row.Number, skipped: true})
		case domain.IsRowError(err):
			outcomes = append(outcomes, rowOutcome{number: row.Number, err: err})
		case err != nil:
			return nil, fmt.Errorf("row %d: %w", row.Number, err)
		default:
			outcomes = append(outcomes, rowOutcome{number: row.Number, shipment: shipment})
		}
	}
	return outcomes, nil
}

func (s *ImportService) processRow(ctx context.Context, tx repository.Store, resolver *identityResolver, queue *shipmentQueue, row ingest.Row) (*domain.Shipment, error) {
	parsed, err := ingest.ParseRow(row)
	if err != nil {
		return nil, err
	}

	incoming := parsed.Shipment
	if err := incoming.Validate(); err != nil {
		return nil, err
	}
	incoming.ApplyDerivedFields()

	identity, err := resolver.Resolve(ctx, parsed)
	if err != nil {
		return nil, err
	}
	incoming.LocationID = identity.Location.ID
	incoming.Location = identity.Location
	incoming.GrowerID = nil
	incoming.Grower = identity.Grower
	if identity.Grower != nil {
		incoming.GrowerID = domain.Int64(identity.Grower.ID)
	}

	// 同一批次内重复的交付码覆盖先出现的那一行
	if queued := queue.get(incoming.LocationID, incoming.DeliveryCode); queued != nil {
		queued.CopyFieldsFrom(&incoming)
		return queued, nil
	}

	target, err := tx.FindShipmentByCode(ctx, incoming.DeliveryCode, incoming.LocationID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		target = &domain.Shipment{}
	case err != nil:
		return nil, err
	}
	target.CopyFieldsFrom(&incoming)
	queue.put(target)
	return target, nil
}

// shipmentQueue 待保存的发货记录，按 (站点, 交付码) 去重并保持首次出现的顺序
type shipmentQueue struct {
	index map[shipmentKey]*domain.Shipment
}

type shipmentKey struct {
	locationID   int64
	deliveryCode string
}

func newShipmentQueue() *shipmentQueue {
	return &shipmentQueue{index: map[shipmentKey]*domain.Shipment{}}
}

func (q *shipmentQueue) get(locationID int64, code string) *domain.Shipment {
	return q.index[shipmentKey{locationID, code}]
}

func (q *shipmentQueue) put(sh *domain.Shipment) {
	q.index[shipmentKey{sh.LocationID, sh.DeliveryCode}] = sh
}

// queuedShipments 成功行对应的记录，同一指针只出现一次
func queuedShipments(outcomes []rowOutcome) []*domain.Shipment {
	seen := map[*domain.Shipment]bool{}
	var out []*domain.Shipment
	for _, o := range outcomes {
		if o.shipment == nil || seen[o.shipment] {
			continue
		}
		seen[o.shipment] = true
		out = append(out, o.shipment)
	}
	return out
}
