// Package client poultry-manager HTTP API 的客户端（供 poultryctl 使用）
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/MKris124/poultry-manager/internal/analytics"
	httpapi "github.com/MKris124/poultry-manager/internal/http"
	"github.com/MKris124/poultry-manager/internal/service"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

func New(baseURL string, logger *zap.Logger) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(2 * time.Minute). // 大文件导入耗时较长
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		SetHeader("Accept", "application/json")
	return &Client{httpClient: c, logger: logger}
}

// ImportFile 上传本地 xlsx 文件
func (c *Client) ImportFile(ctx context.Context, path string) (*service.ImportReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetFileReader("file", filepath.Base(path), f).
		Post("/api/import/excel")
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", path, err)
	}

	var report service.ImportReport
	if err := decodeResult(resp, &report); err != nil {
		return nil, err
	}
	c.logger.Debug("Import uploaded",
		zap.String("file", path),
		zap.String("import_id", report.ID),
		zap.Int("status_code", resp.StatusCode()),
	)
	return &report, nil
}

func (c *Client) Leaderboard(ctx context.Context) ([]analytics.LeaderboardEntry, error) {
	resp, err := c.httpClient.R().SetContext(ctx).Get("/api/analytics/leaderboard")
	if err != nil {
		return nil, fmt.Errorf("fetch leaderboard: %w", err)
	}
	var board []analytics.LeaderboardEntry
	if err := decodeResult(resp, &board); err != nil {
		return nil, err
	}
	return board, nil
}

func (c *Client) ImportReports(ctx context.Context) ([]service.ImportReport, error) {
	resp, err := c.httpClient.R().SetContext(ctx).Get("/api/import/reports")
	if err != nil {
		return nil, fmt.Errorf("fetch import reports: %w", err)
	}
	var reports []service.ImportReport
	if err := decodeResult(resp, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// APIError 服务端返回的失败响应
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

func decodeResult[T any](resp *resty.Response, out *T) error {
	var env httpapi.Result[json.RawMessage]
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return &APIError{StatusCode: resp.StatusCode(), Message: resp.Status()}
	}
	if resp.IsError() || env.Code != httpapi.ResultSuccess {
		return &APIError{StatusCode: resp.StatusCode(), Message: env.Message}
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
