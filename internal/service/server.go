package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/MKris124/poultry-manager/internal/config"

	"go.uber.org/zap"
)

// Server HTTP 服务；超时取自 config.HTTPConfig，Excel 上传/导出受 Read/WriteTimeout 约束
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
	logger          *zap.Logger
}

func NewServer(cfg config.HTTPConfig, handler http.Handler, logger *zap.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
			ReadTimeout:       cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
		},
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          logger,
	}
}

// Start 监听配置的地址并阻塞；Stop 之后返回 nil
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ln)
}

// Serve 在已有的 listener 上提供服务
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("Starting poultry-manager HTTP server",
		zap.String("addr", ln.Addr().String()),
		zap.Duration("read_timeout", s.httpServer.ReadTimeout),
		zap.Duration("write_timeout", s.httpServer.WriteTimeout),
	)
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop 等待进行中的请求（如正在写入的导出文件），最多 shutdownTimeout
func (s *Server) Stop(ctx context.Context) error {
	if s.shutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.shutdownTimeout)
		defer cancel()
	}
	s.logger.Info("Stopping poultry-manager HTTP server")
	return s.httpServer.Shutdown(ctx)
}
