package worker

import (
	"context"
	"errors"
	"time"

	"github.com/loyalty-next/internal/config"
	"github.com/loyalty-next/internal/logger"
	"github.com/loyalty-next/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	defaultExpireSweepInterval = time.Hour
)

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.PointsService != nil {
		go s.runPointsExpireLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// runPointsExpireLoop 周期清理过期积分。
// 过期窗口未配置（expire_after_days <= 0）时不启动。
func (s *Service) runPointsExpireLoop(ctx context.Context) {
	if s == nil || s.consumer == nil || s.consumer.PointsService == nil || s.consumer.Config == nil {
		return
	}
	pointsCfg := s.consumer.Config.Points
	if pointsCfg.ExpireAfterDays <= 0 {
		logger.Debugw("worker_points_expire_loop_disabled")
		return
	}
	interval := defaultExpireSweepInterval
	if pointsCfg.ExpireSweepIntervalS > 0 {
		interval = time.Duration(pointsCfg.ExpireSweepIntervalS) * time.Second
	}
	runOnce := func() {
		before := time.Now().AddDate(0, 0, -pointsCfg.ExpireAfterDays)
		expired, err := s.consumer.PointsService.ExpireDuePoints(before)
		if err != nil {
			logger.Warnw("worker_points_expire_sweep_failed", "before", before, "error", err)
			return
		}
		if expired > 0 {
			logger.Infow("worker_points_expire_sweep_done", "before", before, "users", expired)
		}
	}
	runOnce()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
