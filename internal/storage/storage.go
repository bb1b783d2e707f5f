package storage

import (
	"context"
	"fmt"
	"strings"

	"resume-match-go/internal/config"

	"github.com/rs/zerolog"
)

// Storage 存储管理器，聚合所有存储相关依赖。
// 只有数据库是必需的，其余组件未配置或初始化失败时为 nil，调用方需要判空
type Storage struct {
	// 关系型数据库
	DB *Database

	// 对象存储，保存原始简历
	MinIO *MinIO

	// 消息队列，发布领域事件
	RabbitMQ *RabbitMQ

	// 键值存储，看板缓存和会话
	Redis *Redis

	logger zerolog.Logger
}

// NewStorage 创建存储管理器
func NewStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}

	db, err := NewDatabase(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("初始化数据库失败: %w", err)
	}

	s := &Storage{DB: db, logger: logger}
	var initErrors []string

	if cfg.MinIO.Endpoint != "" {
		s.MinIO, err = NewMinIO(&cfg.MinIO, logger)
		if err != nil {
			initErrors = append(initErrors, fmt.Sprintf("MinIO: %v", err))
		}
	}

	if cfg.RabbitMQ.URL != "" {
		s.RabbitMQ, err = NewRabbitMQ(&cfg.RabbitMQ, logger)
		if err != nil {
			initErrors = append(initErrors, fmt.Sprintf("RabbitMQ: %v", err))
		}
	}

	if cfg.Redis.Address != "" {
		s.Redis, err = NewRedisAdapter(&cfg.Redis)
		if err != nil {
			initErrors = append(initErrors, fmt.Sprintf("Redis: %v", err))
		}
	} else {
		logger.Debug().Msg("Redis未配置, 跳过初始化")
	}

	if len(initErrors) > 0 {
		logger.Warn().Str("errors", strings.Join(initErrors, "; ")).Msg("以下可选存储组件初始化失败，相关功能将降级")
	}

	logger.Info().
		Str("db_driver", db.Driver()).
		Bool("minio", s.MinIO != nil).
		Bool("rabbitmq", s.RabbitMQ != nil).
		Bool("redis", s.Redis != nil).
		Msg("存储组件初始化完成")
	return s, nil
}

// ObjectStore 返回对象存储，未配置时为 nil 接口
func (s *Storage) ObjectStore() ObjectStorage {
	if s.MinIO == nil {
		return nil
	}
	return s.MinIO
}

// Close 关闭所有连接
func (s *Storage) Close() {
	if s.RabbitMQ != nil {
		if err := s.RabbitMQ.Close(); err != nil {
			s.logger.Error().Err(err).Msg("关闭RabbitMQ连接失败")
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			s.logger.Error().Err(err).Msg("关闭Redis连接失败")
		}
	}
	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			s.logger.Error().Err(err).Msg("关闭数据库连接失败")
		}
	}
}
