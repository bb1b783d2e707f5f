package session

import (
	"context"
	"errors"
	"time"

	"resume-match-go/internal/constants"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Initializer 会话首次初始化时执行的依赖检查，例如数据库连通性
type Initializer func(ctx context.Context) error

// Manager 加载、创建并保存会话上下文
type Manager struct {
	store  Store
	ttl    time.Duration
	init   Initializer
	logger zerolog.Logger
	now    func() time.Time
}

// NewManager ttl 为 0 时使用默认 24 小时
func NewManager(store Store, ttl time.Duration, init Initializer, logger zerolog.Logger) *Manager {
	if ttl <= 0 {
		ttl = constants.SessionTTL
	}
	return &Manager{
		store:  store,
		ttl:    ttl,
		init:   init,
		logger: logger.With().Str("component", "session").Logger(),
		now:    time.Now,
	}
}

// TTL 会话有效期
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Load 按 ID 加载会话，不存在时新建；未初始化的会话在此完成初始化
func (m *Manager) Load(ctx context.Context, id string) (*Context, error) {
	var sc *Context
	if id != "" {
		got, err := m.store.Get(ctx, id)
		switch {
		case err == nil:
			sc = got
		case errors.Is(err, ErrNotFound):
		default:
			return nil, err
		}
	}

	now := m.now()
	if sc == nil {
		sc = &Context{ID: uuid.NewString(), CreatedAt: now}
		m.logger.Debug().Str("session_id", sc.ID).Msg("创建新会话")
	}

	if !sc.Initialized {
		if m.init != nil {
			if err := m.init(ctx); err != nil {
				// 保持未初始化，下次请求重试
				m.logger.Warn().Err(err).Str("session_id", sc.ID).Msg("会话初始化失败")
			} else {
				sc.Initialized = true
			}
		} else {
			sc.Initialized = true
		}
	}

	sc.LastSeenAt = now
	if err := m.store.Save(ctx, sc, m.ttl); err != nil {
		return nil, err
	}
	return sc, nil
}

// SelectJob 记录会话当前选择的岗位
func (m *Manager) SelectJob(ctx context.Context, sc *Context, jobID uint) error {
	sc.SelectedJobID = &jobID
	return m.store.Save(ctx, sc, m.ttl)
}
