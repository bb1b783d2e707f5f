package scheduler

import (
	"context"
	"time"

	"resume-match-go/internal/constants"
	"resume-match-go/internal/outbox"
	"resume-match-go/internal/storage"

	"github.com/rs/zerolog"
)

// 默认调度
const (
	SessionExpirySpec = "@hourly"
	OutboxPurgeSpec   = "30 3 * * *"
)

// IdleExpirer 可清理过期会话的存储
type IdleExpirer interface {
	ExpireIdle() int
}

// SessionExpiryJob 清理过期的内存会话
type SessionExpiryJob struct {
	Store  IdleExpirer
	Logger zerolog.Logger
}

func (j *SessionExpiryJob) Name() string { return "session_expiry" }

func (j *SessionExpiryJob) Run(context.Context) error {
	if n := j.Store.ExpireIdle(); n > 0 {
		j.Logger.Info().Int("expired", n).Msg("已清理过期会话")
	}
	return nil
}

// OutboxPurgeJob 删除保留期之前已发送的事件
type OutboxPurgeJob struct {
	DB        *storage.Database
	Retention time.Duration
	Now       func() time.Time
	Logger    zerolog.Logger
}

func (j *OutboxPurgeJob) Name() string { return "outbox_purge" }

func (j *OutboxPurgeJob) Run(ctx context.Context) error {
	retention := j.Retention
	if retention <= 0 {
		retention = constants.OutboxRetention
	}
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}
	n, err := outbox.PurgeSent(ctx, j.DB, now().Add(-retention))
	if err != nil {
		return err
	}
	if n > 0 {
		j.Logger.Info().Int64("purged", n).Msg("已清理过期outbox消息")
	}
	return nil
}
