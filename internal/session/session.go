// Package session 每个浏览器会话的显式上下文对象，由中间件创建并传入处理器
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound 会话不存在或已过期
var ErrNotFound = errors.New("session not found")

// Context 会话上下文
type Context struct {
	ID string `json:"id"`
	// Initialized 会话首次完成依赖检查后置位，之后不再重复检查
	Initialized   bool      `json:"initialized"`
	SelectedJobID *uint     `json:"selected_job_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	LastSeenAt    time.Time `json:"last_seen_at"`
}

// Store 会话存储
type Store interface {
	Get(ctx context.Context, id string) (*Context, error)
	Save(ctx context.Context, sc *Context, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}
