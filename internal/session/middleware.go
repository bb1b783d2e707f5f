package session

import (
	"context"
	"net/http"

	"resume-match-go/internal/constants"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

const contextKey = "session"

// Middleware 为每个请求加载会话并写回 cookie
func Middleware(m *Manager) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		id := string(c.Cookie(constants.SessionCookieName))
		sc, err := m.Load(ctx, id)
		if err != nil {
			m.logger.Error().Err(err).Msg("加载会话失败")
			c.AbortWithStatusJSON(consts.StatusInternalServerError, map[string]string{"error": http.StatusText(http.StatusInternalServerError)})
			return
		}
		c.Set(contextKey, sc)
		c.SetCookie(constants.SessionCookieName, sc.ID, int(m.ttl.Seconds()), "/", "", protocol.CookieSameSiteLaxMode, false, true)
		c.Next(ctx)
	}
}

// FromContext 取出中间件放入的会话，未经过中间件时返回 nil
func FromContext(c *app.RequestContext) *Context {
	v, ok := c.Get(contextKey)
	if !ok {
		return nil
	}
	sc, _ := v.(*Context)
	return sc
}
