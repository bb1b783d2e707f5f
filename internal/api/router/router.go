package router

import (
	"context"
	"crypto/subtle"
	"strconv"
	"time"

	"resume-match-go/internal/api/handler"
	"resume-match-go/internal/metrics"
	"resume-match-go/internal/session"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/adaptor"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/cloudwego/hertz/pkg/route"
	"github.com/hertz-contrib/keyauth"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// APIKeyHeader 开启鉴权时携带 API Key 的请求头
const APIKeyHeader = "X-API-Key"

// Options 路由可选项
type Options struct {
	// APIKeys 非空时 /api/v1 需要 X-API-Key，/api/v1/health 除外
	APIKeys  []string
	Sessions *session.Manager
}

// RegisterRoutes 注册 API 路由
func RegisterRoutes(r *route.Engine, h *handler.Handler, opts Options) {
	r.Use(Metrics())
	r.GET("/metrics", prometheusHandler())

	api := r.Group("/api/v1")
	if len(opts.APIKeys) > 0 {
		api.Use(apiKeyAuth(opts.APIKeys))
	}
	if opts.Sessions != nil {
		api.Use(session.Middleware(opts.Sessions))
	}

	api.GET("/health", h.Health)
	api.GET("/session", h.Session)
	api.GET("/home/stats", h.HomeStats)
	api.GET("/dashboard", h.Dashboard)
	api.GET("/dashboard/export", h.ExportDashboard)

	jobs := api.Group("/jobs")
	jobs.POST("", h.CreateJob)
	jobs.GET("", h.ListJobs)
	jobs.GET("/:id", h.GetJob)
	jobs.DELETE("/:id", h.DeleteJob)
	jobs.POST("/:id/resumes", h.ScreenResumes)
	jobs.GET("/:id/candidates", h.ListCandidates)
	jobs.GET("/:id/candidates/export", h.ExportCandidates)
	jobs.POST("/:id/notifications", h.NotifyShortlisted)

	candidates := api.Group("/candidates")
	candidates.GET("/shortlisted", h.ShortlistedCandidates)
	candidates.GET("/:id", h.GetCandidate)
	candidates.PUT("/:id/email", h.UpdateCandidateEmail)
	candidates.DELETE("/:id", h.DeleteCandidate)

	api.POST("/cover-letter/analyze", h.AnalyzeCoverLetter)

	api.GET("/email/config", h.EmailConfig)
	api.POST("/email/test", h.EmailTest)
}

// Metrics 记录请求数和耗时，route 标签使用注册时的路径模板
func Metrics() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		start := time.Now()
		c.Next(ctx)

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := string(c.Method())
		metrics.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(c.Response.StatusCode())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

func apiKeyAuth(keys []string) app.HandlerFunc {
	return keyauth.New(
		keyauth.WithKeyLookUp("header:"+APIKeyHeader, ""),
		keyauth.WithFilter(func(ctx context.Context, c *app.RequestContext) bool {
			return string(c.Path()) == "/api/v1/health"
		}),
		keyauth.WithValidator(func(ctx context.Context, c *app.RequestContext, key string) (bool, error) {
			for _, k := range keys {
				if subtle.ConstantTimeCompare([]byte(k), []byte(key)) == 1 {
					return true, nil
				}
			}
			return false, keyauth.ErrMissingOrMalformedAPIKey
		}),
		keyauth.WithErrorHandler(func(ctx context.Context, c *app.RequestContext, err error) {
			c.AbortWithStatusJSON(consts.StatusUnauthorized, utils.H{"error": "invalid or missing API key"})
		}),
	)
}

// prometheusHandler 通过 net/http 兼容层暴露 promhttp 指标
func prometheusHandler() app.HandlerFunc {
	h := promhttp.Handler()
	return func(ctx context.Context, c *app.RequestContext) {
		req, err := adaptor.GetCompatRequest(&c.Request)
		if err != nil {
			c.AbortWithStatus(consts.StatusInternalServerError)
			return
		}
		h.ServeHTTP(adaptor.GetCompatResponseWriter(&c.Response), req.WithContext(ctx))
	}
}
