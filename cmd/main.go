package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resume-match-go/internal/analyzer"
	"resume-match-go/internal/api/handler"
	"resume-match-go/internal/api/router"
	"resume-match-go/internal/config"
	"resume-match-go/internal/llm"
	"resume-match-go/internal/logger"
	"resume-match-go/internal/notification"
	"resume-match-go/internal/outbox"
	"resume-match-go/internal/parser"
	"resume-match-go/internal/processor"
	"resume-match-go/internal/ratelimit"
	"resume-match-go/internal/scheduler"
	"resume-match-go/internal/session"
	"resume-match-go/internal/storage"
	"resume-match-go/internal/tracing"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	hertzzerolog "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "internal/config/config.yaml", "Path to config file")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("加载配置失败")
	}
	if err := logger.Init(logger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
		File:         cfg.Logger.File,
	}); err != nil {
		logger.Fatal().Err(err).Msg("初始化日志失败")
	}
	defer logger.Close()
	hlog.SetLogger(hertzzerolog.From(logger.Logger))

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("配置校验失败")
	}
	log := logger.Logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.InitProvider(ctx, cfg.Tracing)
	if err != nil {
		log.Fatal().Err(err).Msg("初始化链路追踪失败")
	}

	st, err := storage.NewStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("初始化存储失败")
	}
	defer st.Close()

	chatModel, err := llm.NewChatModel(ctx, cfg.LLM)
	if err != nil {
		log.Fatal().Err(err).Msg("初始化大模型失败")
	}
	titleModel, err := llm.NewTitleModel(ctx, cfg.LLM)
	if err != nil {
		log.Fatal().Err(err).Msg("初始化标题模型失败")
	}
	matcher := analyzer.New(
		ratelimit.NewRateLimitedLLMModel(chatModel, cfg.LLM.QPM),
		analyzer.WithTitleModel(ratelimit.NewRateLimitedLLMModel(titleModel, cfg.LLM.QPM)),
		analyzer.WithLogger(log),
	)
	log.Info().Str("provider", cfg.LLM.Provider).Str("model", cfg.LLM.Model).Int("qpm", cfg.LLM.QPM).Msg("大模型初始化成功")

	pdfParser, err := parser.NewEinoPDFTextExtractor(ctx, parser.WithEinoLogger(log))
	if err != nil {
		log.Fatal().Err(err).Msg("创建PDF解析器失败")
	}
	extractor := parser.NewTextExtractor(pdfParser)

	mailer := notification.NewMailer(cfg.Mail, notification.NewSMTPSender(cfg.Mail), log)
	if !cfg.Mail.Configured() {
		log.Warn().Strs("missing", cfg.Mail.MissingFields()).Msg("邮件未配置，入围通知不可用")
	}

	opts := []processor.Option{processor.WithLogger(log)}
	if objects := st.ObjectStore(); objects != nil {
		opts = append(opts, processor.WithObjectStorage(objects))
	}
	if st.Redis != nil {
		opts = append(opts, processor.WithStatsCache(st.Redis))
	}
	var relay *outbox.MessageRelay
	if st.RabbitMQ != nil {
		recorder := outbox.NewRecorder(cfg.RabbitMQ.EventsExchange)
		if err := st.RabbitMQ.EnsureExchange(recorder.Exchange(), "topic", true); err != nil {
			log.Warn().Err(err).Msg("声明事件交换机失败")
		}
		opts = append(opts, processor.WithEvents(recorder))
		relay = outbox.NewMessageRelay(st.DB, st.RabbitMQ, log,
			outbox.WithPollingInterval(config.GetDuration(cfg.RabbitMQ.RelayInterval, 5*time.Second)),
			outbox.WithBatchSize(cfg.RabbitMQ.RelayBatch),
		)
	}
	svc := processor.New(st.DB, extractor, matcher, mailer, opts...)

	jobs := scheduler.New(log)
	var store session.Store
	if st.Redis != nil {
		redisStore, err := session.NewRedisStore(st.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("创建Redis会话存储失败")
		}
		store = redisStore
	} else {
		memStore := session.NewMemoryStore()
		if err := jobs.Add(scheduler.SessionExpirySpec, &scheduler.SessionExpiryJob{Store: memStore, Logger: log}); err != nil {
			log.Fatal().Err(err).Msg("注册会话清理任务失败")
		}
		store = memStore
	}
	sessions := session.NewManager(store, 0, st.DB.Ping, log)
	if relay != nil {
		if err := jobs.Add(scheduler.OutboxPurgeSpec, &scheduler.OutboxPurgeJob{DB: st.DB, Logger: log}); err != nil {
			log.Fatal().Err(err).Msg("注册事件清理任务失败")
		}
	}

	tracer, tracerCfg := hertztracing.NewServerTracer()
	maxBody := cfg.Upload.MaxFileSizeMB * cfg.Upload.MaxFiles << 20
	if maxBody <= 0 {
		maxBody = 64 << 20
	}
	h := server.New(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
		server.WithMaxRequestBodySize(maxBody),
		server.WithExitWaitTime(config.GetDuration(cfg.Server.ShutdownTimeout, 5*time.Second)),
		tracer,
	)
	h.Use(hertztracing.ServerMiddleware(tracerCfg))

	api := handler.NewHandler(svc, mailer, sessions, cfg.Upload, log)
	router.RegisterRoutes(h.Engine, api, router.Options{APIKeys: cfg.Auth.APIKeys, Sessions: sessions})
	log.Info().Bool("api_key_auth", len(cfg.Auth.APIKeys) > 0).Msg("HTTP路由注册成功")

	if relay != nil {
		relay.Start(ctx)
	}
	jobs.Start()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("address", cfg.Server.Address).Msg("HTTP 服务器启动中")
		return h.Run()
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("接收到终止信号，正在优雅退出...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout, 5*time.Second))
		defer cancel()

		if relay != nil {
			relay.Stop()
		}
		jobs.Stop(shutdownCtx)
		if err := h.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("HTTP服务器关闭失败")
		}
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("关闭链路追踪失败")
		}
		return nil
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("服务异常退出")
		os.Exit(1)
	}
	log.Info().Msg("优雅退出完成")
}
