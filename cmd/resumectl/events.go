package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"resume-match-go/internal/logger"
	"resume-match-go/internal/outbox"
	"resume-match-go/internal/storage"

	"github.com/spf13/pflag"
)

func runEvents(args []string) error {
	fs := pflag.NewFlagSet("events", pflag.ExitOnError)
	cfgPath := configFlag(fs)
	queue := fs.StringP("queue", "q", "resumectl.events", "订阅使用的队列名")
	binding := fs.StringP("binding", "b", "#", "路由键绑定，例如 analysis.*")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if cfg.RabbitMQ.URL == "" {
		return fmt.Errorf("未配置 rabbitmq.url")
	}
	mq, err := storage.NewRabbitMQ(&cfg.RabbitMQ, logger.Logger)
	if err != nil {
		return err
	}
	defer mq.Close()

	exchange := outbox.NewRecorder(cfg.RabbitMQ.EventsExchange).Exchange()
	if err := mq.EnsureExchange(exchange, "topic", true); err != nil {
		return err
	}
	if err := mq.EnsureQueue(*queue, false); err != nil {
		return err
	}
	if err := mq.BindQueue(*queue, exchange, *binding); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	done, err := mq.StartConsumer(ctx, *queue, 10, func(routingKey string, body []byte) bool {
		var env outbox.Envelope
		if err := json.Unmarshal(body, &env); err != nil {
			fmt.Fprintf(os.Stderr, "无法解析事件 (%s): %v\n", routingKey, err)
			return true
		}
		fmt.Printf("%s  %-20s %s  %s\n", env.OccurredAt.Format("2006-01-02 15:04:05"), env.EventType, env.EventID, env.Data)
		return true
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "正在订阅 %s (%s)，Ctrl+C 退出\n", exchange, *binding)
	<-done
	return nil
}
