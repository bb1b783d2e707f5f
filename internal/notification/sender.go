package notification

import (
	"context"
	"crypto/tls"

	"resume-match-go/internal/config"

	"gopkg.in/gomail.v2"
)

//go:generate mockgen -source=sender.go -destination=mocks/sender.mock.go -package=notificationmocks -typed=false

// Message 一封待发送的邮件
type Message struct {
	From     string
	To       string
	Subject  string
	HTMLBody string
}

// Sender 邮件投递
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender 通过带认证的 SMTP 连接发送邮件，每次发送建立一次连接
type SMTPSender struct {
	dialer *gomail.Dialer
}

// NewSMTPSender 按配置创建 SMTP 发送器
func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	d := gomail.NewDialer(cfg.Server, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.UseSSL
	if cfg.UseTLS || cfg.UseSSL {
		d.TLSConfig = &tls.Config{ServerName: cfg.Server, MinVersion: tls.VersionTLS12}
	}
	return &SMTPSender{dialer: d}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTMLBody)
	return s.dialer.DialAndSend(m)
}
