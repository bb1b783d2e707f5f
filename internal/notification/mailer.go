// Package notification 入围候选人的邮件通知
package notification

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"resume-match-go/internal/config"
	"resume-match-go/internal/metrics"
	"resume-match-go/internal/storage"
	"resume-match-go/internal/tracing"

	"github.com/rs/zerolog"
)

// MessageNotConfigured 未配置 SMTP 时所有发送返回的消息
const MessageNotConfigured = "email service not configured"

// ErrInvalidRecipient 收件人地址不合法
var ErrInvalidRecipient = errors.New("invalid recipient email address")

// SendResult 单次发送的结果
type SendResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Recipient 批量发送的收件人
type Recipient struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	JobTitle string `json:"job_title"`
	Company  string `json:"company"`
}

// BulkResult 批量发送中每个候选人的结果，顺序与输入一致
type BulkResult struct {
	Candidate string     `json:"candidate"`
	Email     string     `json:"email"`
	Status    SendResult `json:"status"`
}

// ConfigStatus SMTP 配置自检结果
type ConfigStatus struct {
	Success      bool              `json:"success"`
	Message      string            `json:"message"`
	Instructions string            `json:"instructions,omitempty"`
	Config       map[string]string `json:"config"`
}

const shortlistTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333; line-height: 1.6;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: #4CAF50;">Congratulations, {{.Name}}!</h2>
    <p>We are pleased to inform you that you have been <strong>shortlisted</strong> for the position of
    <strong>{{.JobTitle}}</strong> at <strong>{{.Company}}</strong>.</p>
    <p>Our recruitment team was impressed by your profile and will contact you shortly with details about the next steps.</p>
    <p>Best regards,<br>{{.Company}} Recruitment Team</p>
    <hr style="border: none; border-top: 1px solid #eee;">
    <p style="font-size: 12px; color: #999;">This notification was sent by {{.AppName}}.</p>
  </div>
</body>
</html>`

var shortlistTmpl = template.Must(template.New("shortlist").Parse(shortlistTemplate))

type templateData struct {
	Name     string
	JobTitle string
	Company  string
	AppName  string
}

// Mailer 发送入围通知
type Mailer struct {
	cfg    config.MailConfig
	sender Sender
	logger zerolog.Logger
}

// NewMailer sender 为 nil 且配置完整时使用 SMTPSender
func NewMailer(cfg config.MailConfig, sender Sender, logger zerolog.Logger) *Mailer {
	if sender == nil && cfg.Configured() {
		sender = NewSMTPSender(cfg)
	}
	return &Mailer{
		cfg:    cfg,
		sender: sender,
		logger: logger.With().Str("component", "mailer").Logger(),
	}
}

// Configured SMTP 配置是否完整
func (m *Mailer) Configured() bool {
	return m.cfg.Configured() && m.sender != nil
}

// Render 生成通知邮件正文
func (m *Mailer) Render(name, jobTitle, company string) (string, error) {
	var buf bytes.Buffer
	err := shortlistTmpl.Execute(&buf, templateData{
		Name:     name,
		JobTitle: jobTitle,
		Company:  company,
		AppName:  m.appName(),
	})
	if err != nil {
		return "", fmt.Errorf("渲染邮件模板失败: %w", err)
	}
	return buf.String(), nil
}

func (m *Mailer) appName() string {
	if m.cfg.AppName != "" {
		return m.cfg.AppName
	}
	return "Resume Match AI"
}

// Send 向单个候选人发送入围通知，失败通过结果返回
func (m *Mailer) Send(ctx context.Context, name, email, jobTitle, company string) SendResult {
	if !m.Configured() {
		metrics.EmailsTotal.WithLabelValues("skipped").Inc()
		return SendResult{Success: false, Message: MessageNotConfigured}
	}

	addr, err := storage.NormalizeEmail(email)
	if err != nil || addr == nil {
		metrics.EmailsTotal.WithLabelValues("failed").Inc()
		return SendResult{Success: false, Message: fmt.Sprintf("%v: %q", ErrInvalidRecipient, email)}
	}

	body, err := m.Render(name, jobTitle, company)
	if err != nil {
		metrics.EmailsTotal.WithLabelValues("failed").Inc()
		return SendResult{Success: false, Message: err.Error()}
	}

	msg := Message{
		From:     m.cfg.Sender(),
		To:       *addr,
		Subject:  fmt.Sprintf("Congratulations! You've been shortlisted for %s at %s", jobTitle, company),
		HTMLBody: body,
	}
	if err := m.sender.Send(ctx, msg); err != nil {
		metrics.EmailsTotal.WithLabelValues("failed").Inc()
		m.logger.Warn().Err(err).Str("to", tracing.MaskEmail(*addr)).Msg("发送入围通知失败")
		return SendResult{Success: false, Message: fmt.Sprintf("failed to send email: %v", err)}
	}

	metrics.EmailsTotal.WithLabelValues("sent").Inc()
	m.logger.Info().Str("to", tracing.MaskEmail(*addr)).Str("job_title", jobTitle).Msg("入围通知已发送")
	return SendResult{Success: true, Message: fmt.Sprintf("email sent successfully to %s", *addr)}
}

// SendBulk 按输入顺序逐个发送，单个失败不影响后续
func (m *Mailer) SendBulk(ctx context.Context, recipients []Recipient) []BulkResult {
	results := make([]BulkResult, 0, len(recipients))
	for _, r := range recipients {
		results = append(results, BulkResult{
			Candidate: r.Name,
			Email:     r.Email,
			Status:    m.Send(ctx, r.Name, r.Email, r.JobTitle, r.Company),
		})
	}
	return results
}

// CheckConfig 检查 SMTP 配置是否完整，不发送邮件
func (m *Mailer) CheckConfig() ConfigStatus {
	cfg := map[string]string{
		"MAIL_SERVER":         m.cfg.Server,
		"MAIL_PORT":           portString(m.cfg.Port),
		"MAIL_USE_TLS":        strconv.FormatBool(m.cfg.UseTLS),
		"MAIL_USE_SSL":        strconv.FormatBool(m.cfg.UseSSL),
		"MAIL_USERNAME":       m.cfg.Username,
		"MAIL_PASSWORD":       tracing.MaskSecret(m.cfg.Password),
		"MAIL_DEFAULT_SENDER": m.cfg.DefaultSender,
	}

	missing := m.cfg.MissingFields()
	if len(missing) > 0 {
		return ConfigStatus{
			Success: false,
			Message: "missing email configuration: " + strings.Join(missing, ", "),
			Instructions: "Set MAIL_SERVER, MAIL_PORT, MAIL_USE_TLS, MAIL_USERNAME, MAIL_PASSWORD and MAIL_DEFAULT_SENDER " +
				"in the environment or .env file. For Gmail use smtp.gmail.com:587 with an app password.",
			Config: cfg,
		}
	}
	return ConfigStatus{Success: true, Message: "email configuration is complete", Config: cfg}
}

// SendTest 发送一封示例通知
func (m *Mailer) SendTest(ctx context.Context, email string) SendResult {
	return m.Send(ctx, "Test Candidate", email, "Software Engineer", m.appName())
}

func portString(port int) string {
	if port <= 0 {
		return ""
	}
	return strconv.Itoa(port)
}
