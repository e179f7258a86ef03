package email

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
)

// Sender SMTP 验证码邮件发送器
// 未配置 host 时仅打日志，便于本地开发
type Sender struct {
	host     string
	port     int
	username string
	password string
	from     string
	logger   *slog.Logger
}

// NewSender 创建邮件发送器
func NewSender(host string, port int, username, password, from string) *Sender {
	return &Sender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		logger:   slog.Default(),
	}
}

const codeTemplate = `
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #ddd; border-radius: 5px; }
        .code { font-size: 32px; letter-spacing: 8px; font-weight: bold; text-align: center; padding: 16px; }
        .footer { margin-top: 20px; font-size: 0.8em; color: #777; text-align: center; }
    </style>
</head>
<body>
    <div class="container">
        <p>Your verification code is:</p>
        <div class="code">{{.Code}}</div>
        <p>The code expires in 15 minutes. If you didn't request it, you can safely ignore this email.</p>
        <div class="footer">
            <p>Real-Time Chat</p>
        </div>
    </div>
</body>
</html>
`

// SendCode 发送验证码邮件
func (s *Sender) SendCode(to, code string) error {
	t, err := template.New("code").Parse(codeTemplate)
	if err != nil {
		return fmt.Errorf("parse template: %w", err)
	}

	var body bytes.Buffer
	if err := t.Execute(&body, map[string]string{"Code": code}); err != nil {
		return fmt.Errorf("execute template: %w", err)
	}

	if s.host == "" {
		s.logger.Info("SMTP not configured, logging code instead", "to", to, "code", code)
		return nil
	}

	headers := map[string]string{
		"From":         s.from,
		"To":           to,
		"Subject":      "Your verification code",
		"MIME-Version": "1.0",
		"Content-Type": `text/html; charset="UTF-8"`,
	}

	message := ""
	for k, v := range headers {
		message += fmt.Sprintf("%s: %s\r\n", k, v)
	}
	message += "\r\n" + body.String()

	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	return smtp.SendMail(addr, auth, s.from, []string{to}, []byte(message))
}
