// Package notify рассылает письма администраторам о новых комментариях.
package notify

import (
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"
)

// Sender отправляет готовые письма. *gomail.Dialer ему удовлетворяет.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPConfig - параметры SMTP сервера.
type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
}

// Mailer собирает и отправляет уведомления.
type Mailer struct {
	sender   Sender
	from     string
	managers []string
	siteName string
}

// NewMailer создает Mailer поверх gomail.Dialer.
func NewMailer(cfg SMTPConfig, siteName string, managers []string) *Mailer {
	port := cfg.Port
	if port == 0 {
		port = 587
	}
	d := gomail.NewDialer(cfg.Host, port, cfg.User, cfg.Pass)
	return NewMailerWithSender(d, cfg.User, siteName, managers)
}

func NewMailerWithSender(s Sender, from, siteName string, managers []string) *Mailer {
	return &Mailer{sender: s, from: from, managers: managers, siteName: siteName}
}

// CommentNotice - данные для письма о новом комментарии.
type CommentNotice struct {
	TargetTitle string
	TargetURL   string
	AuthorName  string
	AuthorEmail string
	Body        string
	Held        bool
}

// NotifyComment отправляет письмо всем администраторам.
// Если список адресатов пуст, ничего не делает.
func (m *Mailer) NotifyComment(n CommentNotice) error {
	if len(m.managers) == 0 {
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", m.managers...)
	msg.SetHeader("Subject", fmt.Sprintf("[%s] New comment posted on %q", m.siteName, n.TargetTitle))
	msg.SetBody("text/plain", commentBody(n))

	if err := m.sender.DialAndSend(msg); err != nil {
		return fmt.Errorf("send comment notification: %w", err)
	}
	return nil
}

func commentBody(n CommentNotice) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A comment has been posted on %q.\n", n.TargetTitle)
	if n.TargetURL != "" {
		fmt.Fprintf(&b, "%s\n", n.TargetURL)
	}
	if n.Held {
		b.WriteString("The comment is waiting for moderation.\n")
	}
	b.WriteString("\n")
	if n.AuthorEmail != "" {
		fmt.Fprintf(&b, "Author: %s <%s>\n", n.AuthorName, n.AuthorEmail)
	} else {
		fmt.Fprintf(&b, "Author: %s\n", n.AuthorName)
	}
	b.WriteString("\n")
	b.WriteString(n.Body)
	b.WriteString("\n")
	return b.String()
}
