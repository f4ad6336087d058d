package smtp

import (
	"context"
	"fmt"
	"html"

	"github.com/JMURv/device-auth/internal/config"
	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

const quotaSubject = "Device quota reached"

const quotaBody = `<p>Account <b>%s</b> was refused a login from a new device.</p>
<p>Device: %s (%s)</p>
<p>All %d device slots are in use. Remove a device or raise the quota to let it in.</p>`

type EmailServer struct {
	server string
	port   int
	user   string
	pass   string
	admin  string
}

func New(conf config.Config) *EmailServer {
	return &EmailServer{
		server: conf.Email.Server,
		port:   conf.Email.Port,
		user:   conf.Email.User,
		pass:   conf.Email.Pass,
		admin:  conf.Email.Admin,
	}
}

// Enabled reports whether both a relay and an admin mailbox are configured.
func (s *EmailServer) Enabled() bool {
	return s.server != "" && s.admin != ""
}

func (s *EmailServer) GetMessageBase(subject, toEmail string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.user)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", subject)
	return m
}

func (s *EmailServer) quotaMessage(username, deviceID, deviceName string, quota int) *gomail.Message {
	m := s.GetMessageBase(quotaSubject, s.admin)
	m.SetBody("text/html", quotaHTML(username, deviceID, deviceName, quota))
	return m
}

// quotaHTML renders the notice body. Every value is client-supplied and is escaped.
func quotaHTML(username, deviceID, deviceName string, quota int) string {
	return fmt.Sprintf(
		quotaBody,
		html.EscapeString(username),
		html.EscapeString(deviceName),
		html.EscapeString(deviceID),
		quota,
	)
}

// SendQuotaExceeded notifies the admin mailbox that username hit its device quota.
func (s *EmailServer) SendQuotaExceeded(
	ctx context.Context,
	username, deviceID, deviceName string,
	quota int,
) error {
	const op = "smtp.SendQuotaExceeded"
	span, _ := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	if !s.Enabled() {
		return nil
	}

	if err := s.Send(s.quotaMessage(username, deviceID, deviceName, quota)); err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		return err
	}
	return nil
}

func (s *EmailServer) Send(m *gomail.Message) error {
	d := gomail.NewDialer(s.server, s.port, s.user, s.pass)
	if err := d.DialAndSend(m); err != nil {
		zap.L().Error(
			"Failed to send an email",
			zap.Error(err),
		)
		return err
	}
	return nil
}
