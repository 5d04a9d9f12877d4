package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"coursemart/internal/model"
	"coursemart/internal/pricing"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// EmailService sends transactional email to learners
type EmailService interface {
	SendReceipt(ctx context.Context, u *model.User, o *model.Order) error
	SendCertificate(ctx context.Context, u *model.User, c *model.Certificate, downloadURL string) error
}

type emailMessage struct {
	ToName  string
	ToAddr  string
	Subject string
	Text    string
	HTML    string
}

type emailSender interface {
	send(ctx context.Context, msg *emailMessage) error
}

type emailService struct {
	sender emailSender
	prices *pricing.Table
	logger zerolog.Logger
}

// NewSendgridEmailService delivers mail through the SendGrid v3 API
func NewSendgridEmailService(apiKey, fromName, fromAddr string, prices *pricing.Table, logger zerolog.Logger) EmailService {
	lg := logger.With().Str("service", "EmailService").Logger()
	return &emailService{
		sender: &sendgridSender{
			key:        apiKey,
			host:       sendgridHost,
			from:       sgmail.NewEmail(fromName, fromAddr),
			subjPrefix: "[" + fromName + "] ",
		},
		prices: prices,
		logger: lg,
	}
}

// NewLogEmailService writes messages to the log instead of sending them
func NewLogEmailService(prices *pricing.Table, logger zerolog.Logger) EmailService {
	lg := logger.With().Str("service", "EmailService").Logger()
	return &emailService{sender: &logSender{logger: lg}, prices: prices, logger: lg}
}

var receiptTemplate = template.Must(template.New("receipt").Parse(`<p>Hi {{.Name}},</p>
<p>Thanks for your purchase. Your order <strong>{{.Reference}}</strong> is confirmed.</p>
<table>
{{range .Items}}<tr><td>{{.Title}}</td></tr>
{{end}}</table>
<p>Amount: {{.Amount}}<br>Processing fee: {{.Fee}}<br><strong>Total: {{.Total}}</strong></p>
<p>You can start learning right away from your dashboard.</p>`))

var certificateEmailTemplate = template.Must(template.New("certificate").Parse(`<p>Congratulations {{.Name}}!</p>
<p>You completed <strong>{{.Course}}</strong>. Certificate number {{.Number}}.</p>
{{if .URL}}<p><a href="{{.URL}}">Download your certificate</a></p>{{end}}`))

func (s *emailService) SendReceipt(ctx context.Context, u *model.User, o *model.Order) error {
	data := struct {
		Name      string
		Reference string
		Items     []model.OrderItem
		Amount    string
		Fee       string
		Total     string
	}{
		Name:      u.Name,
		Reference: o.GatewayReference,
		Items:     o.Items,
		Amount:    s.prices.Format(o.Amount, o.Currency),
		Fee:       s.prices.Format(o.Fee, o.Currency),
		Total:     s.prices.Format(o.Total, o.Currency),
	}
	var html bytes.Buffer
	if err := receiptTemplate.Execute(&html, data); err != nil {
		return fmt.Errorf("rendering receipt: %w", err)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Hi %s,\n\nYour order %s is confirmed.\n\n", u.Name, o.GatewayReference)
	for _, it := range o.Items {
		fmt.Fprintf(&text, "- %s\n", it.Title)
	}
	fmt.Fprintf(&text, "\nTotal: %s\n", data.Total)

	return s.sender.send(ctx, &emailMessage{
		ToName:  u.Name,
		ToAddr:  u.Email,
		Subject: "Your receipt for order " + o.GatewayReference,
		Text:    text.String(),
		HTML:    html.String(),
	})
}

func (s *emailService) SendCertificate(ctx context.Context, u *model.User, c *model.Certificate, downloadURL string) error {
	data := struct {
		Name   string
		Course string
		Number string
		URL    string
	}{u.Name, c.CourseTitle, c.CertificateNumber, downloadURL}
	var html bytes.Buffer
	if err := certificateEmailTemplate.Execute(&html, data); err != nil {
		return fmt.Errorf("rendering certificate email: %w", err)
	}
	text := fmt.Sprintf("Congratulations %s! You completed %s. Certificate number %s.\n", u.Name, c.CourseTitle, c.CertificateNumber)
	if downloadURL != "" {
		text += "Download: " + downloadURL + "\n"
	}
	return s.sender.send(ctx, &emailMessage{
		ToName:  u.Name,
		ToAddr:  u.Email,
		Subject: "Your certificate for " + c.CourseTitle,
		Text:    text,
		HTML:    html.String(),
	})
}

type sendgridSender struct {
	key        string
	host       string
	from       *sgmail.Email
	subjPrefix string
}

func (s *sendgridSender) send(_ context.Context, msg *emailMessage) error {
	if msg.ToAddr == "" {
		return fmt.Errorf("%w: recipient has no email address", ErrInvalidInput)
	}
	p := sgmail.NewPersonalization()
	p.Subject = s.subjPrefix + msg.Subject
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.ToAddr))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(
		sgmail.NewContent("text/plain", msg.Text),
		sgmail.NewContent("text/html", msg.HTML),
	)

	req := sendgrid.GetRequest(s.key, sendgridEndpoint, s.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m)

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid returned %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

type logSender struct {
	logger zerolog.Logger
}

func (s *logSender) send(_ context.Context, msg *emailMessage) error {
	s.logger.Info().
		Str("to", msg.ToAddr).
		Str("subject", msg.Subject).
		Msg("Email delivery disabled; logging message instead")
	s.logger.Debug().Str("to", msg.ToAddr).Msg(msg.Text)
	return nil
}
