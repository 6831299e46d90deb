package sendgrid

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	sg "github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/yungbote/iof-learning/internal/platform/logger"
)

const (
	defaultHost = "https://api.sendgrid.com"
	endpoint    = "/v3/mail/send"
)

type Client interface {
	Send(ctx context.Context, req SendEmailRequest) (*SendEmailResult, error)
}

type Config struct {
	APIKey           string
	Host             string
	DefaultFromEmail string
	DefaultFromName  string
}

type EmailAddress struct {
	Email string
	Name  string
}

type SendEmailRequest struct {
	From    EmailAddress
	To      []EmailAddress
	Subject string
	Text    string
	HTML    string
}

type SendEmailResult struct {
	StatusCode int
	MessageID  string
}

type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 512 {
		body = body[:512] + "..."
	}
	return fmt.Sprintf("sendgrid http %d: %s", e.StatusCode, body)
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing SENDGRID_API_KEY")
	}
	if strings.TrimSpace(cfg.Host) == "" {
		cfg.Host = defaultHost
	}
	cfg.Host = strings.TrimRight(strings.TrimSpace(cfg.Host), "/")
	return &client{log: log.With("client", "SendGridClient"), cfg: cfg}, nil
}

type client struct {
	log *logger.Logger
	cfg Config
}

func (c *client) Send(ctx context.Context, req SendEmailRequest) (*SendEmailResult, error) {
	m, err := c.build(req)
	if err != nil {
		return nil, err
	}
	r := sg.GetRequest(c.cfg.APIKey, endpoint, c.cfg.Host)
	r.Method = http.MethodPost
	r.Body = sgmail.GetRequestBody(m)

	res, err := sg.MakeRequestWithContext(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("sendgrid send: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		c.log.Warn("SendGrid rejected message", "status", res.StatusCode)
		return nil, &HTTPError{StatusCode: res.StatusCode, Body: res.Body}
	}
	out := &SendEmailResult{StatusCode: res.StatusCode}
	if ids := res.Headers["X-Message-Id"]; len(ids) > 0 {
		out.MessageID = ids[0]
	}
	return out, nil
}

func (c *client) build(req SendEmailRequest) (*sgmail.SGMailV3, error) {
	from := req.From
	if strings.TrimSpace(from.Email) == "" {
		from = EmailAddress{Email: c.cfg.DefaultFromEmail, Name: c.cfg.DefaultFromName}
	}
	if strings.TrimSpace(from.Email) == "" {
		return nil, fmt.Errorf("sendgrid: From.Email required (or set SENDGRID_FROM_EMAIL)")
	}
	if len(req.To) == 0 {
		return nil, fmt.Errorf("sendgrid: To required")
	}
	if strings.TrimSpace(req.Subject) == "" {
		return nil, fmt.Errorf("sendgrid: Subject required")
	}
	if strings.TrimSpace(req.Text) == "" && strings.TrimSpace(req.HTML) == "" {
		return nil, fmt.Errorf("sendgrid: Text or HTML content required")
	}

	p := sgmail.NewPersonalization()
	p.Subject = strings.TrimSpace(req.Subject)
	for _, to := range req.To {
		p.AddTos(sgmail.NewEmail(to.Name, strings.TrimSpace(to.Email)))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(sgmail.NewEmail(from.Name, strings.TrimSpace(from.Email)))
	m.AddPersonalizations(p)
	if t := strings.TrimSpace(req.Text); t != "" {
		m.AddContent(sgmail.NewContent("text/plain", t))
	}
	if h := strings.TrimSpace(req.HTML); h != "" {
		m.AddContent(sgmail.NewContent("text/html", h))
	}
	return m, nil
}
