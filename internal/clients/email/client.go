package email

import (
	"context"

	"classcribe/internal/pkg/errs"

	mail "gopkg.in/mail.v2"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type Client struct {
	cfg    Config
	dialer *mail.Dialer
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg:    cfg,
		dialer: mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// Send delivers one plain-text message. ctx cancellation is checked before
// dialing; the SMTP exchange itself is bounded by the dialer timeout.
func (c *Client) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", c.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := c.dialer.DialAndSend(msg); err != nil {
		return errs.Wrap(err, "failed to send email")
	}
	return nil
}
