// Package notifx sends transactional mail. Providers implement
// EmailSender; the Client layers validation and template rendering on
// top, so callers hand over data and a template name and nothing else.
package notifx

import "context"

// EmailSender delivers one message.
type EmailSender interface {
	SendEmail(ctx context.Context, msg EmailMessage, opts ...Option) error
}

// BulkEmailSender delivers a batch, reporting per-message outcomes.
type BulkEmailSender interface {
	SendBulkEmail(ctx context.Context, msgs []EmailMessage, opts ...Option) ([]SendResult, error)
}

// Notifier is what application code depends on.
type Notifier interface {
	EmailSender
}

// Client fronts a provider with message validation and a template
// registry.
type Client struct {
	provider  EmailSender
	templates *TemplateRegistry
}

func NewClient(provider EmailSender) *Client {
	return &Client{provider: provider, templates: NewTemplateRegistry()}
}

// SendEmail validates the message and forwards it to the provider.
func (c *Client) SendEmail(ctx context.Context, msg EmailMessage, opts ...Option) error {
	if len(msg.To) == 0 {
		return notifxErrors.New(ErrInvalidMessage).WithDetail("reason", "no recipients")
	}
	if msg.Subject == "" {
		return notifxErrors.New(ErrInvalidMessage).WithDetail("reason", "empty subject")
	}
	return c.provider.SendEmail(ctx, msg, opts...)
}

// RegisterTemplate parses tmpl and stores it under name.
func (c *Client) RegisterTemplate(name, tmpl string) error {
	return c.templates.Register(name, tmpl)
}

// SendTemplatedEmail renders the named template into msg's HTML body
// and sends the result.
func (c *Client) SendTemplatedEmail(ctx context.Context, name string, data interface{}, msg EmailMessage, opts ...Option) error {
	body, err := c.templates.Render(name, data)
	if err != nil {
		return err
	}
	msg.HTMLBody = body
	return c.SendEmail(ctx, msg, opts...)
}
