// Package notifxses delivers notifx mail through AWS SES.
package notifxses

import (
	"context"

	"github.com/Abraxas-365/workgate/pkg/notifx"
	"github.com/Abraxas-365/workgate/pkg/ptrx"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESProvider implements notifx.EmailSender and notifx.BulkEmailSender.
// fromAddress fills in messages that carry no explicit sender.
type SESProvider struct {
	client      *ses.Client
	fromAddress string
}

func NewSESProvider(client *ses.Client, fromAddress string) *SESProvider {
	return &SESProvider{client: client, fromAddress: fromAddress}
}

// SendEmail translates the envelope to an SES SendEmail call.
func (p *SESProvider) SendEmail(ctx context.Context, msg notifx.EmailMessage, _ ...notifx.Option) error {
	if _, err := p.client.SendEmail(ctx, p.buildInput(msg)); err != nil {
		return sesErrors.NewWithCause(ErrSendFailed, err).
			WithDetail("to", msg.To).
			WithDetail("subject", msg.Subject)
	}
	return nil
}

// SendBulkEmail sends each message individually. SES quota handling is
// left to the caller's retry policy.
func (p *SESProvider) SendBulkEmail(ctx context.Context, msgs []notifx.EmailMessage, opts ...notifx.Option) ([]notifx.SendResult, error) {
	results := make([]notifx.SendResult, len(msgs))
	for i, msg := range msgs {
		r := notifx.SendResult{}
		if len(msg.To) > 0 {
			r.To = msg.To[0]
		}
		if err := p.SendEmail(ctx, msg, opts...); err != nil {
			r.Error = err.Error()
		} else {
			r.Success = true
		}
		results[i] = r
	}
	return results, nil
}

func (p *SESProvider) buildInput(msg notifx.EmailMessage) *ses.SendEmailInput {
	from := msg.From
	if from == "" {
		from = p.fromAddress
	}

	body := &types.Body{}
	if msg.TextBody != "" {
		body.Text = sesContent(msg.TextBody)
	}
	if msg.HTMLBody != "" {
		body.Html = sesContent(msg.HTMLBody)
	}

	input := &ses.SendEmailInput{
		Source: ptrx.String(from),
		Destination: &types.Destination{
			ToAddresses:  msg.To,
			CcAddresses:  msg.CC,
			BccAddresses: msg.BCC,
		},
		Message: &types.Message{
			Subject: sesContent(msg.Subject),
			Body:    body,
		},
	}
	if msg.ReplyTo != "" {
		input.ReplyToAddresses = []string{msg.ReplyTo}
	}
	return input
}

func sesContent(data string) *types.Content {
	return &types.Content{
		Data:    ptrx.String(data),
		Charset: ptrx.String("UTF-8"),
	}
}
