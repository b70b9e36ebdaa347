package mail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/eventra-app/eventra-backend/pkg/config"
	pkgerrors "github.com/eventra-app/eventra-backend/pkg/errors"
	"github.com/eventra-app/eventra-backend/pkg/logger"
)

// Attachment is one file delivered alongside the message body.
type Attachment struct {
	Filename string
	Bytes    []byte
	MIMEType string
}

// Message is a single outbound email.
type Message struct {
	To         string
	ToName     string
	Subject    string
	HTML       string
	Attachment *Attachment
}

// Sender is the transport surface; satisfied by *sendgrid.Client.
type Sender interface {
	SendWithContext(ctx context.Context, email *sgmail.SGMailV3) (*rest.Response, error)
}

// Client sends transactional mail through Sendgrid. It carries no retry
// logic; a failed send surfaces as a transport error for the caller's
// bookkeeping.
type Client struct {
	sender Sender
	from   *sgmail.Email
	logg   *logger.Logger
}

// New builds a Sendgrid-backed mail client.
func New(cfg config.SendgridConfig, logg *logger.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("sendgrid api key is required")
	}
	if cfg.DefaultFrom == "" {
		return nil, errors.New("sendgrid from email is required")
	}
	return &Client{
		sender: sendgrid.NewSendClient(cfg.APIKey),
		from:   sgmail.NewEmail(cfg.FromName, cfg.DefaultFrom),
		logg:   logg,
	}, nil
}

// NewWithSender is the constructor used by tests and custom transports.
func NewWithSender(sender Sender, fromName, fromEmail string, logg *logger.Logger) (*Client, error) {
	if sender == nil {
		return nil, errors.New("sender is required")
	}
	if fromEmail == "" {
		return nil, errors.New("from email is required")
	}
	return &Client{
		sender: sender,
		from:   sgmail.NewEmail(fromName, fromEmail),
		logg:   logg,
	}, nil
}

// Send delivers one message synchronously.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient address is required")
	}
	if msg.Subject == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "subject is required")
	}

	email := buildEmail(c.from, msg)

	resp, err := c.sender.SendWithContext(ctx, email)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeTransport, err, "sending email")
	}
	if resp != nil && resp.StatusCode >= 300 {
		return pkgerrors.New(pkgerrors.CodeTransport, fmt.Sprintf("email rejected with status %d", resp.StatusCode)).
			WithDetails(map[string]any{"body": resp.Body})
	}

	if c.logg != nil {
		logCtx := c.logg.WithFields(ctx, map[string]any{"to": msg.To, "subject": msg.Subject})
		c.logg.Info(logCtx, "email dispatched")
	}
	return nil
}

func buildEmail(from *sgmail.Email, msg Message) *sgmail.SGMailV3 {
	to := sgmail.NewEmail(msg.ToName, msg.To)
	plain := "This message contains an HTML body."
	email := sgmail.NewSingleEmail(from, msg.Subject, to, plain, msg.HTML)

	if msg.Attachment != nil {
		attachment := sgmail.NewAttachment()
		attachment.SetContent(base64.StdEncoding.EncodeToString(msg.Attachment.Bytes))
		attachment.SetType(msg.Attachment.MIMEType)
		attachment.SetFilename(msg.Attachment.Filename)
		attachment.SetDisposition("attachment")
		email.AddAttachment(attachment)
	}
	return email
}
