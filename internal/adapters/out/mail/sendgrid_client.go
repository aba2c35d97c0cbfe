package mail

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const defaultSenderName = "Tier Mint Provisioner"

var ErrMailRejected = errors.New("mail: rejected by sendgrid")

// PostFunc delivers one v3 message. SendGridClient uses sendgrid.Client.SendWithContext.
type PostFunc func(ctx context.Context, m *sgmail.SGMailV3) (*rest.Response, error)

// SendGridClient sends the run summary through SendGrid as text plus a <pre> HTML part.
type SendGridClient struct {
	SenderName string
	post       PostFunc
}

func NewSendGridClient(apiKey, senderName string) *SendGridClient {
	c := &SendGridClient{SenderName: senderName}
	if key := strings.TrimSpace(apiKey); key != "" {
		c.post = sendgrid.NewSendClient(key).SendWithContext
	}
	return c
}

// NewSendGridClientWithPost は送信処理を差し替えたクライアントを返します。
func NewSendGridClientWithPost(senderName string, post PostFunc) *SendGridClient {
	return &SendGridClient{SenderName: senderName, post: post}
}

func (c *SendGridClient) Send(ctx context.Context, from, to, subject, body string) error {
	if c == nil || c.post == nil {
		return errors.New("mail: sendgrid api key is empty")
	}
	m, err := buildMessage(c.SenderName, from, to, subject, body)
	if err != nil {
		return err
	}

	resp, err := c.post(ctx, m)
	if err != nil {
		return fmt.Errorf("mail: sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		log.Printf("[sendgrid] rejected status=%d body=%s", resp.StatusCode, resp.Body)
		return fmt.Errorf("%w: status=%d", ErrMailRejected, resp.StatusCode)
	}

	log.Printf("[sendgrid] sent status=%d to=%s subject=%q", resp.StatusCode, to, subject)
	return nil
}

func buildMessage(senderName, from, to, subject, body string) (*sgmail.SGMailV3, error) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if from == "" {
		return nil, errors.New("mail: from address is empty")
	}
	if to == "" {
		return nil, errors.New("mail: to address is empty")
	}
	name := strings.TrimSpace(senderName)
	if name == "" {
		name = defaultSenderName
	}
	// 本文は mint address 等をそのまま含むので HTML 側だけエスケープ
	return sgmail.NewSingleEmail(
		sgmail.NewEmail(name, from),
		subject,
		sgmail.NewEmail("", to),
		body,
		"<pre>"+html.EscapeString(body)+"</pre>",
	), nil
}
