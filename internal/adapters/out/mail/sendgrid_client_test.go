package mail

import (
	"context"
	"errors"
	"testing"

	"github.com/sendgrid/rest"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessageUsesSenderName(t *testing.T) {
	m, err := buildMessage("Incinerator Ops", " ops@example.com ", "team@example.com", "subj", "a < b")
	require.NoError(t, err)

	assert.Equal(t, "Incinerator Ops", m.From.Name)
	assert.Equal(t, "ops@example.com", m.From.Address)
	assert.Equal(t, "subj", m.Subject)
	require.Len(t, m.Personalizations, 1)
	require.Len(t, m.Personalizations[0].To, 1)
	assert.Equal(t, "team@example.com", m.Personalizations[0].To[0].Address)

	require.Len(t, m.Content, 2)
	assert.Equal(t, "a < b", m.Content[0].Value)
	assert.Equal(t, "<pre>a &lt; b</pre>", m.Content[1].Value)
}

func TestBuildMessageDefaultsSenderName(t *testing.T) {
	m, err := buildMessage("  ", "ops@example.com", "team@example.com", "s", "b")
	require.NoError(t, err)
	assert.Equal(t, defaultSenderName, m.From.Name)
}

func TestSendGridClientRejectsMissingFields(t *testing.T) {
	ctx := context.Background()
	assert.Error(t, NewSendGridClient("", "x").Send(ctx, "a@example.com", "b@example.com", "s", "b"))
	assert.Error(t, NewSendGridClient("key", "x").Send(ctx, "", "b@example.com", "s", "b"))
	assert.Error(t, NewSendGridClient("key", "x").Send(ctx, "a@example.com", "", "s", "b"))
}

func TestSendGridClientPostsMessage(t *testing.T) {
	var got *sgmail.SGMailV3
	c := NewSendGridClientWithPost("Ops", func(ctx context.Context, m *sgmail.SGMailV3) (*rest.Response, error) {
		got = m
		return &rest.Response{StatusCode: 202}, nil
	})

	require.NoError(t, c.Send(context.Background(), "ops@example.com", "team@example.com", "s", "b"))
	require.NotNil(t, got)
	assert.Equal(t, "Ops", got.From.Name)
}

func TestSendGridClientStatusAndTransportErrors(t *testing.T) {
	ctx := context.Background()

	rejected := NewSendGridClientWithPost("Ops", func(context.Context, *sgmail.SGMailV3) (*rest.Response, error) {
		return &rest.Response{StatusCode: 401, Body: "unauthorized"}, nil
	})
	assert.ErrorIs(t, rejected.Send(ctx, "a@example.com", "b@example.com", "s", "b"), ErrMailRejected)

	boom := errors.New("dial tcp: timeout")
	broken := NewSendGridClientWithPost("Ops", func(context.Context, *sgmail.SGMailV3) (*rest.Response, error) {
		return nil, boom
	})
	assert.ErrorIs(t, broken.Send(ctx, "a@example.com", "b@example.com", "s", "b"), boom)
}
