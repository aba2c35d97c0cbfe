package mail

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mintdom "github.com/x1Brains/x1devtoolkit/internal/domain/mint"
)

type captureSender struct {
	from, to, subject, body string
	err                     error
}

func (c *captureSender) Send(ctx context.Context, from, to, subject, body string) error {
	c.from, c.to, c.subject, c.body = from, to, subject, body
	return c.err
}

func sampleReport() mintdom.Report {
	at := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	return mintdom.Report{
		Operator:   "Op1111111111111111111111111111111111111111",
		StartedAt:  at,
		FinishedAt: at.Add(time.Minute),
		OutputPath: "/srv/reference/deployed-mints.json",
		Outcomes: []mintdom.TierOutcome{
			mintdom.Succeeded(mintdom.ProvisionedMint{TierIndex: 0, TierName: "INCINERATOR", MintAddress: "MintA"}),
			mintdom.Failed(1, "APOCALYPSE", errors.New("submit: blockhash not found")),
		},
	}
}

func TestBuildReportMail(t *testing.T) {
	subject, body := BuildReportMail(sampleReport(), "testnet")

	assert.Equal(t, "[tiermint] testnet: 1/2 tiers provisioned", subject)
	assert.Contains(t, body, "INCINERATOR    MintA")
	assert.Contains(t, body, "failed: 1")
	assert.Contains(t, body, "submit: blockhash not found")
	assert.Contains(t, body, "results: /srv/reference/deployed-mints.json")
}

func TestReportMailerSends(t *testing.T) {
	s := &captureSender{}
	m := NewReportMailer(s, " ops@example.com ", "team@example.com", "mainnet")

	require.NoError(t, m.NotifyReport(context.Background(), sampleReport()))
	assert.Equal(t, "ops@example.com", s.from)
	assert.Equal(t, "team@example.com", s.to)
	assert.Contains(t, s.subject, "mainnet")

	s.err = errors.New("rate limited")
	assert.Error(t, m.NotifyReport(context.Background(), sampleReport()))
}
