// internal/adapters/out/mail/report_mailer.go
package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"

	mintdom "github.com/x1Brains/x1devtoolkit/internal/domain/mint"
)

// Sender is the subset of SendGridClient the report mailer needs.
type Sender interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// ReportMailer sends the deployment summary after a run.
type ReportMailer struct {
	Sender  Sender
	From    string
	To      string
	Network string
}

func NewReportMailer(sender Sender, from, to, network string) *ReportMailer {
	return &ReportMailer{
		Sender:  sender,
		From:    strings.TrimSpace(from),
		To:      strings.TrimSpace(to),
		Network: network,
	}
}

func (m *ReportMailer) NotifyReport(ctx context.Context, r mintdom.Report) error {
	if m == nil || m.Sender == nil {
		return errors.New("mail: sender is nil")
	}
	subject, body := BuildReportMail(r, m.Network)
	return m.Sender.Send(ctx, m.From, m.To, subject, body)
}

// BuildReportMail renders the subject and plain text body for a run report.
func BuildReportMail(r mintdom.Report, network string) (subject, body string) {
	ok := r.Succeeded()
	failed := r.Failed()

	net := network
	if net == "" {
		net = "unknown"
	}
	subject = fmt.Sprintf("[tiermint] %s: %d/%d tiers provisioned", net, len(ok), len(r.Outcomes))

	var b strings.Builder
	fmt.Fprintf(&b, "network:  %s\n", net)
	fmt.Fprintf(&b, "operator: %s\n", r.Operator)
	fmt.Fprintf(&b, "started:  %s\n", r.StartedAt.UTC().Format("2006-01-02 15:04:05Z"))
	fmt.Fprintf(&b, "finished: %s\n\n", r.FinishedAt.UTC().Format("2006-01-02 15:04:05Z"))

	for _, p := range ok {
		fmt.Fprintf(&b, "  %-14s %s\n", p.TierName, p.MintAddress)
	}
	if len(failed) > 0 {
		fmt.Fprintf(&b, "\nfailed: %d\n", len(failed))
		for _, f := range failed {
			fmt.Fprintf(&b, "  %-14s %s\n", f.TierName, f.Reason)
		}
	}
	if r.OutputPath != "" {
		fmt.Fprintf(&b, "\nresults: %s\n", r.OutputPath)
	}
	return subject, b.String()
}
