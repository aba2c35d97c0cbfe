// internal/domain/mint/outcome.go
package mint

import (
	"time"

	"github.com/samber/lo"
)

// TierFailure describes a tier that did not complete.
type TierFailure struct {
	TierIndex int
	TierName  string
	Reason    string
}

// TierOutcome is either a Success or a Failure, never both.
type TierOutcome struct {
	Success *ProvisionedMint
	Failure *TierFailure
}

// Succeeded wraps m as a successful outcome.
func Succeeded(m ProvisionedMint) TierOutcome {
	return TierOutcome{Success: &m}
}

// Failed builds a failed outcome; err may be nil when reason is already known.
func Failed(index int, name string, err error) TierOutcome {
	reason := "unknown error"
	if err != nil {
		reason = err.Error()
	}
	return TierOutcome{Failure: &TierFailure{TierIndex: index, TierName: name, Reason: reason}}
}

func (o TierOutcome) OK() bool { return o.Success != nil }

// TierName returns the tier name of either variant.
func (o TierOutcome) TierName() string {
	if o.Success != nil {
		return o.Success.TierName
	}
	if o.Failure != nil {
		return o.Failure.TierName
	}
	return ""
}

// Report は 1 回の実行結果です。Outcomes は試行順（= tier_index 順）に並びます。
type Report struct {
	Operator   string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcomes   []TierOutcome
	OutputPath string
}

// Succeeded returns successful mints in attempted order.
func (r Report) Succeeded() []ProvisionedMint {
	ok := lo.Filter(r.Outcomes, func(o TierOutcome, _ int) bool { return o.OK() })
	return lo.Map(ok, func(o TierOutcome, _ int) ProvisionedMint { return *o.Success })
}

// Failed returns failures in attempted order.
func (r Report) Failed() []TierFailure {
	ng := lo.Filter(r.Outcomes, func(o TierOutcome, _ int) bool { return o.Failure != nil })
	return lo.Map(ng, func(o TierOutcome, _ int) TierFailure { return *o.Failure })
}
