// internal/domain/mint/entity.go
package mint

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// Domain errors
var (
	ErrInvalidTierName    = errors.New("mint: invalid tierName")
	ErrInvalidMintAddress = errors.New("mint: invalid mintAddress")
	ErrInvalidTierIndex   = errors.New("mint: invalid tierIndex")
)

// Solana-like base58 address format (approximation).
var base58Re = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)

// Annotation は token-metadata の additional_metadata に入る key/value です。
type Annotation struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ProvisionedMint is one tier whose mint-creation transaction was confirmed.
// It is never mutated after creation.
type ProvisionedMint struct {
	TierIndex   int
	TierName    string
	Symbol      string
	MintAddress string
	Signature   string
	KeyFile     string
	Annotations []Annotation
	CreatedAt   time.Time
}

// Validate checks the fields every persisted record relies on.
func (m ProvisionedMint) Validate() error {
	if m.TierIndex < 0 {
		return ErrInvalidTierIndex
	}
	if strings.TrimSpace(m.TierName) == "" {
		return ErrInvalidTierName
	}
	if !base58Re.MatchString(m.MintAddress) {
		return ErrInvalidMintAddress
	}
	return nil
}

// Annotation returns the value for key, or "" when absent.
func (m ProvisionedMint) Annotation(key string) string {
	for _, a := range m.Annotations {
		if a.Key == key {
			return a.Value
		}
	}
	return ""
}

// AggregateRecord is the element of the aggregate result file: {"tier": ..., "mint": ...}
type AggregateRecord struct {
	Tier string `json:"tier"`
	Mint string `json:"mint"`
}

// ToAggregate converts mints to aggregate records keeping order.
func ToAggregate(mints []ProvisionedMint) []AggregateRecord {
	out := make([]AggregateRecord, 0, len(mints))
	for _, m := range mints {
		out = append(out, AggregateRecord{Tier: m.TierName, Mint: m.MintAddress})
	}
	return out
}
