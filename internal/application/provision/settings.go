// internal/application/provision/settings.go
package provision

import "time"

// LamportsPerSOL is the number of minimal units in one native-currency unit.
const LamportsPerSOL uint64 = 1_000_000_000

// Settings はプロビジョニングの固定パラメータです。
// テストから閾値やエンドポイントを差し替えられるよう、定数ではなく値として渡します。
type Settings struct {
	Decimals           uint8
	FeeBasisPoints     uint16
	MaxFee             uint64
	MinOperatorBalance uint64
	MetadataSlack      uint64
	ProtocolTag        string

	// RentQueryAttempts bounds retries of the read-only rent query. Submission is never retried.
	RentQueryAttempts int
	RentRetryDelay    time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		Decimals:           3,
		FeeBasisPoints:     100,
		MaxFee:             1_000_000,
		MinOperatorBalance: LamportsPerSOL / 2,
		MetadataSlack:      256,
		ProtocolTag:        "INCINERATOR",
		RentQueryAttempts:  3,
		RentRetryDelay:     time.Second,
	}
}
