// internal/infra/config/config.go
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	ErrInvalidNetwork    = errors.New("config: network must be testnet or mainnet")
	ErrInvalidCommitment = errors.New("config: commitment must be processed, confirmed or finalized")
	ErrInvalidSetting    = errors.New("config: invalid setting")
)

const (
	NetworkTestnet = "testnet"
	NetworkMainnet = "mainnet"
)

// Config はプロビジョナ全体の設定を保持します。
// 値は defaults → config file → 環境変数 → CLI flags の順に上書きされます。
type Config struct {
	// Ledger
	Network        string        `mapstructure:"network"`
	RPCEndpoint    string        `mapstructure:"rpc_endpoint"`
	Commitment     string        `mapstructure:"commitment"`
	ConfirmTimeout time.Duration `mapstructure:"confirm_timeout"`

	// Operator key: ファイル、または Secret Manager の secret version 名
	KeypairPath       string `mapstructure:"keypair_path"`
	OperatorKeySecret string `mapstructure:"operator_key_secret"`

	// Local outputs
	KeysDir    string `mapstructure:"keys_dir"`
	OutputPath string `mapstructure:"output_path"`
	TiersFile  string `mapstructure:"tiers_file"`

	// Mint parameters
	Decimals           uint8         `mapstructure:"decimals"`
	FeeBasisPoints     uint16        `mapstructure:"fee_basis_points"`
	MaxFee             uint64        `mapstructure:"max_fee"`
	MinOperatorBalance uint64        `mapstructure:"min_operator_balance"`
	MetadataSlack      uint64        `mapstructure:"metadata_slack"`
	ProtocolTag        string        `mapstructure:"protocol_tag"`
	RentQueryAttempts  int           `mapstructure:"rent_query_attempts"`
	RentRetryDelay     time.Duration `mapstructure:"rent_retry_delay"`

	// GCP (all optional; empty disables the matching sink)
	GCPProjectID        string `mapstructure:"gcp_project_id"`
	GCPCreds            string `mapstructure:"gcp_creds"`
	GCSBucket           string `mapstructure:"gcs_bucket"`
	GCSPrefix           string `mapstructure:"gcs_prefix"`
	FirestoreCollection string `mapstructure:"firestore_collection"`
	MintKeySecretPrefix string `mapstructure:"mint_key_secret_prefix"`

	// PostgreSQL registry (optional)
	DatabaseURL string `mapstructure:"database_url"`

	// Summary mail (optional)
	SendGridAPIKey string `mapstructure:"sendgrid_api_key"`
	MailFrom       string `mapstructure:"mail_from"`
	MailSenderName string `mapstructure:"mail_sender_name"`
	MailTo         string `mapstructure:"mail_to"`
}

// LoadOptions selects the optional config file and the CLI flags to overlay.
type LoadOptions struct {
	ConfigFile string
	Flags      *pflag.FlagSet
}

var defaults = map[string]any{
	"network":         NetworkTestnet,
	"rpc_endpoint":    "",
	"commitment":      "confirmed",
	"confirm_timeout": 60 * time.Second,

	"keypair_path":        "",
	"operator_key_secret": "",

	"keys_dir":    "keys",
	"output_path": "reference/deployed-mints.json",
	"tiers_file":  "",

	"decimals":             3,
	"fee_basis_points":     100,
	"max_fee":              1_000_000,
	"min_operator_balance": 500_000_000,
	"metadata_slack":       256,
	"protocol_tag":         "INCINERATOR",
	"rent_query_attempts":  3,
	"rent_retry_delay":     time.Second,

	"gcp_project_id":         "",
	"gcp_creds":              "",
	"gcs_bucket":             "",
	"gcs_prefix":             "tier-mints",
	"firestore_collection":   "tier_mints",
	"mint_key_secret_prefix": "",

	"database_url": "",

	"sendgrid_api_key": "",
	"mail_from":        "",
	"mail_sender_name": "Tier Mint Provisioner",
	"mail_to":          "",
}

// 環境変数名がキー名と違うもの（先頭が優先）
var envAliases = map[string][]string{
	"gcp_project_id": {"GCP_PROJECT_ID", "GOOGLE_CLOUD_PROJECT"},
	"gcp_creds":      {"GCP_CREDENTIALS_FILE", "GOOGLE_APPLICATION_CREDENTIALS"},
	"keypair_path":   {"KEYPAIR_PATH", "SOLANA_KEYPAIR"},
}

// flag 名 → config key
var flagKeys = map[string]string{
	"network":    "network",
	"rpc":        "rpc_endpoint",
	"commitment": "commitment",
	"keypair":    "keypair_path",
	"keys-dir":   "keys_dir",
	"out":        "output_path",
	"tiers":      "tiers_file",
}

// Load は設定を読み込み、検証済みの Config を返します。
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	for key, envs := range envAliases {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("config: bind env %s: %w", key, err)
		}
	}

	if file := strings.TrimSpace(opts.ConfigFile); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", file, err)
		}
		log.Printf("[config] loaded config file: %s", file)
	}

	if opts.Flags != nil {
		for name, key := range flagKeys {
			f := opts.Flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("config: bind flag %s: %w", name, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Network = strings.ToLower(strings.TrimSpace(c.Network))
	c.Commitment = strings.ToLower(strings.TrimSpace(c.Commitment))
	c.RPCEndpoint = strings.TrimSpace(c.RPCEndpoint)
	c.KeypairPath = strings.TrimSpace(c.KeypairPath)
	c.OperatorKeySecret = strings.TrimSpace(c.OperatorKeySecret)
	c.GCPProjectID = strings.TrimSpace(c.GCPProjectID)
	c.GCSBucket = strings.TrimSpace(c.GCSBucket)
	c.DatabaseURL = strings.TrimSpace(c.DatabaseURL)
}

func (c *Config) Validate() error {
	switch c.Network {
	case NetworkTestnet, NetworkMainnet:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidNetwork, c.Network)
	}
	switch c.Commitment {
	case "processed", "confirmed", "finalized":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidCommitment, c.Commitment)
	}
	if c.FeeBasisPoints > 10_000 {
		return fmt.Errorf("%w: fee_basis_points %d exceeds 10000", ErrInvalidSetting, c.FeeBasisPoints)
	}
	if c.ConfirmTimeout <= 0 {
		return fmt.Errorf("%w: confirm_timeout must be positive", ErrInvalidSetting)
	}
	if c.RentQueryAttempts < 1 {
		return fmt.Errorf("%w: rent_query_attempts must be at least 1", ErrInvalidSetting)
	}
	if c.ProtocolTag == "" {
		return fmt.Errorf("%w: protocol_tag is empty", ErrInvalidSetting)
	}
	return nil
}

// IsMainnet reports whether the run targets the production ledger.
func (c *Config) IsMainnet() bool {
	return c.Network == NetworkMainnet
}

func (c *Config) MailEnabled() bool {
	return c.SendGridAPIKey != "" && c.MailFrom != "" && c.MailTo != ""
}

// UsesGCP は GCP クライアントが 1 つでも必要かどうかを返します。
func (c *Config) UsesGCP() bool {
	return c.OperatorKeySecret != "" || c.GCSBucket != "" || c.MintKeySecretPrefix != "" ||
		(c.GCPProjectID != "" && c.FirestoreCollection != "")
}
