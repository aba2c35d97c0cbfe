// internal/platform/di/container.go
package di

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"cloud.google.com/go/firestore"
	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	// Postgres driver
	_ "github.com/lib/pq"

	dbadapter "github.com/x1Brains/x1devtoolkit/internal/adapters/out/db"
	fsadapter "github.com/x1Brains/x1devtoolkit/internal/adapters/out/firestore"
	gcsadapter "github.com/x1Brains/x1devtoolkit/internal/adapters/out/gcs"
	"github.com/x1Brains/x1devtoolkit/internal/adapters/out/localfs"
	mailadapter "github.com/x1Brains/x1devtoolkit/internal/adapters/out/mail"
	"github.com/x1Brains/x1devtoolkit/internal/application/provision"
	appcfg "github.com/x1Brains/x1devtoolkit/internal/infra/config"
	solanainfra "github.com/x1Brains/x1devtoolkit/internal/infra/solana"
)

// Container は main.go から使う依存オブジェクトの束。
//
// Strict (Build): ledger client, operator key source, local key store / result file.
// Best-effort (attachSinks, after the preconditions): Firestore, PostgreSQL, GCS,
// Secret Manager backup, mail.
type Container struct {
	Config      *appcfg.Config
	Endpoint    string
	Ledger      *solanainfra.RPCLedger
	Provisioner *provision.Provisioner

	// Clients (owned; Close-managed)
	SecretManager *secretmanager.Client
	Firestore     *firestore.Client
	GCS           *storage.Client
	DB            *sql.DB

	cleanupFn []func()
}

// Close releases every client the container opened.
func (c *Container) Close() {
	if c == nil {
		return
	}
	for i := len(c.cleanupFn) - 1; i >= 0; i-- {
		c.cleanupFn[i]()
	}
	c.cleanupFn = nil
}

// Endpoint resolves the RPC URL: explicit override, else the network default.
func Endpoint(cfg *appcfg.Config) string {
	if ep := strings.TrimSpace(cfg.RPCEndpoint); ep != "" {
		return ep
	}
	return solanainfra.EndpointForNetwork(cfg.Network)
}

// SettingsFromConfig maps config values onto the provisioner settings.
func SettingsFromConfig(cfg *appcfg.Config) provision.Settings {
	s := provision.DefaultSettings()
	s.Decimals = cfg.Decimals
	s.FeeBasisPoints = cfg.FeeBasisPoints
	s.MaxFee = cfg.MaxFee
	s.MinOperatorBalance = cfg.MinOperatorBalance
	s.MetadataSlack = cfg.MetadataSlack
	s.ProtocolTag = cfg.ProtocolTag
	s.RentQueryAttempts = cfg.RentQueryAttempts
	s.RentRetryDelay = cfg.RentRetryDelay
	return s
}

// Build は前提条件（operator key / balance）に必要なものだけを組み立てます。
// ネットワークに触れる任意の sink は Provisioner.AttachSinks 経由で、
// 前提条件が通ってから attachSinks が追加します。
func Build(ctx context.Context, cfg *appcfg.Config) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("di: config is nil")
	}

	c := &Container{
		Config:   cfg,
		Endpoint: Endpoint(cfg),
	}

	// ------------------------------------------------------------
	// 1. Ledger (strict)
	// ------------------------------------------------------------
	c.Ledger = solanainfra.NewRPCLedger(c.Endpoint, cfg.Commitment, cfg.ConfirmTimeout)
	log.Printf("[di] ledger network=%s endpoint=%s commitment=%s", cfg.Network, c.Endpoint, cfg.Commitment)
	if cfg.IsMainnet() {
		log.Printf("[di] WARN: targeting MAINNET")
	}

	// ------------------------------------------------------------
	// 2. Operator key source (strict)
	// ------------------------------------------------------------
	if cfg.OperatorKeySecret != "" {
		// operator key をここから読む設定なので続行できない
		sm, err := secretmanager.NewClient(ctx, gcpClientOptions(cfg)...)
		if err != nil {
			return nil, fmt.Errorf("di: secretmanager.NewClient failed: %w", err)
		}
		c.SecretManager = sm
		c.cleanupFn = append(c.cleanupFn, func() { _ = sm.Close() })
	}

	operator, err := operatorKeySource(cfg, c.SecretManager)
	if err != nil {
		c.Close()
		return nil, err
	}

	// ------------------------------------------------------------
	// 3. Provisioner
	// ------------------------------------------------------------
	c.Provisioner = provision.NewProvisioner(
		SettingsFromConfig(cfg),
		c.Ledger,
		operator,
		localfs.NewMintKeyStoreFS(cfg.KeysDir),
		localfs.NewResultFileFS(cfg.OutputPath),
	)
	c.Provisioner.AttachSinks = c.attachSinks

	return c, nil
}

// attachSinks opens the optional clients and registers them on p.
// Every sink here is best-effort (warn + continue).
func (c *Container) attachSinks(ctx context.Context, p *provision.Provisioner) {
	cfg := c.Config

	var clientOpts []option.ClientOption
	if cfg.UsesGCP() {
		clientOpts = gcpClientOptions(cfg)
	}

	// Secret Manager backup of mint keys
	if cfg.MintKeySecretPrefix != "" && cfg.GCPProjectID != "" {
		if c.SecretManager == nil {
			sm, err := secretmanager.NewClient(ctx, clientOpts...)
			if err != nil {
				log.Printf("[di] WARN: secretmanager.NewClient failed: %v (mint key backup disabled)", err)
			} else {
				c.SecretManager = sm
				c.cleanupFn = append(c.cleanupFn, func() { _ = sm.Close() })
			}
		}
		if c.SecretManager != nil {
			p.Backups = append(p.Backups,
				solanainfra.NewSecretManagerKeyBackup(c.SecretManager, cfg.GCPProjectID, cfg.MintKeySecretPrefix))
			log.Printf("[di] mint key backup enabled prefix=%s", cfg.MintKeySecretPrefix)
		}
	}

	// Firestore registry
	if cfg.GCPProjectID != "" && cfg.FirestoreCollection != "" {
		fsClient, err := newFirestoreClient(ctx, cfg.GCPProjectID, clientOpts)
		if err != nil {
			log.Printf("[di] WARN: firestore init failed: %v (firestore registry disabled)", err)
		} else {
			c.Firestore = fsClient
			c.cleanupFn = append(c.cleanupFn, func() { _ = fsClient.Close() })
			p.Recorders = append(p.Recorders, fsadapter.NewMintRegistryFS(fsClient, cfg.FirestoreCollection, cfg.Network))
			log.Printf("[di] Firestore connected project=%s collection=%s", cfg.GCPProjectID, cfg.FirestoreCollection)
		}
	}

	// PostgreSQL registry (接続は最初の RecordMint で行う)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Printf("[di] WARN: open db failed: %v (postgres registry disabled)", err)
		} else {
			c.DB = db
			c.cleanupFn = append(c.cleanupFn, func() { _ = db.Close() })
			p.Recorders = append(p.Recorders, dbadapter.NewMintRegistryPG(db, "", cfg.Network))
			log.Printf("[di] postgres registry enabled")
		}
	}

	// GCS archive of the aggregate file
	if cfg.GCSBucket != "" {
		gcsClient, err := storage.NewClient(ctx, clientOpts...)
		if err != nil {
			log.Printf("[di] WARN: storage.NewClient failed: %v (result archive disabled)", err)
		} else {
			c.GCS = gcsClient
			c.cleanupFn = append(c.cleanupFn, func() { _ = gcsClient.Close() })
			p.Notifiers = append(p.Notifiers, gcsadapter.NewResultArchiveGCS(gcsClient, cfg.GCSBucket, cfg.GCSPrefix, cfg.Network))
			log.Printf("[di] GCS storage client initialized bucket=%s", cfg.GCSBucket)
		}
	}

	// Summary mail
	if cfg.MailEnabled() {
		sender := mailadapter.NewSendGridClient(cfg.SendGridAPIKey, cfg.MailSenderName)
		p.Notifiers = append(p.Notifiers, mailadapter.NewReportMailer(sender, cfg.MailFrom, cfg.MailTo, cfg.Network))
		log.Printf("[di] summary mail enabled to=%s", cfg.MailTo)
	}
}

func operatorKeySource(cfg *appcfg.Config, sm *secretmanager.Client) (provision.OperatorKeySource, error) {
	if cfg.OperatorKeySecret != "" {
		if sm == nil {
			return nil, errors.New("di: operator key secret configured but Secret Manager is unavailable")
		}
		log.Printf("[di] operator key source: secret manager")
		return solanainfra.NewSecretManagerKeySource(sm, cfg.OperatorKeySecret), nil
	}
	src := solanainfra.NewFileKeySource(cfg.KeypairPath)
	log.Printf("[di] operator key source: file %s", src.Path)
	return src, nil
}

func gcpClientOptions(cfg *appcfg.Config) []option.ClientOption {
	credFile := strings.TrimSpace(cfg.GCPCreds)
	if credFile == "" {
		log.Printf("[di] Using Application Default Credentials (no credentials file configured)")
		return nil
	}
	log.Printf("[di] Using credentials file for GCP clients: %s", filepath.Base(credFile))
	return []option.ClientOption{option.WithCredentialsFile(credFile)}
}

// Firestore は firebase app 経由で開きます。
func newFirestoreClient(ctx context.Context, projectID string, opts []option.ClientOption) (*firestore.Client, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app init failed: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase firestore client failed: %w", err)
	}
	return client, nil
}
