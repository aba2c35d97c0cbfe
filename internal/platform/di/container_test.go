package di

import (
	"context"
	"net"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mailadapter "github.com/x1Brains/x1devtoolkit/internal/adapters/out/mail"
	appcfg "github.com/x1Brains/x1devtoolkit/internal/infra/config"
	solanainfra "github.com/x1Brains/x1devtoolkit/internal/infra/solana"
)

func localConfig(t *testing.T) *appcfg.Config {
	dir := t.TempDir()
	return &appcfg.Config{
		Network:            appcfg.NetworkTestnet,
		Commitment:         "confirmed",
		ConfirmTimeout:     30 * time.Second,
		KeypairPath:        filepath.Join(dir, "id.json"),
		KeysDir:            filepath.Join(dir, "keys"),
		OutputPath:         filepath.Join(dir, "deployed-mints.json"),
		Decimals:           3,
		FeeBasisPoints:     100,
		MaxFee:             1_000_000,
		MinOperatorBalance: 500_000_000,
		MetadataSlack:      256,
		ProtocolTag:        "INCINERATOR",
		RentQueryAttempts:  2,
		RentRetryDelay:     10 * time.Millisecond,
		MailSenderName:     "Incinerator Ops",
	}
}

func TestEndpoint(t *testing.T) {
	cfg := localConfig(t)
	assert.Equal(t, solanainfra.TestnetEndpoint, Endpoint(cfg))

	cfg.Network = appcfg.NetworkMainnet
	assert.Equal(t, solanainfra.MainnetEndpoint, Endpoint(cfg))

	cfg.RPCEndpoint = " http://127.0.0.1:8899 "
	assert.Equal(t, "http://127.0.0.1:8899", Endpoint(cfg))
}

func TestSettingsFromConfig(t *testing.T) {
	s := SettingsFromConfig(localConfig(t))
	assert.Equal(t, uint8(3), s.Decimals)
	assert.Equal(t, uint16(100), s.FeeBasisPoints)
	assert.Equal(t, uint64(500_000_000), s.MinOperatorBalance)
	assert.Equal(t, 2, s.RentQueryAttempts)
	assert.Equal(t, 10*time.Millisecond, s.RentRetryDelay)
}

func TestBuildLocalOnly(t *testing.T) {
	cfg := localConfig(t)

	c, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	defer c.Close()

	require.NotNil(t, c.Provisioner)
	assert.Equal(t, solanainfra.TestnetEndpoint, c.Ledger.Endpoint)
	assert.Empty(t, c.Provisioner.Recorders)
	assert.Empty(t, c.Provisioner.Backups)
	assert.Empty(t, c.Provisioner.Notifiers)
	assert.Nil(t, c.SecretManager)
	assert.Nil(t, c.Firestore)
	assert.Nil(t, c.GCS)
	assert.Nil(t, c.DB)

	src, ok := c.Provisioner.Operator.(*solanainfra.FileKeySource)
	require.True(t, ok)
	assert.Equal(t, cfg.KeypairPath, src.Path)

	require.NotNil(t, c.Provisioner.AttachSinks)
	c.Provisioner.AttachSinks(context.Background(), c.Provisioner)
	assert.Empty(t, c.Provisioner.Recorders)
	assert.Empty(t, c.Provisioner.Notifiers)
}

func TestBuildAddsMailNotifier(t *testing.T) {
	cfg := localConfig(t)
	cfg.SendGridAPIKey = "SG.test"
	cfg.MailFrom = "ops@example.com"
	cfg.MailTo = "team@example.com"

	c, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	defer c.Close()

	assert.Empty(t, c.Provisioner.Notifiers, "sinks wait for the preconditions")
	c.Provisioner.AttachSinks(context.Background(), c.Provisioner)
	require.Len(t, c.Provisioner.Notifiers, 1)

	mailer, ok := c.Provisioner.Notifiers[0].(*mailadapter.ReportMailer)
	require.True(t, ok)
	sender, ok := mailer.Sender.(*mailadapter.SendGridClient)
	require.True(t, ok)
	assert.Equal(t, cfg.MailSenderName, sender.SenderName)
}

func TestBuildDefersDatabaseUntilAttach(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	var accepted atomic.Int32
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			accepted.Add(1)
			_ = conn.Close()
		}
	}()
	t.Cleanup(func() { _ = ln.Close() })

	cfg := localConfig(t)
	cfg.DatabaseURL = "postgres://tiermint@" + ln.Addr().String() + "/mints?sslmode=disable&connect_timeout=2"

	c, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	defer c.Close()

	assert.Nil(t, c.DB)
	assert.Empty(t, c.Provisioner.Recorders)

	c.Provisioner.AttachSinks(context.Background(), c.Provisioner)
	require.NotNil(t, c.DB)
	assert.Len(t, c.Provisioner.Recorders, 1)

	// sql.Open だけでは接続しない
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, accepted.Load())
}

func TestBuildNilConfig(t *testing.T) {
	_, err := Build(context.Background(), nil)
	assert.Error(t, err)
}
