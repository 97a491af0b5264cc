package mailchain

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheusHen/mailchain/mailchain/config"
	dirmemory "github.com/TheusHen/mailchain/mailchain/directory/memory"
	"github.com/TheusHen/mailchain/mailchain/keyring"
	"github.com/TheusHen/mailchain/mailchain/keys"
	"github.com/TheusHen/mailchain/mailchain/payload"
	"github.com/TheusHen/mailchain/mailchain/storage/memory"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)
	return l
}

func newKeyring(t *testing.T) *keyring.Keyring {
	t.Helper()
	mnemonic, err := keyring.NewMnemonic()
	require.NoError(t, err)
	kr, err := keyring.FromMnemonic(mnemonic, "", keys.Ed25519)
	require.NoError(t, err)
	t.Cleanup(kr.Close)
	return kr
}

func TestMailerSendFetch(t *testing.T) {
	ctx := context.Background()
	m, err := New(Options{Logger: quietLogger()})
	require.NoError(t, err)
	defer m.Close()

	alice := newKeyring(t)
	bob := newKeyring(t)
	aliceKey, err := m.Register(ctx, alice, "ethereum", "alice@ethereum.mailchain", 0)
	require.NoError(t, err)
	bobKey, err := m.Register(ctx, bob, "ethereum", "Bob@ethereum.mailchain", 0)
	require.NoError(t, err)

	report, err := m.Send(ctx, aliceKey, []string{"bob@ethereum.mailchain", "nobody@ethereum.mailchain"}, []byte("hello bob"))
	require.NoError(t, err)
	require.Len(t, report.Delivered(), 1)
	require.Len(t, report.Failed(), 1)
	assert.Error(t, report.Err())

	msgs, err := m.Fetch(ctx, bobKey)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, []byte("hello bob"), msgs[0].Body)
	assert.Equal(t, payload.DefaultContentType, msgs[0].Headers.ContentType)
	assert.True(t, msgs[0].Headers.Origin.Equal(aliceKey.PublicKey()))

	// Alice has no mail.
	none, err := m.Fetch(ctx, aliceKey)
	require.NoError(t, err)
	assert.Empty(t, none)

	require.NotNil(t, m.Gatherer())
	n, err := testutil.GatherAndCount(m.Gatherer(), "mailchain_delivery_requests_total")
	require.NoError(t, err)
	assert.Positive(t, n)
}

func TestMailerErasureStorage(t *testing.T) {
	ctx := context.Background()
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Storage.Backend = config.BackendErasure
	cfg.Storage.DataShards, cfg.Storage.ParityShards = 3, 2
	cfg.Payload.Encoding = payload.EncodingLZ4
	cfg.Payload.ChunkSize = 64

	m, err := New(Options{Config: cfg, Logger: quietLogger()})
	require.NoError(t, err)
	defer m.Close()

	sender, err := keys.GenerateKey(keys.Secp256k1, nil)
	require.NoError(t, err)
	bob := newKeyring(t)
	bobKey, err := m.Register(ctx, bob, "substrate", "bob@substrate.mailchain", 1)
	require.NoError(t, err)

	body := make([]byte, 1000)
	for i := range body {
		body[i] = byte(i % 7)
	}
	report, err := m.Send(ctx, sender, []string{"bob@substrate.mailchain"}, body)
	require.NoError(t, err)
	require.NoError(t, report.Err())
	assert.Contains(t, report.URI, "rs:")

	msgs, err := m.Fetch(ctx, bobKey)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, body, msgs[0].Body)
	assert.Equal(t, payload.EncodingLZ4, msgs[0].Headers.ContentEncoding)
}

func TestMailerOverQUIC(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	dir := dirmemory.New()
	store := memory.New("shared")

	serverCfg, err := config.Default()
	require.NoError(t, err)
	serverCfg.Transport.Listen = "127.0.0.1:0"
	serverCfg.Metrics.Enabled = false
	server, err := New(Options{Config: serverCfg, Logger: quietLogger(), Directory: dir, Store: store})
	require.NoError(t, err)
	require.NoError(t, server.Listen())
	defer server.Close()

	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx) }()

	clientCfg, err := config.Default()
	require.NoError(t, err)
	clientCfg.Transport.Server = server.ListenAddr()
	client, err := New(Options{Config: clientCfg, Logger: quietLogger(), Directory: dir, Store: store})
	require.NoError(t, err)
	defer client.Close()

	alice := newKeyring(t)
	bob := newKeyring(t)
	aliceKey, err := client.Register(ctx, alice, "ethereum", "alice@ethereum.mailchain", 0)
	require.NoError(t, err)
	bobKey, err := server.Register(ctx, bob, "ethereum", "bob@ethereum.mailchain", 0)
	require.NoError(t, err)

	report, err := client.Send(ctx, aliceKey, []string{"bob@ethereum.mailchain"}, []byte("over quic"))
	require.NoError(t, err)
	require.NoError(t, report.Err())

	assert.Equal(t, 1, server.Inbox().Len())
	assert.Equal(t, 0, client.Inbox().Len())

	msgs, err := server.Fetch(ctx, bobKey)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, []byte("over quic"), msgs[0].Body)

	cancel()
	require.NoError(t, server.Close())
	<-done
}

func TestMailerServeWithoutListen(t *testing.T) {
	m, err := New(Options{Logger: quietLogger()})
	require.NoError(t, err)
	assert.ErrorIs(t, m.Listen(), ErrNotListening)
	assert.ErrorIs(t, m.Serve(context.Background()), ErrNotListening)
	assert.Empty(t, m.ListenAddr())
}

func TestMailerRejectsInvalidConfig(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Storage.Backend = "tape"
	_, err = New(Options{Config: cfg})
	assert.ErrorIs(t, err, config.ErrInvalid)
}
