package app

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"axolotld/internal/config"
	identitysvc "axolotld/internal/services/identity"
	"axolotld/internal/store"
)

const testPass = "Corr3ct-Horse-Battery"

func TestServeAndPing(t *testing.T) {
	for _, backend := range []string{config.BackendMemory, config.BackendFile, config.BackendBolt} {
		t.Run(backend, func(t *testing.T) {
			dir := t.TempDir()
			_, fp, err := identitysvc.New(store.NewIdentityFileStore(dir)).GenerateIdentity(testPass)
			require.NoError(t, err)

			cfg, err := config.Default(dir)
			require.NoError(t, err)
			cfg.Storage.Backend = backend
			cfg.Logging.Disable = true
			cfg.Metrics.Enable = true

			w, err := NewWire(cfg, testPass)
			require.NoError(t, err)
			defer w.Close()

			ln, err := net.Listen("tcp", "127.0.0.1:0")
			require.NoError(t, err)

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- w.Serve(ctx, ln) }()

			pctx, pcancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer pcancel()
			res, err := Ping(pctx, "http://"+ln.Addr().String(), nil, "one", "two")
			require.NoError(t, err)
			assert.Equal(t, fp, res.Server)
			assert.Equal(t, []string{"one", "two"}, res.Replies)

			cancel()
			require.NoError(t, <-done)
		})
	}
}

func TestNewWire_WrongPassphrase(t *testing.T) {
	dir := t.TempDir()
	_, _, err := identitysvc.New(store.NewIdentityFileStore(dir)).GenerateIdentity(testPass)
	require.NoError(t, err)

	cfg, err := config.Default(dir)
	require.NoError(t, err)
	cfg.Logging.Disable = true

	_, err = NewWire(cfg, "nope")
	assert.ErrorIs(t, err, store.ErrWrongPassphrase)
}
