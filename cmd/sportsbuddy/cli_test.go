package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sportsbuddy/config"
)

func memoryCLI(t *testing.T) *cli {
	t.Chdir(t.TempDir())
	t.Setenv("GO_ENV", "test")
	t.Setenv("STORE", config.StoreMemory)
	t.Setenv("PORT", "0")
	t.Setenv("SHUTDOWN_GRACE", "1s")
	cfg, err := config.Load()
	require.NoError(t, err)
	return &cli{cfg: cfg, logger: slog.New(slog.NewTextHandler(io.Discard, nil)), out: io.Discard}
}

func TestServe_MemoryStoreShutsDownOnCancel(t *testing.T) {
	c := memoryCLI(t)
	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan string, 1)
	done := make(chan error, 1)
	go func() { done <- c.serve(ctx, false, ready) }()

	var addr string
	select {
	case addr = <-ready:
	case err := <-done:
		t.Fatalf("serve exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	_, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	resp, err := http.Get("http://127.0.0.1:" + port + "/events")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestMigrate_RequiresPostgres(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GO_ENV", "test")
	t.Setenv("STORE", config.StoreMemory)

	root := newRootCmd()
	root.SetArgs([]string{"migrate"})
	root.SetErr(&bytes.Buffer{})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE=postgres")
}

func TestPromote_Flags(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GO_ENV", "test")

	t.Run("email is required", func(t *testing.T) {
		root := newRootCmd()
		root.SetArgs([]string{"promote", "--store", config.StoreMemory})
		root.SetErr(&bytes.Buffer{})
		require.Error(t, root.Execute())
	})

	t.Run("unknown role", func(t *testing.T) {
		root := newRootCmd()
		root.SetArgs([]string{"promote", "--store", config.StoreMemory, "--email", "a@example.com", "--role", "coach"})
		root.SetErr(&bytes.Buffer{})
		err := root.Execute()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown role")
	})

	t.Run("unknown user", func(t *testing.T) {
		root := newRootCmd()
		root.SetArgs([]string{"promote", "--store", config.StoreMemory, "--email", "a@example.com"})
		root.SetErr(&bytes.Buffer{})
		err := root.Execute()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "user not found")
	})
}
