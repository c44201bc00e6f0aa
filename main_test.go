package main

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunReturnsListenError(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	t.Setenv("STORAGE_TYPE", "sqlite")
	t.Setenv("STORAGE_PATH", t.TempDir())
	t.Setenv("LISTEN_ADDR", busy.Addr().String())

	done := make(chan error, 1)
	go func() { done <- run(context.Background()) }()
	select {
	case err := <-done:
		assert.ErrorContains(t, err, "server failed")
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after the listener failed")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Setenv("STORAGE_TYPE", "memory")
	t.Setenv("LISTEN_ADDR", "127.0.0.1:0")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}

func TestRunRejectsBadConfig(t *testing.T) {
	t.Setenv("STORAGE_TYPE", "memory")
	t.Setenv("MAX_BODY_BYTES", "lots")
	assert.ErrorContains(t, run(context.Background()), "MAX_BODY_BYTES")
}
