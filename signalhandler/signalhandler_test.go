package signalhandler

import (
	"context"
	"os"
	"runtime"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSetupHandlerCancelsOnSignal(t *testing.T) {
	ctx, stop := SetupHandler(context.Background())
	defer stop()

	assert.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGINT))

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context was not cancelled by SIGINT")
	}
}

func TestStopCancelsContext(t *testing.T) {
	ctx, stop := SetupHandler(context.Background())
	stop()
	assert.Error(t, ctx.Err())
}

func TestWatchReturnsWhenStoppedAfterSignal(t *testing.T) {
	sigChan := make(chan os.Signal, 2)
	done := make(chan struct{})
	cancelled := make(chan struct{})
	returned := make(chan struct{})

	go func() {
		watch(sigChan, done, nil, func() { close(cancelled) }, func(int) { t.Error("exit called") })
		close(returned)
	}()

	sigChan <- syscall.SIGTERM
	select {
	case <-cancelled:
	case <-time.After(5 * time.Second):
		t.Fatal("first signal did not cancel")
	}

	close(done)
	select {
	case <-returned:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher still running after stop")
	}
}

func TestWatchSecondSignalExits(t *testing.T) {
	sigChan := make(chan os.Signal, 2)
	codes := make(chan int, 1)

	go watch(sigChan, make(chan struct{}), nil, func() {}, func(code int) { codes <- code })

	sigChan <- syscall.SIGINT
	sigChan <- syscall.SIGINT
	select {
	case code := <-codes:
		assert.Equal(t, 130, code)
	case <-time.After(5 * time.Second):
		t.Fatal("second signal did not exit")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	_, stop := SetupHandler(context.Background())
	stop()
	assert.NotPanics(t, func() { stop() })
}

func TestGetOptimalProcs(t *testing.T) {
	assert.Equal(t, runtime.NumCPU(), GetOptimalProcs(false))
	n := GetOptimalProcs(true)
	assert.GreaterOrEqual(t, n, 1)
	assert.LessOrEqual(t, n, runtime.NumCPU())
}
