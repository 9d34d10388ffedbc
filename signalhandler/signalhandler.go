package signalhandler

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"

	"findidentical/logging"
)

// SetupHandler returns a context that is cancelled on the first SIGINT or
// SIGTERM. A second signal exits immediately. The returned stop function
// releases the signal registration and ends the watcher goroutine.
func SetupHandler(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	// Create a channel to receive OS signals
	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go watch(sigChan, done, ctx.Done(), cancel, os.Exit)

	var once sync.Once
	return ctx, func() {
		once.Do(func() {
			signal.Stop(sigChan)
			close(done)
			cancel()
		})
	}
}

// watch cancels on the first signal and calls exit on the second. It returns
// once done is closed, or when ctxDone fires before any signal arrived.
func watch(sigChan <-chan os.Signal, done <-chan struct{}, ctxDone <-chan struct{}, cancel func(), exit func(int)) {
	select {
	case sig := <-sigChan:
		logging.LogWarning("Received %v, cancelling", sig)
		cancel()
	case <-ctxDone:
		return
	case <-done:
		return
	}

	// A second signal exits without waiting for the workers
	select {
	case <-sigChan:
		exit(130)
	case <-done:
	}
}

// GetOptimalProcs returns the number of worker goroutines to use when the
// user did not choose one. The OpenCV backend runs decoders in cgo, where
// oversubscribing the cores only adds contention.
func GetOptimalProcs(cgo bool) int {
	numCPU := runtime.NumCPU()
	if !cgo {
		return numCPU
	}

	maxProcs := (numCPU * 3) / 4
	if maxProcs < 1 {
		maxProcs = 1
	}
	return maxProcs
}
