package workerpool

import (
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func TestPool_ExecutesTasks(t *testing.T) {
	pool := New(4, 16, slog.Default())

	var counter int64
	for i := 0; i < 100; i++ {
		ok := pool.Submit(func() {
			atomic.AddInt64(&counter, 1)
		})
		if !ok {
			t.Fatal("Submit returned false on running pool")
		}
	}

	pool.Shutdown()

	if got := atomic.LoadInt64(&counter); got != 100 {
		t.Errorf("Expected 100 tasks executed, got %d", got)
	}
}

func TestPool_RecoverFromPanic(t *testing.T) {
	pool := New(1, 4, slog.Default())

	done := make(chan struct{})
	pool.Submit(func() {
		panic("boom")
	})
	pool.Submit(func() {
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Pool stopped executing after panic")
	}

	pool.Shutdown()
}

func TestPool_SubmitAfterShutdown(t *testing.T) {
	pool := New(1, 1, slog.Default())
	pool.Shutdown()

	if pool.Submit(func() {}) {
		t.Error("Expected Submit to return false after shutdown")
	}
}

func TestPool_TrySubmit_FullQueue(t *testing.T) {
	pool := New(1, 1, slog.Default())
	defer pool.Shutdown()

	block := make(chan struct{})
	// 占住唯一的 worker
	pool.Submit(func() { <-block })
	// 填满队列
	pool.Submit(func() {})

	if pool.TrySubmit(func() {}) {
		t.Error("Expected TrySubmit to return false on full queue")
	}

	close(block)
}
