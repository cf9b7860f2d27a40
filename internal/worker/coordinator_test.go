package worker

import (
	"errors"
	"sync"
	"testing"
	"time"

	"estat-analytics/internal/metrics"
	"estat-analytics/internal/queue"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(send func([]byte) error) Config {
	return Config{
		BatchSize:        10,
		FlushInterval:    10 * time.Millisecond,
		MaxRetries:       3,
		RetryInterval:    time.Millisecond,
		MaxRetryInterval: 2 * time.Millisecond,
		MaxBatchBytes:    512 * 1024,
		Logger:           zerolog.Nop(),
		Metrics:          metrics.New(),
		Send:             send,
	}
}

func enqueueN(t *testing.T, q *queue.Queue, n int) uint64 {
	t.Helper()
	var last uint64
	for i := 0; i < n; i++ {
		seq, ok := q.Enqueue("track", json.RawMessage(`{"type":"track"}`))
		require.True(t, ok)
		last = seq
	}
	return last
}

func TestWaitForBlocksUntilDelivered(t *testing.T) {
	var mu sync.Mutex
	var sent int

	cfg := testConfig(func([]byte) error {
		mu.Lock()
		sent++
		mu.Unlock()
		return nil
	})

	var delivered int
	cfg.OnDelivered = func(items []queue.Item) {
		mu.Lock()
		delivered += len(items)
		mu.Unlock()
	}

	q := queue.New(100)
	last := enqueueN(t, q, 25) // BatchSize=10 → 3개 배치

	c := New(cfg, q)
	c.Start()
	defer c.Shutdown()

	c.WaitFor(last)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, sent)
	assert.Equal(t, 25, delivered)
}

func TestRetryBudgetExhausted(t *testing.T) {
	var mu sync.Mutex
	var attempts int

	cfg := testConfig(func([]byte) error {
		mu.Lock()
		attempts++
		mu.Unlock()
		return errors.New("connection refused")
	})

	var failed int
	var failErr error
	cfg.OnFailed = func(items []queue.Item, err error) {
		mu.Lock()
		failed += len(items)
		failErr = err
		mu.Unlock()
	}

	q := queue.New(10)
	last := enqueueN(t, q, 2)

	c := New(cfg, q)
	c.Start()
	defer c.Shutdown()

	// 실패한 이벤트도 accounted 되어야 WaitFor가 풀린다
	c.WaitFor(last)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, cfg.MaxRetries, attempts)
	assert.Equal(t, 2, failed)
	assert.EqualError(t, failErr, "connection refused")
}

func TestWakeTriggersImmediateDrain(t *testing.T) {
	sent := make(chan struct{}, 1)

	cfg := testConfig(func([]byte) error {
		select {
		case sent <- struct{}{}:
		default:
		}
		return nil
	})
	cfg.FlushInterval = time.Minute // 타이머로는 절대 안 깨어남

	q := queue.New(10)
	c := New(cfg, q)
	c.Start()
	defer c.Shutdown()

	enqueueN(t, q, 1)
	c.Wake()

	select {
	case <-sent:
	case <-time.After(2 * time.Second):
		t.Fatal("wake did not trigger a drain cycle")
	}
}

func TestShutdownDrainsRemaining(t *testing.T) {
	var mu sync.Mutex
	var sent int

	cfg := testConfig(func([]byte) error {
		mu.Lock()
		sent++
		mu.Unlock()
		return nil
	})
	cfg.FlushInterval = time.Minute

	q := queue.New(10)
	c := New(cfg, q)
	c.Start()

	enqueueN(t, q, 5)
	c.Shutdown()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, sent)
}

func TestMarkAccountedUnblocksWaiters(t *testing.T) {
	q := queue.New(10)
	c := New(testConfig(func([]byte) error { return nil }), q)

	done := make(chan struct{})
	go func() {
		c.WaitFor(7)
		close(done)
	}()

	c.MarkAccounted(3)
	select {
	case <-done:
		t.Fatal("WaitFor returned before target seq accounted")
	case <-time.After(20 * time.Millisecond):
	}

	c.MarkAccounted(7)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("WaitFor did not return after target seq accounted")
	}
}
