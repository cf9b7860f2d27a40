// internal/worker/coordinator.go
package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"estat-analytics/internal/metrics"
	"estat-analytics/internal/queue"

	"github.com/rs/zerolog"
)

// Config는 Coordinator 동작 파라미터. facade가 기본값을 채워서 넘긴다.
type Config struct {
	BatchSize        int           // 한 outbound 요청으로 묶는 최대 이벤트 수
	FlushInterval    time.Duration // 큐가 비었을 때 대기 간격 (busy-wait 방지)
	MaxRetries       int           // 배치당 최대 전송 시도 횟수
	RetryInterval    time.Duration // 첫 재시도 대기. 이후 2배씩 증가
	MaxRetryInterval time.Duration // backoff 상한
	MaxBatchBytes    int           // body 크기 상한 (초과 시 분할)
	Compress         bool          // body gzip 여부

	Logger  zerolog.Logger
	Metrics *metrics.Metrics

	// Send는 전송 1회 시도를 수행한다. 2xx 응답이면 nil.
	// Handler 스냅샷/요청 구성은 facade 책임이고, 여기서는 시도 횟수와
	// backoff만 관리한다.
	Send func(body []byte) error

	// OnDelivered / OnFailed는 배치 내 이벤트들의 terminal 결과 통지.
	// worker goroutine에서 호출된다.
	OnDelivered func(items []queue.Item)
	OnFailed    func(items []queue.Item, err error)
}

// Coordinator는 전송 파이프라인의 핵심이다.
// facade가 큐에 넣은 직렬화 이벤트를 단일 백그라운드 워커가 모아서(batch)
//   - 크기 상한 기준 분할
//   - 배치 envelope 인코딩 (+gzip)
//   - 전송 (실패 시 bounded retry + exponential backoff)
//
// 하는 전체 흐름을 제어한다.
//
// 주요 구성:
//   - deliverLoop: 큐 drain → deliver. 큐가 비면 FlushInterval 또는
//     wake 신호까지 대기
//   - wake: Flush(wait=false) 힌트 채널 (버퍼 1, 중복 신호는 병합)
//   - accounted / cond: "seq G까지 delivered-or-failed" 완료 카운팅.
//     Flush(wait=true)는 이 조건으로 블록한다
//
// 배치별 상태는 Pending → InFlight → {Delivered | Retrying → InFlight
// | Failed} 로 흐르고, Delivered/Failed에서 accounted가 전진한다.
//
// Coordinator는 graceful shutdown을 지원하며, 종료 요청 이후 남은
// 배치도 시도 1회씩은 전송해 본다 (best-effort flush).
type Coordinator struct {
	cfg     Config
	queue   *queue.Queue
	encoder *Encoder

	wake chan struct{}

	mu        sync.Mutex
	cond      *sync.Cond
	accounted uint64 // delivered-or-failed 처리가 끝난 마지막 seq

	ctx    context.Context
	cancel context.CancelFunc

	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New는 Encoder와 완료 카운팅 상태를 초기화한다. Start 전까지
// 워커는 돌지 않는다.
func New(cfg Config, q *queue.Queue) *Coordinator {
	c := &Coordinator{
		cfg:     cfg,
		queue:   q,
		encoder: NewEncoder(cfg.Compress),
		wake:    make(chan struct{}, 1),
	}
	c.cond = sync.NewCond(&c.mu)
	c.ctx, c.cancel = context.WithCancel(context.Background())
	return c
}

// Start는 단일 전송 워커 goroutine을 실행한다.
func (c *Coordinator) Start() {
	c.wg.Add(1)
	go c.deliverLoop()
}

// Shutdown은 워커에 종료를 요청하고 완료될 때까지 대기한다.
// 이미 큐에 있던 배치는 1회씩 전송 시도 후 정리된다.
func (c *Coordinator) Shutdown() {
	c.stopOnce.Do(func() {
		c.cancel()
		c.Wake()
	})
	c.wg.Wait()
}

// Wake는 다음 drain 사이클을 가능한 한 빨리 돌려 달라는 힌트다.
// 비블로킹이며, 이미 신호가 대기 중이면 병합된다.
func (c *Coordinator) Wake() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// WaitFor는 seq 이하의 모든 이벤트가 Delivered 또는 Failed로
// 확정될 때까지 호출 goroutine을 블록한다. Flush(wait=true)의 본체.
func (c *Coordinator) WaitFor(seq uint64) {
	if seq == 0 {
		return
	}
	c.Wake()

	c.mu.Lock()
	for c.accounted < seq {
		c.cond.Wait()
	}
	c.mu.Unlock()
}

// MarkAccounted는 seq까지의 이벤트가 전부 terminal 상태가 되었음을
// 기록하고 flush 대기자를 깨운다. worker 자신과 Scrub 경로가 쓴다.
func (c *Coordinator) MarkAccounted(seq uint64) {
	c.mu.Lock()
	if seq > c.accounted {
		c.accounted = seq
		c.cond.Broadcast()
	}
	c.mu.Unlock()
}

// deliverLoop는 큐에서 배치를 꺼내 전송한다.
// 큐가 비어 있으면 FlushInterval 타이머 또는 wake 신호까지 대기한다
// (idle busy-wait 방지).
func (c *Coordinator) deliverLoop() {
	defer c.wg.Done()

	timer := time.NewTimer(c.cfg.FlushInterval)
	defer timer.Stop()

	reset := func() {
		// 타이머가 이미 만료된 상태면 drain
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(c.cfg.FlushInterval)
	}

	for {
		batch := c.queue.DrainBatch(c.cfg.BatchSize)
		if len(batch) > 0 {
			c.deliver(batch)
			continue
		}

		select {
		case <-c.ctx.Done():
			// 종료 시 남아있는 배치도 전송 시도 후 종료
			for {
				batch := c.queue.DrainBatch(c.cfg.BatchSize)
				if len(batch) == 0 {
					c.cfg.Logger.Info().Msg("delivery worker exiting")
					return
				}
				c.deliver(batch)
			}

		case <-c.wake:
			reset()

		case <-timer.C:
			reset()
		}
	}
}

// deliver는 drain 된 배치를 body 크기 상한 기준으로 쪼개 순서대로
// 전송한다. 조각 단위로 terminal 처리되므로 FIFO가 유지된다.
func (c *Coordinator) deliver(batch []queue.Item) {
	for _, chunk := range SplitBatch(batch, c.cfg.MaxBatchBytes) {
		c.deliverChunk(chunk)
	}
}

// deliverChunk는 하나의 조각(=outbound 요청 1건 분량)을 처리한다.
//  1. 배치 envelope 인코딩 (+gzip)
//  2. 전송 (bounded retry)
//  3. terminal 결과 통지 + metrics 갱신
//  4. 완료 카운팅 전진 — 성공이든 실패든 반드시 전진해야
//     Flush(wait) 대기자가 깨어난다
func (c *Coordinator) deliverChunk(items []queue.Item) {
	last := items[len(items)-1].Seq

	body, err := c.encoder.EncodeBatch(items)
	if err != nil {
		// 인코딩 실패는 매우 드문 경우 — 배치 전체를 Failed 처리
		c.cfg.Logger.Error().Err(err).Int("events", len(items)).Msg("batch encode failed")
		c.fail(items, err)
		c.MarkAccounted(last)
		return
	}

	if err := c.sendWithRetry(body); err != nil {
		c.fail(items, err)
	} else {
		atomic.AddInt64(&c.cfg.Metrics.BatchesSentTotal, 1)
		atomic.AddInt64(&c.cfg.Metrics.EventsDeliveredTotal, int64(len(items)))
		if c.cfg.OnDelivered != nil {
			c.cfg.OnDelivered(items)
		}
	}

	c.MarkAccounted(last)
}

// sendWithRetry는 body를 최대 MaxRetries회 전송 시도한다.
// 시도 간 대기는 RetryInterval에서 시작해 2배씩 늘고
// MaxRetryInterval에서 머문다. 종료 요청이 들어오면 남은 재시도를
// 포기하고 마지막 에러를 반환한다 (시도 1회는 보장).
func (c *Coordinator) sendWithRetry(body []byte) error {
	var lastErr error
	backoff := c.cfg.RetryInterval

	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		err := c.cfg.Send(body)
		if err == nil {
			return nil
		}
		lastErr = err
		atomic.AddInt64(&c.cfg.Metrics.SendErrorsTotal, 1)
		c.cfg.Logger.Warn().Err(err).
			Int("attempt", attempt).
			Int("max", c.cfg.MaxRetries).
			Msg("batch send failed")

		if attempt == c.cfg.MaxRetries {
			break
		}

		// backoff 적용 (shutdown-safe)
		select {
		case <-c.ctx.Done():
			return lastErr
		case <-time.After(backoff):
			backoff *= 2
			if backoff > c.cfg.MaxRetryInterval {
				backoff = c.cfg.MaxRetryInterval
			}
		}
	}

	return lastErr
}

// fail은 재시도 예산이 소진된 배치를 drop 하고 보고한다.
// 엔진은 미전송 이벤트를 디스크 등에 남기지 않는다 — drop and report.
func (c *Coordinator) fail(items []queue.Item, err error) {
	atomic.AddInt64(&c.cfg.Metrics.EventsFailedTotal, int64(len(items)))
	c.cfg.Logger.Error().Err(err).
		Int("events", len(items)).
		Msg("batch dropped after retries")
	if c.cfg.OnFailed != nil {
		c.cfg.OnFailed(items, err)
	}
}
