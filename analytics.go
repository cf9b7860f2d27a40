// Package analytics는 typed analytics 이벤트(identify, track, page,
// screen, group, alias)를 받아 canonical JSON으로 직렬화하고, 백그라운드
// 워커가 배치로 묶어 수집 endpoint에 HTTP POST로 전달하는 client
// 라이브러리다.
//
// 이벤트 제출(동기, 임의의 goroutine)과 전송(네트워크 I/O, 실패/지연
// 가능)은 bounded FIFO 큐로 분리된다. 종료 전에는 Flush(true) 또는
// Close()로 "호출 이전에 enqueue 된 이벤트 전부가 Delivered 또는
// Failed로 확정"되는 것을 블록해서 보장받을 수 있다.
package analytics

import (
	"encoding/base64"
	"fmt"
	"sync"
	"sync/atomic"

	"estat-analytics/internal/metrics"
	"estat-analytics/internal/queue"
	"estat-analytics/internal/worker"

	"github.com/rs/zerolog"
)

// Version은 User-Agent 헤더에 들어가는 라이브러리 버전이다.
const Version = "1.0.0"

// Client는 수집 서버와 통신하는 핸들이다.
// 모든 메서드는 여러 goroutine에서 동시에 호출해도 안전하다.
type Client struct {
	cfg      Config
	writeKey string
	authz    string // "Basic ..." 미리 계산해 둔 인증 헤더 값

	// Handler 참조는 read-lock으로 공유되고 교체는 write-lock에서 일어난다.
	// 전송 시도는 시작 시점에 스냅샷을 떠서 쓰므로, 교체는 이후 배치부터
	// 적용된다 (in-flight 배치에는 영향 없음).
	hmu     sync.RWMutex
	handler Handler

	queue   *queue.Queue
	coord   *worker.Coordinator
	metrics *metrics.Metrics
	log     zerolog.Logger

	closed    atomic.Bool
	closeOnce sync.Once
}

// New는 기본 설정으로 Client를 만든다. writeKey만 필수다.
func New(writeKey string) (*Client, error) {
	return NewWithConfig(writeKey, Config{})
}

// NewWithConfig는 Config를 적용해 Client를 만들고 백그라운드 전송
// 워커를 시작한다. 다 쓴 Client는 반드시 Close 해야 버퍼에 남은
// 이벤트를 잃지 않는다.
func NewWithConfig(writeKey string, cfg Config) (*Client, error) {
	if writeKey == "" {
		return nil, fmt.Errorf("analytics: write key required")
	}
	cfg = cfg.withDefaults()

	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}

	c := &Client{
		cfg:      cfg,
		writeKey: writeKey,
		authz:    "Basic " + base64.StdEncoding.EncodeToString([]byte(writeKey)),
		handler:  cfg.Handler,
		queue:    queue.New(cfg.QueueSize),
		metrics:  metrics.New(),
		log:      log,
	}

	c.coord = worker.New(worker.Config{
		BatchSize:        cfg.FlushCount,
		FlushInterval:    cfg.FlushInterval,
		MaxRetries:       cfg.MaxRetries,
		RetryInterval:    cfg.RetryInterval,
		MaxRetryInterval: cfg.MaxRetryInterval,
		MaxBatchBytes:    cfg.MaxBatchBytes,
		Compress:         cfg.CompressBody,
		Logger:           log,
		Metrics:          c.metrics,
		Send:             c.send,
		OnDelivered:      c.notifyDelivered,
		OnFailed:         c.notifyFailed,
	}, c.queue)
	c.coord.Start()

	return c, nil
}

// ---------------------------------------------------------------------
// 이벤트 제출 API
//
// 여섯 종류 전부 하나의 내부 경로(Enqueue)로 합류한다 — 검증과
// 큐잉 동작이 종류와 무관하게 동일하도록.
// ---------------------------------------------------------------------

// Track은 사용자 행동 이벤트를 제출한다.
func (c *Client) Track(userID, event string, properties map[string]string) error {
	return c.Enqueue(NewTrackEvent(event, userID, properties))
}

// Identify는 사용자 식별 이벤트를 제출한다.
func (c *Client) Identify(userID string, traits map[string]string) error {
	return c.Enqueue(NewIdentifyEvent(userID, traits))
}

// Page는 페이지 조회 이벤트를 제출한다.
func (c *Client) Page(name, userID string, properties map[string]string) error {
	return c.Enqueue(NewPageEvent(name, userID, properties))
}

// Screen은 화면 조회 이벤트를 제출한다.
func (c *Client) Screen(name, userID string, properties map[string]string) error {
	return c.Enqueue(NewScreenEvent(name, userID, properties))
}

// Group은 사용자-그룹 연결 이벤트를 제출한다.
func (c *Client) Group(groupID string, traits map[string]string) error {
	return c.Enqueue(NewGroupEvent(groupID, traits))
}

// Alias는 식별자 병합 이벤트를 제출한다.
func (c *Client) Alias(previousID, userID string) error {
	return c.Enqueue(NewAliasEvent(previousID, userID))
}

// Enqueue는 이벤트를 검증·직렬화해 전송 큐에 넣는다.
// AnonymousID 등 생성자 외 필드를 직접 만진 Event도 이 경로로 제출한다.
//
// 반환 에러:
//   - *ValidationError: 필수 필드 누락. 이벤트는 큐에 들어가지 않음
//   - ErrQueueFull: 큐 용량 초과(backpressure). drop 여부는 호출자 결정
//   - ErrClosed: Close 이후 제출
func (c *Client) Enqueue(e Event) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if err := e.Validate(); err != nil {
		return err
	}

	payload, err := e.Serialize()
	if err != nil {
		// string map만 담는 이벤트에서는 사실상 도달 불가
		return fmt.Errorf("analytics: serialize %s event: %w", e.Type(), err)
	}

	if _, ok := c.queue.Enqueue(e.Type(), payload); !ok {
		atomic.AddInt64(&c.metrics.EventsDroppedQueueFullTotal, 1)
		c.log.Debug().Str("type", e.Type()).Msg("event dropped: queue full")
		return ErrQueueFull
	}

	atomic.AddInt64(&c.metrics.EventsEnqueuedTotal, 1)
	return nil
}

// ---------------------------------------------------------------------
// Flush / Scrub / Close
// ---------------------------------------------------------------------

// Flush는 전송을 촉진한다.
//
// wait=false면 다음 drain 사이클을 즉시 돌려 달라는 힌트만 보내고
// 바로 반환한다. wait=true면 이 호출 "이전에" enqueue 된 모든 이벤트가
// Delivered 또는 Failed로 확정될 때까지 블록한다 — 동시에 enqueue 되는
// 이벤트의 포함 여부는 보장하지 않는다. 실패한 이벤트의 에러가
// 여기서 다시 던져지지는 않는다 (Callback으로만 보고).
func (c *Client) Flush(wait bool) {
	if !wait {
		c.coord.Wake()
		return
	}
	c.coord.WaitFor(c.queue.LastSeq())
}

// Scrub은 대기 중인 이벤트를 전송 없이 전부 버린다.
// 즉시 종료가 필요할 때 Close 전에 호출한다. 당연히 이벤트 유실로
// 이어지므로 주의해서 사용할 것.
func (c *Client) Scrub() {
	n, lastSeq := c.queue.Scrub()
	if n > 0 {
		atomic.AddInt64(&c.metrics.EventsScrubbedTotal, int64(n))
		c.log.Info().Int("events", n).Msg("queue scrubbed")
		c.coord.MarkAccounted(lastSeq)
	}
}

// Close는 남은 이벤트를 flush 하고 전송 워커를 종료한다.
// 이후의 제출은 ErrClosed로 거절된다. 여러 번 호출해도 안전하다.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.coord.WaitFor(c.queue.LastSeq())
		c.coord.Shutdown()
	})
	return nil
}

// ---------------------------------------------------------------------
// Handler (전송 계층)
// ---------------------------------------------------------------------

// SetHandler는 전송 구현체를 교체한다. 교체 시점 이후에 시작되는
// 전송 시도부터 새 Handler가 쓰인다.
func (c *Client) SetHandler(h Handler) {
	if h == nil {
		h = DiscardHandler{}
	}
	c.hmu.Lock()
	c.handler = h
	c.hmu.Unlock()
}

// Handler는 현재 설정된 전송 구현체를 반환한다.
func (c *Client) Handler() Handler {
	c.hmu.RLock()
	defer c.hmu.RUnlock()
	return c.handler
}

// send는 배치 body 1건의 전송 시도 1회를 수행한다 (worker가 호출).
// Handler 스냅샷은 시도 시작 시점에 뜬다.
func (c *Client) send(body []byte) error {
	req := HttpRequest{
		Method: "POST",
		URL:    c.cfg.Host + "/v1/batch",
		Headers: map[string]string{
			"User-Agent":    "estat-analytics-go/" + Version,
			"Authorization": c.authz,
			"Content-Type":  "application/json",
			"Accept":        "application/json",
		},
		Body: body,
	}
	if c.cfg.CompressBody {
		req.Headers["Content-Encoding"] = "gzip"
	}

	resp := c.Handler().Handle(req)
	if resp.Code >= 200 && resp.Code < 300 {
		return nil
	}
	return &HTTPError{Code: resp.Code, Message: resp.Message}
}

// ---------------------------------------------------------------------
// 결과 통지 / 지표
// ---------------------------------------------------------------------

func (c *Client) notifyDelivered(items []queue.Item) {
	cb := c.cfg.Callback
	if cb == nil {
		return
	}
	for _, it := range items {
		safeCallback(c.log, func() {
			cb.Success(SerializedEvent{Type: it.Type, Payload: it.Payload})
		})
	}
}

func (c *Client) notifyFailed(items []queue.Item, err error) {
	cb := c.cfg.Callback
	if cb == nil {
		return
	}
	for _, it := range items {
		safeCallback(c.log, func() {
			cb.Failure(SerializedEvent{Type: it.Type, Payload: it.Payload}, err)
		})
	}
}

// safeCallback은 사용자 콜백의 panic을 격리한다.
// 콜백이 죽어도 전송 워커는 계속 돌아야 한다.
func safeCallback(log zerolog.Logger, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("callback panicked")
		}
	}()
	fn()
}

// Stats는 누적 지표의 스냅샷이다.
type Stats struct {
	EventsEnqueued  int64
	EventsDropped   int64 // 큐 full로 거절
	EventsScrubbed  int64
	BatchesSent     int64
	SendErrors      int64 // 전송 시도 실패 (재시도 포함)
	EventsDelivered int64
	EventsFailed    int64
}

// Stats는 현재까지의 누적 지표를 반환한다.
func (c *Client) Stats() Stats {
	return Stats{
		EventsEnqueued:  atomic.LoadInt64(&c.metrics.EventsEnqueuedTotal),
		EventsDropped:   atomic.LoadInt64(&c.metrics.EventsDroppedQueueFullTotal),
		EventsScrubbed:  atomic.LoadInt64(&c.metrics.EventsScrubbedTotal),
		BatchesSent:     atomic.LoadInt64(&c.metrics.BatchesSentTotal),
		SendErrors:      atomic.LoadInt64(&c.metrics.SendErrorsTotal),
		EventsDelivered: atomic.LoadInt64(&c.metrics.EventsDeliveredTotal),
		EventsFailed:    atomic.LoadInt64(&c.metrics.EventsFailedTotal),
	}
}

// MetricsText는 운영 진단용 텍스트 덤프를 반환한다.
func (c *Client) MetricsText() string {
	return c.metrics.String()
}
