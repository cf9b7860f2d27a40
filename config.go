// config.go
package analytics

import (
	"time"

	"github.com/rs/zerolog"
)

// 라이브러리 기본값.
// 배치 크기·재시도 횟수·backoff 스케줄은 운영 환경마다 다르므로
// 전부 Config로 조절 가능하고, 여기 값들은 보수적인 출발점일 뿐이다.
const (
	defaultHost             = "https://collect.estat.io"
	defaultQueueSize        = 1000
	defaultFlushCount       = 250
	defaultFlushInterval    = 5 * time.Second
	defaultMaxRetries       = 3
	defaultRetryInterval    = 200 * time.Millisecond
	defaultMaxRetryInterval = 2 * time.Second
	defaultMaxBatchBytes    = 512 * 1024 // 수집 서버의 단일 POST 상한
	defaultHTTPTimeout      = 10 * time.Second
)

// Config는 Client 동작 파라미터 모음이다.
// zero value로 두면 전부 기본값으로 채워진다.
type Config struct {
	// Host는 수집 endpoint의 base URL. 비우면 기본 수집 서버.
	Host string

	// Handler는 전송 구현체. 비우면 net/http 기반 기본 구현.
	// 런타임 교체는 Client.SetHandler로 한다.
	Handler Handler

	// Callback은 이벤트별 최종 결과(Delivered/Failed) 통지 채널. optional.
	Callback Callback

	// Logger는 엔진 내부 로그 출력용. nil이면 로그를 남기지 않는다.
	// 바이너리 전역 로거 설정은 internal/logger.Init 참고.
	Logger *zerolog.Logger

	// QueueSize는 전송 큐 최대 용량(이벤트 수). 가득 차면 Enqueue가
	// ErrQueueFull을 반환한다 — 네트워크 불능 상태에서 메모리가
	// 무한히 자라는 것을 막는 상한이다.
	QueueSize int

	// FlushCount는 한 번의 outbound 요청으로 묶는 최대 이벤트 수.
	FlushCount int

	// FlushInterval은 큐가 비었을 때 drain 워커가 쉬는 간격이자
	// 시간 기반 flush 주기.
	FlushInterval time.Duration

	// MaxRetries는 배치당 최대 전송 시도 횟수. 소진되면 배치는
	// drop 되고 Callback.Failure로 보고된다.
	MaxRetries int

	// RetryInterval은 첫 재시도 대기 시간. 이후 2배씩 늘고
	// MaxRetryInterval에서 머문다.
	RetryInterval    time.Duration
	MaxRetryInterval time.Duration

	// MaxBatchBytes는 직렬화된 배치 body의 상한. 초과분은 여러 요청으로
	// 분할된다.
	MaxBatchBytes int

	// CompressBody가 true면 배치 body를 gzip으로 압축해 보낸다
	// (Content-Encoding: gzip).
	CompressBody bool

	// HTTPTimeout은 기본 Handler의 요청당 timeout. 커스텀 Handler를
	// 쓰면 무시된다.
	HTTPTimeout time.Duration
}

// withDefaults는 비어 있는 필드를 기본값으로 채운 복사본을 반환한다.
func (c Config) withDefaults() Config {
	if c.Host == "" {
		c.Host = defaultHost
	}
	if c.QueueSize <= 0 {
		c.QueueSize = defaultQueueSize
	}
	if c.FlushCount <= 0 {
		c.FlushCount = defaultFlushCount
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = defaultFlushInterval
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = defaultRetryInterval
	}
	if c.MaxRetryInterval <= 0 {
		c.MaxRetryInterval = defaultMaxRetryInterval
	}
	if c.MaxBatchBytes <= 0 {
		c.MaxBatchBytes = defaultMaxBatchBytes
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = defaultHTTPTimeout
	}
	if c.Handler == nil {
		c.Handler = NewHTTPHandler(c.HTTPTimeout)
	}
	return c
}
