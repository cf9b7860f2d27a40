// internal/config/config.go
package config

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"os"
	"strconv"
	"time"
)

// Config
//
// 예제 바이너리(cmd/example) 실행 시 필요한 환경 변수 값을 보관하는
// 구조체. 라이브러리 자체는 환경 변수를 읽지 않는다 — credential과
// 튜닝 값을 어디서 가져올지는 embedding 애플리케이션의 몫이고,
// 이 패키지는 그 한 가지 예시일 뿐이다.
// 모든 값은 프로세스 시작 시점에 Load() 에 의해 초기화된다.
type Config struct {

	// ---------------------------
	// 수집 endpoint / 인증
	// ---------------------------

	WriteKey string // 수집 서버 인증용 write key (필수)
	Host     string // 수집 endpoint base URL (비우면 라이브러리 기본값)

	// ---------------------------
	// 서버 식별자
	// ---------------------------

	ServiceName string // 로그 공통 필드 service
	InstanceID  string // 프로세스 고유 ID (호스트명 기반, 실패 시 랜덤 hex)

	// ---------------------------
	// 전송 파라미터
	// ---------------------------

	QueueSize     int           // 전송 큐 용량 (이벤트 수)
	FlushCount    int           // 배치 크기 (N개 모이면 전송)
	FlushInterval time.Duration // 배치 flush 주기 (시간 기반 flush)
	MaxRetries    int           // 배치당 최대 전송 시도 횟수
	CompressBody  bool          // 배치 body gzip 여부

	// ---------------------------
	// 로깅
	// ---------------------------

	LogLevel   string // 최소 출력 레벨 (debug/info/warn/error)
	LogPretty  bool   // true면 ConsoleWriter (개발용), false면 JSON (운영용)
	LogSampleN uint32 // Debug/Info 샘플링 비율 (N개 중 1개 기록, 1 이하면 비활성)
}

// Load
//
// 환경 변수 기반으로 Config 값을 초기화한다.
// WRITE_KEY는 필수이며 비어있으면 즉시 프로세스를 종료(fail-fast).
// 나머지는 기본값이 있는 optional 값들이다.
func Load() Config {
	return Config{
		WriteKey: must("WRITE_KEY"),
		Host:     os.Getenv("COLLECT_HOST"),

		ServiceName: envOr("SERVICE_NAME", "estat-analytics"),
		InstanceID:  fallbackInstanceID(),

		QueueSize:     envOrInt("QUEUE_SIZE", 1000),
		FlushCount:    envOrInt("FLUSH_COUNT", 250),
		FlushInterval: envOrDur("FLUSH_INTERVAL", 5*time.Second),
		MaxRetries:    envOrInt("MAX_RETRIES", 3),
		CompressBody:  envOrBool("COMPRESS_BODY", false),

		LogLevel:   envOr("LOG_LEVEL", "info"),
		LogPretty:  envOrBool("LOG_PRETTY", false),
		LogSampleN: uint32(envOrInt("LOG_SAMPLE_N", 0)),
	}
}

// must / envOr / envOrInt / envOrDur / envOrBool
//
// 공통 패턴.
// 필수 환경변수가 없거나 형식이 잘못되면 즉시 로그 출력 후 종료(fail-fast).
// 런타임 중 설정 오류를 겪지 않도록 하기 위한 보호 전략.
func must(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("missing required env: %s", key)
	}
	return v
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid int env %s=%q: %v", key, v, err)
	}
	return n
}

func envOrDur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("invalid duration env %s=%q: %v", key, v, err)
	}
	return d
}

func envOrBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Fatalf("invalid bool env %s=%q: %v", key, v, err)
	}
	return b
}

// fallbackInstanceID
//
// 이 프로세스를 식별하는 고유 값.
//   - 기본: hostname (컨테이너 환경에서는 task-id 형태로 고유)
//   - fallback: 12자리 랜덤 hex
func fallbackInstanceID() string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	// 랜덤 6바이트 → 12자리 hex
	var b [6]byte
	if _, err := rand.Read(b[:]); err == nil {
		return hex.EncodeToString(b[:])
	}
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}
