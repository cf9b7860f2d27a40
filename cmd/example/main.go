// cmd/example — 라이브러리 사용 예제.
//
//	WRITE_KEY=xxx COLLECT_HOST=http://localhost:8080 LOG_PRETTY=true \
//	  go run ./cmd/example
package main

import (
	"errors"
	"fmt"

	analytics "estat-analytics"
	"estat-analytics/internal/config"
	"estat-analytics/internal/logger"
)

// failureLogger는 재시도 소진 후 drop 된 이벤트를 로그로 흘리는
// Callback 예시다.
type failureLogger struct{}

func (failureLogger) Success(analytics.SerializedEvent) {}

func (failureLogger) Failure(ev analytics.SerializedEvent, err error) {
	fmt.Printf("delivery failed type=%s err=%v payload=%s\n", ev.Type, err, ev.Payload)
}

func main() {
	cfg := config.Load()
	log := logger.Init(cfg)

	client, err := analytics.NewWithConfig(cfg.WriteKey, analytics.Config{
		Host:          cfg.Host,
		Logger:        &log,
		QueueSize:     cfg.QueueSize,
		FlushCount:    cfg.FlushCount,
		FlushInterval: cfg.FlushInterval,
		MaxRetries:    cfg.MaxRetries,
		CompressBody:  cfg.CompressBody,
		Callback:      failureLogger{},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("client init failed")
	}

	submit := func(err error) {
		if err == nil {
			return
		}
		var verr *analytics.ValidationError
		switch {
		case errors.As(err, &verr):
			log.Warn().Str("field", verr.Field).Msg("event rejected")
		case errors.Is(err, analytics.ErrQueueFull):
			log.Warn().Msg("event dropped: backpressure")
		default:
			log.Warn().Err(err).Msg("submit failed")
		}
	}

	submit(client.Identify("user-1", map[string]string{"plan": "free"}))
	submit(client.Track("user-1", "Did Something", map[string]string{"foo": "bar", "qux": "mux"}))
	submit(client.Page("Pricing", "user-1", nil))
	submit(client.Group("org-1", map[string]string{"tier": "startup"}))
	submit(client.Alias("anon-42", "user-1"))

	// 종료 전 blocking flush — 버퍼에 남은 이벤트를 잃지 않는다.
	client.Flush(true)
	fmt.Print(client.MetricsText())

	_ = client.Close()
}
