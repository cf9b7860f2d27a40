// internal/logger/log.go
package logger

import (
	"io"
	"os"
	"strings"

	"estat-analytics/internal/config"

	stdlog "log"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// Init
//
// 바이너리 시작 시 한 번만 호출되는 로거 초기화 함수입니다.
// Config 설정(환경변수)에 따라 '개발자용 화면' 또는 '운영용 시스템 로그'로
// 자동으로 형태를 바꾸어 설정합니다.
//
// 라이브러리(Client)는 전역 로거를 건드리지 않고 Config.Logger로 주입받은
// 로거만 씁니다 — 이 함수는 binaries 전용입니다.
//
// [주요 기능]
//
//  1. 로그 포맷 자동 전환:
//     - 개발 환경 (LOG_PRETTY=true): 알록달록한 텍스트로 출력 (가독성 위주)
//     - 운영 환경 (LOG_PRETTY=false): JSON 포맷으로 출력 (검색/분석 위주)
//
//  2. 공통 필드 자동 추가:
//     - 모든 로그에 "service", "instance" 정보가 자동으로 붙습니다.
//
//  3. 로그 샘플링 (비용 절감):
//     - Debug/Info 레벨은 설정에 따라 일부만 기록하고 버립니다.
//     - Warn/Error(장애 상황)는 절대 버리지 않고 100% 기록합니다.
func Init(cfg config.Config) zerolog.Logger {

	// 1) 로그 레벨 결정 (최소 출력 기준)
	level := zerolog.InfoLevel
	if l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.LogLevel))); err == nil {
		level = l
	}

	zerolog.SetGlobalLevel(level)

	// 2) 출력 방식 결정 (사람 vs 기계)
	var w io.Writer

	if cfg.LogPretty {
		// [Local 개발 환경] 색상/정렬 적용, 날짜 없이 시간만
		w = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		}
	} else {
		// [Prod 운영 환경] 표준 JSON을 그대로 os.Stdout으로
		w = os.Stdout
	}

	// 3) 기본 Logger 생성 (공통 태그 부착)
	base := zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Str("instance", cfg.InstanceID).
		Logger()

	// 4) 샘플링 설정 (로그 홍수 방지)
	// 중요도가 낮은 로그는 N개 중 1개만 남기고 나머지는 버립니다.
	logger := base

	if cfg.LogSampleN > 1 {
		logger = base.Sample(&zerolog.LevelSampler{
			DebugSampler: &zerolog.BasicSampler{N: cfg.LogSampleN},
			InfoSampler:  &zerolog.BasicSampler{N: cfg.LogSampleN},

			// Warn/Error: 샘플링하지 않음 (nil).
		})
	}

	// 5) 전역 Logger 교체
	zlog.Logger = logger

	// Go 기본 라이브러리(log.Println 등)도 zerolog 설정을 따르도록 연결
	stdlog.SetFlags(0)
	stdlog.SetOutput(zlog.Logger)

	return logger
}
