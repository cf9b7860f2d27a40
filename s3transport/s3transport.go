// Package s3transport는 배치 body를 수집 서버 대신 S3에 적재하는
// analytics.Handler 구현이다. 수집 endpoint가 아직 없거나, 이벤트를
// 곧바로 data lake(raw zone)로 흘려보내고 싶은 파이프라인에서 쓴다.
//
// 업로드 1회 = Handle 1회이며, 재시도는 전적으로 엔진(delivery 워커)
// 몫이다. SDK 자체 retry와 겹치면 처리 지연이 예측 불가능해지므로
// SDK Retry는 코드에서 0으로 고정한다.
package s3transport

import (
	"bytes"
	"context"
	"fmt"
	"sync/atomic"
	"time"

	analytics "estat-analytics"
	"estat-analytics/internal/timecache"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfgLib "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config는 S3 적재 대상과 동작 파라미터다.
type Config struct {
	Region     string
	Bucket     string
	Prefix     string        // 예: "raw". 파티션 계층은 그 아래에 붙는다
	InstanceID string        // 파일명에 들어가는 프로세스 식별자
	Timeout    time.Duration // PutObject 1회 timeout (기본 5초)
}

// Handler는 analytics.Handler를 구현한다.
type Handler struct {
	cfg    Config
	client *s3.Client
}

// New는 AWS SDK Config를 로드하고 S3 client를 생성한다.
func New(ctx context.Context, cfg Config) (*Handler, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	awsCfg, err := awsCfgLib.LoadDefaultConfig(ctx, awsCfgLib.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("s3transport: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.RetryMaxAttempts = 0
	})

	return &Handler{cfg: cfg, client: client}, nil
}

// Handle은 배치 body를 S3 객체 하나로 저장한다.
// 성공하면 Code 200, 실패하면 Code 0 + 에러 메시지를 반환해
// 엔진의 재시도 정책을 그대로 태운다.
func (h *Handler) Handle(req analytics.HttpRequest) analytics.HttpResponse {
	key := buildKey(h.cfg.Prefix, newFilename(h.cfg.InstanceID, req.Headers["Content-Encoding"] == "gzip"))

	// 1회 시도당 timeout 적용
	ctx, cancel := context.WithTimeout(context.Background(), h.cfg.Timeout)
	defer cancel()

	_, err := h.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(h.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(req.Body),
		ContentLength: aws.Int64(int64(len(req.Body))),
	})
	if err != nil {
		return analytics.HttpResponse{Code: 0, Message: err.Error()}
	}

	return analytics.HttpResponse{Code: 200, Message: "OK"}
}

// 파일명 순번. wrap-around 되어도 timestamp·instance ID 조합으로
// 전체 파일명 충돌 가능성은 사실상 0에 가깝다.
var globalCounter uint64

func nextCounter() uint64 {
	return atomic.AddUint64(&globalCounter, 1) % 1_000_000
}

// newFilename
// ------------------------------------------------------------
// <unix>_<instance>_<counter>.json[.gz] 형태.
// 정렬하면 곧 시간 순 정렬이 되는 deterministic 패턴이다.
func newFilename(instanceID string, gzipped bool) string {
	ext := "json"
	if gzipped {
		ext = "json.gz"
	}
	return fmt.Sprintf("%d_%s_%06d.%s", timecache.Unix(), instanceID, nextCounter(), ext)
}

// buildKey
// ------------------------------------------------------------
// 표준화된 S3 Key 생성기.
//
//	<prefix>/dt=<YYYY-MM-DD>/hr=<HH>/<filename>
//
// Athena / Glue 파티션 스캔 비용을 줄이기 위한 표준적인 구조.
func buildKey(prefix, filename string) string {
	return fmt.Sprintf("%s/dt=%s/hr=%s/%s", prefix, timecache.DT(), timecache.HR(), filename)
}
