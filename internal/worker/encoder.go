package worker

import (
	"bytes"

	"estat-analytics/internal/pool"
	"estat-analytics/internal/queue"
	"estat-analytics/internal/timecache"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
)

// Encoder 는 이벤트 배치를 하나의 outbound body로 직렬화하는 컴포넌트.
// 이벤트 payload는 enqueue 시점에 이미 직렬화되어 있으므로
// (json.RawMessage), 여기서는 재인코딩 없이 배치 envelope에
// 그대로 박아 넣는다.
//
// 특징:
//   - 고성능 goccy/json 기반 JSON 인코딩
//   - gzip.Writer + bytes.Buffer 재사용(pool 기반)
//   - 결과는 최종적으로 새로운 []byte 로 복사해 호출자에게 소유권을 넘김
//     (pool 버퍼를 그대로 반환하면 데이터 corruption 위험)
type Encoder struct {
	compress bool
}

func NewEncoder(compress bool) *Encoder {
	return &Encoder{compress: compress}
}

// batchBody는 수집 서버로 나가는 배치 envelope다.
// 배열 순서 = 큐 순서 그대로 (FIFO pass-through).
type batchBody struct {
	Batch  []json.RawMessage `json:"batch"`
	SentAt string            `json:"sentAt"`
}

// envelopeOverhead는 배치 envelope 자체({"batch":[...],"sentAt":...})가
// 차지하는 바이트의 넉넉한 추정치. SplitBatch의 상한 계산에만 쓴다.
const envelopeOverhead = 64

// EncodeBatch 는 배치를 JSON(+선택적 gzip)으로 직렬화해 반환한다.
//
// 반환값:
// - data: body의 byte slice(호출자 소유)
// - err: 인코딩 과정 중 오류 발생 시 (정상 payload에서는 사실상 없음)
func (e *Encoder) EncodeBatch(items []queue.Item) ([]byte, error) {
	body := batchBody{
		Batch:  make([]json.RawMessage, 0, len(items)),
		SentAt: timecache.SentAt(),
	}
	for _, it := range items {
		body.Batch = append(body.Batch, it.Payload)
	}

	buf := pool.BufferPool.Get().(*bytes.Buffer)
	buf.Reset()

	if e.compress {
		gz := pool.GzipPool.Get().(*gzip.Writer)
		gz.Reset(buf)

		if err := json.NewEncoder(gz).Encode(&body); err != nil {
			_ = gz.Close()
			pool.GzipPool.Put(gz)
			pool.PutBuffer(buf)
			return nil, err
		}
		// Close() 시 gzip 스트림이 완성됨
		if err := gz.Close(); err != nil {
			pool.GzipPool.Put(gz)
			pool.PutBuffer(buf)
			return nil, err
		}
		pool.GzipPool.Put(gz)
	} else {
		if err := json.NewEncoder(buf).Encode(&body); err != nil {
			pool.PutBuffer(buf)
			return nil, err
		}
	}

	// pool 버퍼는 재사용되므로 caller 소유의 새 slice로 복사해 반환
	raw := buf.Bytes()
	data := make([]byte, len(raw))
	copy(data, raw)

	pool.PutBuffer(buf)

	return data, nil
}

// SplitBatch 는 items를 "비압축 JSON 기준" maxBytes 이하의 조각들로
// 쪼갠다. 수집 서버가 단일 POST body 크기를 제한하므로, 상한을
// 넘는 배치는 전송 전에 반드시 분할되어야 한다.
//
// 순서는 그대로 유지된다. payload 하나가 단독으로 상한을 넘는 경우도
// 1개짜리 조각으로 내보낸다 — 거절 여부는 서버 판단에 맡긴다.
func SplitBatch(items []queue.Item, maxBytes int) [][]queue.Item {
	if len(items) == 0 {
		return nil
	}

	var (
		out   [][]queue.Item
		start int
		size  = envelopeOverhead
	)
	for i, it := range items {
		n := len(it.Payload) + 1 // payload + 구분자(,)
		if i > start && size+n > maxBytes {
			out = append(out, items[start:i])
			start = i
			size = envelopeOverhead
		}
		size += n
	}
	out = append(out, items[start:])
	return out
}
