package metrics

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Metrics 는 client 상태를 나타내는 카운터 모음이다.
// 전 필드 atomic 접근 전제. Prometheus 용이 아니라 운영자가
// 장애 원인을 분석할 때 보는 단순 누적 지표다.
type Metrics struct {
	// ======================
	// Enqueue 레벨 지표
	// ======================

	// EventsEnqueuedTotal
	// - 검증을 통과하고 전송 큐에 실제로 들어간 이벤트 수.
	EventsEnqueuedTotal int64

	// EventsDroppedQueueFullTotal
	// - 큐가 가득 차서 즉시 ErrQueueFull로 거절된 이벤트 수.
	// - fail-fast backpressure가 실제로 몇 번 동작했는지 보여준다.
	//   이 값이 지속적으로 증가하면 전송(네트워크) 단계가 느려져서
	//   큐가 자주 막히고 있다는 신호.
	EventsDroppedQueueFullTotal int64

	// EventsScrubbedTotal
	// - Scrub 호출로 전송 없이 버려진 이벤트 수.
	EventsScrubbedTotal int64

	// ======================
	// 전송 레벨 지표
	// ======================

	// BatchesSentTotal
	// - 2xx로 완료된 outbound 요청(배치) 수.
	BatchesSentTotal int64

	// SendErrorsTotal
	// - 전송 "시도(attempt)" 실패 횟수. 재시도가 있으면 한 배치에서도
	//   여러 번 증가할 수 있다. 예: 3회 시도 모두 실패 → +3.
	SendErrorsTotal int64

	// EventsDeliveredTotal
	// - 최종적으로 Delivered 처리된 이벤트 수 (배치 수가 아니라 이벤트 수).
	EventsDeliveredTotal int64

	// EventsFailedTotal
	// - 재시도 예산 소진 후 Failed로 drop 된 이벤트 수.
	// - 0이 아니라는 것은 데이터를 실제로 잃었다는 뜻이므로,
	//   Callback/로그와 함께 원인을 확인해야 한다.
	EventsFailedTotal int64
}

func New() *Metrics {
	return &Metrics{}
}

func (m *Metrics) String() string {
	var sb strings.Builder
	sb.Grow(256)

	fmt.Fprintf(&sb, "events_enqueued_total=%d\n", atomic.LoadInt64(&m.EventsEnqueuedTotal))
	fmt.Fprintf(&sb, "events_dropped_queue_full_total=%d\n", atomic.LoadInt64(&m.EventsDroppedQueueFullTotal))
	fmt.Fprintf(&sb, "events_scrubbed_total=%d\n", atomic.LoadInt64(&m.EventsScrubbedTotal))

	fmt.Fprintf(&sb, "batches_sent_total=%d\n", atomic.LoadInt64(&m.BatchesSentTotal))
	fmt.Fprintf(&sb, "send_errors_total=%d\n", atomic.LoadInt64(&m.SendErrorsTotal))

	fmt.Fprintf(&sb, "events_delivered_total=%d\n", atomic.LoadInt64(&m.EventsDeliveredTotal))
	fmt.Fprintf(&sb, "events_failed_total=%d\n", atomic.LoadInt64(&m.EventsFailedTotal))

	return sb.String()
}
