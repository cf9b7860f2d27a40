// errors.go
package analytics

import (
	"errors"
	"fmt"
)

// ErrQueueFull은 전송 큐가 가득 찬 상태에서 enqueue를 시도했을 때
// facade 호출자에게 반환된다 (backpressure 신호).
// 엔진은 이 상황에서 절대 producer를 블록하지 않는다 — drop 여부는
// 호출자가 결정한다.
var ErrQueueFull = errors.New("analytics: delivery queue full")

// ErrClosed는 Close() 이후의 이벤트 제출 시도에 반환된다.
var ErrClosed = errors.New("analytics: client closed")

// ValidationError
// ------------------------------------------------------------
// 필수 필드 누락으로 이벤트가 거절되었음을 나타낸다.
// facade 호출 시점에 동기적으로 반환되며, 해당 이벤트는 큐에
// 들어가지 않는다.
type ValidationError struct {
	Type   string // 이벤트 종류 ("track" 등)
	Field  string // 문제가 된 필드
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("analytics: invalid %s event: %s", e.Type, e.Reason)
}

// HTTPError
// ------------------------------------------------------------
// 전송 1회 시도의 실패를 나타낸다.
//   - Code == 0: transport 레벨 장애 (DNS 실패, connection refused, timeout 등
//     서버에 도달하지 못했거나 유효한 응답을 받지 못한 경우)
//   - Code != 0: 2xx가 아닌 HTTP 응답 (서버의 status/message 보존)
//
// 재시도 정책상 둘은 동일하게 취급되고, 진단을 위해 구분만 유지한다.
type HTTPError struct {
	Code    int
	Message string
}

func (e *HTTPError) Error() string {
	if e.Code == 0 {
		return fmt.Sprintf("analytics: transport fault: %s", e.Message)
	}
	return fmt.Sprintf("analytics: http error %d: %s", e.Code, e.Message)
}
