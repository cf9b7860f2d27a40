// callback.go
package analytics

import (
	json "github.com/goccy/go-json"
)

// SerializedEvent는 큐를 통과하는 불변 payload + 종류 태그다.
// Event 객체 자체는 큐 경계를 넘지 않고, 이 형태만 worker로 전달된다.
type SerializedEvent struct {
	Type    string
	Payload json.RawMessage
}

// Callback
// ------------------------------------------------------------
// 전송 결과를 애플리케이션에 알리는 observable 실패/성공 채널.
//
//   - Success: 배치 전송이 2xx로 끝난 이벤트마다 1회 호출
//   - Failure: 재시도 예산 소진 후 drop 된 이벤트마다 1회 호출
//
// 두 메서드 모두 worker goroutine에서 호출되므로 빨리 반환해야 한다.
// 콜백 내부 panic은 엔진이 격리한다 — 사용자 코드가 전송 루프를
// 죽이는 일은 없다.
type Callback interface {
	Success(ev SerializedEvent)
	Failure(ev SerializedEvent, err error)
}
