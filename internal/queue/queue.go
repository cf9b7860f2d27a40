// internal/queue/queue.go
package queue

import (
	"sync"

	json "github.com/goccy/go-json"
)

// Item은 큐에 들어가는 직렬화된 이벤트 1건이다.
// Seq는 enqueue 순서대로 부여되는 단조 증가 번호로,
// Flush(wait) 완료 판정("G번까지 delivered-or-failed")의 기준이 된다.
type Item struct {
	Seq     uint64
	Type    string
	Payload json.RawMessage
}

// Queue
// ------------------------------------------------------------
// 여러 producer goroutine과 단일 drain 워커가 공유하는
// bounded FIFO 버퍼. producer-와 worker 사이의 유일한 공유 가변 자원이며,
// 모든 접근은 내부 mutex로 직렬화된다 — Enqueue/DrainBatch는 서로에 대해
// 항상 원자적이다.
//
// 용량 상한은 네트워크가 죽었을 때 메모리가 무한히 자라는 것을 막는다.
// 가득 찬 큐에서 Enqueue는 블록하지 않고 false를 반환한다(backpressure).
type Queue struct {
	mu       sync.Mutex
	items    []Item
	capacity int
	lastSeq  uint64 // 마지막으로 부여한 seq (0 = 아직 없음)
}

// New는 capacity 상한을 갖는 빈 큐를 만든다. capacity는 1 이상이어야 한다.
func New(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{
		items:    make([]Item, 0, capacity),
		capacity: capacity,
	}
}

// Enqueue는 payload를 큐 끝에 넣고 부여된 seq를 반환한다.
// 큐가 가득 차 있으면 (0, false)를 반환하고 아무것도 넣지 않는다.
func (q *Queue) Enqueue(typ string, payload json.RawMessage) (uint64, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) >= q.capacity {
		return 0, false
	}
	q.lastSeq++
	q.items = append(q.items, Item{Seq: q.lastSeq, Type: typ, Payload: payload})
	return q.lastSeq, true
}

// DrainBatch는 가장 오래된 항목부터 최대 max개를 원자적으로 꺼낸다.
// 큐가 비어 있으면 nil. 반환 slice는 새로 할당되므로 락 밖에서
// 자유롭게 써도 된다.
func (q *Queue) DrainBatch(max int) []Item {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 || max <= 0 {
		return nil
	}
	n := max
	if n > len(q.items) {
		n = len(q.items)
	}

	batch := make([]Item, n)
	copy(batch, q.items[:n])

	// 앞쪽 참조가 남지 않도록 당겨서 복사 (GC 대상화)
	remain := copy(q.items, q.items[n:])
	for i := remain; i < len(q.items); i++ {
		q.items[i] = Item{}
	}
	q.items = q.items[:remain]

	return batch
}

// Scrub은 대기 중인 항목을 전부 버리고, 버린 개수와 그중 가장 큰
// seq를 반환한다. flush 대기자가 scrub 된 이벤트를 영원히 기다리지
// 않도록, caller는 반환된 seq를 accounting에 반영해야 한다.
func (q *Queue) Scrub() (n int, lastSeq uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	n = len(q.items)
	if n > 0 {
		lastSeq = q.items[n-1].Seq
	}
	for i := range q.items {
		q.items[i] = Item{}
	}
	q.items = q.items[:0]
	return n, lastSeq
}

// Size는 현재 대기 중인 항목 수를 반환한다.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// IsEmpty는 큐가 비어 있는지 반환한다.
func (q *Queue) IsEmpty() bool {
	return q.Size() == 0
}

// LastSeq는 지금까지 부여된 마지막 seq를 반환한다.
// Flush(wait=true)가 "이 호출 이전에 enqueue 된 것 전부"의 기준으로 쓴다.
func (q *Queue) LastSeq() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lastSeq
}
